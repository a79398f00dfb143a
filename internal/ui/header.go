package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tote/internal/session"
)

type tab struct {
	key   string
	label string
	view  string
}

var tabs = []tab{
	{"1", "Products", ViewHome},
	{"2", "Cart", ViewCart},
	{"3", "Wishlist", ViewWishlist},
	{"4", "Orders", ViewOrders},
}

// renderHeader renders the logo, view tabs and the account summary.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := m.theme.Surface
	s := styles.WithBackground(bg)

	var left strings.Builder
	left.WriteString(s.Logo.Render("tote"))
	left.WriteString(s.Text.Render("  "))
	for _, t := range tabs {
		label := fmt.Sprintf("%s %s", t.key, t.label)
		switch t.view {
		case ViewCart:
			if n := m.cartSnap.ItemsCount; n > 0 {
				label += fmt.Sprintf(" (%d)", n)
			}
		case ViewWishlist:
			if n := len(m.wishSnap.Items); n > 0 {
				label += fmt.Sprintf(" (%d)", n)
			}
		}
		if m.view == t.view || (t.view == ViewCart && m.view == ViewCheckout) {
			left.WriteString(s.AccentText.Bold(true).Render(label))
		} else {
			left.WriteString(s.MutedText.Render(label))
		}
		left.WriteString(s.Text.Render("  "))
	}

	right := s.MutedText.Render(m.accountLabel())

	gap := m.width - lipgloss.Width(left.String()) - lipgloss.Width(right) - 2
	line := left.String() + s.Text.Render(strings.Repeat(" ", max(1, gap))) + right
	return styles.Header.Width(max(0, m.width)).Render(line)
}

func (m Model) accountLabel() string {
	snap := m.sessionSnap
	switch snap.Status {
	case session.Unknown:
		return "..."
	case session.Anonymous:
		return "guest · L sign in"
	}
	name := "signed in"
	if snap.User != nil {
		switch {
		case snap.User.Name != "":
			name = snap.User.Name
		case snap.User.Email != "":
			name = snap.User.Email
		}
	}
	return name + " · L sign out"
}

// renderFooter renders the last status message and a short key hint.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	s := styles.WithBackground(m.theme.Surface)
	hints := make([]string, 0, 3)
	for _, b := range m.keys.ShortHelp() {
		hints = append(hints, b.Help().Key+" "+strings.ToLower(b.Help().Desc))
	}
	msg := s.FaintText.Render(strings.Join(hints, " · "))
	if m.flash != "" {
		if m.flashErr {
			msg = s.DangerText.Render(m.flash)
		} else {
			msg = s.SuccessText.Render(m.flash)
		}
	}
	return styles.Footer.Width(max(0, m.width)).Render(msg)
}
