package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

const helpWidth = 52

type helpSection struct {
	title    string
	bindings []key.Binding
}

// helpSections groups the key map for the overlay. Labels come from the
// bindings so the overlay cannot drift from the keys that are handled.
func (k keyMap) helpSections() []helpSection {
	return []helpSection{
		{"Navigation", []key.Binding{k.ViewHome, k.ViewCart, k.ViewWishlist, k.ViewOrders, k.Up, k.Down, k.Top, k.Bottom, k.PrevPage, k.NextPage, k.Confirm, k.Escape}},
		{"Products", []key.Binding{k.Search, k.CycleCategory, k.CycleSort, k.AddToCart, k.ToggleWishlist, k.WriteReview}},
		{"Cart", []key.Binding{k.Increase, k.Decrease, k.Remove, k.ClearCart, k.Coupon, k.GoCheckout}},
		{"Checkout", []key.Binding{k.NewAddress, k.PayCash, k.PayOnline, k.PaidOnline, k.CancelPay, k.PasteReturn}},
		{"Forms", []key.Binding{k.NextField, k.PrevField, k.SwitchForm}},
		{"General", []key.Binding{k.Account, k.Logs, k.Refresh, k.CycleTheme, k.Help, k.Quit}},
	}
}

// renderHelp draws the shortcut overlay centered on the screen.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	for _, section := range m.keys.helpSections() {
		b.WriteString("\n\n")
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		for _, binding := range section.bindings {
			h := binding.Help()
			b.WriteString("\n")
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(helpWidth).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
