package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/checkout"
)

type checkoutState struct {
	addresses     []api.Address
	selected      int
	loading       bool
	err           error
	busy          bool
	addingAddress bool
	address       form
	hostedURL     string
	copied        bool
	pastingReturn bool
	returnInput   textinput.Model
}

func newCheckoutState() checkoutState {
	return checkoutState{address: newAddressForm()}
}

func newAddressForm() form {
	return newForm("New address",
		fieldSpec{name: "name", label: "Label (Home, Work...)"},
		fieldSpec{name: "details", label: "Street and building"},
		fieldSpec{name: "city", label: "City"},
		fieldSpec{name: "phone", label: "Phone", limit: 11},
	)
}

func (c checkoutState) shipping() (api.ShippingAddress, bool) {
	if len(c.addresses) == 0 {
		return api.ShippingAddress{}, false
	}
	return api.ShippingFrom(c.addresses[clamp(c.selected, len(c.addresses))]), true
}

func (m Model) handleCheckoutKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := &m.pay
	if m.checkout == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		c.selected = clamp(c.selected-1, len(c.addresses))
	case key.Matches(msg, m.keys.Down):
		c.selected = clamp(c.selected+1, len(c.addresses))
	case key.Matches(msg, m.keys.Escape):
		return m.navigate(ViewCart)
	case key.Matches(msg, m.keys.NewAddress):
		c.addingAddress = true
		c.address = newAddressForm()
	case key.Matches(msg, m.keys.PayCash), key.Matches(msg, m.keys.PayOnline):
		if c.busy {
			return m, nil
		}
		ship, ok := c.shipping()
		if !ok {
			m.setFlash("Add a shipping address first")
			m.flashErr = true
			return m, nil
		}
		c.busy = true
		if key.Matches(msg, m.keys.PayCash) {
			return m, payCashCmd(m.ctx, m.checkout, ship)
		}
		return m, startHostedCmd(m.ctx, m.checkout, ship)
	case key.Matches(msg, m.keys.PaidOnline):
		if c.hostedURL != "" {
			return m, returnCmd(m.ctx, m.checkout, checkout.OutcomeSuccess)
		}
	case key.Matches(msg, m.keys.CancelPay):
		if c.hostedURL != "" {
			return m, returnCmd(m.ctx, m.checkout, checkout.OutcomeCancel)
		}
	case key.Matches(msg, m.keys.PasteReturn):
		if c.hostedURL != "" {
			c.pastingReturn = true
			c.returnInput = textinput.New()
			c.returnInput.Prompt = "return URL: "
			c.returnInput.CharLimit = 512
			return m, c.returnInput.Focus()
		}
	}
	return m, nil
}

func (m Model) handleCheckoutInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := &m.pay
	if c.pastingReturn {
		switch msg.Type {
		case tea.KeyEsc:
			c.pastingReturn = false
			return m, nil
		case tea.KeyEnter:
			c.pastingReturn = false
			outcome, err := m.checkout.ParseReturn(c.returnInput.Value())
			if err != nil {
				m.setError(err, "That is not a payment return URL")
				return m, nil
			}
			return m, returnCmd(m.ctx, m.checkout, outcome)
		}
		var cmd tea.Cmd
		c.returnInput, cmd = c.returnInput.Update(msg)
		return m, cmd
	}

	if msg.Type == tea.KeyEsc {
		c.addingAddress = false
		return m, nil
	}
	submit, cmd := c.address.update(msg, m.keys)
	if !submit {
		return m, cmd
	}
	addr := api.Address{
		Name:    c.address.value("name"),
		Details: c.address.value("details"),
		City:    c.address.value("city"),
		Phone:   c.address.value("phone"),
	}
	if !c.address.check(addr) {
		return m, nil
	}
	return m, addAddressCmd(m.ctx, m.client, addr)
}

func (m Model) handleCheckoutMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	c := &m.pay
	switch msg := msg.(type) {
	case addressesMsg:
		c.loading = false
		if msg.err != nil {
			if c.addingAddress {
				c.address.fail(msg.err, "Failed to save address.")
			} else {
				c.err = msg.err
			}
			return m, nil
		}
		if c.addingAddress {
			c.addingAddress = false
			c.address.reset()
			m.setFlash("Address saved")
		}
		c.err = nil
		c.addresses = msg.items
		c.selected = clamp(c.selected, len(c.addresses))
	case orderPlacedMsg:
		c.busy = false
		if msg.err != nil {
			m.setError(msg.err, "Failed to place order.")
			return m, nil
		}
		if msg.order != nil {
			m.setFlash("Order placed " + orderNumber(*msg.order))
		} else {
			m.setFlash("Order placed")
		}
		return m.navigate(ViewOrders)
	case hostedMsg:
		c.busy = false
		if msg.err != nil {
			m.setError(msg.err, "Failed to start online payment.")
			return m, nil
		}
		c.hostedURL = msg.url
		c.copied = msg.copied
	case returnedMsg:
		c.hostedURL = ""
		c.copied = false
		if msg.err != nil {
			m.setError(msg.err, "")
			return m, nil
		}
		if msg.outcome == checkout.OutcomeSuccess {
			m.setFlash("Payment completed")
			return m.navigate(ViewOrders)
		}
		m.setFlash("Payment cancelled")
	}
	return m, nil
}

func (m Model) renderCheckout() string {
	styles := m.theme.Styles()
	c := m.pay
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Checkout"))
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("   %s · %s", plural(m.cartSnap.ItemsCount, "item", "items"), formatPrice(m.cartSnap.Total()))))
	b.WriteString("\n\n")

	if c.addingAddress {
		b.WriteString(c.address.render(styles, m.width))
		return b.String()
	}

	b.WriteString(styles.Text.Bold(true).Render("Ship to"))
	b.WriteString("\n")
	switch {
	case c.loading:
		b.WriteString(styles.MutedText.Render("Loading addresses..."))
		b.WriteString("\n")
	case c.err != nil:
		b.WriteString(styles.DangerText.Render(api.Message(c.err, "Failed to load addresses.")))
		b.WriteString("\n")
	case len(c.addresses) == 0:
		b.WriteString(styles.MutedText.Render("No saved addresses. Press n to add one."))
		b.WriteString("\n")
	default:
		for i, a := range c.addresses {
			line := fmt.Sprintf("%-10s %s, %s · %s", truncate(a.Name, 10), a.Details, a.City, a.Phone)
			if i == c.selected {
				b.WriteString(styles.Selected.Render(line))
			} else {
				b.WriteString(styles.Text.Render(line))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	switch {
	case c.busy:
		b.WriteString(styles.MutedText.Render("Placing order..."))
	case c.hostedURL != "":
		b.WriteString(styles.Text.Render("Complete your payment in a browser:"))
		b.WriteString("\n")
		b.WriteString(styles.InfoText.Render(c.hostedURL))
		b.WriteString("\n")
		if c.copied {
			b.WriteString(styles.SuccessText.Render("Link copied to clipboard"))
			b.WriteString("\n")
		}
		if c.pastingReturn {
			b.WriteString(c.returnInput.View())
			b.WriteString("\n")
		}
		b.WriteString(styles.FaintText.Render("y paid · x cancelled · p paste the page you returned to"))
	default:
		b.WriteString(styles.FaintText.Render("c cash on delivery · o pay online · n new address · esc back to cart"))
	}
	return b.String()
}
