package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tote/internal/api"
)

type ordersState struct {
	items    []api.Order
	loading  bool
	err      error
	selected int
	expanded bool
}

func (m Model) handleOrdersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	o := &m.orders
	switch {
	case key.Matches(msg, m.keys.Up):
		o.selected = clamp(o.selected-1, len(o.items))
	case key.Matches(msg, m.keys.Down):
		o.selected = clamp(o.selected+1, len(o.items))
	case key.Matches(msg, m.keys.Confirm):
		o.expanded = !o.expanded
	case key.Matches(msg, m.keys.Escape):
		if o.expanded {
			o.expanded = false
			return m, nil
		}
		return m.navigate(ViewHome)
	}
	return m, nil
}

func orderNumber(o api.Order) string {
	if o.Number > 0 {
		return fmt.Sprintf("#%d", o.Number)
	}
	return "#" + truncate(o.ID, 8)
}

func (m Model) renderOrders() string {
	styles := m.theme.Styles()
	o := m.orders
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Orders"))
	b.WriteString("\n\n")

	switch {
	case o.loading && len(o.items) == 0:
		b.WriteString(styles.MutedText.Render("Loading orders..."))
		return b.String()
	case o.err != nil:
		b.WriteString(styles.DangerText.Render(api.Message(o.err, "Failed to load orders.")))
		return b.String()
	case len(o.items) == 0:
		b.WriteString(styles.MutedText.Render("No orders yet"))
		return b.String()
	}

	for i, order := range o.items {
		date := ""
		if !order.CreatedAt.IsZero() {
			date = order.CreatedAt.Local().Format("2006-01-02")
		}
		line := fmt.Sprintf("%-8s %-10s %12s  ", orderNumber(order), date, formatPrice(order.TotalOrderPrice))
		if i == o.selected {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		paid := ternary(order.IsPaid, "paid", "unpaid")
		delivered := ternary(order.IsDelivered, "delivered", "pending")
		b.WriteString(styles.StatusStyle(paid).Render(paid))
		b.WriteString(" ")
		b.WriteString(styles.StatusStyle(delivered).Render(delivered))
		if order.PaymentMethodType != "" {
			b.WriteString(" ")
			b.WriteString(styles.StatusStyle(order.PaymentMethodType).Render(order.PaymentMethodType))
		}
		b.WriteString("\n")

		if i == o.selected && o.expanded {
			b.WriteString(m.renderOrderDetail(order))
		}
	}
	return b.String()
}

func (m Model) renderOrderDetail(order api.Order) string {
	styles := m.theme.Styles()
	var b strings.Builder
	for _, item := range order.CartItems {
		title := item.Product.ID
		if item.Product.Product != nil {
			title = item.Product.Product.Title
		}
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("    %s x%d  %s", truncate(title, max(20, m.width-30)), item.Count, formatPrice(item.Price))))
		b.WriteString("\n")
	}
	if s := order.ShippingAddress; s != nil {
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("    ship to %s, %s · %s", s.Details, s.City, s.Phone)))
		b.WriteString("\n")
	}
	return b.String()
}
