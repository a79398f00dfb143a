package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/cart"
)

type cartState struct {
	selected      int
	editingCoupon bool
	coupon        textinput.Model
}

type listState struct {
	selected int
}

func (m Model) selectedCartItem() *api.CartItem {
	if m.cartSnap.Cart == nil || len(m.cartSnap.Cart.Products) == 0 {
		return nil
	}
	item := m.cartSnap.Cart.Products[clamp(m.cartView.selected, len(m.cartSnap.Cart.Products))]
	return &item
}

func cartProductID(item api.CartItem) string {
	if item.Product.Product != nil && item.Product.Product.ID != "" {
		return item.Product.Product.ID
	}
	return item.Product.ID
}

func (m Model) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.cartItemCount()
	store := m.cart
	if store == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cartView.selected = clamp(m.cartView.selected-1, n)
	case key.Matches(msg, m.keys.Down):
		m.cartView.selected = clamp(m.cartView.selected+1, n)
	case key.Matches(msg, m.keys.Top):
		m.cartView.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cartView.selected = clamp(n-1, n)
	case key.Matches(msg, m.keys.Escape):
		return m.navigate(ViewHome)
	case key.Matches(msg, m.keys.Increase), key.Matches(msg, m.keys.Decrease):
		item := m.selectedCartItem()
		if item == nil {
			return m, nil
		}
		count := item.Count + 1
		if key.Matches(msg, m.keys.Decrease) {
			count = item.Count - 1
		}
		if count < 1 {
			m.setFlash("Press d to remove the item")
			return m, nil
		}
		id := cartProductID(*item)
		return m, cartActionCmd(m.ctx, "Quantity updated", func(ctx context.Context) (cart.Snapshot, error) {
			return store.SetQuantity(ctx, id, count)
		})
	case key.Matches(msg, m.keys.Remove):
		item := m.selectedCartItem()
		if item == nil {
			return m, nil
		}
		id := cartProductID(*item)
		return m, cartActionCmd(m.ctx, "Item removed", func(ctx context.Context) (cart.Snapshot, error) {
			return store.Remove(ctx, id)
		})
	case key.Matches(msg, m.keys.ClearCart):
		if m.cartSnap.Empty() {
			return m, nil
		}
		return m, cartActionCmd(m.ctx, "Cart cleared", store.Clear)
	case key.Matches(msg, m.keys.Coupon):
		if m.cartSnap.Empty() {
			return m, nil
		}
		m.cartView.editingCoupon = true
		m.cartView.coupon = textinput.New()
		m.cartView.coupon.Prompt = "coupon: "
		m.cartView.coupon.CharLimit = 32
		return m, m.cartView.coupon.Focus()
	case key.Matches(msg, m.keys.GoCheckout), key.Matches(msg, m.keys.Confirm):
		if m.cartSnap.Empty() {
			m.setFlash("Your cart is empty")
			return m, nil
		}
		return m.navigate(ViewCheckout)
	}
	return m, nil
}

func (m Model) handleCouponKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.cartView.editingCoupon = false
		return m, nil
	case tea.KeyEnter:
		m.cartView.editingCoupon = false
		code := strings.TrimSpace(m.cartView.coupon.Value())
		if code == "" || m.cart == nil {
			return m, nil
		}
		store := m.cart
		return m, cartActionCmd(m.ctx, "Coupon applied", func(ctx context.Context) (cart.Snapshot, error) {
			return store.ApplyCoupon(ctx, code)
		})
	}
	var cmd tea.Cmd
	m.cartView.coupon, cmd = m.cartView.coupon.Update(msg)
	return m, cmd
}

func (m Model) renderCart() string {
	styles := m.theme.Styles()
	snap := m.cartSnap
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Shopping cart"))
	b.WriteString("\n\n")

	switch {
	case snap.Loading && snap.Cart == nil:
		b.WriteString(styles.MutedText.Render("Loading cart..."))
		return b.String()
	case snap.Err != nil:
		b.WriteString(styles.DangerText.Render(snap.Message()))
		return b.String()
	case snap.Empty():
		b.WriteString(styles.MutedText.Render("Your cart is empty"))
		return b.String()
	}

	titleWidth := max(20, m.width-36)
	for i, item := range snap.Cart.Products {
		title := item.Product.ID
		if item.Product.Product != nil {
			title = item.Product.Product.Title
		}
		line := fmt.Sprintf("%s  x%-3d %12s",
			padRight(truncate(title, titleWidth), titleWidth),
			item.Count,
			formatPrice(item.Price*float64(item.Count)),
		)
		if i == m.cartView.selected {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(plural(snap.ItemsCount, "item", "items") + "   "))
	if snap.Cart.TotalAfterDiscount != nil && *snap.Cart.TotalAfterDiscount < snap.Cart.TotalPrice {
		b.WriteString(styles.FaintText.Render(formatPrice(snap.Cart.TotalPrice) + " "))
	}
	b.WriteString(styles.SuccessText.Render("Total " + formatPrice(snap.Total())))
	b.WriteString("\n")
	if m.cartView.editingCoupon {
		b.WriteString("\n")
		b.WriteString(m.cartView.coupon.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("+/- quantity · d remove · C clear · c coupon · o checkout"))
	return b.String()
}

func (m Model) handleWishlistKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.wishSnap.Items
	switch {
	case key.Matches(msg, m.keys.Up):
		m.wishView.selected = clamp(m.wishView.selected-1, len(items))
	case key.Matches(msg, m.keys.Down):
		m.wishView.selected = clamp(m.wishView.selected+1, len(items))
	case key.Matches(msg, m.keys.Escape):
		return m.navigate(ViewHome)
	case key.Matches(msg, m.keys.Remove), key.Matches(msg, m.keys.ToggleWishlist):
		if len(items) == 0 || m.wish == nil {
			return m, nil
		}
		p := items[clamp(m.wishView.selected, len(items))]
		return m, wishlistActionCmd(m.ctx, m.wish, p.ID)
	case key.Matches(msg, m.keys.AddToCart):
		if len(items) == 0 {
			return m, nil
		}
		p := items[clamp(m.wishView.selected, len(items))]
		return m, m.addToCart(&p)
	}
	return m, nil
}

func (m Model) renderWishlist() string {
	styles := m.theme.Styles()
	snap := m.wishSnap
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Wishlist"))
	b.WriteString("\n\n")

	switch {
	case snap.Loading && len(snap.Items) == 0:
		b.WriteString(styles.MutedText.Render("Loading wishlist..."))
		return b.String()
	case snap.Err != nil && len(snap.Items) == 0:
		b.WriteString(styles.DangerText.Render(snap.Message()))
		return b.String()
	case len(snap.Items) == 0:
		b.WriteString(styles.MutedText.Render("Your wishlist is empty"))
		return b.String()
	}

	titleWidth := max(20, m.width-24)
	for i, p := range snap.Items {
		line := fmt.Sprintf("%s %12s", padRight(truncate(p.Title, titleWidth), titleWidth), formatPrice(p.EffectivePrice()))
		if i == m.wishView.selected {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	if msg := snap.Message(); msg != "" {
		b.WriteString(styles.WarningText.Render(msg))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("a add to cart · d remove"))
	return b.String()
}
