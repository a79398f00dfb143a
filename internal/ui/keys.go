package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding
	Account    key.Binding
	Logs       key.Binding

	// View switching
	ViewHome     key.Binding
	ViewCart     key.Binding
	ViewWishlist key.Binding
	ViewOrders   key.Binding
	Refresh      key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Confirm  key.Binding

	// Catalog
	Search         key.Binding
	CycleCategory  key.Binding
	CycleSort      key.Binding
	AddToCart      key.Binding
	ToggleWishlist key.Binding
	WriteReview    key.Binding

	// Cart
	Increase   key.Binding
	Decrease   key.Binding
	Remove     key.Binding
	ClearCart  key.Binding
	Coupon     key.Binding
	GoCheckout key.Binding

	// Checkout
	NewAddress  key.Binding
	PayCash     key.Binding
	PayOnline   key.Binding
	PaidOnline  key.Binding
	CancelPay   key.Binding
	PasteReturn key.Binding

	// Forms
	NextField  key.Binding
	PrevField  key.Binding
	SwitchForm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		Account: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Sign in/out"),
		),
		Logs: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Recent warnings"),
		),

		// View switching
		ViewHome: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Products"),
		),
		ViewCart: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Cart"),
		),
		ViewWishlist: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Wishlist"),
		),
		ViewOrders: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Orders"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reload view"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]", "pgdown"),
			key.WithHelp("]", "Next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "pgup"),
			key.WithHelp("[", "Previous page"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open/submit"),
		),

		// Catalog
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search products"),
		),
		CycleCategory: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle category"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Cycle sort"),
		),
		AddToCart: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add to cart"),
		),
		ToggleWishlist: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Toggle wishlist"),
		),
		WriteReview: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Write review"),
		),

		// Cart
		Increase: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Increase quantity"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Decrease quantity"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "Remove item"),
		),
		ClearCart: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Clear cart"),
		),
		Coupon: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Apply coupon"),
		),
		GoCheckout: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Checkout"),
		),

		// Checkout
		NewAddress: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New address"),
		),
		PayCash: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Pay cash on delivery"),
		),
		PayOnline: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Pay online"),
		),
		PaidOnline: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Online payment done"),
		),
		CancelPay: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Online payment cancelled"),
		),
		PasteReturn: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Paste return URL"),
		),

		// Forms
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		SwitchForm: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "Sign up / forgot password"),
		),
	}
}

// ShortHelp returns key bindings for the footer hint.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Account, k.Quit}
}
