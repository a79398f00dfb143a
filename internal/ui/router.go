package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/session"
)

// View names double as the navigator's route identifiers.
const (
	ViewHome     = "/"
	ViewLogin    = api.LoginView
	ViewSignup   = "/signup"
	ViewForgot   = "/forgot-password"
	ViewCart     = "/cart"
	ViewWishlist = "/wishlist"
	ViewOrders   = "/orders"
	ViewCheckout = "/checkout"
)

var protectedViews = map[string]bool{
	ViewCart:     true,
	ViewWishlist: true,
	ViewOrders:   true,
	ViewCheckout: true,
}

var guestViews = map[string]bool{
	ViewLogin:  true,
	ViewSignup: true,
	ViewForgot: true,
}

// resolveView picks the view to show when view is requested under status.
// Nothing is redirected while the session is still Unknown.
func resolveView(view string, status session.Status) string {
	switch {
	case status == session.Unknown:
		return view
	case protectedViews[view] && status != session.Authenticated:
		return ViewLogin
	case guestViews[view] && status == session.Authenticated:
		return ViewHome
	default:
		return view
	}
}

type navigateMsg struct{ view string }

// router is the api.Navigator handed to the auth guard. The guard calls it
// from request goroutines, so navigation is forwarded to the program as a
// message rather than applied to the model directly.
type router struct {
	mu      sync.Mutex
	current string
	send    func(tea.Msg)
}

func newRouter() *router {
	return &router{current: ViewHome}
}

// CurrentView implements api.Navigator.
func (r *router) CurrentView() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate implements api.Navigator.
func (r *router) Navigate(view string) {
	r.mu.Lock()
	r.current = view
	send := r.send
	r.mu.Unlock()
	if send != nil {
		send(navigateMsg{view: view})
	}
}

func (r *router) attach(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	r.mu.Unlock()
}

func (r *router) set(view string) {
	r.mu.Lock()
	r.current = view
	r.mu.Unlock()
}

var _ api.Navigator = (*router)(nil)
