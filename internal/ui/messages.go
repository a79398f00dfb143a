package ui

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/cart"
	"github.com/five82/tote/internal/checkout"
	"github.com/five82/tote/internal/session"
	"github.com/five82/tote/internal/wishlist"
)

// Store notifications

type sessionMsg session.Snapshot

type cartMsg cart.Snapshot

type wishlistMsg wishlist.Snapshot

// Fetch results

type productsMsg struct {
	page *api.Page[api.Product]
	err  error
}

type categoriesMsg struct {
	items []api.Category
	err   error
}

type detailMsg struct {
	product *api.Product
	reviews []api.Review
	err     error
}

type reviewMsg struct {
	productID string
	err       error
}

type ordersMsg struct {
	orders []api.Order
	err    error
}

type addressesMsg struct {
	items []api.Address
	err   error
}

// Operation results

type authMsg struct {
	form     string // which form submitted
	signedIn bool
	err      error
}

type forgotStepMsg struct {
	step forgotStep
	err  error
}

type flashMsg struct {
	text string
	err  error
}

type orderPlacedMsg struct {
	order *api.Order
	err   error
}

type hostedMsg struct {
	url    string
	copied bool
	err    error
}

type returnedMsg struct {
	outcome checkout.Outcome
	err     error
}

// Commands

func fetchProductsCmd(ctx context.Context, client *api.Client, q api.ProductQuery) tea.Cmd {
	return func() tea.Msg {
		page, err := client.ListProducts(ctx, q)
		return productsMsg{page: page, err: err}
	}
}

func fetchCategoriesCmd(ctx context.Context, client *api.Client) tea.Cmd {
	return func() tea.Msg {
		items, err := client.ListCategories(ctx)
		return categoriesMsg{items: items, err: err}
	}
}

func fetchDetailCmd(ctx context.Context, client *api.Client, id string) tea.Cmd {
	return func() tea.Msg {
		product, err := client.GetProduct(ctx, id)
		if err != nil {
			return detailMsg{err: err}
		}
		reviews, err := client.ListReviews(ctx, id)
		return detailMsg{product: product, reviews: reviews, err: err}
	}
}

func createReviewCmd(ctx context.Context, client *api.Client, productID string, in api.ReviewInput) tea.Cmd {
	return func() tea.Msg {
		_, err := client.CreateReview(ctx, productID, in)
		return reviewMsg{productID: productID, err: err}
	}
}

func fetchOrdersCmd(ctx context.Context, client *api.Client) tea.Cmd {
	return func() tea.Msg {
		orders, err := client.ListOrders(ctx)
		return ordersMsg{orders: orders, err: err}
	}
}

func fetchAddressesCmd(ctx context.Context, client *api.Client) tea.Cmd {
	return func() tea.Msg {
		items, err := client.ListAddresses(ctx)
		return addressesMsg{items: items, err: err}
	}
}

func addAddressCmd(ctx context.Context, client *api.Client, addr api.Address) tea.Cmd {
	return func() tea.Msg {
		items, err := client.AddAddress(ctx, addr)
		return addressesMsg{items: items, err: err}
	}
}

func signInCmd(ctx context.Context, client *api.Client, sess *session.Store, creds api.Credentials) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SignIn(ctx, creds)
		if err != nil {
			return authMsg{form: ViewLogin, err: err}
		}
		err = sess.Login(ctx, resp.Token, sessionUser(resp.User, creds.Email))
		return authMsg{form: ViewLogin, signedIn: err == nil, err: err}
	}
}

func signUpCmd(ctx context.Context, client *api.Client, sess *session.Store, req api.SignUpRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SignUp(ctx, req)
		if err != nil {
			return authMsg{form: ViewSignup, err: err}
		}
		if resp.Token == "" {
			return authMsg{form: ViewSignup}
		}
		err = sess.Login(ctx, resp.Token, sessionUser(resp.User, req.Email))
		return authMsg{form: ViewSignup, signedIn: err == nil, err: err}
	}
}

func logoutCmd(ctx context.Context, sess *session.Store) tea.Cmd {
	return func() tea.Msg {
		if err := sess.Logout(ctx); err != nil {
			return flashMsg{err: err}
		}
		return flashMsg{text: "Signed out"}
	}
}

// sessionUser converts the API user. Sign-in responses sometimes omit the
// email, so the one typed into the form is used.
func sessionUser(u *api.AuthUser, email string) *session.User {
	if u == nil {
		return &session.User{Email: email}
	}
	out := &session.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Phone: u.Phone}
	if out.Email == "" {
		out.Email = email
	}
	return out
}

func cartActionCmd(ctx context.Context, done string, call func(context.Context) (cart.Snapshot, error)) tea.Cmd {
	return func() tea.Msg {
		if _, err := call(ctx); err != nil {
			return flashMsg{err: err}
		}
		return flashMsg{text: done}
	}
}

func wishlistActionCmd(ctx context.Context, store *wishlist.Store, productID string) tea.Cmd {
	return func() tea.Msg {
		was := store.IsMember(productID)
		if _, err := store.Toggle(ctx, productID); err != nil {
			return flashMsg{err: err}
		}
		return flashMsg{text: ternary(was, "Removed from wishlist", "Added to wishlist")}
	}
}

func payCashCmd(ctx context.Context, svc *checkout.Service, ship api.ShippingAddress) tea.Cmd {
	return func() tea.Msg {
		order, err := svc.PayCash(ctx, "", ship)
		return orderPlacedMsg{order: order, err: err}
	}
}

// startHostedCmd obtains the hosted payment page and puts its address on
// the clipboard so it can be opened in a browser.
func startHostedCmd(ctx context.Context, svc *checkout.Service, ship api.ShippingAddress) tea.Cmd {
	return func() tea.Msg {
		url, err := svc.StartHosted(ctx, "", ship)
		if err != nil {
			return hostedMsg{err: err}
		}
		copied := clipboard.WriteAll(url) == nil
		return hostedMsg{url: url, copied: copied}
	}
}

func returnCmd(ctx context.Context, svc *checkout.Service, outcome checkout.Outcome) tea.Cmd {
	return func() tea.Msg {
		return returnedMsg{outcome: outcome, err: svc.Return(ctx, outcome)}
	}
}
