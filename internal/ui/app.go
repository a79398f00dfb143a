package ui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/cart"
	"github.com/five82/tote/internal/checkout"
	"github.com/five82/tote/internal/events"
	"github.com/five82/tote/internal/prefs"
	"github.com/five82/tote/internal/session"
	"github.com/five82/tote/internal/wishlist"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    *api.Client
	Session   *session.Store
	Cart      *cart.Store
	Wishlist  *wishlist.Store
	Checkout  *checkout.Service
	Guard     *api.AuthGuard
	Signals   events.Publisher
	Logger    *slog.Logger
	Prefs     prefs.Prefs
	PrefsPath string
	LogFile   string
}

// Model is the root application state for Bubble Tea. It reads store
// snapshots delivered as messages and only changes store state through
// store operations.
type Model struct {
	// Collaborators
	ctx       context.Context
	client    *api.Client
	sess      *session.Store
	cart      *cart.Store
	wish      *wishlist.Store
	checkout  *checkout.Service
	signals   events.Publisher
	logger    *slog.Logger
	prefs     prefs.Prefs
	prefsPath string
	logFile   string

	// UI state
	keys     keyMap
	router   *router
	theme    Theme
	view     string
	width    int
	height   int
	ready    bool
	showHelp bool
	showLogs bool
	logs     logsState
	flash    string
	flashErr bool

	// Store snapshots
	sessionSnap session.Snapshot
	cartSnap    cart.Snapshot
	wishSnap    wishlist.Snapshot

	// Per-view state
	catalog  catalogState
	login    form
	signup   form
	forgot   forgotState
	cartView cartState
	wishView listState
	orders   ordersState
	pay      checkoutState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	signals := opts.Signals
	if signals == nil {
		signals = events.Noop{}
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs := opts.Prefs
	if userPrefs.PageSize == 0 {
		userPrefs = prefs.Defaults()
	}

	r := newRouter()
	if opts.Guard != nil {
		opts.Guard.SetNavigator(r)
	}

	m := Model{
		ctx:       ctx,
		client:    opts.Client,
		sess:      opts.Session,
		cart:      opts.Cart,
		wish:      opts.Wishlist,
		checkout:  opts.Checkout,
		signals:   signals,
		logger:    logger,
		prefs:     userPrefs,
		prefsPath: prefsPath,
		logFile:   opts.LogFile,
		keys:      DefaultKeyMap(),
		router:    r,
		theme:     GetTheme(userPrefs.Theme),
		view:      ViewHome,
		catalog:   newCatalogState(userPrefs),
		login:     newLoginForm(),
		signup:    newSignupForm(),
		forgot:    newForgotState(),
		pay:       newCheckoutState(),
	}
	if m.sess != nil {
		m.sessionSnap = m.sess.Snapshot()
	}
	if m.cart != nil {
		m.cartSnap = m.cart.Snapshot()
	}
	if m.wish != nil {
		m.wishSnap = m.wish.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.client == nil {
		return nil
	}
	return tea.Batch(
		fetchCategoriesCmd(m.ctx, m.client),
		fetchProductsCmd(m.ctx, m.client, m.catalog.query()),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	// Subscribers resync stores and notify the program from inside Publish,
	// so it must not run on the event loop.
	case tea.FocusMsg:
		signals := m.signals
		return m, func() tea.Msg {
			signals.Publish(events.Signal{Kind: events.Visible, Source: "focus"})
			return nil
		}

	case navigateMsg:
		return m.navigate(msg.view)

	// Notifications from different goroutines can arrive out of order, so
	// the store is reread rather than trusting the payload.
	case sessionMsg:
		snap := session.Snapshot(msg)
		if m.sess != nil {
			snap = m.sess.Snapshot()
		}
		return m.handleSession(snap)

	case cartMsg:
		m.cartSnap = cart.Snapshot(msg)
		if m.cart != nil {
			m.cartSnap = m.cart.Snapshot()
		}
		m.cartView.selected = clamp(m.cartView.selected, m.cartItemCount())
		return m, nil

	case wishlistMsg:
		m.wishSnap = wishlist.Snapshot(msg)
		if m.wish != nil {
			m.wishSnap = m.wish.Snapshot()
		}
		m.wishView.selected = clamp(m.wishView.selected, len(m.wishSnap.Items))
		return m, nil

	case flashMsg:
		if msg.err != nil {
			m.setError(msg.err, "")
		} else {
			m.setFlash(msg.text)
		}
		return m, nil

	case productsMsg, categoriesMsg, detailMsg, reviewMsg:
		return m.handleCatalogMsg(msg)

	case authMsg, forgotStepMsg:
		return m.handleAuthMsg(msg)

	case logLinesMsg:
		m.logs.lines, m.logs.err, m.logs.loading = msg.lines, msg.err, false
		return m, nil

	case ordersMsg:
		m.orders.loading = false
		m.orders.err = msg.err
		if msg.err == nil {
			m.orders.items = msg.orders
		}
		m.orders.selected = clamp(m.orders.selected, len(m.orders.items))
		return m, nil

	case addressesMsg, orderPlacedMsg, hostedMsg, returnedMsg:
		return m.handleCheckoutMsg(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showLogs {
		return m.renderLogs()
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderContent() string {
	if m.sessionSnap.Status == session.Unknown && (protectedViews[m.view] || guestViews[m.view]) {
		return m.theme.Styles().MutedText.Render("Restoring session...")
	}
	switch m.view {
	case ViewLogin:
		return m.renderLogin()
	case ViewSignup:
		return m.renderSignup()
	case ViewForgot:
		return m.renderForgot()
	case ViewCart:
		return m.renderCart()
	case ViewWishlist:
		return m.renderWishlist()
	case ViewOrders:
		return m.renderOrders()
	case ViewCheckout:
		return m.renderCheckout()
	default:
		return m.renderCatalog()
	}
}

// navigate switches to view after applying session-based guarding and
// starts whatever load the view needs.
func (m Model) navigate(view string) (tea.Model, tea.Cmd) {
	target := resolveView(view, m.sessionSnap.Status)
	m.view = target
	m.router.set(target)
	m.showHelp = false
	return m, m.enterView(target)
}

func (m *Model) enterView(view string) tea.Cmd {
	if m.client == nil || !m.sessionSnap.Authenticated() {
		return nil
	}
	switch view {
	case ViewOrders:
		m.orders.loading = true
		return fetchOrdersCmd(m.ctx, m.client)
	case ViewCheckout:
		m.pay.loading = true
		return fetchAddressesCmd(m.ctx, m.client)
	}
	return nil
}

// handleSession re-evaluates the current view each time the session changes,
// so signing out anywhere leaves protected views.
func (m Model) handleSession(snap session.Snapshot) (tea.Model, tea.Cmd) {
	prev := m.sessionSnap
	m.sessionSnap = snap
	if prev.Token != "" && snap.Token == "" {
		m.orders = ordersState{}
		m.pay = newCheckoutState()
	}
	if snap.Authenticated() && guestViews[m.view] {
		m.login = newLoginForm()
		m.signup = newSignupForm()
		m.forgot = newForgotState()
	}
	target := resolveView(m.view, snap.Status)
	if target == m.view && prev.Status == snap.Status {
		return m, nil
	}
	return m.navigate(target)
}

func (m *Model) setFlash(text string) {
	m.flash = text
	m.flashErr = false
}

func (m *Model) setError(err error, fallback string) {
	switch {
	case errors.Is(err, cart.ErrNotAuthenticated):
		m.flash = cart.LoginRequiredMessage
	case errors.Is(err, wishlist.ErrNotAuthenticated):
		m.flash = wishlist.LoginRequiredMessage
	default:
		m.flash = api.Message(err, fallback)
	}
	m.flashErr = true
}

// inputActive reports whether keys belong to a text input.
func (m Model) inputActive() bool {
	switch m.view {
	case ViewLogin, ViewSignup, ViewForgot:
		return true
	case ViewCart:
		return m.cartView.editingCoupon
	case ViewCheckout:
		return m.pay.addingAddress || m.pay.pastingReturn
	case ViewHome:
		return m.catalog.searching || (m.catalog.detail != nil && m.catalog.detail.reviewing)
	}
	return false
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.showLogs {
		return m.handleLogsKey(msg)
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.inputActive() {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Logs):
		if m.logFile == "" {
			return m, nil
		}
		m.showLogs = true
		m.logs = logsState{loading: true}
		return m, readLogsCmd(m.logFile, m.logs.all)
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		if m.prefsPath != "" {
			if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
				m.logger.Warn("save preferences failed", slog.String("error", err.Error()))
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.Account):
		if m.sessionSnap.Authenticated() && m.sess != nil {
			return m, logoutCmd(m.ctx, m.sess)
		}
		return m.navigate(ViewLogin)
	case key.Matches(msg, m.keys.ViewHome):
		m.catalog.detail = nil
		return m.navigate(ViewHome)
	case key.Matches(msg, m.keys.ViewCart):
		return m.navigate(ViewCart)
	case key.Matches(msg, m.keys.ViewWishlist):
		return m.navigate(ViewWishlist)
	case key.Matches(msg, m.keys.ViewOrders):
		return m.navigate(ViewOrders)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	}

	switch m.view {
	case ViewCart:
		return m.handleCartKey(msg)
	case ViewWishlist:
		return m.handleWishlistKey(msg)
	case ViewOrders:
		return m.handleOrdersKey(msg)
	case ViewCheckout:
		return m.handleCheckoutKey(msg)
	default:
		return m.handleCatalogKey(msg)
	}
}

// handleInputKey routes keys while a text input has focus.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewLogin, ViewSignup, ViewForgot:
		return m.handleAuthKey(msg)
	case ViewCart:
		return m.handleCouponKey(msg)
	case ViewCheckout:
		return m.handleCheckoutInputKey(msg)
	default:
		return m.handleCatalogInputKey(msg)
	}
}

// refresh reloads the data behind the current view.
func (m *Model) refresh() tea.Cmd {
	switch m.view {
	case ViewCart:
		if m.cart == nil {
			return nil
		}
		return cartActionCmd(m.ctx, "Cart refreshed", m.cart.Fetch)
	case ViewWishlist:
		if m.wish == nil {
			return nil
		}
		ctx, store := m.ctx, m.wish
		return func() tea.Msg {
			if _, err := store.Fetch(ctx); err != nil {
				return flashMsg{err: err}
			}
			return flashMsg{text: "Wishlist refreshed"}
		}
	case ViewOrders, ViewCheckout:
		return m.enterView(m.view)
	default:
		if m.client == nil {
			return nil
		}
		m.catalog.loading = true
		return fetchProductsCmd(m.ctx, m.client, m.catalog.query())
	}
}

func (m Model) cartItemCount() int {
	if m.cartSnap.Cart == nil {
		return 0
	}
	return len(m.cartSnap.Cart.Products)
}

// bridge forwards store notifications into p and returns a function that
// stops forwarding. Stores may notify on any goroutine, the event loop
// included, so each send gets its own goroutine. The model rereads the store
// on every notification, so delivery order does not matter.
func bridge(p *tea.Program, opts Options) func() {
	send := func(msg tea.Msg) { go p.Send(msg) }

	var cancels []func()
	if opts.Session != nil {
		cancels = append(cancels, opts.Session.Subscribe(func(session.Snapshot) { send(sessionMsg{}) }))
		// Changes made between New and Subscribe would otherwise go unseen.
		send(sessionMsg{})
	}
	if opts.Cart != nil {
		cancels = append(cancels, opts.Cart.Subscribe(func(cart.Snapshot) { send(cartMsg{}) }))
		send(cartMsg{})
	}
	if opts.Wishlist != nil {
		cancels = append(cancels, opts.Wishlist.Subscribe(func(wishlist.Snapshot) { send(wishlistMsg{}) }))
		send(wishlistMsg{})
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// Run starts the Bubble Tea program and bridges store notifications into it.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())
	m.router.attach(p.Send)
	defer bridge(p, opts)()

	if opts.Context != nil {
		go func() {
			<-opts.Context.Done()
			p.Quit()
		}()
	}

	_, err := p.Run()
	return err
}
