package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/cart"
	"github.com/five82/tote/internal/checkout"
	"github.com/five82/tote/internal/events"
	"github.com/five82/tote/internal/session"
	"github.com/five82/tote/internal/storage"
	"github.com/five82/tote/internal/wishlist"
)

type recordingPublisher struct {
	signals []events.Signal
}

func (p *recordingPublisher) Publish(sig events.Signal) { p.signals = append(p.signals, sig) }

type harness struct {
	model    Model
	session  *session.Store
	requests *atomic.Int32
	signals  *recordingPublisher
}

// newHarness wires a model against real stores talking to handler.
func newHarness(t *testing.T, handler http.HandlerFunc) *harness {
	t.Helper()
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if handler != nil {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}))
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL+"/api", api.WithTimeout(2*time.Second))
	require.NoError(t, err)
	sess := session.New(storage.NewMemoryStorage())
	require.NoError(t, sess.Resolve(context.Background()))
	cartStore := cart.New(client, sess)
	wish := wishlist.New(client, sess)
	svc, err := checkout.New(client, cartStore, "http://localhost:3000", nil)
	require.NoError(t, err)

	pub := &recordingPublisher{}
	m := New(Options{
		Context:   context.Background(),
		Client:    client,
		Session:   sess,
		Cart:      cartStore,
		Wishlist:  wish,
		Checkout:  svc,
		Signals:   pub,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	h := &harness{model: m, session: sess, requests: &requests, signals: pub}
	h.send(tea.WindowSizeMsg{Width: 100, Height: 30})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) press(k tea.KeyType) tea.Cmd {
	return h.send(tea.KeyMsg{Type: k})
}

func TestModel_ProtectedViewRedirectsAnonymous(t *testing.T) {
	h := newHarness(t, nil)

	h.send(navigateMsg{view: ViewCart})

	assert.Equal(t, ViewLogin, h.model.view)
	assert.Equal(t, ViewLogin, h.model.router.CurrentView())
}

func TestModel_UnknownSessionDoesNotRedirect(t *testing.T) {
	m := New(Options{PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.(Model).Update(navigateMsg{view: ViewOrders})
	m = next.(Model)

	assert.Equal(t, ViewOrders, m.view)
	assert.Contains(t, m.View(), "Restoring session")

	next, _ = m.Update(sessionMsg(session.Snapshot{Status: session.Anonymous}))
	assert.Equal(t, ViewLogin, next.(Model).view, "resolving to anonymous leaves the protected view")
}

func TestModel_LogoutLeavesProtectedView(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.session.Login(ctx, "T1", &session.User{Name: "Mona"}))
	h.send(sessionMsg{})
	h.send(navigateMsg{view: ViewWishlist})
	require.Equal(t, ViewWishlist, h.model.view)
	assert.Contains(t, h.model.View(), "Mona")

	require.NoError(t, h.session.Logout(ctx))
	h.send(sessionMsg{})

	assert.Equal(t, ViewLogin, h.model.view)
}

func TestModel_FocusPublishesVisible(t *testing.T) {
	h := newHarness(t, nil)

	cmd := h.send(tea.FocusMsg{})
	assert.Empty(t, h.signals.signals, "publishing waits for the command")
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())

	require.Len(t, h.signals.signals, 1)
	assert.Equal(t, events.Visible, h.signals.signals[0].Kind)
}

// observedModel reports the session snapshot the model holds after each
// session notification.
type observedModel struct {
	Model
	seen chan session.Snapshot
}

func (o observedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := o.Model.Update(msg)
	o.Model = next.(Model)
	if _, ok := msg.(sessionMsg); ok {
		select {
		case o.seen <- o.Model.sessionSnap:
		default:
		}
	}
	return o, cmd
}

func TestProgram_FocusResyncsDriftedSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st := storage.NewMemoryStorage()
	bus := events.NewBus()
	sess := session.New(st)
	require.NoError(t, sess.Start(ctx, bus))
	defer sess.Close()
	require.Equal(t, session.Anonymous, sess.Snapshot().Status)

	opts := Options{Context: ctx, Session: sess, Signals: bus, PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")}
	observed := observedModel{Model: New(opts), seen: make(chan session.Snapshot, 32)}
	p := tea.NewProgram(observed,
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	defer bridge(p, opts)()

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	// Another process signed in; nothing has announced it yet.
	require.NoError(t, st.Set(ctx, storage.TokenSlot, "T-other"))
	p.Send(tea.FocusMsg{})

	deadline := time.After(2 * time.Second)
	for resynced := false; !resynced; {
		select {
		case snap := <-observed.seen:
			resynced = snap.Token == "T-other" && snap.Authenticated()
		case <-deadline:
			t.Fatal("model never saw the resynced session; event loop blocked")
		}
	}

	p.Quit()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("program did not stop")
	}
}

func TestModel_RendersProducts(t *testing.T) {
	h := newHarness(t, nil)
	h.send(productsMsg{page: &api.Page[api.Product]{
		Data:     []api.Product{{ID: "p1", Title: "Blue Shirt", Price: 250, RatingsAverage: 4}},
		Metadata: &api.Metadata{CurrentPage: 1, NumberOfPages: 3},
	}})

	view := h.model.View()
	assert.Contains(t, view, "Blue Shirt")
	assert.Contains(t, view, "250 EGP")
	assert.Contains(t, view, "page 1/3")
}

func TestModel_EmptyProductsIsNotAnError(t *testing.T) {
	h := newHarness(t, nil)
	h.send(productsMsg{})

	view := h.model.View()
	assert.Contains(t, view, "No products found")
}

func TestModel_NextPageRequestsFollowingPage(t *testing.T) {
	var gotPage atomic.Value
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		gotPage.Store(r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"results":0,"data":[]}`))
	})
	h.send(productsMsg{page: &api.Page[api.Product]{
		Data:     []api.Product{{ID: "p1", Title: "Blue Shirt"}},
		Metadata: &api.Metadata{CurrentPage: 1, NumberOfPages: 2},
	}})

	cmd := h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
	require.NotNil(t, cmd)
	h.send(cmd())

	assert.Equal(t, "2", gotPage.Load())
	assert.Equal(t, 2, h.model.catalog.page)
}

func TestModel_LoginValidatesBeforeSending(t *testing.T) {
	h := newHarness(t, nil)
	h.send(navigateMsg{view: ViewLogin})
	before := h.requests.Load()

	h.typeText("not-an-email")
	h.press(tea.KeyEnter)
	cmd := h.press(tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Equal(t, before, h.requests.Load())
	assert.Equal(t, "Please enter a valid email address", h.model.login.errs.For("email"))
	assert.NotEmpty(t, h.model.login.errs.For("password"))
	assert.Contains(t, h.model.View(), "Please enter a valid email address")
}

func TestModel_LoginSignsIn(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/signin" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"message":"success","user":{"name":"Mona","email":"mona@example.com","role":"user"},"token":"T1"}`))
	})
	h.send(navigateMsg{view: ViewLogin})

	h.typeText("mona@example.com")
	h.press(tea.KeyEnter)
	h.typeText("Secret123")
	cmd := h.press(tea.KeyEnter)
	require.NotNil(t, cmd)
	h.send(cmd())

	assert.Equal(t, ViewHome, h.model.view)
	snap := h.session.Snapshot()
	assert.Equal(t, "T1", snap.Token)
	require.NotNil(t, snap.User)
	assert.Equal(t, "Mona", snap.User.Name)
}

func TestModel_LoginShowsServerMessage(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Incorrect email or password"}`))
	})
	h.send(navigateMsg{view: ViewLogin})

	h.typeText("mona@example.com")
	h.press(tea.KeyEnter)
	h.typeText("wrong")
	cmd := h.press(tea.KeyEnter)
	require.NotNil(t, cmd)
	h.send(cmd())

	assert.Equal(t, ViewLogin, h.model.view)
	assert.Equal(t, "Incorrect email or password", h.model.login.message)
	assert.False(t, h.session.Snapshot().Authenticated())
}

func TestModel_TypingInFormsDoesNotTriggerShortcuts(t *testing.T) {
	h := newHarness(t, nil)
	h.send(navigateMsg{view: ViewLogin})

	h.typeText("e1")

	assert.Equal(t, ViewLogin, h.model.view)
	assert.Equal(t, "e1", h.model.login.value("email"))
}

func TestModel_RendersCartFromSnapshot(t *testing.T) {
	m := New(Options{PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	steps := []tea.Msg{
		tea.WindowSizeMsg{Width: 100, Height: 30},
		sessionMsg(session.Snapshot{Status: session.Authenticated, Token: "T1"}),
		cartMsg(cart.Snapshot{
			ItemsCount: 3,
			Cart: &api.Cart{
				ID:         "c1",
				TotalPrice: 900,
				Products: []api.CartItem{
					{Count: 2, Price: 300, Product: api.ProductRef{ID: "p1", Product: &api.Product{ID: "p1", Title: "Blue Shirt"}}},
					{Count: 1, Price: 300, Product: api.ProductRef{ID: "p2"}},
				},
			},
		}),
		navigateMsg{view: ViewCart},
	}
	for _, msg := range steps {
		next, _ := m.Update(msg)
		m = next.(Model)
	}

	view := m.View()
	assert.Contains(t, view, "Blue Shirt")
	assert.Contains(t, view, "3 items")
	assert.Contains(t, view, "Total 900 EGP")
	assert.Contains(t, view, "Cart (3)")
}

func TestModel_EmptyCartIsNotAnError(t *testing.T) {
	m := New(Options{PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	for _, msg := range []tea.Msg{
		tea.WindowSizeMsg{Width: 100, Height: 30},
		sessionMsg(session.Snapshot{Status: session.Authenticated, Token: "T1"}),
		cartMsg(cart.Snapshot{}),
		navigateMsg{view: ViewCart},
	} {
		next, _ := m.Update(msg)
		m = next.(Model)
	}

	view := m.View()
	assert.Contains(t, view, "Your cart is empty")
	assert.NotContains(t, view, cart.LoadFailedMessage)
}

func TestModel_RendersOrderBadges(t *testing.T) {
	m := New(Options{PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	for _, msg := range []tea.Msg{
		tea.WindowSizeMsg{Width: 100, Height: 30},
		sessionMsg(session.Snapshot{Status: session.Authenticated, Token: "T1"}),
		navigateMsg{view: ViewOrders},
		ordersMsg{orders: []api.Order{{ID: "o1", Number: 7, TotalOrderPrice: 520, IsPaid: true, PaymentMethodType: "card"}}},
	} {
		next, _ := m.Update(msg)
		m = next.(Model)
	}

	view := m.View()
	for _, want := range []string{"#7", "520 EGP", "paid", "pending", "card"} {
		if !strings.Contains(view, want) {
			t.Fatalf("orders view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_HostedPaymentShowsLink(t *testing.T) {
	m := New(Options{PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	for _, msg := range []tea.Msg{
		tea.WindowSizeMsg{Width: 120, Height: 30},
		sessionMsg(session.Snapshot{Status: session.Authenticated, Token: "T1"}),
		navigateMsg{view: ViewCheckout},
		addressesMsg{items: []api.Address{{ID: "a1", Name: "Home", Details: "12 Nile St", City: "Cairo", Phone: "01012345678"}}},
		hostedMsg{url: "https://pay.example.com/s/1", copied: true},
	} {
		next, _ := m.Update(msg)
		m = next.(Model)
	}

	view := m.View()
	assert.Contains(t, view, "12 Nile St")
	assert.Contains(t, view, "https://pay.example.com/s/1")
	assert.Contains(t, view, "Link copied to clipboard")
}

func TestModel_ThemeCycleSavesPrefs(t *testing.T) {
	h := newHarness(t, nil)
	start := h.model.theme.Name

	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'T'}})

	assert.Equal(t, NextTheme(start), h.model.theme.Name)
	assert.Equal(t, h.model.theme.Name, h.model.prefs.Theme)
}

func TestModel_LogsOverlayShowsWarnings(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "tote.log")
	content := strings.Join([]string{
		`time=2026-10-14T10:00:00Z level=INFO msg="tote started"`,
		`time=2026-10-14T10:00:01Z level=WARN msg="api request failed" path=/v2/cart`,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(logFile, []byte(content), 0o600))

	m := New(Options{PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"), LogFile: logFile})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	next, cmd := next.(Model).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'D'}})
	require.NotNil(t, cmd)
	next, _ = next.(Model).Update(cmd())
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "api request failed")
	assert.NotContains(t, view, "tote started")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, next.(Model).showLogs)
}
