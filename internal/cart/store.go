package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/events"
	"github.com/five82/tote/internal/session"
	"github.com/five82/tote/internal/state"
)

var (
	// ErrNotAuthenticated is returned by mutations without a session. No
	// request is sent.
	ErrNotAuthenticated = errors.New("cart: not signed in")
	// ErrInvalidQuantity is returned by SetQuantity for counts below 1. No
	// request is sent.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Messages for views.
const (
	LoadFailedMessage    = "Failed to load cart."
	LoginRequiredMessage = "Please login to add items to cart"
)

// API is the subset of the API client the cart needs.
type API interface {
	GetCart(ctx context.Context) (*api.CartResponse, error)
	AddToCart(ctx context.Context, productID string) (*api.CartResponse, error)
	UpdateCartItem(ctx context.Context, productID string, count int) (*api.CartResponse, error)
	RemoveCartItem(ctx context.Context, productID string) (*api.CartResponse, error)
	ClearCart(ctx context.Context) error
	ApplyCoupon(ctx context.Context, code string) (*api.CartResponse, error)
}

// Session is the read side of the session store.
type Session interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) func()
}

// Snapshot is the observable cart state. ItemsCount is always the server's
// own count from the last applied response.
type Snapshot struct {
	Cart       *api.Cart
	ItemsCount int
	Loading    bool
	Err        error
}

// Empty reports whether the cart has no lines.
func (s Snapshot) Empty() bool {
	return s.Cart == nil || len(s.Cart.Products) == 0
}

// Total is the server-computed price, discounted when a coupon applies.
func (s Snapshot) Total() float64 {
	if s.Cart == nil {
		return 0
	}
	if s.Cart.TotalAfterDiscount != nil {
		return *s.Cart.TotalAfterDiscount
	}
	return s.Cart.TotalPrice
}

// Message is the text to show for Err, or "".
func (s Snapshot) Message() string {
	if s.Err == nil {
		return ""
	}
	return api.Message(s.Err, LoadFailedMessage)
}

func cloneSnapshot(s Snapshot) Snapshot {
	s.Cart = s.Cart.Clone()
	return s
}

// Store owns the signed-in user's cart.
type Store struct {
	api     API
	session Session
	signals events.Channel
	logger  *slog.Logger

	seq   *state.Sequencer
	state *state.Store[Snapshot]
	// fetching counts in-flight fetches; guarded by the state write lock.
	fetching int

	mu      sync.Mutex
	ctx     context.Context
	cancels []func()
	token   string
	wg      sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithOrdering selects how overlapping responses are resolved. The default
// is state.LastResponseWins.
func WithOrdering(o state.Ordering) Option {
	return func(s *Store) { s.seq = state.NewSequencer(o) }
}

// WithSignals makes the store clear itself on events.Invalidated even before
// the session store reacts.
func WithSignals(ch events.Channel) Option {
	return func(s *Store) {
		if ch != nil {
			s.signals = ch
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds an empty cart store.
func New(client API, sess Session, opts ...Option) *Store {
	s := &Store{
		api:     client,
		session: sess,
		signals: events.Noop{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		seq:     state.NewSequencer(state.LastResponseWins),
		state:   state.New(Snapshot{}, cloneSnapshot),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start follows the session: the cart is fetched in the background whenever
// a session begins and emptied the moment it ends.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.cancels = append(s.cancels,
		s.session.Subscribe(s.onSession),
		s.signals.Subscribe(func(sig events.Signal) {
			if sig.Kind == events.Invalidated {
				s.reset()
			}
		}),
	)
	s.mu.Unlock()
	s.onSession(s.session.Snapshot())
}

// Close stops following the session and waits for background fetches.
func (s *Store) Close() {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	s.wg.Wait()
}

func (s *Store) onSession(snap session.Snapshot) {
	if !snap.Authenticated() {
		s.mu.Lock()
		s.token = ""
		s.mu.Unlock()
		if snap.Status != session.Unknown {
			s.reset()
		}
		return
	}

	s.mu.Lock()
	if snap.Token == s.token {
		s.mu.Unlock()
		return
	}
	changed := s.token != ""
	s.token = snap.Token
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	if changed {
		s.reset()
	}
	go func() {
		defer s.wg.Done()
		if _, err := s.Fetch(ctx); err != nil && !errors.Is(err, ErrNotAuthenticated) {
			s.logger.Warn("cart fetch failed", slog.String("error", err.Error()))
		}
	}()
}

// reset empties the cart and starts a new epoch so responses still in
// flight are discarded.
func (s *Store) reset() {
	s.state.Update(func(cur Snapshot) (Snapshot, bool) {
		s.seq.Reset()
		s.fetching = 0
		if cur.Cart == nil && cur.ItemsCount == 0 && !cur.Loading && cur.Err == nil {
			return cur, false
		}
		s.logger.Debug("cart cleared")
		return Snapshot{}, true
	})
}

func (s *Store) authenticated() bool {
	return s.session.Snapshot().Authenticated()
}

// Snapshot returns the current cart state.
func (s *Store) Snapshot() Snapshot {
	return s.state.Snapshot()
}

// Subscribe registers fn for cart changes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	return s.state.Subscribe(fn)
}

// Fetch loads the cart. A user without a cart gets an empty snapshot and no
// error. Other failures empty the cart and record Err.
func (s *Store) Fetch(ctx context.Context) (Snapshot, error) {
	if !s.authenticated() {
		return s.Snapshot(), ErrNotAuthenticated
	}
	ticket := s.seq.Issue()
	s.state.Update(func(cur Snapshot) (Snapshot, bool) {
		if !s.seq.Current(ticket) {
			return cur, false
		}
		s.fetching++
		cur.Loading = true
		cur.Err = nil
		return cur, true
	})

	resp, err := s.api.GetCart(ctx)

	snap := s.state.Update(func(cur Snapshot) (Snapshot, bool) {
		if !s.seq.Current(ticket) {
			return cur, false
		}
		if s.fetching > 0 {
			s.fetching--
		}
		cur.Loading = s.fetching > 0
		if !s.seq.Admit(ticket) {
			return cur, true
		}
		if err != nil {
			return Snapshot{Loading: cur.Loading, Err: err}, true
		}
		return applyResponse(cur, resp), true
	})
	return snap, err
}

// Add puts one unit of productID in the cart and replaces the cart with the
// server's answer.
func (s *Store) Add(ctx context.Context, productID string) (Snapshot, error) {
	if !s.authenticated() {
		return s.Snapshot(), ErrNotAuthenticated
	}
	return s.mutate(ctx, func(ctx context.Context) (*api.CartResponse, error) {
		return s.api.AddToCart(ctx, productID)
	})
}

// SetQuantity sets the quantity of productID. count must be at least 1.
func (s *Store) SetQuantity(ctx context.Context, productID string, count int) (Snapshot, error) {
	if count < 1 {
		return s.Snapshot(), ErrInvalidQuantity
	}
	if !s.authenticated() {
		return s.Snapshot(), ErrNotAuthenticated
	}
	return s.mutate(ctx, func(ctx context.Context) (*api.CartResponse, error) {
		return s.api.UpdateCartItem(ctx, productID, count)
	})
}

// Remove deletes the line for productID. Removing the last line leaves an
// empty cart.
func (s *Store) Remove(ctx context.Context, productID string) (Snapshot, error) {
	if !s.authenticated() {
		return s.Snapshot(), ErrNotAuthenticated
	}
	return s.mutate(ctx, func(ctx context.Context) (*api.CartResponse, error) {
		return s.api.RemoveCartItem(ctx, productID)
	})
}

// ApplyCoupon applies a discount code.
func (s *Store) ApplyCoupon(ctx context.Context, code string) (Snapshot, error) {
	if !s.authenticated() {
		return s.Snapshot(), ErrNotAuthenticated
	}
	return s.mutate(ctx, func(ctx context.Context) (*api.CartResponse, error) {
		return s.api.ApplyCoupon(ctx, code)
	})
}

// Clear deletes the cart on the server and empties it locally.
func (s *Store) Clear(ctx context.Context) (Snapshot, error) {
	if !s.authenticated() {
		return s.Snapshot(), ErrNotAuthenticated
	}
	return s.mutate(ctx, func(ctx context.Context) (*api.CartResponse, error) {
		if err := s.api.ClearCart(ctx); err != nil {
			return nil, err
		}
		return &api.CartResponse{}, nil
	})
}

// mutate runs call and, on success, replaces the cart with its response.
// Failures leave the cart untouched.
func (s *Store) mutate(ctx context.Context, call func(context.Context) (*api.CartResponse, error)) (Snapshot, error) {
	ticket := s.seq.Issue()
	resp, err := call(ctx)
	if err != nil {
		return s.Snapshot(), err
	}
	snap := s.state.Update(func(cur Snapshot) (Snapshot, bool) {
		if !s.seq.Admit(ticket) {
			return cur, false
		}
		return applyResponse(cur, resp), true
	})
	return snap, nil
}

func applyResponse(cur Snapshot, resp *api.CartResponse) Snapshot {
	next := Snapshot{Loading: cur.Loading}
	if resp == nil {
		return next
	}
	next.Cart = resp.Data.Clone()
	next.ItemsCount = resp.NumOfCartItems
	return next
}
