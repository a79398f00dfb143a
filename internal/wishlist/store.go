package wishlist

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

// ErrNotAuthenticated is returned by operations without a session. No
// request is sent.
var ErrNotAuthenticated = errors.New("wishlist: not signed in")

// Messages for views.
const (
	LoadFailedMessage    = "Failed to load wishlist."
	LoginRequiredMessage = "Please login to use your wishlist"
)

// API is the subset of the API client the wishlist needs.
type API interface {
	GetWishlist(ctx context.Context) (*api.WishlistResponse, error)
	AddToWishlist(ctx context.Context, productID string) (*api.WishlistMutation, error)
	RemoveFromWishlist(ctx context.Context, productID string) (*api.WishlistMutation, error)
}

// Session is the read side of the session store.
type Session interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) func()
}

// Snapshot is the observable wishlist state. IDs is derived from Items each
// time Items is replaced.
type Snapshot struct {
	Items   []api.Product
	IDs     map[string]struct{}
	Loading bool
	Err     error
}

// Has reports whether productID is in the snapshot.
func (s Snapshot) Has(productID string) bool {
	_, ok := s.IDs[productID]
	return ok
}

// Message is the text to show for Err, or "".
func (s Snapshot) Message() string {
	if s.Err == nil {
		return ""
	}
	return api.Message(s.Err, LoadFailedMessage)
}

func cloneSnapshot(s Snapshot) Snapshot {
	if s.Items != nil {
		items := make([]api.Product, len(s.Items))
		copy(items, s.Items)
		s.Items = items
	}
	if s.IDs != nil {
		ids := make(map[string]struct{}, len(s.IDs))
		for id := range s.IDs {
			ids[id] = struct{}{}
		}
		s.IDs = ids
	}
	return s
}

func withItems(items []api.Product, loading bool) Snapshot {
	ids := make(map[string]struct{}, len(items))
	for _, p := range items {
		if p.ID != "" {
			ids[p.ID] = struct{}{}
		}
	}
	return Snapshot{Items: items, IDs: ids, Loading: loading}
}

// Store owns the signed-in user's saved products.
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

// WithOrdering selects how overlapping fetches are resolved.
func WithOrdering(o state.Ordering) Option {
	return func(s *Store) { s.seq = state.NewSequencer(o) }
}

// WithSignals makes the store clear itself on events.Invalidated.
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

// New builds an empty wishlist store.
func New(client API, sess Session, opts ...Option) *Store {
	s := &Store{
		api:     client,
		session: sess,
		signals: events.Noop{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		seq:     state.NewSequencer(state.LastResponseWins),
		state:   state.New(withItems(nil, false), cloneSnapshot),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start follows the session the same way the cart does.
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
			s.logger.Warn("wishlist fetch failed", slog.String("error", err.Error()))
		}
	}()
}

func (s *Store) reset() {
	s.state.Update(func(cur Snapshot) (Snapshot, bool) {
		s.seq.Reset()
		s.fetching = 0
		if len(cur.Items) == 0 && !cur.Loading && cur.Err == nil {
			return cur, false
		}
		s.logger.Debug("wishlist cleared")
		return withItems(nil, false), true
	})
}

func (s *Store) authenticated() bool {
	return s.session.Snapshot().Authenticated()
}

// Snapshot returns the current wishlist state.
func (s *Store) Snapshot() Snapshot {
	return s.state.Snapshot()
}

// Subscribe registers fn for wishlist changes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	return s.state.Subscribe(fn)
}

// IsMember reports whether productID is saved. It reads the derived id set
// in place.
func (s *Store) IsMember(productID string) bool {
	var ok bool
	s.state.View(func(snap Snapshot) {
		_, ok = snap.IDs[productID]
	})
	return ok
}

// Fetch replaces the list with the server's. A user who never saved
// anything gets an empty list and no error.
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

	resp, err := s.api.GetWishlist(ctx)

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
			next := withItems(nil, cur.Loading)
			next.Err = err
			return next, true
		}
		var items []api.Product
		if resp != nil {
			items = resp.Data
		}
		return withItems(items, cur.Loading), true
	})
	return snap, err
}

// Add saves productID and then refetches the whole list. A refetch failure
// is recorded in the snapshot, not returned.
func (s *Store) Add(ctx context.Context, productID string) (Snapshot, error) {
	if !s.authenticated() {
		return s.Snapshot(), ErrNotAuthenticated
	}
	if _, err := s.api.AddToWishlist(ctx, productID); err != nil {
		return s.Snapshot(), err
	}
	snap, _ := s.Fetch(ctx)
	return snap, nil
}

// Remove unsaves productID and then refetches the whole list.
func (s *Store) Remove(ctx context.Context, productID string) (Snapshot, error) {
	if !s.authenticated() {
		return s.Snapshot(), ErrNotAuthenticated
	}
	if _, err := s.api.RemoveFromWishlist(ctx, productID); err != nil {
		return s.Snapshot(), err
	}
	snap, _ := s.Fetch(ctx)
	return snap, nil
}

// Toggle adds productID when absent and removes it when present.
func (s *Store) Toggle(ctx context.Context, productID string) (Snapshot, error) {
	if s.IsMember(productID) {
		return s.Remove(ctx, productID)
	}
	return s.Add(ctx, productID)
}
