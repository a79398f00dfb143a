package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/five82/tote/internal/events"
	"github.com/five82/tote/internal/state"
	"github.com/five82/tote/internal/storage"
)

// Status is the session state machine position.
type Status int

const (
	// Unknown is the state before storage has been read. Consumers must not
	// make routing decisions while Unknown.
	Unknown Status = iota
	// Anonymous means no token is held.
	Anonymous
	// Authenticated means a token is held; User may still be sparse.
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// User is best-effort metadata about the signed-in user.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Snapshot is the observable session state. The token alone decides whether
// the session is authenticated.
type Snapshot struct {
	Status Status
	Token  string
	User   *User
}

// Authenticated reports whether a token is held.
func (s Snapshot) Authenticated() bool {
	return s.Status == Authenticated && s.Token != ""
}

func cloneSnapshot(s Snapshot) Snapshot {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// ErrEmptyToken is returned by Login without a token.
var ErrEmptyToken = errors.New("session token is empty")

// Store owns the session token and user metadata.
type Store struct {
	storage   storage.Storage
	decoder   Decoder
	publisher events.Publisher
	logger    *slog.Logger

	// syncMu serializes storage round trips so a resync cannot interleave
	// with a login or logout.
	syncMu sync.Mutex
	state  *state.Store[Snapshot]

	startMu sync.Mutex
	ctx     context.Context
	cancel  func()
}

// Option configures a Store.
type Option func(*Store)

// WithDecoder sets the claims decoder. The default is NoClaims.
func WithDecoder(d Decoder) Option {
	return func(s *Store) {
		if d != nil {
			s.decoder = d
		}
	}
}

// WithPublisher sets where Logout announces events.Invalidated.
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.publisher = p
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

// New builds an unresolved Store backed by st.
func New(st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage:   st,
		decoder:   NoClaims,
		publisher: events.Noop{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:     state.New(Snapshot{Status: Unknown}, cloneSnapshot),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resolves the session from storage and then follows ch: storage
// changes and the user returning resync from storage, and an invalidation
// drops the session immediately.
func (s *Store) Start(ctx context.Context, ch events.Channel) error {
	if err := s.Resolve(ctx); err != nil {
		return err
	}
	if ch == nil {
		return nil
	}
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx = ctx
	s.cancel = ch.Subscribe(s.handleSignal)
	return nil
}

// Close stops following the signal channel.
func (s *Store) Close() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Store) handleSignal(sig events.Signal) {
	switch sig.Kind {
	case events.Invalidated:
		s.drop("invalidated:" + sig.Source)
	case events.StorageChanged:
		if sig.Slot != "" && !isSessionSlot(sig.Slot) {
			return
		}
		s.resync(sig)
	case events.Visible:
		s.resync(sig)
	}
}

func isSessionSlot(slot string) bool {
	for _, known := range storage.Slots {
		if string(known) == slot {
			return true
		}
	}
	return false
}

func (s *Store) resync(sig events.Signal) {
	s.startMu.Lock()
	ctx := s.ctx
	s.startMu.Unlock()
	if err := s.Resolve(ctx); err != nil {
		s.logger.Warn("session resync failed",
			slog.String("trigger", sig.Kind.String()),
			slog.String("error", err.Error()),
		)
	}
}

// Resolve reads the persisted slots and replaces the in-memory session. A
// token without a readable user blob yields a user built from its claims.
func (s *Store) Resolve(ctx context.Context) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	token, ok, err := s.storage.Get(ctx, storage.TokenSlot)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		s.set(Snapshot{Status: Anonymous}, "resolve")
		return nil
	}

	user := s.readUser(ctx, token)
	s.set(Snapshot{Status: Authenticated, Token: token, User: &user}, "resolve")
	return nil
}

func (s *Store) readUser(ctx context.Context, token string) User {
	claims, _ := s.decoder.DecodeClaims(token)
	raw, ok, err := s.storage.Get(ctx, storage.UserSlot)
	if err != nil {
		s.logger.Warn("read user data failed", slog.String("error", err.Error()))
		return mergeClaims(User{}, claims)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return mergeClaims(User{}, claims)
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("parse user data failed", slog.String("error", err.Error()))
		return mergeClaims(User{}, claims)
	}
	return mergeClaims(user, claims)
}

// Login persists token, and user when supplied, then marks the session
// authenticated. Claims fill any identifier, name or role the user lacks.
// Decoding failures never fail the login.
func (s *Store) Login(ctx context.Context, token string, user *User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}

	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	claims, decoded := s.decoder.DecodeClaims(token)
	if !decoded {
		s.logger.Debug("token claims unavailable")
	}
	var merged User
	if user != nil {
		merged = mergeClaims(*user, claims)
	} else {
		merged = mergeClaims(User{}, claims)
	}

	if err := s.storage.Set(ctx, storage.TokenSlot, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if user != nil {
		blob, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		if err := s.storage.Set(ctx, storage.UserSlot, string(blob)); err != nil {
			return fmt.Errorf("persist user: %w", err)
		}
	} else if err := s.storage.Remove(ctx, storage.UserSlot); err != nil {
		return fmt.Errorf("remove stale user: %w", err)
	}

	s.set(Snapshot{Status: Authenticated, Token: token, User: &merged}, "login")
	return nil
}

// Logout clears both slots, marks the session anonymous and announces
// events.Invalidated. The in-memory session is dropped even when storage
// fails; the storage error is returned.
func (s *Store) Logout(ctx context.Context) error {
	s.syncMu.Lock()
	err := storage.Clear(ctx, s.storage)
	s.set(Snapshot{Status: Anonymous}, "logout")
	s.syncMu.Unlock()

	s.publisher.Publish(events.Signal{Kind: events.Invalidated, Source: "logout"})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// UpdateUser replaces the in-memory user metadata. It does nothing while the
// session is not authenticated.
func (s *Store) UpdateUser(user User) {
	s.state.Update(func(cur Snapshot) (Snapshot, bool) {
		if !cur.Authenticated() {
			return cur, false
		}
		cur.User = &user
		return cur, true
	})
}

func (s *Store) drop(reason string) {
	s.set(Snapshot{Status: Anonymous}, reason)
}

func (s *Store) set(next Snapshot, reason string) {
	s.state.Update(func(cur Snapshot) (Snapshot, bool) {
		if sameSession(cur, next) {
			return cur, false
		}
		s.logger.Debug("session transition",
			slog.String("from", cur.Status.String()),
			slog.String("to", next.Status.String()),
			slog.String("reason", reason),
		)
		return next, true
	})
}

func sameSession(a, b Snapshot) bool {
	if a.Status != b.Status || a.Token != b.Token {
		return false
	}
	if a.User == nil || b.User == nil {
		return a.User == b.User
	}
	return *a.User == *b.User
}

// Snapshot returns the current session.
func (s *Store) Snapshot() Snapshot {
	return s.state.Snapshot()
}

// Subscribe registers fn for session changes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	return s.state.Subscribe(fn)
}

// Token returns the current token or "". It satisfies api.TokenSource.
func (s *Store) Token() string {
	var token string
	s.state.View(func(snap Snapshot) {
		if snap.Status == Authenticated {
			token = snap.Token
		}
	})
	return token
}
