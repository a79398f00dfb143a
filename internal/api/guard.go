package api

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/five82/tote/internal/events"
	"github.com/five82/tote/internal/storage"
)

// LoginView is where a rejected session is sent.
const LoginView = "/login"

// DefaultPublicViews never trigger a redirect on a rejected session. Leaving
// the sign-in view out would send it to itself forever.
var DefaultPublicViews = []string{"/", "/login", "/signup", "/forgot-password"}

// Navigator is the view layer's routing surface.
type Navigator interface {
	CurrentView() string
	Navigate(view string)
}

// AuthGuard tears the session down when a protected endpoint answers 401:
// it clears the persisted slots, announces events.Invalidated and sends the
// user to LoginView unless they are already on a public view.
type AuthGuard struct {
	storage     storage.Storage
	publisher   events.Publisher
	publicViews []string
	logger      *slog.Logger

	mu        sync.RWMutex
	navigator Navigator
}

// NewAuthGuard builds a guard. publicViews nil means DefaultPublicViews.
func NewAuthGuard(st storage.Storage, pub events.Publisher, publicViews []string, logger *slog.Logger) *AuthGuard {
	if publicViews == nil {
		publicViews = DefaultPublicViews
	}
	if pub == nil {
		pub = events.Noop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AuthGuard{
		storage:     st,
		publisher:   pub,
		publicViews: slices.Clone(publicViews),
		logger:      logger,
	}
}

// SetNavigator attaches the view layer once it exists.
func (g *AuthGuard) SetNavigator(n Navigator) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.navigator = n
}

// HandleUnauthorized matches the WithUnauthorizedHandler signature.
func (g *AuthGuard) HandleUnauthorized(ctx context.Context, apiErr *Error) {
	path := ""
	if apiErr != nil {
		path = apiErr.Path
	}
	g.logger.Info("session rejected by api", slog.String("path", path))

	if g.storage != nil {
		// The request context may already be ending; clearing must still happen.
		if err := storage.Clear(context.WithoutCancel(ctx), g.storage); err != nil {
			g.logger.Warn("clear persisted session failed", slog.String("error", err.Error()))
		}
	}
	g.publisher.Publish(events.Signal{Kind: events.Invalidated, Source: "api"})

	g.mu.RLock()
	nav := g.navigator
	g.mu.RUnlock()
	if nav == nil {
		return
	}
	if g.IsPublic(nav.CurrentView()) {
		return
	}
	nav.Navigate(LoginView)
}

// IsPublic reports whether view is on the allow-list.
func (g *AuthGuard) IsPublic(view string) bool {
	return slices.Contains(g.publicViews, view)
}
