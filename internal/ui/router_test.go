package ui

import (
	"context"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/events"
	"github.com/five82/tote/internal/session"
	"github.com/five82/tote/internal/storage"
)

func TestResolveView(t *testing.T) {
	tests := []struct {
		view   string
		status session.Status
		want   string
	}{
		{ViewCart, session.Unknown, ViewCart},
		{ViewLogin, session.Unknown, ViewLogin},
		{ViewCart, session.Anonymous, ViewLogin},
		{ViewCheckout, session.Anonymous, ViewLogin},
		{ViewOrders, session.Anonymous, ViewLogin},
		{ViewWishlist, session.Anonymous, ViewLogin},
		{ViewHome, session.Anonymous, ViewHome},
		{ViewSignup, session.Anonymous, ViewSignup},
		{ViewLogin, session.Authenticated, ViewHome},
		{ViewForgot, session.Authenticated, ViewHome},
		{ViewCart, session.Authenticated, ViewCart},
	}
	for _, tt := range tests {
		if got := resolveView(tt.view, tt.status); got != tt.want {
			t.Fatalf("resolveView(%q, %s) = %q, want %q", tt.view, tt.status, got, tt.want)
		}
	}
}

func TestRouter_NavigateForwardsToProgram(t *testing.T) {
	r := newRouter()
	if got := r.CurrentView(); got != ViewHome {
		t.Fatalf("initial view = %q, want %q", got, ViewHome)
	}

	r.Navigate(ViewCart)
	if got := r.CurrentView(); got != ViewCart {
		t.Fatalf("CurrentView without program = %q, want %q", got, ViewCart)
	}

	var sent []tea.Msg
	r.attach(func(msg tea.Msg) { sent = append(sent, msg) })
	r.Navigate(ViewLogin)
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if msg, ok := sent[0].(navigateMsg); !ok || msg.view != ViewLogin {
		t.Fatalf("sent %#v, want navigateMsg{%q}", sent[0], ViewLogin)
	}
}

func TestRouter_GuardRedirectsFromProtectedView(t *testing.T) {
	st := storage.NewMemoryStorage()
	_ = st.Set(context.Background(), storage.TokenSlot, "T1")
	guard := api.NewAuthGuard(st, events.Noop{}, nil, nil)

	r := newRouter()
	r.set(ViewOrders)
	var sent []tea.Msg
	r.attach(func(msg tea.Msg) { sent = append(sent, msg) })
	guard.SetNavigator(r)

	guard.HandleUnauthorized(context.Background(), &api.Error{Kind: api.KindAuthRejected, Status: http.StatusUnauthorized})

	if len(sent) != 1 || sent[0].(navigateMsg).view != ViewLogin {
		t.Fatalf("sent = %#v, want one navigateMsg to %q", sent, ViewLogin)
	}
	if _, found, _ := st.Get(context.Background(), storage.TokenSlot); found {
		t.Fatal("token still stored after unauthorized")
	}
}

func TestRouter_GuardLeavesPublicView(t *testing.T) {
	guard := api.NewAuthGuard(storage.NewMemoryStorage(), events.Noop{}, nil, nil)
	r := newRouter()
	var sent []tea.Msg
	r.attach(func(msg tea.Msg) { sent = append(sent, msg) })
	guard.SetNavigator(r)

	guard.HandleUnauthorized(context.Background(), &api.Error{Kind: api.KindAuthRejected, Status: http.StatusUnauthorized})

	if len(sent) != 0 {
		t.Fatalf("sent = %#v, want no navigation from the home view", sent)
	}
}
