package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/five82/tote/internal/events"
	"github.com/five82/tote/internal/storage"
)

type fakeNavigator struct {
	current   string
	navigated []string
}

func (n *fakeNavigator) CurrentView() string { return n.current }
func (n *fakeNavigator) Navigate(view string) {
	n.navigated = append(n.navigated, view)
	n.current = view
}

func seededStorage(t *testing.T) *storage.MemoryStorage {
	t.Helper()
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	if err := st.Set(ctx, storage.TokenSlot, "tok"); err != nil {
		t.Fatalf("Set token: %v", err)
	}
	if err := st.Set(ctx, storage.UserSlot, `{"name":"Mona"}`); err != nil {
		t.Fatalf("Set user: %v", err)
	}
	return st
}

func TestAuthGuard_ClearsAndRedirects(t *testing.T) {
	st := seededStorage(t)
	bus := events.NewBus()
	var got []events.Signal
	bus.Subscribe(func(s events.Signal) { got = append(got, s) })

	nav := &fakeNavigator{current: "/cart"}
	guard := NewAuthGuard(st, bus, nil, nil)
	guard.SetNavigator(nav)

	guard.HandleUnauthorized(context.Background(), &Error{Kind: KindAuthRejected, Path: "/v2/cart"})

	for _, slot := range storage.Slots {
		if _, ok, _ := st.Get(context.Background(), slot); ok {
			t.Fatalf("slot %s still present", slot)
		}
	}
	if len(got) != 1 || got[0].Kind != events.Invalidated {
		t.Fatalf("signals = %#v, want one Invalidated", got)
	}
	if len(nav.navigated) != 1 || nav.navigated[0] != LoginView {
		t.Fatalf("navigated = %v, want [%s]", nav.navigated, LoginView)
	}
}

func TestAuthGuard_PublicViewsStay(t *testing.T) {
	for _, view := range DefaultPublicViews {
		st := seededStorage(t)
		nav := &fakeNavigator{current: view}
		guard := NewAuthGuard(st, nil, nil, nil)
		guard.SetNavigator(nav)

		guard.HandleUnauthorized(context.Background(), &Error{Kind: KindAuthRejected})

		if len(nav.navigated) != 0 {
			t.Fatalf("view %q navigated to %v, want no redirect", view, nav.navigated)
		}
		if _, ok, _ := st.Get(context.Background(), storage.TokenSlot); ok {
			t.Fatalf("view %q: token not cleared", view)
		}
	}
}

func TestAuthGuard_WithoutNavigator(t *testing.T) {
	st := seededStorage(t)
	guard := NewAuthGuard(st, nil, nil, nil)
	guard.HandleUnauthorized(context.Background(), nil)
	if _, ok, _ := st.Get(context.Background(), storage.UserSlot); ok {
		t.Fatal("user slot not cleared")
	}
}

func TestAuthGuard_CancelledContextStillClears(t *testing.T) {
	st := seededStorage(t)
	guard := NewAuthGuard(st, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	guard.HandleUnauthorized(ctx, &Error{Kind: KindAuthRejected})
	if _, ok, _ := st.Get(context.Background(), storage.TokenSlot); ok {
		t.Fatal("token not cleared with cancelled context")
	}
}

func TestAuthGuard_WiredToClient(t *testing.T) {
	st := seededStorage(t)
	nav := &fakeNavigator{current: "/orders"}
	guard := NewAuthGuard(st, nil, nil, nil)
	guard.SetNavigator(nav)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, WithUnauthorizedHandler(guard.HandleUnauthorized))

	if _, err := c.ListOrders(testContext(t)); !IsAuthRejected(err) {
		t.Fatalf("ListOrders error = %v, want auth rejected", err)
	}
	if nav.current != LoginView {
		t.Fatalf("current view = %q, want %s", nav.current, LoginView)
	}
}
