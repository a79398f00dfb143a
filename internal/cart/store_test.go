package cart

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/events"
	"github.com/five82/tote/internal/session"
	"github.com/five82/tote/internal/state"
	"github.com/five82/tote/internal/storage"
)

type fakeAPI struct {
	calls atomic.Int32

	mu       sync.Mutex
	get      func(ctx context.Context) (*api.CartResponse, error)
	add      func(ctx context.Context, id string) (*api.CartResponse, error)
	update   func(ctx context.Context, id string, count int) (*api.CartResponse, error)
	remove   func(ctx context.Context, id string) (*api.CartResponse, error)
	clearErr error
}

func (f *fakeAPI) GetCart(ctx context.Context) (*api.CartResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	fn := f.get
	f.mu.Unlock()
	if fn == nil {
		return &api.CartResponse{}, nil
	}
	return fn(ctx)
}

func (f *fakeAPI) AddToCart(ctx context.Context, id string) (*api.CartResponse, error) {
	f.calls.Add(1)
	return f.add(ctx, id)
}

func (f *fakeAPI) UpdateCartItem(ctx context.Context, id string, count int) (*api.CartResponse, error) {
	f.calls.Add(1)
	return f.update(ctx, id, count)
}

func (f *fakeAPI) RemoveCartItem(ctx context.Context, id string) (*api.CartResponse, error) {
	f.calls.Add(1)
	return f.remove(ctx, id)
}

func (f *fakeAPI) ClearCart(context.Context) error {
	f.calls.Add(1)
	return f.clearErr
}

func (f *fakeAPI) ApplyCoupon(_ context.Context, code string) (*api.CartResponse, error) {
	f.calls.Add(1)
	discounted := 40.0
	return &api.CartResponse{NumOfCartItems: 1, Data: &api.Cart{ID: "c1", TotalPrice: 50, TotalAfterDiscount: &discounted,
		Products: []api.CartItem{line("P1", 1, 50)}}}, nil
}

func line(productID string, count int, price float64) api.CartItem {
	return api.CartItem{ID: "l-" + productID, Count: count, Price: price, Product: api.ProductRef{ID: productID}}
}

func cartResponse(count int, lines ...api.CartItem) *api.CartResponse {
	total := 0.0
	for _, l := range lines {
		total += l.Price * float64(l.Count)
	}
	return &api.CartResponse{Status: "success", NumOfCartItems: count, Data: &api.Cart{ID: "c1", Products: lines, TotalPrice: total}}
}

func signedIn(t *testing.T) *session.Store {
	t.Helper()
	sess := session.New(storage.NewMemoryStorage())
	require.NoError(t, sess.Login(context.Background(), "T1", nil))
	return sess
}

func TestAdd_ReplacesCartFromResponse(t *testing.T) {
	fake := &fakeAPI{add: func(_ context.Context, id string) (*api.CartResponse, error) {
		return cartResponse(1, line(id, 1, 50)), nil
	}}
	store := New(fake, signedIn(t))

	snap, err := store.Add(context.Background(), "P1")
	require.NoError(t, err)

	assert.Equal(t, 1, snap.ItemsCount)
	require.Len(t, snap.Cart.Products, 1)
	assert.Equal(t, "P1", snap.Cart.Products[0].Product.ID)
	assert.Equal(t, 1, snap.Cart.Products[0].Count)
	assert.Equal(t, 50.0, snap.Cart.Products[0].Price)
	assert.Equal(t, snap, store.Snapshot())
}

func TestItemsCountIsServerCount(t *testing.T) {
	// The server counts a bundle line as one item even though count is 3.
	fake := &fakeAPI{
		add: func(context.Context, string) (*api.CartResponse, error) {
			return cartResponse(1, line("P1", 3, 10)), nil
		},
		update: func(_ context.Context, id string, count int) (*api.CartResponse, error) {
			return cartResponse(7, line(id, count, 10)), nil
		},
		remove: func(context.Context, string) (*api.CartResponse, error) {
			return cartResponse(2, line("P2", 5, 10)), nil
		},
	}
	store := New(fake, signedIn(t))
	ctx := context.Background()

	snap, err := store.Add(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ItemsCount)

	snap, err = store.SetQuantity(ctx, "P1", 4)
	require.NoError(t, err)
	assert.Equal(t, 7, snap.ItemsCount)

	snap, err = store.Remove(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.ItemsCount)
}

func TestSetQuantity_RejectsBelowOne(t *testing.T) {
	fake := &fakeAPI{}
	store := New(fake, signedIn(t))

	for _, count := range []int{0, -1, -10} {
		_, err := store.SetQuantity(context.Background(), "P1", count)
		require.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Zero(t, fake.calls.Load())
}

func TestMutations_RequireSession(t *testing.T) {
	fake := &fakeAPI{}
	sess := session.New(storage.NewMemoryStorage())
	require.NoError(t, sess.Resolve(context.Background()))
	store := New(fake, sess)
	before := store.Snapshot()
	ctx := context.Background()

	_, err := store.Add(ctx, "P1")
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = store.SetQuantity(ctx, "P1", 2)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = store.Remove(ctx, "P1")
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = store.Clear(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = store.Fetch(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Zero(t, fake.calls.Load())
	assert.Equal(t, before, store.Snapshot())
}

func TestRemoveLastItemLeavesEmptyCart(t *testing.T) {
	fake := &fakeAPI{
		add: func(context.Context, string) (*api.CartResponse, error) {
			return cartResponse(1, line("P1", 1, 50)), nil
		},
		remove: func(context.Context, string) (*api.CartResponse, error) {
			return cartResponse(0), nil
		},
	}
	store := New(fake, signedIn(t))
	ctx := context.Background()
	_, err := store.Add(ctx, "P1")
	require.NoError(t, err)

	snap, err := store.Remove(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, snap.Empty())
	assert.Zero(t, snap.ItemsCount)
	assert.NoError(t, snap.Err)
}

func TestMutationFailureKeepsCart(t *testing.T) {
	fail := &api.Error{Kind: api.KindValidation, Status: http.StatusBadRequest, Message: "Product not found"}
	fake := &fakeAPI{
		add: func(context.Context, string) (*api.CartResponse, error) {
			return cartResponse(1, line("P1", 1, 50)), nil
		},
		update: func(context.Context, string, int) (*api.CartResponse, error) { return nil, fail },
	}
	store := New(fake, signedIn(t))
	ctx := context.Background()
	before, err := store.Add(ctx, "P1")
	require.NoError(t, err)

	_, err = store.SetQuantity(ctx, "P1", 3)
	require.ErrorIs(t, err, fail)
	assert.Equal(t, "Product not found", api.Message(err, "Failed to update quantity"))
	assert.Equal(t, before, store.Snapshot())
}

func TestClear(t *testing.T) {
	fake := &fakeAPI{add: func(context.Context, string) (*api.CartResponse, error) {
		return cartResponse(1, line("P1", 1, 50)), nil
	}}
	store := New(fake, signedIn(t))
	ctx := context.Background()
	_, err := store.Add(ctx, "P1")
	require.NoError(t, err)

	snap, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Cart)
	assert.Zero(t, snap.ItemsCount)
}

func TestApplyCouponUsesDiscountedTotal(t *testing.T) {
	store := New(&fakeAPI{}, signedIn(t))
	snap, err := store.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 40.0, snap.Total())
}

func TestFetch_EmptyCartIsNotAnError(t *testing.T) {
	// The API client absorbs the "no cart yet" response and hands back an
	// empty CartResponse.
	fake := &fakeAPI{get: func(context.Context) (*api.CartResponse, error) { return &api.CartResponse{}, nil }}
	store := New(fake, signedIn(t))

	snap, err := store.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Empty())
	assert.Zero(t, snap.ItemsCount)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Message())
}

func TestFetch_FailureRecordsMessage(t *testing.T) {
	fake := &fakeAPI{get: func(context.Context) (*api.CartResponse, error) {
		return nil, &api.Error{Kind: api.KindServer, Status: http.StatusBadGateway}
	}}
	store := New(fake, signedIn(t))

	snap, err := store.Fetch(context.Background())
	require.Error(t, err)
	assert.Nil(t, snap.Cart)
	assert.Equal(t, LoadFailedMessage, snap.Message())
}

func TestOutOfOrderResponses_LastResponseWins(t *testing.T) {
	first := make(chan struct{})
	fake := &fakeAPI{update: func(_ context.Context, id string, count int) (*api.CartResponse, error) {
		if count == 2 {
			<-first
		}
		return cartResponse(count, line(id, count, 10)), nil
	}}
	store := New(fake, signedIn(t))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.SetQuantity(ctx, "P1", 2)
	}()
	require.Eventually(t, func() bool { return fake.calls.Load() == 1 }, time.Second, time.Millisecond)

	// The second request is dispatched later but answered first.
	snap, err := store.SetQuantity(ctx, "P1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.ItemsCount)

	close(first)
	<-done
	assert.Equal(t, 2, store.Snapshot().ItemsCount, "the response that arrived last wins")
}

func TestOutOfOrderResponses_LatestRequestWins(t *testing.T) {
	first := make(chan struct{})
	fake := &fakeAPI{update: func(_ context.Context, id string, count int) (*api.CartResponse, error) {
		if count == 2 {
			<-first
		}
		return cartResponse(count, line(id, count, 10)), nil
	}}
	store := New(fake, signedIn(t), WithOrdering(state.LatestRequestWins))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.SetQuantity(ctx, "P1", 2)
	}()
	require.Eventually(t, func() bool { return fake.calls.Load() == 1 }, time.Second, time.Millisecond)

	_, err := store.SetQuantity(ctx, "P1", 3)
	require.NoError(t, err)

	close(first)
	<-done
	assert.Equal(t, 3, store.Snapshot().ItemsCount, "the stale response is discarded")
}

func TestFollowsSession(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAPI{get: func(context.Context) (*api.CartResponse, error) {
		return cartResponse(2, line("P1", 2, 10)), nil
	}}
	sess := session.New(storage.NewMemoryStorage())
	require.NoError(t, sess.Resolve(ctx))
	store := New(fake, sess)
	store.Start(ctx)
	t.Cleanup(store.Close)

	assert.Zero(t, fake.calls.Load(), "no fetch while anonymous")

	require.NoError(t, sess.Login(ctx, "T1", nil))
	require.Eventually(t, func() bool { return store.Snapshot().ItemsCount == 2 }, time.Second, time.Millisecond)

	require.NoError(t, sess.Logout(ctx))
	snap := store.Snapshot()
	assert.Nil(t, snap.Cart)
	assert.Zero(t, snap.ItemsCount)
}

func TestForcedInvalidationClearsCart(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	st := storage.NewMemoryStorage()
	sess := session.New(st)
	require.NoError(t, sess.Start(ctx, bus))
	require.NoError(t, sess.Login(ctx, "T1", nil))

	fake := &fakeAPI{
		get: func(context.Context) (*api.CartResponse, error) { return cartResponse(1, line("P1", 1, 50)), nil },
	}
	store := New(fake, sess, WithSignals(bus))
	store.Start(ctx)
	t.Cleanup(store.Close)
	require.Eventually(t, func() bool { return store.Snapshot().ItemsCount == 1 }, time.Second, time.Millisecond)

	// What the API layer does on a rejected token; no Logout call.
	guard := api.NewAuthGuard(st, bus, nil, nil)
	guard.HandleUnauthorized(ctx, &api.Error{Kind: api.KindAuthRejected, Path: "/v2/cart"})

	snap := store.Snapshot()
	assert.Nil(t, snap.Cart)
	assert.Zero(t, snap.ItemsCount)
	assert.False(t, sess.Snapshot().Authenticated())
}

func TestResponseInFlightAtLogoutIsDiscarded(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	fake := &fakeAPI{add: func(context.Context, string) (*api.CartResponse, error) {
		close(entered)
		<-release
		return cartResponse(1, line("P1", 1, 50)), nil
	}}
	sess := signedIn(t)
	store := New(fake, sess)
	store.Start(ctx)
	t.Cleanup(store.Close)

	done := make(chan error, 1)
	go func() {
		_, err := store.Add(ctx, "P1")
		done <- err
	}()
	<-entered

	require.NoError(t, sess.Logout(ctx))
	close(release)
	require.NoError(t, <-done)

	assert.Nil(t, store.Snapshot().Cart)
	assert.Zero(t, store.Snapshot().ItemsCount)
}

func TestSubscribersSeeChanges(t *testing.T) {
	fake := &fakeAPI{add: func(context.Context, string) (*api.CartResponse, error) {
		return cartResponse(1, line("P1", 1, 50)), nil
	}}
	store := New(fake, signedIn(t))
	var counts []int
	store.Subscribe(func(s Snapshot) { counts = append(counts, s.ItemsCount) })

	_, err := store.Add(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, counts)
}
