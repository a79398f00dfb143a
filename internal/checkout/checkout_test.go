package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/cart"
)

type fakeAPI struct {
	cashCart   string
	ship       api.ShippingAddress
	successURL string
	cancelURL  string
	err        error
}

func (f *fakeAPI) CreateCashOrder(_ context.Context, cartID string, ship api.ShippingAddress) (*api.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cashCart, f.ship = cartID, ship
	return &api.Order{ID: "o1", PaymentMethodType: "cash"}, nil
}

func (f *fakeAPI) CreateCheckoutSession(_ context.Context, cartID string, ship api.ShippingAddress, successURL, cancelURL string) (*api.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.ship, f.successURL, f.cancelURL = ship, successURL, cancelURL
	return &api.CheckoutSession{URL: "https://pay.example/" + cartID}, nil
}

type fakeCart struct {
	snap    cart.Snapshot
	fetches int
}

func (c *fakeCart) Snapshot() cart.Snapshot { return c.snap }
func (c *fakeCart) Fetch(context.Context) (cart.Snapshot, error) {
	c.fetches++
	return c.snap, nil
}

func withCart(id string) *fakeCart {
	return &fakeCart{snap: cart.Snapshot{ItemsCount: 1, Cart: &api.Cart{ID: id, Products: []api.CartItem{{Count: 1}}}}}
}

func TestPayCashRefreshesCart(t *testing.T) {
	a, c := &fakeAPI{}, withCart("c1")
	svc, err := New(a, c, "http://localhost:3000", nil)
	require.NoError(t, err)

	ship := api.ShippingAddress{Details: "1 Nile St", Phone: "01012345678", City: "Cairo"}
	order, err := svc.PayCash(context.Background(), "", ship)
	require.NoError(t, err)

	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, "c1", a.cashCart)
	assert.Equal(t, ship, a.ship)
	assert.Equal(t, 1, c.fetches)
}

func TestPayCashFailureLeavesCart(t *testing.T) {
	a, c := &fakeAPI{err: errors.New("boom")}, withCart("c1")
	svc, err := New(a, c, "http://localhost:3000", nil)
	require.NoError(t, err)

	_, err = svc.PayCash(context.Background(), "", api.ShippingAddress{})
	require.Error(t, err)
	assert.Zero(t, c.fetches)
}

func TestEmptyCartRejected(t *testing.T) {
	svc, err := New(&fakeAPI{}, &fakeCart{}, "http://localhost:3000", nil)
	require.NoError(t, err)

	_, err = svc.PayCash(context.Background(), "", api.ShippingAddress{})
	require.ErrorIs(t, err, ErrEmptyCart)
	_, err = svc.StartHosted(context.Background(), "", api.ShippingAddress{})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestStartHostedBuildsReturnURLs(t *testing.T) {
	a, c := &fakeAPI{}, withCart("c9")
	svc, err := New(a, c, "https://shop.example.com/", nil)
	require.NoError(t, err)

	redirect, err := svc.StartHosted(context.Background(), "", api.ShippingAddress{City: "Giza"})
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example/c9", redirect)
	assert.Equal(t, "https://shop.example.com/payment/success", a.successURL)
	assert.Equal(t, "https://shop.example.com/payment/cancel", a.cancelURL)
	assert.Zero(t, c.fetches, "cart untouched until the buyer returns")
}

func TestReturnOutcomes(t *testing.T) {
	c := withCart("c1")
	svc, err := New(&fakeAPI{}, c, "http://localhost:3000", nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.Return(ctx, OutcomeCancel))
	assert.Zero(t, c.fetches)
	require.NoError(t, svc.Return(ctx, OutcomeSuccess))
	assert.Equal(t, 1, c.fetches)
	require.Error(t, svc.Return(ctx, Outcome(0)))
}

func TestParseReturn(t *testing.T) {
	svc, err := New(&fakeAPI{}, &fakeCart{}, "http://localhost:3000", nil)
	require.NoError(t, err)

	got, err := svc.ParseReturn(svc.SuccessURL() + "?session_id=x")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, got)

	got, err = svc.ParseReturn(svc.CancelURL())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancel, got)

	_, err = svc.ParseReturn("http://localhost:3000/cart")
	require.Error(t, err)
}

func TestNewRejectsRelativeBase(t *testing.T) {
	_, err := New(&fakeAPI{}, &fakeCart{}, "/payment", nil)
	require.Error(t, err)
}
