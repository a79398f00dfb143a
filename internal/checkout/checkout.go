// Package checkout places orders for the current cart.
//
// Cash orders are created directly. Card orders go through a hosted payment
// page: StartHosted returns the page's URL and the buyer comes back to one
// of two return paths. Only the success return matters to this client, and
// only because the server empties the cart after payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/cart"
)

// Return paths appended to the configured return base.
const (
	SuccessPath = "/payment/success"
	CancelPath  = "/payment/cancel"
)

// ErrEmptyCart is returned when there is no cart to check out.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// Outcome is how the buyer left the hosted payment page.
type Outcome int

const (
	OutcomeSuccess Outcome = iota + 1
	OutcomeCancel
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// API is the subset of the API client checkout needs.
type API interface {
	CreateCashOrder(ctx context.Context, cartID string, ship api.ShippingAddress) (*api.Order, error)
	CreateCheckoutSession(ctx context.Context, cartID string, ship api.ShippingAddress, successURL, cancelURL string) (*api.CheckoutSession, error)
}

// Cart is the part of the cart store checkout refreshes.
type Cart interface {
	Snapshot() cart.Snapshot
	Fetch(ctx context.Context) (cart.Snapshot, error)
}

// Service places orders.
type Service struct {
	api        API
	cart       Cart
	returnBase *url.URL
	logger     *slog.Logger
}

// New builds a Service. returnBase is the origin the hosted payment page
// sends the buyer back to.
func New(client API, c Cart, returnBase string, logger *slog.Logger) (*Service, error) {
	base, err := url.Parse(strings.TrimSpace(returnBase))
	if err != nil {
		return nil, fmt.Errorf("parse return base %q: %w", returnBase, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("parse return base %q: want scheme://host", returnBase)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{api: client, cart: c, returnBase: base, logger: logger}, nil
}

// SuccessURL is where the hosted page returns after payment.
func (s *Service) SuccessURL() string { return s.returnURL(SuccessPath) }

// CancelURL is where the hosted page returns when the buyer gives up.
func (s *Service) CancelURL() string { return s.returnURL(CancelPath) }

func (s *Service) returnURL(path string) string {
	u := *s.returnBase
	u.Path += path
	return u.String()
}

func (s *Service) cartID(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	snap := s.cart.Snapshot()
	if snap.Empty() || snap.Cart.ID == "" {
		return "", ErrEmptyCart
	}
	return snap.Cart.ID, nil
}

// PayCash places a cash-on-delivery order and refreshes the cart, which the
// server has emptied. cartID "" means the current cart.
func (s *Service) PayCash(ctx context.Context, cartID string, ship api.ShippingAddress) (*api.Order, error) {
	id, err := s.cartID(cartID)
	if err != nil {
		return nil, err
	}
	order, err := s.api.CreateCashOrder(ctx, id, ship)
	if err != nil {
		return nil, err
	}
	s.logger.Info("cash order placed", slog.String("order", order.ID), slog.String("cart", id))
	s.refresh(ctx)
	return order, nil
}

// StartHosted creates a hosted checkout session and returns the payment
// page URL. The cart is untouched until Return reports the outcome.
func (s *Service) StartHosted(ctx context.Context, cartID string, ship api.ShippingAddress) (string, error) {
	id, err := s.cartID(cartID)
	if err != nil {
		return "", err
	}
	sess, err := s.api.CreateCheckoutSession(ctx, id, ship, s.SuccessURL(), s.CancelURL())
	if err != nil {
		return "", err
	}
	if sess == nil || sess.URL == "" {
		return "", fmt.Errorf("checkout session for cart %s has no url", id)
	}
	s.logger.Info("hosted checkout started", slog.String("cart", id))
	return sess.URL, nil
}

// Return handles the buyer coming back from the hosted page. Success
// refreshes the cart so its count matches the emptied server cart.
func (s *Service) Return(ctx context.Context, outcome Outcome) error {
	switch outcome {
	case OutcomeSuccess:
		s.refresh(ctx)
		return nil
	case OutcomeCancel:
		return nil
	default:
		return fmt.Errorf("unknown checkout outcome %d", outcome)
	}
}

// ParseReturn maps a return URL to its outcome.
func (s *Service) ParseReturn(raw string) (Outcome, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse return url: %w", err)
	}
	path := strings.TrimRight(u.Path, "/")
	switch {
	case strings.HasSuffix(path, SuccessPath):
		return OutcomeSuccess, nil
	case strings.HasSuffix(path, CancelPath):
		return OutcomeCancel, nil
	default:
		return 0, fmt.Errorf("return url %q is not a checkout return", raw)
	}
}

func (s *Service) refresh(ctx context.Context) {
	if _, err := s.cart.Fetch(ctx); err != nil {
		s.logger.Warn("cart refresh after checkout failed", slog.String("error", err.Error()))
	}
}
