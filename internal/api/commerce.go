package api

import (
	"context"
	"net/http"
	"net/url"
)

type productBody struct {
	ProductID string `json:"productId"`
}

type countBody struct {
	Count int `json:"count"`
}

type couponBody struct {
	CouponName string `json:"couponName"`
}

// GetCart returns the signed-in user's cart. A user without a cart receives
// an empty response rather than an error.
func (c *Client) GetCart(ctx context.Context) (*CartResponse, error) {
	var resp CartResponse
	if err := c.list(ctx, "/v2/cart", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddToCart adds one unit of product to the cart.
func (c *Client) AddToCart(ctx context.Context, productID string) (*CartResponse, error) {
	var resp CartResponse
	if err := c.send(ctx, http.MethodPost, "/v2/cart", productBody{ProductID: productID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateCartItem sets the quantity of the cart line for productID.
func (c *Client) UpdateCartItem(ctx context.Context, productID string, count int) (*CartResponse, error) {
	var resp CartResponse
	if err := c.send(ctx, http.MethodPut, "/v2/cart/"+url.PathEscape(productID), countBody{Count: count}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveCartItem deletes the cart line for productID.
func (c *Client) RemoveCartItem(ctx context.Context, productID string) (*CartResponse, error) {
	var resp CartResponse
	if err := c.Do(ctx, http.MethodDelete, "/v2/cart/"+url.PathEscape(productID), Request{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearCart deletes the whole cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.Do(ctx, http.MethodDelete, "/v2/cart", Request{}, nil)
}

// ApplyCoupon applies a discount code to the cart.
func (c *Client) ApplyCoupon(ctx context.Context, code string) (*CartResponse, error) {
	var resp CartResponse
	if err := c.send(ctx, http.MethodPut, "/v2/cart/applyCoupon", couponBody{CouponName: code}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetWishlist returns the saved products. A user who never saved anything
// receives an empty response rather than an error.
func (c *Client) GetWishlist(ctx context.Context) (*WishlistResponse, error) {
	var resp WishlistResponse
	if err := c.list(ctx, "/v1/wishlist", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddToWishlist saves productID.
func (c *Client) AddToWishlist(ctx context.Context, productID string) (*WishlistMutation, error) {
	var resp WishlistMutation
	if err := c.send(ctx, http.MethodPost, "/v1/wishlist", productBody{ProductID: productID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveFromWishlist unsaves productID.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) (*WishlistMutation, error) {
	var resp WishlistMutation
	if err := c.Do(ctx, http.MethodDelete, "/v1/wishlist/"+url.PathEscape(productID), Request{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAddresses returns the saved shipping addresses.
func (c *Client) ListAddresses(ctx context.Context) ([]Address, error) {
	var page Page[Address]
	if err := c.list(ctx, "/v1/addresses", nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// GetAddress returns one saved address.
func (c *Client) GetAddress(ctx context.Context, id string) (*Address, error) {
	var resp struct {
		Data Address `json:"data"`
	}
	if err := c.get(ctx, "/v1/addresses/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// AddAddress saves addr and returns the updated list.
func (c *Client) AddAddress(ctx context.Context, addr Address) ([]Address, error) {
	const path = "/v1/addresses"
	addr.ID = ""
	if err := checked(http.MethodPost, path, addr); err != nil {
		return nil, err
	}
	var page Page[Address]
	if err := c.send(ctx, http.MethodPost, path, addr, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// RemoveAddress deletes a saved address and returns the updated list.
func (c *Client) RemoveAddress(ctx context.Context, id string) ([]Address, error) {
	var page Page[Address]
	if err := c.Do(ctx, http.MethodDelete, "/v1/addresses/"+url.PathEscape(id), Request{}, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

type orderBody struct {
	ShippingAddress ShippingAddress `json:"shippingAddress"`
}

// CreateCashOrder places a cash-on-delivery order for cartID.
func (c *Client) CreateCashOrder(ctx context.Context, cartID string, ship ShippingAddress) (*Order, error) {
	var resp struct {
		Data Order `json:"data"`
	}
	if err := c.send(ctx, http.MethodPost, "/v2/orders/"+url.PathEscape(cartID), orderBody{ShippingAddress: ship}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// CreateCheckoutSession starts a hosted card payment for cartID. The server
// sends the buyer back to successURL or cancelURL when they leave the page.
func (c *Client) CreateCheckoutSession(ctx context.Context, cartID string, ship ShippingAddress, successURL, cancelURL string) (*CheckoutSession, error) {
	q := url.Values{}
	if successURL != "" {
		q.Set("url", successURL)
	}
	if cancelURL != "" {
		q.Set("cancelUrl", cancelURL)
	}
	var resp struct {
		Session CheckoutSession `json:"session"`
	}
	req := Request{Query: q, Body: orderBody{ShippingAddress: ship}}
	if err := c.Do(ctx, http.MethodPost, "/v1/orders/checkout-session/"+url.PathEscape(cartID), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

// ListOrders returns the signed-in user's orders. A user who never ordered
// receives an empty list rather than an error.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var page Page[Order]
	if err := c.list(ctx, "/v1/orders/", nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// ReviewInput creates or edits a review.
type ReviewInput struct {
	Review string  `json:"review" validate:"required,min=2"`
	Rating float64 `json:"rating" validate:"gte=1,lte=5"`
}

type reviewBody struct {
	ReviewInput
	Product string `json:"product,omitempty"`
}

// ListReviews returns the reviews for productID.
func (c *Client) ListReviews(ctx context.Context, productID string) ([]Review, error) {
	q := url.Values{}
	if productID != "" {
		q.Set("product", productID)
	}
	var page Page[Review]
	if err := c.list(ctx, "/v1/reviews", q, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// GetReview returns a single review.
func (c *Client) GetReview(ctx context.Context, id string) (*Review, error) {
	var resp struct {
		Data Review `json:"data"`
	}
	if err := c.get(ctx, "/v1/reviews/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// CreateReview posts a review of productID.
func (c *Client) CreateReview(ctx context.Context, productID string, in ReviewInput) (*Review, error) {
	const path = "/v1/reviews"
	if err := checked(http.MethodPost, path, in); err != nil {
		return nil, err
	}
	var resp struct {
		Data Review `json:"data"`
	}
	if err := c.send(ctx, http.MethodPost, path, reviewBody{ReviewInput: in, Product: productID}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UpdateReview edits a review.
func (c *Client) UpdateReview(ctx context.Context, id string, in ReviewInput) (*Review, error) {
	path := "/v1/reviews/" + url.PathEscape(id)
	if err := checked(http.MethodPut, path, in); err != nil {
		return nil, err
	}
	var resp struct {
		Data Review `json:"data"`
	}
	if err := c.send(ctx, http.MethodPut, path, in, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// DeleteReview removes a review.
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/v1/reviews/"+url.PathEscape(id), Request{}, nil)
}
