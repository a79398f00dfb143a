package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Metadata describes one page of a paged listing.
type Metadata struct {
	CurrentPage   int `json:"currentPage"`
	NumberOfPages int `json:"numberOfPages"`
	Limit         int `json:"limit"`
	NextPage      int `json:"nextPage,omitempty"`
	PrevPage      int `json:"prevPage,omitempty"`
}

// Page is a paged listing response.
type Page[T any] struct {
	Results  int       `json:"results"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Data     []T       `json:"data"`
}

// Category is a top-level catalog grouping.
type Category struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image,omitempty"`
}

// SubCategory belongs to a Category.
type SubCategory struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Category string `json:"category"`
}

// Brand is a product manufacturer.
type Brand struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image,omitempty"`
}

// Product is a catalog entry. The API sends both "_id" and "id"; either fills ID.
type Product struct {
	ID                 string        `json:"_id"`
	Title              string        `json:"title"`
	Slug               string        `json:"slug,omitempty"`
	Description        string        `json:"description,omitempty"`
	Quantity           int           `json:"quantity,omitempty"`
	Sold               int           `json:"sold,omitempty"`
	Price              float64       `json:"price"`
	PriceAfterDiscount *float64      `json:"priceAfterDiscount,omitempty"`
	ImageCover         string        `json:"imageCover,omitempty"`
	Images             []string      `json:"images,omitempty"`
	Category           *Category     `json:"category,omitempty"`
	Brand              *Brand        `json:"brand,omitempty"`
	SubCategories      []SubCategory `json:"subcategory,omitempty"`
	RatingsAverage     float64       `json:"ratingsAverage,omitempty"`
	RatingsQuantity    int           `json:"ratingsQuantity,omitempty"`
}

// UnmarshalJSON accepts either identifier field.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var raw struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(raw.plain)
	if p.ID == "" {
		p.ID = raw.AltID
	}
	return nil
}

// EffectivePrice is the discounted price when one is set.
func (p Product) EffectivePrice() float64 {
	if p.PriceAfterDiscount != nil && *p.PriceAfterDiscount > 0 {
		return *p.PriceAfterDiscount
	}
	return p.Price
}

// ProductRef is a cart line's product. Reads return the populated product;
// mutation responses return only its id.
type ProductRef struct {
	ID      string
	Product *Product
}

// UnmarshalJSON accepts a bare id string or a product object.
func (r *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ProductRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = ProductRef{ID: id}
		return nil
	}
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode product ref: %w", err)
	}
	*r = ProductRef{ID: p.ID, Product: &p}
	return nil
}

// MarshalJSON writes the populated product when known, else the id.
func (r ProductRef) MarshalJSON() ([]byte, error) {
	if r.Product != nil {
		return json.Marshal(r.Product)
	}
	return json.Marshal(r.ID)
}

// CartItem is one cart line. Price is the unit price snapshot taken by the server.
type CartItem struct {
	ID      string     `json:"_id"`
	Count   int        `json:"count"`
	Price   float64    `json:"price"`
	Product ProductRef `json:"product"`
}

// Cart is the server's cart snapshot.
type Cart struct {
	ID                 string     `json:"_id"`
	Owner              string     `json:"cartOwner,omitempty"`
	Products           []CartItem `json:"products"`
	TotalPrice         float64    `json:"totalCartPrice"`
	TotalAfterDiscount *float64   `json:"totalPriceAfterDiscount,omitempty"`
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	dup := *c
	if c.Products != nil {
		dup.Products = make([]CartItem, len(c.Products))
		copy(dup.Products, c.Products)
		for i := range dup.Products {
			if p := dup.Products[i].Product.Product; p != nil {
				cp := *p
				dup.Products[i].Product.Product = &cp
			}
		}
	}
	if c.TotalAfterDiscount != nil {
		v := *c.TotalAfterDiscount
		dup.TotalAfterDiscount = &v
	}
	return &dup
}

// CartResponse wraps every cart endpoint's answer. NumOfCartItems is the
// server's own count and is the only source for the displayed item count.
type CartResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
	NumOfCartItems int    `json:"numOfCartItems"`
	CartID         string `json:"cartId,omitempty"`
	Data           *Cart  `json:"data"`
}

// WishlistResponse is the wishlist read response.
type WishlistResponse struct {
	Status string    `json:"status"`
	Count  int       `json:"count"`
	Data   []Product `json:"data"`
}

// WishlistMutation is the answer to add/remove. Data holds product ids only,
// which is why callers refetch the list afterwards.
type WishlistMutation struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Data    []string `json:"data"`
}

// Address is a saved shipping address.
type Address struct {
	ID      string `json:"_id,omitempty"`
	Name    string `json:"name" validate:"required,min=2"`
	Details string `json:"details" validate:"required,min=3"`
	Phone   string `json:"phone" validate:"required,egphone"`
	City    string `json:"city" validate:"required,min=2"`
}

// ShippingAddress is the address embedded in an order.
type ShippingAddress struct {
	Details string `json:"details"`
	Phone   string `json:"phone"`
	City    string `json:"city"`
}

// ShippingFrom copies the order-relevant fields of a saved address.
func ShippingFrom(a Address) ShippingAddress {
	return ShippingAddress{Details: a.Details, Phone: a.Phone, City: a.City}
}

// OrderUser is the buyer summary attached to an order.
type OrderUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Order is a placed order.
type Order struct {
	ID                string           `json:"_id"`
	Number            int              `json:"id,omitempty"`
	ShippingAddress   *ShippingAddress `json:"shippingAddress,omitempty"`
	TaxPrice          float64          `json:"taxPrice"`
	ShippingPrice     float64          `json:"shippingPrice"`
	TotalOrderPrice   float64          `json:"totalOrderPrice"`
	PaymentMethodType string           `json:"paymentMethodType"`
	IsPaid            bool             `json:"isPaid"`
	IsDelivered       bool             `json:"isDelivered"`
	User              *OrderUser       `json:"user,omitempty"`
	CartItems         []CartItem       `json:"cartItems"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// CheckoutSession carries the hosted payment page location.
type CheckoutSession struct {
	URL string `json:"url"`
}

// Reviewer is the author summary attached to a review.
type Reviewer struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Review is a product review.
type Review struct {
	ID        string    `json:"_id"`
	Review    string    `json:"review"`
	Rating    float64   `json:"rating"`
	Product   string    `json:"product"`
	User      *Reviewer `json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthUser is the user object returned by sign-in and sign-up.
type AuthUser struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// AuthResponse is returned by sign-in, sign-up and password changes. Some
// deployments nest token and user under "data"; both shapes are accepted.
type AuthResponse struct {
	Message string    `json:"message,omitempty"`
	Token   string    `json:"token"`
	User    *AuthUser `json:"user,omitempty"`
}

// UnmarshalJSON flattens the nested "data" shape.
func (r *AuthResponse) UnmarshalJSON(data []byte) error {
	type plain AuthResponse
	var raw struct {
		plain
		Data *struct {
			Token string    `json:"token"`
			User  *AuthUser `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = AuthResponse(raw.plain)
	if raw.Data != nil {
		if r.Token == "" {
			r.Token = raw.Data.Token
		}
		if r.User == nil {
			r.User = raw.Data.User
		}
	}
	return nil
}

// TokenClaims is the decoded token the verify endpoint returns.
type TokenClaims struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
	Iat  int64  `json:"iat"`
	Exp  int64  `json:"exp"`
}
