package api

import (
	"context"
	"net/url"
	"strconv"
)

// Sort orders accepted by the products listing.
const (
	SortPriceAsc   = "price"
	SortPriceDesc  = "-price"
	SortRatingDesc = "-ratingsAverage"
	SortNewest     = "-createdAt"
	SortBestSold   = "-sold"
)

// ProductQuery filters the products listing. Zero fields are not sent.
type ProductQuery struct {
	Keyword  string
	Category string
	Brand    string
	MinPrice float64
	MaxPrice float64
	Sort     string
	Limit    int
	Page     int
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}
	if q.Category != "" {
		v.Set("category[in]", q.Category)
	}
	if q.Brand != "" {
		v.Set("brand", q.Brand)
	}
	if q.MinPrice > 0 {
		v.Set("price[gte]", strconv.FormatFloat(q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice > 0 {
		v.Set("price[lte]", strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// ListProducts returns one page of products.
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*Page[Product], error) {
	var page Page[Product]
	if err := c.list(ctx, "/v1/products", q.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var resp struct {
		Data Product `json:"data"`
	}
	if err := c.get(ctx, "/v1/products/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var page Page[Category]
	if err := c.list(ctx, "/v1/categories", nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// GetCategory returns a single category.
func (c *Client) GetCategory(ctx context.Context, id string) (*Category, error) {
	var resp struct {
		Data Category `json:"data"`
	}
	if err := c.get(ctx, "/v1/categories/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ListSubCategories returns every sub-category, or those of category when
// it is non-empty.
func (c *Client) ListSubCategories(ctx context.Context, category string) ([]SubCategory, error) {
	path := "/v1/subcategories"
	if category != "" {
		path = "/v1/categories/" + url.PathEscape(category) + "/subcategories"
	}
	var page Page[SubCategory]
	if err := c.list(ctx, path, nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// GetSubCategory returns a single sub-category.
func (c *Client) GetSubCategory(ctx context.Context, id string) (*SubCategory, error) {
	var resp struct {
		Data SubCategory `json:"data"`
	}
	if err := c.get(ctx, "/v1/subcategories/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ListBrands returns every brand.
func (c *Client) ListBrands(ctx context.Context) ([]Brand, error) {
	var page Page[Brand]
	if err := c.list(ctx, "/v1/brands", nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// GetBrand returns a single brand.
func (c *Client) GetBrand(ctx context.Context, id string) (*Brand, error) {
	var resp struct {
		Data Brand `json:"data"`
	}
	if err := c.get(ctx, "/v1/brands/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
