package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/cart"
	"github.com/five82/tote/internal/prefs"
)

var sortOrder = []string{"", api.SortPriceAsc, api.SortPriceDesc, api.SortRatingDesc, api.SortNewest, api.SortBestSold}

func sortLabel(sort string) string {
	switch sort {
	case api.SortPriceAsc:
		return "Price ↑"
	case api.SortPriceDesc:
		return "Price ↓"
	case api.SortRatingDesc:
		return "Top rated"
	case api.SortNewest:
		return "Newest"
	case api.SortBestSold:
		return "Best selling"
	default:
		return "Featured"
	}
}

type catalogState struct {
	products   []api.Product
	meta       *api.Metadata
	page       int
	limit      int
	selected   int
	categories []api.Category
	category   int // -1 means all categories
	sort       int
	keyword    string
	loading    bool
	err        error

	searching bool
	search    textinput.Model

	detail *productDetail
}

type productDetail struct {
	product   api.Product
	reviews   []api.Review
	loading   bool
	err       error
	reviewing bool
	review    form
}

func newCatalogState(p prefs.Prefs) catalogState {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search products"
	search.CharLimit = 64

	sort := 0
	for i, s := range sortOrder {
		if s == p.DefaultSort {
			sort = i
		}
	}
	return catalogState{page: 1, limit: p.PageSize, category: -1, sort: sort, loading: true, search: search}
}

func (c catalogState) query() api.ProductQuery {
	q := api.ProductQuery{
		Keyword: c.keyword,
		Sort:    sortOrder[c.sort],
		Limit:   c.limit,
		Page:    c.page,
	}
	if c.category >= 0 && c.category < len(c.categories) {
		q.Category = c.categories[c.category].ID
	}
	return q
}

func (c catalogState) categoryLabel() string {
	if c.category < 0 || c.category >= len(c.categories) {
		return "All categories"
	}
	return c.categories[c.category].Name
}

func (c catalogState) lastPage() int {
	if c.meta == nil || c.meta.NumberOfPages < 1 {
		return 1
	}
	return c.meta.NumberOfPages
}

func (c catalogState) current() *api.Product {
	if c.detail != nil {
		return &c.detail.product
	}
	if len(c.products) == 0 {
		return nil
	}
	p := c.products[clamp(c.selected, len(c.products))]
	return &p
}

func newReviewForm() form {
	return newForm("Write a review",
		fieldSpec{name: "rating", label: "Rating (1-5)", limit: 1},
		fieldSpec{name: "review", label: "Review", limit: 500},
	)
}

func (m *Model) reloadProducts() tea.Cmd {
	if m.client == nil {
		return nil
	}
	m.catalog.loading = true
	m.catalog.selected = 0
	return fetchProductsCmd(m.ctx, m.client, m.catalog.query())
}

func (m Model) handleCatalogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := &m.catalog
	if c.detail != nil {
		return m.handleDetailKey(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		c.selected = clamp(c.selected-1, len(c.products))
	case key.Matches(msg, m.keys.Down):
		c.selected = clamp(c.selected+1, len(c.products))
	case key.Matches(msg, m.keys.Top):
		c.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		c.selected = clamp(len(c.products)-1, len(c.products))
	case key.Matches(msg, m.keys.NextPage):
		if c.page < c.lastPage() {
			c.page++
			return m, m.reloadProducts()
		}
	case key.Matches(msg, m.keys.PrevPage):
		if c.page > 1 {
			c.page--
			return m, m.reloadProducts()
		}
	case key.Matches(msg, m.keys.CycleCategory):
		c.category++
		if c.category >= len(c.categories) {
			c.category = -1
		}
		c.page = 1
		return m, m.reloadProducts()
	case key.Matches(msg, m.keys.CycleSort):
		c.sort = (c.sort + 1) % len(sortOrder)
		c.page = 1
		return m, m.reloadProducts()
	case key.Matches(msg, m.keys.Search):
		c.searching = true
		c.search.SetValue(c.keyword)
		return m, c.search.Focus()
	case key.Matches(msg, m.keys.Escape):
		if c.keyword != "" {
			c.keyword = ""
			c.page = 1
			return m, m.reloadProducts()
		}
	case key.Matches(msg, m.keys.Confirm):
		if p := c.current(); p != nil && m.client != nil {
			c.detail = &productDetail{product: *p, loading: true}
			return m, fetchDetailCmd(m.ctx, m.client, p.ID)
		}
	case key.Matches(msg, m.keys.AddToCart):
		return m, m.addToCart(c.current())
	case key.Matches(msg, m.keys.ToggleWishlist):
		return m, m.toggleWishlist(c.current())
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.catalog.detail
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.catalog.detail = nil
	case key.Matches(msg, m.keys.AddToCart):
		return m, m.addToCart(&d.product)
	case key.Matches(msg, m.keys.ToggleWishlist):
		return m, m.toggleWishlist(&d.product)
	case key.Matches(msg, m.keys.WriteReview):
		if !m.sessionSnap.Authenticated() {
			m.setFlash("Please login to write a review")
			m.flashErr = true
			return m, nil
		}
		d.reviewing = true
		d.review = newReviewForm()
	}
	return m, nil
}

// handleCatalogInputKey drives the search box and the review form.
func (m Model) handleCatalogInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := &m.catalog
	if c.searching {
		switch msg.Type {
		case tea.KeyEsc:
			c.searching = false
			c.search.Blur()
			return m, nil
		case tea.KeyEnter:
			c.searching = false
			c.search.Blur()
			c.keyword = strings.TrimSpace(c.search.Value())
			c.page = 1
			return m, m.reloadProducts()
		}
		var cmd tea.Cmd
		c.search, cmd = c.search.Update(msg)
		return m, cmd
	}

	d := c.detail
	if msg.Type == tea.KeyEsc {
		d.reviewing = false
		return m, nil
	}
	submit, cmd := d.review.update(msg, m.keys)
	if !submit {
		return m, cmd
	}
	rating, _ := strconv.ParseFloat(d.review.value("rating"), 64)
	in := api.ReviewInput{Review: d.review.value("review"), Rating: rating}
	if !d.review.check(in) {
		return m, nil
	}
	return m, createReviewCmd(m.ctx, m.client, d.product.ID, in)
}

func (m *Model) addToCart(p *api.Product) tea.Cmd {
	if p == nil || m.cart == nil {
		return nil
	}
	id := p.ID
	store := m.cart
	return cartActionCmd(m.ctx, "Product added to cart", func(ctx context.Context) (cart.Snapshot, error) {
		return store.Add(ctx, id)
	})
}

func (m *Model) toggleWishlist(p *api.Product) tea.Cmd {
	if p == nil || m.wish == nil {
		return nil
	}
	return wishlistActionCmd(m.ctx, m.wish, p.ID)
}

func (m Model) handleCatalogMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	c := &m.catalog
	switch msg := msg.(type) {
	case productsMsg:
		c.loading = false
		c.err = msg.err
		if msg.err == nil && msg.page != nil {
			c.products = msg.page.Data
			c.meta = msg.page.Metadata
		} else if msg.err == nil {
			c.products = nil
			c.meta = nil
		}
		c.selected = clamp(c.selected, len(c.products))
	case categoriesMsg:
		if msg.err != nil {
			m.logger.Debug("load categories failed")
			return m, nil
		}
		c.categories = msg.items
	case detailMsg:
		if c.detail == nil {
			return m, nil
		}
		c.detail.loading = false
		if msg.product != nil {
			c.detail.product = *msg.product
		}
		c.detail.reviews = msg.reviews
		c.detail.err = msg.err
	case reviewMsg:
		if c.detail == nil || c.detail.product.ID != msg.productID {
			return m, nil
		}
		if msg.err != nil {
			c.detail.review.fail(msg.err, "Failed to submit review.")
			return m, nil
		}
		c.detail.reviewing = false
		c.detail.loading = true
		m.setFlash("Review submitted")
		return m, fetchDetailCmd(m.ctx, m.client, msg.productID)
	}
	return m, nil
}

func (m Model) renderCatalog() string {
	styles := m.theme.Styles()
	c := m.catalog
	if c.detail != nil {
		return m.renderDetail()
	}

	var b strings.Builder
	filters := fmt.Sprintf("%s · %s", c.categoryLabel(), sortLabel(sortOrder[c.sort]))
	if c.keyword != "" {
		filters += fmt.Sprintf(" · \"%s\"", c.keyword)
	}
	b.WriteString(styles.MutedText.Render(filters))
	b.WriteString(styles.FaintText.Render(fmt.Sprintf("   page %d/%d", c.page, c.lastPage())))
	b.WriteString("\n")
	if c.searching {
		b.WriteString(c.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case c.loading && len(c.products) == 0:
		b.WriteString(styles.MutedText.Render("Loading products..."))
		return b.String()
	case c.err != nil:
		b.WriteString(styles.DangerText.Render(api.Message(c.err, "Failed to load products.")))
		return b.String()
	case len(c.products) == 0:
		b.WriteString(styles.MutedText.Render("No products found"))
		return b.String()
	}

	titleWidth := max(20, m.width-40)
	for i, p := range c.products {
		marker := ternary(m.wishSnap.Has(p.ID), "♥", " ")
		line := fmt.Sprintf("%s %s %12s  %s",
			marker,
			padRight(truncate(p.Title, titleWidth), titleWidth),
			formatPrice(p.EffectivePrice()),
			stars(p.RatingsAverage),
		)
		if i == c.selected {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	d := m.catalog.detail
	p := d.product

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(p.Title))
	b.WriteString("\n")
	var meta []string
	if p.Brand != nil && p.Brand.Name != "" {
		meta = append(meta, p.Brand.Name)
	}
	if p.Category != nil && p.Category.Name != "" {
		meta = append(meta, p.Category.Name)
	}
	if len(meta) > 0 {
		b.WriteString(styles.MutedText.Render(strings.Join(meta, " · ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	price := formatPrice(p.EffectivePrice())
	if p.PriceAfterDiscount != nil && *p.PriceAfterDiscount < p.Price {
		price += styles.FaintText.Render("  was " + formatPrice(p.Price))
	}
	b.WriteString(styles.AccentText.Render(price))
	b.WriteString("   ")
	b.WriteString(styles.StatusStyle(stockLabel(p.Quantity)).Render(stockLabel(p.Quantity)))
	b.WriteString("   ")
	b.WriteString(styles.WarningText.Render(stars(p.RatingsAverage)))
	b.WriteString(styles.FaintText.Render(fmt.Sprintf(" (%d)", p.RatingsQuantity)))
	b.WriteString("\n\n")
	if p.Description != "" {
		b.WriteString(styles.Text.Width(max(20, m.width-4)).Render(p.Description))
		b.WriteString("\n\n")
	}

	if d.reviewing {
		b.WriteString(d.review.render(styles, m.width))
		return b.String()
	}

	b.WriteString(styles.AccentText.Bold(true).Render("Reviews"))
	b.WriteString("\n")
	switch {
	case d.loading:
		b.WriteString(styles.MutedText.Render("Loading reviews..."))
	case d.err != nil:
		b.WriteString(styles.DangerText.Render(api.Message(d.err, "Failed to load reviews.")))
	case len(d.reviews) == 0:
		b.WriteString(styles.MutedText.Render("No reviews yet"))
	default:
		for _, r := range d.reviews {
			name := "Anonymous"
			if r.User != nil && r.User.Name != "" {
				name = r.User.Name
			}
			b.WriteString(styles.WarningText.Render(stars(r.Rating)))
			b.WriteString(" ")
			b.WriteString(styles.Text.Bold(true).Render(name))
			b.WriteString("\n")
			b.WriteString(styles.Text.Render(truncate(r.Review, max(20, m.width-4))))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func stockLabel(quantity int) string {
	switch {
	case quantity <= 0:
		return "out of stock"
	case quantity < 10:
		return "low stock"
	default:
		return "in stock"
	}
}
