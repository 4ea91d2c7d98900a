package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront/internal/backend"
	"github.com/example/storefront/internal/domain/account"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/paging"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/wishlist"
	"github.com/example/storefront/internal/session"
	"github.com/shopspring/decimal"
)

// Call records one backend call
type Call struct {
	Method    string
	Args      []any
	CartToken string
	AuthToken string
}

type mockUser struct {
	user     account.User
	password string
	token    string
}

// MockBackend is an in-memory backend for testing. It keeps one cart, one
// wishlist and an order list, and recomputes the cart summary the way the
// real backend does.
type MockBackend struct {
	mu sync.Mutex

	products map[string]*product.Product
	cart     cart.Cart
	wishlist []string
	orders   map[string]*order.Order
	users    map[string]*mockUser
	nextID   int

	failNext map[string]error
	failAll  map[string]error

	// For tracking calls in tests
	Calls []Call
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		products: make(map[string]*product.Product),
		cart:     cart.Cart{Items: []cart.CartItem{}},
		orders:   make(map[string]*order.Order),
		users:    make(map[string]*mockUser),
		failNext: make(map[string]error),
		failAll:  make(map[string]error),
	}
}

// AddProduct registers a product that can be put in the cart
func (m *MockBackend) AddProduct(p product.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := p
	m.products[p.ID] = &cp
}

// SetOrder seeds an order directly (for test setup)
func (m *MockBackend) SetOrder(o order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := o
	m.orders[o.ID] = &cp
}

// AddUser seeds an account that can log in with password and authenticate
// with token
func (m *MockBackend) AddUser(u account.User, password, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Email] = &mockUser{user: u, password: password, token: token}
}

// FailNext makes the next call to method return err
func (m *MockBackend) FailNext(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[method] = err
}

// Fail makes every call to method return err until Recover is called
func (m *MockBackend) Fail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll[method] = err
}

func (m *MockBackend) Recover(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failAll, method)
	delete(m.failNext, method)
}

func (m *MockBackend) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *MockBackend) LastCall(method string) (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Calls) - 1; i >= 0; i-- {
		if m.Calls[i].Method == method {
			return m.Calls[i], true
		}
	}
	return Call{}, false
}

// record must be called with mu held
func (m *MockBackend) record(ctx context.Context, method string, args ...any) error {
	id := session.FromContext(ctx)
	m.Calls = append(m.Calls, Call{Method: method, Args: args, CartToken: id.CartToken, AuthToken: id.AuthToken})

	if err, ok := m.failNext[method]; ok {
		delete(m.failNext, method)
		return err
	}
	if err, ok := m.failAll[method]; ok {
		return err
	}
	return nil
}

func (m *MockBackend) newID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func validationError(message string) error {
	return &backend.Error{Kind: backend.KindValidation, Status: http.StatusUnprocessableEntity, Message: message}
}

func notFound(what string) error {
	return &backend.Error{Kind: backend.KindNotFound, Status: http.StatusNotFound, Message: what + " not found"}
}

func clone[T any](v T) T {
	raw, _ := json.Marshal(v)
	var out T
	_ = json.Unmarshal(raw, &out)
	return out
}

// ============================================
// Cart
// ============================================

func (m *MockBackend) recompute() {
	subtotal := decimal.Zero
	total := 0
	for i := range m.cart.Items {
		item := &m.cart.Items[i]
		item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if limit, ok := item.MaxQuantity(); ok {
			item.InStock = item.Quantity <= limit
		} else {
			item.InStock = true
		}
		subtotal = subtotal.Add(item.Subtotal)
		total += item.Quantity
	}
	m.cart.Summary = cart.Summary{
		Subtotal:   subtotal,
		Shipping:   decimal.Zero,
		Tax:        decimal.Zero,
		Total:      subtotal,
		TotalItems: total,
	}
}

func (m *MockBackend) GetCart(ctx context.Context) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "GetCart"); err != nil {
		return nil, err
	}
	c := clone(m.cart).Localize(session.FromContext(ctx).Locale)
	return &c, nil
}

func (m *MockBackend) AddCartItem(ctx context.Context, req cart.AddItemRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "AddCartItem", req); err != nil {
		return err
	}
	if req.Quantity < 1 {
		return validationError("The quantity must be at least 1.")
	}
	p, ok := m.products[req.ProductID]
	if !ok {
		return notFound("product")
	}

	var variant *product.Variant
	price := p.FinalPrice
	if req.VariantID != nil {
		v, found := p.Variant(*req.VariantID)
		if !found {
			return notFound("variant")
		}
		variant = v
		price = v.FinalPrice
	}

	for i := range m.cart.Items {
		item := &m.cart.Items[i]
		if item.ProductID == req.ProductID && sameVariant(item.VariantID, req.VariantID) {
			if limit, ok := item.MaxQuantity(); ok && item.Quantity+req.Quantity > limit {
				return validationError("Insufficient stock")
			}
			item.Quantity += req.Quantity
			m.recompute()
			return nil
		}
	}

	item := cart.CartItem{
		ID:        m.newID("item"),
		ProductID: p.ID,
		VariantID: req.VariantID,
		Product:   p,
		Variant:   variant,
		Quantity:  req.Quantity,
		UnitPrice: price,
	}
	if limit, ok := item.MaxQuantity(); ok && req.Quantity > limit {
		return validationError("Insufficient stock")
	}
	m.cart.Items = append(m.cart.Items, item)
	m.recompute()
	return nil
}

func sameVariant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *MockBackend) UpdateCartItem(ctx context.Context, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "UpdateCartItem", itemID, quantity); err != nil {
		return err
	}
	item, ok := m.cart.Item(itemID)
	if !ok {
		return notFound("cart item")
	}
	if limit, ok := item.MaxQuantity(); ok && quantity > limit {
		return validationError("Insufficient stock")
	}
	item.Quantity = quantity
	m.recompute()
	return nil
}

func (m *MockBackend) RemoveCartItem(ctx context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "RemoveCartItem", itemID); err != nil {
		return err
	}
	items := make([]cart.CartItem, 0, len(m.cart.Items))
	found := false
	for _, item := range m.cart.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return notFound("cart item")
	}
	m.cart.Items = items
	m.recompute()
	return nil
}

func (m *MockBackend) ClearCart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "ClearCart"); err != nil {
		return err
	}
	m.cart.Items = []cart.CartItem{}
	m.recompute()
	return nil
}

func (m *MockBackend) ValidateCart(ctx context.Context) (*cart.Validation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "ValidateCart"); err != nil {
		return nil, err
	}
	v := &cart.Validation{Valid: true, Errors: []string{}}
	if len(m.cart.Items) == 0 {
		v.Valid = false
		v.Errors = append(v.Errors, "Your cart is empty.")
	}
	for _, item := range m.cart.Items {
		if !item.InStock {
			v.Valid = false
			v.Errors = append(v.Errors, fmt.Sprintf("%s is out of stock.", item.Product.Name.String()))
		}
	}
	return v, nil
}

// SetStock changes a product's stock behind the storefront's back
func (m *MockBackend) SetStock(productID string, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[productID]; ok {
		p.StockQuantity = &stock
	}
	m.recompute()
}

// ============================================
// Wishlist
// ============================================

func (m *MockBackend) GetWishlist(ctx context.Context) (*wishlist.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "GetWishlist"); err != nil {
		return nil, err
	}
	w := &wishlist.Wishlist{Items: []wishlist.Item{}}
	for _, id := range m.wishlist {
		item := wishlist.Item{ID: "wl-" + id, ProductID: id}
		if p, ok := m.products[id]; ok {
			cp := *p
			item.Product = &cp
		}
		w.Items = append(w.Items, item)
	}
	localized := w.Localize(session.FromContext(ctx).Locale)
	return &localized, nil
}

func (m *MockBackend) AddToWishlist(ctx context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "AddToWishlist", productID); err != nil {
		return err
	}
	for _, id := range m.wishlist {
		if id == productID {
			return nil
		}
	}
	m.wishlist = append(m.wishlist, productID)
	return nil
}

func (m *MockBackend) RemoveFromWishlist(ctx context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "RemoveFromWishlist", productID); err != nil {
		return err
	}
	out := m.wishlist[:0]
	for _, id := range m.wishlist {
		if id != productID {
			out = append(out, id)
		}
	}
	m.wishlist = out
	return nil
}

// ============================================
// Orders
// ============================================

func (m *MockBackend) ListOrders(ctx context.Context, page int) (*paging.Page[order.Order], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "ListOrders", page); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(m.orders))
	for id := range m.orders {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := &paging.Page[order.Order]{
		Data: make([]order.Order, 0, len(ids)),
		Meta: paging.Meta{CurrentPage: max(page, 1), LastPage: 1, PerPage: 15, Total: len(ids)},
	}
	locale := session.FromContext(ctx).Locale
	for _, id := range ids {
		out.Data = append(out.Data, clone(*m.orders[id]).Localize(locale))
	}
	return out, nil
}

func (m *MockBackend) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "GetOrder", id); err != nil {
		return nil, err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, notFound("order")
	}
	cp := clone(*o).Localize(session.FromContext(ctx).Locale)
	return &cp, nil
}

func (m *MockBackend) CreateOrder(ctx context.Context, req order.CreateOrderRequest) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "CreateOrder", req); err != nil {
		return nil, err
	}
	if req.CartToken == "" && !session.FromContext(ctx).Authenticated() {
		return nil, &backend.Error{Kind: backend.KindUnauthorized, Status: http.StatusUnauthorized, Message: "Unauthenticated."}
	}
	if len(m.cart.Items) == 0 {
		return nil, validationError("Your cart is empty.")
	}

	o := &order.Order{
		ID:              m.newID("order"),
		Status:          order.StatusPending,
		Customer:        &req.Customer,
		ShippingMethod:  req.ShippingMethod,
		ShippingAddress: req.ShippingAddress,
		OfficeID:        req.OfficeID,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   "pending",
		Subtotal:        m.cart.Summary.Subtotal,
		Shipping:        m.cart.Summary.Shipping,
		Tax:             m.cart.Summary.Tax,
		Total:           m.cart.Summary.Total,
		Notes:           req.Notes,
		CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	o.OrderNumber = strings.ToUpper(o.ID)
	for _, item := range m.cart.Items {
		name := product.Text(item.ProductID)
		sku := ""
		if item.Product != nil {
			name = item.Product.Name
			sku = item.Product.SKU
		}
		o.Items = append(o.Items, order.OrderItem{
			ID:          m.newID("order-item"),
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: name,
			SKU:         sku,
			Quantity:    item.Quantity,
			Price:       item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	m.orders[o.ID] = o
	m.cart.Items = []cart.CartItem{}
	m.recompute()

	cp := clone(*o).Localize(session.FromContext(ctx).Locale)
	return &cp, nil
}

func (m *MockBackend) CancelOrder(ctx context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "CancelOrder", id); err != nil {
		return nil, err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, notFound("order")
	}
	if o.Status != order.StatusPending && o.Status != order.StatusProcessing {
		return nil, validationError("This order can no longer be cancelled.")
	}
	o.Status = order.StatusCancelled
	cp := clone(*o).Localize(session.FromContext(ctx).Locale)
	return &cp, nil
}

// ============================================
// Catalog
// ============================================

func (m *MockBackend) ListProducts(ctx context.Context, params product.ListParams) (*paging.Page[product.Product], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "ListProducts", params); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	locale := session.FromContext(ctx).Locale
	out := &paging.Page[product.Product]{
		Data: make([]product.Product, 0, len(ids)),
		Meta: paging.Meta{CurrentPage: max(params.Page, 1), LastPage: 1, PerPage: 12, Total: len(ids)},
	}
	for _, id := range ids {
		out.Data = append(out.Data, m.products[id].Localize(locale))
	}
	return out, nil
}

func (m *MockBackend) GetProduct(ctx context.Context, slug string) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "GetProduct", slug); err != nil {
		return nil, err
	}
	for _, p := range m.products {
		if p.Slug == slug {
			localized := p.Localize(session.FromContext(ctx).Locale)
			return &localized, nil
		}
	}
	return nil, product.ErrProductNotFound
}

func (m *MockBackend) ListCategories(ctx context.Context) ([]product.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "ListCategories"); err != nil {
		return nil, err
	}
	return []product.Category{{ID: "cat-1", Slug: "mugs", Name: product.Text("Mugs")}}, nil
}

func (m *MockBackend) ListCollections(ctx context.Context) ([]product.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "ListCollections"); err != nil {
		return nil, err
	}
	return []product.Collection{{ID: "col-1", Slug: "summer", Name: product.Text("Summer")}}, nil
}

// ============================================
// Account
// ============================================

func (m *MockBackend) userByToken(token string) (*mockUser, bool) {
	for _, u := range m.users {
		if u.token == token {
			return u, true
		}
	}
	return nil, false
}

func unauthenticated() error {
	return &backend.Error{Kind: backend.KindUnauthorized, Status: http.StatusUnauthorized, Message: "Unauthenticated."}
}

func (m *MockBackend) Login(ctx context.Context, req account.LoginRequest) (*account.AuthResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "Login", req.Email); err != nil {
		return nil, err
	}
	u, ok := m.users[req.Email]
	if !ok || u.password != req.Password {
		return nil, &backend.Error{
			Kind:    backend.KindValidation,
			Status:  http.StatusUnprocessableEntity,
			Message: "These credentials do not match our records.",
			Fields:  map[string][]string{"email": {"These credentials do not match our records."}},
		}
	}
	return &account.AuthResult{User: u.user, Token: u.token}, nil
}

func (m *MockBackend) Register(ctx context.Context, req account.RegisterRequest) (*account.AuthResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "Register", req.Email); err != nil {
		return nil, err
	}
	if _, exists := m.users[req.Email]; exists {
		return nil, &backend.Error{
			Kind:    backend.KindValidation,
			Status:  http.StatusUnprocessableEntity,
			Message: "The email has already been taken.",
			Fields:  map[string][]string{"email": {"The email has already been taken."}},
		}
	}
	u := &mockUser{
		user:     account.User{ID: m.newID("user"), Name: req.Name, Email: req.Email},
		password: req.Password,
		token:    m.newID("token"),
	}
	m.users[req.Email] = u
	return &account.AuthResult{User: u.user, Token: u.token}, nil
}

func (m *MockBackend) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record(ctx, "Logout")
}

func (m *MockBackend) ForgotPassword(ctx context.Context, req account.ForgotPasswordRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "ForgotPassword", req.Email); err != nil {
		return "", err
	}
	return "We have emailed your password reset link.", nil
}

func (m *MockBackend) Me(ctx context.Context) (*account.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "Me"); err != nil {
		return nil, err
	}
	u, ok := m.userByToken(session.FromContext(ctx).AuthToken)
	if !ok {
		return nil, unauthenticated()
	}
	cp := u.user
	return &cp, nil
}

func (m *MockBackend) UpdateProfile(ctx context.Context, req account.UpdateProfileRequest) (*account.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(ctx, "UpdateProfile", req); err != nil {
		return nil, err
	}
	u, ok := m.userByToken(session.FromContext(ctx).AuthToken)
	if !ok {
		return nil, unauthenticated()
	}
	u.user.Name = req.Name
	u.user.Email = req.Email
	u.user.Phone = req.Phone
	cp := u.user
	return &cp, nil
}
