package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/cassiomorais/storefront/internal/domain/customer"
	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
	"github.com/cassiomorais/storefront/internal/domain/order"
	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/cassiomorais/storefront/internal/domain/payment"
	"github.com/cassiomorais/storefront/internal/domain/product"
)

// --- Transaction manager mock ---

type mockTxKey struct{}

// mockTx tracks what a mock transaction did: row locks held until the
// transaction ends (mirroring how Postgres holds FOR UPDATE locks until
// commit/rollback) and undo closures replayed in reverse when fn fails,
// so mock state rolls back the way the real database would.
type mockTx struct {
	mu      sync.Mutex
	unlocks []func()
	undos   []func()
}

func (tx *mockTx) addLock(unlock func()) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.unlocks = append(tx.unlocks, unlock)
}

func (tx *mockTx) addUndo(undo func()) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.undos = append(tx.undos, undo)
}

func (tx *mockTx) rollback() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	for i := len(tx.undos) - 1; i >= 0; i-- {
		tx.undos[i]()
	}
	tx.undos = nil
}

func (tx *mockTx) releaseLocks() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	for i := len(tx.unlocks) - 1; i >= 0; i-- {
		tx.unlocks[i]()
	}
	tx.unlocks = nil
}

// MockTransactionManager runs fn with a mock transaction in context.
// On error the recorded writes are undone before the row locks release,
// so a concurrent caller never observes uncommitted state.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	tx := &mockTx{}
	txCtx := context.WithValue(ctx, mockTxKey{}, tx)
	defer tx.releaseLocks()
	if err := fn(txCtx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func txFrom(ctx context.Context) *mockTx {
	tx, _ := ctx.Value(mockTxKey{}).(*mockTx)
	return tx
}

func registerUndo(ctx context.Context, undo func()) {
	if tx := txFrom(ctx); tx != nil {
		tx.addUndo(undo)
	}
}

// --- Product repository mock ---

// MockProductRepository keeps products in memory. Lock takes a real
// per-row mutex held until the surrounding mock transaction completes,
// so concurrent-placement tests exercise the serialization the real
// repository gets from FOR UPDATE.
type MockProductRepository struct {
	mu       sync.Mutex
	products map[int64]*product.Product
	rowMu    map[int64]*sync.Mutex
	nextID   int64

	GetByIDFunc  func(ctx context.Context, id int64) (*product.Product, error)
	LockFunc     func(ctx context.Context, id int64) (*product.Product, error)
	SetStockFunc func(ctx context.Context, id int64, quantity int) error
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[int64]*product.Product),
		rowMu:    make(map[int64]*sync.Mutex),
		nextID:   1,
	}
}

// AddProduct pre-populates the mock with a product.
func (m *MockProductRepository) AddProduct(p *product.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.nextID
		m.nextID++
	}
	m.products[p.ID] = p
	m.rowMu[p.ID] = &sync.Mutex{}
}

func (m *MockProductRepository) Create(ctx context.Context, p *product.Product) error {
	m.AddProduct(p)
	return nil
}

func (m *MockProductRepository) snapshot(id int64) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domainErrors.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return m.snapshot(id)
}

func (m *MockProductRepository) Lock(ctx context.Context, id int64) (*product.Product, error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, id)
	}
	m.mu.Lock()
	rowMu, ok := m.rowMu[id]
	m.mu.Unlock()
	if !ok {
		return nil, domainErrors.ErrProductNotFound
	}

	rowMu.Lock()
	if tx := txFrom(ctx); tx != nil {
		tx.addLock(rowMu.Unlock)
	} else {
		defer rowMu.Unlock()
	}
	return m.snapshot(id)
}

func (m *MockProductRepository) SetStock(ctx context.Context, id int64, quantity int) error {
	if m.SetStockFunc != nil {
		return m.SetStockFunc(ctx, id, quantity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domainErrors.ErrProductNotFound
	}
	prev := p.StockQuantity
	registerUndo(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		p.StockQuantity = prev
	})
	p.StockQuantity = quantity
	return nil
}

func (m *MockProductRepository) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*product.Product
	for _, p := range m.products {
		if filter.InStockOnly && p.StockQuantity == 0 {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// --- Customer repository mock ---

type MockCustomerRepository struct {
	mu        sync.Mutex
	customers map[int64]*customer.Customer
	nextID    int64
}

func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{customers: make(map[int64]*customer.Customer), nextID: 1}
}

func (m *MockCustomerRepository) AddCustomer(c *customer.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.nextID
		m.nextID++
	}
	m.customers[c.ID] = c
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	m.AddCustomer(c)
	return nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, domainErrors.ErrCustomerNotFound
	}
	return c, nil
}

func (m *MockCustomerRepository) List(ctx context.Context, limit, offset int) ([]*customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*customer.Customer
	for _, c := range m.customers {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// --- Order repository mock ---

type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[int64]*order.Order
	items  map[int64][]*order.Item
	nextID int64

	CreateFunc   func(ctx context.Context, o *order.Order) error
	AddItemFunc  func(ctx context.Context, item *order.Item) error
	SetTotalFunc func(ctx context.Context, orderID int64, totalCents int64) error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[int64]*order.Order),
		items:  make(map[int64][]*order.Item),
		nextID: 1,
	}
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.nextID
	m.nextID++
	cp := *o
	m.orders[o.ID] = &cp
	id := o.ID
	registerUndo(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.orders, id)
	})
	return nil
}

func (m *MockOrderRepository) AddItem(ctx context.Context, item *order.Item) error {
	if m.AddItemFunc != nil {
		return m.AddItemFunc(ctx, item)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = m.nextID
	m.nextID++
	m.items[item.OrderID] = append(m.items[item.OrderID], item)
	orderID := item.OrderID
	registerUndo(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		items := m.items[orderID]
		if len(items) > 0 {
			m.items[orderID] = items[:len(items)-1]
		}
	})
	return nil
}

func (m *MockOrderRepository) SetTotal(ctx context.Context, orderID int64, totalCents int64) error {
	if m.SetTotalFunc != nil {
		return m.SetTotalFunc(ctx, orderID, totalCents)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domainErrors.ErrOrderNotFound
	}
	prev := o.TotalDueCents
	registerUndo(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		o.TotalDueCents = prev
	})
	o.TotalDueCents = totalCents
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	cp := *o
	cp.Items = m.items[id]
	return &cp, nil
}

func (m *MockOrderRepository) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*order.Order
	for _, o := range m.orders {
		if filter.CustomerID > 0 && o.CustomerID != filter.CustomerID {
			continue
		}
		cp := *o
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// OrderCount returns the number of persisted orders.
func (m *MockOrderRepository) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// --- Payment repository mock ---

type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[int64]*payment.Payment
	rowMu    map[int64]*sync.Mutex
	nextID   int64

	UpdateFunc func(ctx context.Context, p *payment.Payment) error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[int64]*payment.Payment),
		rowMu:    make(map[int64]*sync.Mutex),
		nextID:   1,
	}
}

func (m *MockPaymentRepository) AddPayment(p *payment.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.nextID
		m.nextID++
	}
	m.payments[p.ID] = p
	m.rowMu[p.ID] = &sync.Mutex{}
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	m.AddPayment(p)
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id int64) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

// GetByIDForUpdate takes the payment's row lock before reading. Inside a
// transaction the lock is held until the transaction ends, matching
// SELECT ... FOR UPDATE semantics.
func (m *MockPaymentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*payment.Payment, error) {
	m.mu.Lock()
	rowMu, ok := m.rowMu[id]
	m.mu.Unlock()
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}

	rowMu.Lock()
	if tx := txFrom(ctx); tx != nil {
		tx.addLock(rowMu.Unlock)
	} else {
		defer rowMu.Unlock()
	}
	return m.GetByID(ctx, id)
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.payments[p.ID]
	if !ok {
		return domainErrors.ErrPaymentNotFound
	}
	registerUndo(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.payments[p.ID] = prev
	})
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*payment.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

// --- Outbox repository mock ---

// MockOutboxRepository is an in-memory outbox. Claim returns pending and
// failed events oldest-first like the SQL claim scan; row locking is not
// emulated.
type MockOutboxRepository struct {
	mu     sync.Mutex
	events map[int64]*outbox.Event
	nextID int64

	InsertFunc func(ctx context.Context, e *outbox.Event) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{events: make(map[int64]*outbox.Event), nextID: 1}
}

func (m *MockOutboxRepository) Insert(ctx context.Context, e *outbox.Event) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID
	m.nextID++
	cp := *e
	m.events[e.ID] = &cp
	id := e.ID
	registerUndo(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.events, id)
	})
	return nil
}

func (m *MockOutboxRepository) Claim(ctx context.Context, limit int) ([]*outbox.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var claimable []*outbox.Event
	for _, e := range m.events {
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusFailed {
			cp := *e
			claimable = append(claimable, &cp)
		}
	}
	sort.Slice(claimable, func(i, j int) bool {
		if claimable[i].CreatedAt.Equal(claimable[j].CreatedAt) {
			return claimable[i].ID < claimable[j].ID
		}
		return claimable[i].CreatedAt.Before(claimable[j].CreatedAt)
	})
	if limit > 0 && len(claimable) > limit {
		claimable = claimable[:limit]
	}
	return claimable, nil
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, e *outbox.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.events[e.ID]
	if !ok {
		return domainErrors.ErrEventNotFound
	}
	stored.Status = e.Status
	stored.Attempts = e.Attempts
	stored.ProcessedAt = e.ProcessedAt
	return nil
}

func (m *MockOutboxRepository) GetByID(ctx context.Context, id int64) (*outbox.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, domainErrors.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockOutboxRepository) List(ctx context.Context, filter outbox.ListFilter) ([]*outbox.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*outbox.Event
	for _, e := range m.events {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// EventsByStatus returns stored events in a given status.
func (m *MockOutboxRepository) EventsByStatus(status outbox.Status) []*outbox.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*outbox.Event
	for _, e := range m.events {
		if e.Status == status {
			cp := *e
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
