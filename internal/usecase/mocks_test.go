package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"flowershop/internal/domain/model"
	repo "flowershop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders        repo.OrderRepository
	orderProducts repo.OrderProductRepository
	cartLines     repo.CartLineRepository
	products      repo.ProductRepository
	users         repo.UserRepository
	auditLogs     repo.AuditLogRepository
	reviews       repo.ReviewRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository               { return r.orders }
func (r *TxReposMock) OrderProducts() repo.OrderProductRepository { return r.orderProducts }
func (r *TxReposMock) CartLines() repo.CartLineRepository         { return r.cartLines }
func (r *TxReposMock) Products() repo.ProductRepository           { return r.products }
func (r *TxReposMock) Users() repo.UserRepository                 { return r.users }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository         { return r.auditLogs }
func (r *TxReposMock) Reviews() repo.ReviewRepository             { return r.reviews }

// 全部のrepoモックを持つテスト用セット
type repoSet struct {
	tx            *TxManagerMock
	orders        *OrderRepoMock
	orderProducts *OrderProductRepoMock
	cartLines     *CartLineRepoMock
	products      *ProductRepoMock
	users         *UserRepoMock
	auditLogs     *AuditRepoMock
	reviews       *ReviewRepoMock
}

func newRepoSet() *repoSet {
	s := &repoSet{
		tx:            new(TxManagerMock),
		orders:        new(OrderRepoMock),
		orderProducts: new(OrderProductRepoMock),
		cartLines:     new(CartLineRepoMock),
		products:      new(ProductRepoMock),
		users:         new(UserRepoMock),
		auditLogs:     new(AuditRepoMock),
		reviews:       new(ReviewRepoMock),
	}
	s.tx.Repos = &TxReposMock{
		orders:        s.orders,
		orderProducts: s.orderProducts,
		cartLines:     s.cartLines,
		products:      s.products,
		users:         s.users,
		auditLogs:     s.auditLogs,
		reviews:       s.reviews,
	}
	s.tx.On("WithinTx", mock.Anything).Return(nil)
	return s
}

func (s *repoSet) assertAll(t *testing.T) {
	t.Helper()
	s.tx.AssertExpectations(t)
	s.orders.AssertExpectations(t)
	s.orderProducts.AssertExpectations(t)
	s.cartLines.AssertExpectations(t)
	s.products.AssertExpectations(t)
	s.users.AssertExpectations(t)
	s.auditLogs.AssertExpectations(t)
	s.reviews.AssertExpectations(t)
}

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, int64(len(orders)), args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (model.Order, error) {
	args := m.Called(ctx, order)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) UpdateStatusIf(ctx context.Context, orderID int64, version int, status model.OrderStatus, now time.Time) (bool, error) {
	args := m.Called(ctx, orderID, version, status, now)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) SetChannelIDByUserID(ctx context.Context, userID int64, channelID *string) (int64, error) {
	args := m.Called(ctx, userID, channelID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, int64(len(orders)), args.Error(1)
}

func (m *OrderRepoMock) ListCreatedUntil(ctx context.Context, until time.Time) ([]model.Order, error) {
	args := m.Called(ctx, until)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

type OrderProductRepoMock struct{ mock.Mock }

func (m *OrderProductRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderProduct) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *OrderProductRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderProduct, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderProduct)
	return items, args.Error(1)
}

func (m *OrderProductRepoMock) ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.OrderProduct, error) {
	args := m.Called(ctx, orderIDs)
	items, _ := args.Get(0).([]model.OrderProduct)
	return items, args.Error(1)
}

type CartLineRepoMock struct{ mock.Mock }

func (m *CartLineRepoMock) Create(ctx context.Context, line model.CartLine) (model.CartLine, error) {
	args := m.Called(ctx, line)
	l, _ := args.Get(0).(model.CartLine)
	return l, args.Error(1)
}

func (m *CartLineRepoMock) FindByID(ctx context.Context, lineID int64) (model.CartLine, error) {
	args := m.Called(ctx, lineID)
	l, _ := args.Get(0).(model.CartLine)
	return l, args.Error(1)
}

func (m *CartLineRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	args := m.Called(ctx, userID)
	lines, _ := args.Get(0).([]model.CartLine)
	return lines, args.Error(1)
}

func (m *CartLineRepoMock) UpdateDelivery(ctx context.Context, line model.CartLine) error {
	return m.Called(ctx, line).Error(0)
}

func (m *CartLineRepoMock) DeleteByID(ctx context.Context, lineID int64) error {
	return m.Called(ctx, lineID).Error(0)
}

func (m *CartLineRepoMock) DeleteByUserID(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *CartLineRepoMock) IsOwnedByUser(ctx context.Context, lineID int64, userID int64) (bool, error) {
	args := m.Called(ctx, lineID, userID)
	return args.Bool(0), args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, productID int64) error {
	return m.Called(ctx, productID).Error(0)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByChannelID(ctx context.Context, channelID string) (*model.User, error) {
	args := m.Called(ctx, channelID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) ListByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) SetChannelID(ctx context.Context, userID int64, channelID *string) error {
	return m.Called(ctx, userID, channelID).Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *AuditRepoMock) ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID int64, limit int) ([]model.AuditLog, error) {
	args := m.Called(ctx, resourceType, resourceID, limit)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type ReviewRepoMock struct{ mock.Mock }

func (m *ReviewRepoMock) Create(ctx context.Context, review model.Review) (model.Review, error) {
	args := m.Called(ctx, review)
	r, _ := args.Get(0).(model.Review)
	return r, args.Error(1)
}

func (m *ReviewRepoMock) ExistsByUserAndOrder(ctx context.Context, userID int64, orderID int64) (bool, error) {
	args := m.Called(ctx, userID, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *ReviewRepoMock) ExistsByOrder(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *ReviewRepoMock) ListByProductID(ctx context.Context, productID int64, limit int) ([]model.Review, error) {
	args := m.Called(ctx, productID, limit)
	reviews, _ := args.Get(0).([]model.Review)
	return reviews, args.Error(1)
}

var (
	_ repo.OrderRepository        = (*OrderRepoMock)(nil)
	_ repo.OrderProductRepository = (*OrderProductRepoMock)(nil)
	_ repo.CartLineRepository     = (*CartLineRepoMock)(nil)
	_ repo.ProductRepository      = (*ProductRepoMock)(nil)
	_ repo.UserRepository         = (*UserRepoMock)(nil)
	_ repo.AuditLogRepository     = (*AuditRepoMock)(nil)
	_ repo.ReviewRepository       = (*ReviewRepoMock)(nil)
)

// =====================
// helpers
// =====================

// HTTPErrorの実装詳細に依存しない
func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// 受け取ったイベントを記録するだけのlistener
type eventRecorder struct {
	events []model.OrderEvent
}

func (r *eventRecorder) OnOrderEvent(ctx context.Context, ev model.OrderEvent) {
	r.events = append(r.events, ev)
}

func strPtr(s string) *string { return &s }
