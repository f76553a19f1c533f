package repository

import (
	"context"

	repo "flowershop/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders        repo.OrderRepository
	orderProducts repo.OrderProductRepository
	cartLines     repo.CartLineRepository
	products      repo.ProductRepository
	users         repo.UserRepository
	auditLogs     repo.AuditLogRepository
	reviews       repo.ReviewRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository               { return r.orders }
func (r *txReposGorm) OrderProducts() repo.OrderProductRepository { return r.orderProducts }
func (r *txReposGorm) CartLines() repo.CartLineRepository         { return r.cartLines }
func (r *txReposGorm) Products() repo.ProductRepository           { return r.products }
func (r *txReposGorm) Users() repo.UserRepository                 { return r.users }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository         { return r.auditLogs }
func (r *txReposGorm) Reviews() repo.ReviewRepository             { return r.reviews }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:        NewOrderGormRepository(tx),
			orderProducts: NewOrderProductGormRepository(tx),
			cartLines:     NewCartLineGormRepository(tx),
			products:      NewProductGormRepository(tx),
			users:         NewUserGormRepository(tx),
			auditLogs:     NewAuditLogGormRepository(tx),
			reviews:       NewReviewGormRepository(tx),
		}
		return fn(r)
	})
}
