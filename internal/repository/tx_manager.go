package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	OrderProducts() OrderProductRepository
	CartLines() CartLineRepository
	Products() ProductRepository
	Users() UserRepository
	AuditLogs() AuditLogRepository
	Reviews() ReviewRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
