package usecase

import (
	"context"
	"time"

	"flowershop/internal/report"
	repo "flowershop/internal/repository"
)

// 管理者向けレポート（HTTPダウンロードとbotの両方で使う）
type ReportUsecase struct {
	tx    repo.TransactionManager
	clock Clock
}

func NewReportUsecase(tx repo.TransactionManager, clock Clock) *ReportUsecase {
	if clock == nil {
		clock = RealClock
	}
	return &ReportUsecase{tx: tx, clock: clock}
}

// Build は asOf 時点のレポートを作る。asOf がゼロなら現在時刻。
func (u *ReportUsecase) Build(ctx context.Context, asOf time.Time) (report.Report, error) {
	if asOf.IsZero() {
		asOf = u.clock.Now()
	}

	var rows []report.OrderRow

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListCreatedUntil(ctx, asOf)
		if err != nil {
			return errDB()
		}

		orderIDs := make([]int64, 0, len(orders))
		userIDs := make([]int64, 0)
		seenUser := map[int64]bool{}
		for _, o := range orders {
			orderIDs = append(orderIDs, o.ID)
			if !seenUser[o.UserID] {
				seenUser[o.UserID] = true
				userIDs = append(userIDs, o.UserID)
			}
		}

		items, err := r.OrderProducts().ListByOrderIDs(ctx, orderIDs)
		if err != nil {
			return errDB()
		}
		productsByOrder := map[int64][]report.ProductRef{}
		for _, it := range items {
			productsByOrder[it.OrderID] = append(productsByOrder[it.OrderID], report.ProductRef{
				ID:   it.ProductID,
				Name: it.ProductNameSnapshot,
			})
		}

		users, err := r.Users().ListByIDs(ctx, userIDs)
		if err != nil {
			return errDB()
		}
		names := make(map[int64]string, len(users))
		for _, usr := range users {
			names[usr.ID] = usr.Username
		}

		rows = make([]report.OrderRow, 0, len(orders))
		for _, o := range orders {
			rows = append(rows, report.OrderRow{
				OrderID:   o.ID,
				UserID:    o.UserID,
				UserName:  names[o.UserID],
				Status:    o.Status,
				Total:     o.TotalPrice,
				CreatedAt: o.CreatedAt,
				Products:  productsByOrder[o.ID],
			})
		}
		return nil
	})
	if err != nil {
		return report.Report{}, err
	}

	return report.Build(rows, asOf), nil
}

// Text はダウンロード用のファイル名と本文を返す
func (u *ReportUsecase) Text(ctx context.Context, asOf time.Time) (string, string, error) {
	rep, err := u.Build(ctx, asOf)
	if err != nil {
		return "", "", err
	}
	return report.Filename, report.Render(rep), nil
}
