package repository

import (
	"context"

	"flowershop/internal/domain/model"
)

// 保存・取得を約束
// 見つからない場合は (nil, nil) を返す。
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByChannelID(ctx context.Context, channelID string) (*model.User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	// nilで連携解除。別ユーザーが同じIDを持っていれば ErrDuplicate
	SetChannelID(ctx context.Context, userID int64, channelID *string) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
