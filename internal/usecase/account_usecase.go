package usecase

import (
	"context"
	"net/http"
	"strings"

	"flowershop/internal/domain/model"
	repo "flowershop/internal/repository"
	"flowershop/internal/logging"
)

// チャット（Telegram）とアカウントの連携
type AccountUsecase struct {
	tx repo.TransactionManager
}

func NewAccountUsecase(tx repo.TransactionManager) *AccountUsecase {
	return &AccountUsecase{tx: tx}
}

type LinkChannelOutput struct {
	UserID        int64  `json:"user_id"`
	ChannelID     string `json:"channel_id"`
	UpdatedOrders int64  `json:"updated_orders"`
}

// LinkChannel はユーザーにchannel_idを設定し、既存の注文にも埋める。
// 同じチャットが別アカウントに連携済みなら、そちらは解除してから付け替える。
func (u *AccountUsecase) LinkChannel(ctx context.Context, userID int64, channelID string) (LinkChannelOutput, error) {
	channelID = strings.TrimSpace(channelID)
	if userID <= 0 {
		return LinkChannelOutput{}, NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if channelID == "" || len(channelID) > 64 {
		return LinkChannelOutput{}, NewHTTPError(http.StatusBadRequest, "invalid channel id")
	}

	out := LinkChannelOutput{UserID: userID, ChannelID: channelID}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		n, err := setChannel(ctx, r, userID, &channelID)
		out.UpdatedOrders = n
		return err
	})
	if err != nil {
		return LinkChannelOutput{}, err
	}

	logging.FromCtx(ctx).Info("channel linked", "user_id", userID, "orders", out.UpdatedOrders)
	return out, nil
}

// UnlinkChannel は連携を解除する（以後の通知は送らない）
func (u *AccountUsecase) UnlinkChannel(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := setChannel(ctx, r, userID, nil)
		return err
	})
}

// FindByChannel はchannel_idからユーザーを引く。未連携ならnil。
func (u *AccountUsecase) FindByChannel(ctx context.Context, channelID string) (*model.User, error) {
	var user *model.User
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		user, err = r.Users().FindByChannelID(ctx, channelID)
		if err != nil {
			return errDB()
		}
		return nil
	})
	return user, err
}

func setChannel(ctx context.Context, r repo.TxRepos, userID int64, channelID *string) (int64, error) {
	user, err := r.Users().FindByID(ctx, userID)
	if err != nil {
		return 0, errDB()
	}
	if user == nil {
		return 0, errNotFound()
	}

	if channelID != nil {
		if err := releaseChannel(ctx, r, userID, *channelID); err != nil {
			return 0, err
		}
	}

	if err := r.Users().SetChannelID(ctx, userID, channelID); err != nil {
		if err == repo.ErrNotFound {
			return 0, errNotFound()
		}
		// 同時に同じチャットを連携された
		if err == repo.ErrDuplicate {
			return 0, NewHTTPError(http.StatusConflict, "channel already linked")
		}
		return 0, errDB()
	}

	n, err := r.Orders().SetChannelIDByUserID(ctx, userID, channelID)
	if err != nil {
		return 0, errDB()
	}
	return n, nil
}

// 前の持ち主からチャットを外す（ユーザーと注文の両方）
func releaseChannel(ctx context.Context, r repo.TxRepos, userID int64, channelID string) error {
	prev, err := r.Users().FindByChannelID(ctx, channelID)
	if err != nil {
		return errDB()
	}
	if prev == nil || prev.ID == userID {
		return nil
	}

	if err := r.Users().SetChannelID(ctx, prev.ID, nil); err != nil && err != repo.ErrNotFound {
		return errDB()
	}
	if _, err := r.Orders().SetChannelIDByUserID(ctx, prev.ID, nil); err != nil {
		return errDB()
	}
	logging.FromCtx(ctx).Info("channel moved", "from_user_id", prev.ID, "to_user_id", userID)
	return nil
}
