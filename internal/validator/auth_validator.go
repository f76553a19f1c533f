package validator

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"flowershop/internal/repository"
	"flowershop/internal/usecase"
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRe = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
)

var (
	// 入力が不正
	ErrInvalidInput = usecase.NewHTTPError(http.StatusBadRequest, "invalid input")

	// emailが既に使用済み
	ErrEmailAlreadyUsed = usecase.NewHTTPError(http.StatusConflict, "email already used")

	ErrUsernameAlreadyUsed = usecase.NewHTTPError(http.StatusConflict, "username already used")
)

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, username string, email string, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	// 必須チェック
	if username == "" || email == "" || password == "" {
		return ErrInvalidInput
	}

	// usernameは150文字まで（英数字と _.@+-）
	if utf8.RuneCountInString(username) > 150 || !usernameRe.MatchString(username) {
		return ErrInvalidInput
	}

	if !isEmailLike(email) {
		return ErrInvalidInput
	}

	// パスワード最低文字数（MVP: 8）
	if len(password) < 8 {
		return ErrInvalidInput
	}

	// 重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return ErrEmailAlreadyUsed
	}
	u, err = v.users.FindByUsername(ctx, username)
	if err == nil && u != nil {
		return ErrUsernameAlreadyUsed
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return ErrInvalidInput
	}

	if !isEmailLike(email) {
		return ErrInvalidInput
	}

	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
