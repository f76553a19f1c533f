package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flowershop/internal/domain/model"
	"flowershop/internal/middleware"
	repo "flowershop/internal/repository"
	"flowershop/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type productRepoMock struct{ mock.Mock }

func (m *productRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *productRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *productRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *productRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("Update not used in handler tests")
}

func (m *productRepoMock) SoftDelete(ctx context.Context, id int64) error {
	panic("SoftDelete not used in handler tests")
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var v ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body=%s", rec.Body.String())
	return v
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "http error", err: usecase.NewHTTPError(http.StatusNotFound, "not found"), wantStatus: http.StatusNotFound, wantMsg: "not found"},
		{name: "conflict", err: usecase.NewHTTPError(http.StatusConflict, "review already exists"), wantStatus: http.StatusConflict, wantMsg: "review already exists"},
		{name: "bare sentinel", err: usecase.ErrForbidden, wantStatus: http.StatusForbidden, wantMsg: "forbidden"},
		{name: "wrapped sentinel", err: fmt.Errorf("login: %w", usecase.ErrUnauthorized), wantStatus: http.StatusUnauthorized, wantMsg: "login: unauthorized"},
		{name: "db error", err: usecase.NewHTTPError(http.StatusInternalServerError, "db error"), wantStatus: http.StatusInternalServerError, wantMsg: "db error"},
		{name: "unknown", err: errors.New("pq: connection refused"), wantStatus: http.StatusInternalServerError, wantMsg: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/", "")
			require.NoError(t, writeError(c, tt.err))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, rec).Error)
		})
	}
}

func TestProductHandler_List(t *testing.T) {
	t.Run("bad query never reaches repo", func(t *testing.T) {
		products := new(productRepoMock)
		h := NewProductHandler(usecase.NewProductUsecase(products, nil, nil), nil)

		for _, target := range []string{"/products?page=x", "/products?min_price=abc", "/products?limit=500", "/products?sort=name"} {
			c, rec := newContext(http.MethodGet, target, "")
			require.NoError(t, h.list(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		}
		products.AssertNotCalled(t, "ListPublic", mock.Anything, mock.Anything)
	})

	t.Run("price filters are decimals", func(t *testing.T) {
		products := new(productRepoMock)
		products.On("ListPublic", mock.Anything, mock.MatchedBy(func(q repo.ProductListQuery) bool {
			return q.Page == 1 && q.Limit == 20 &&
				q.MinPrice != nil && q.MinPrice.Equal(decimal.RequireFromString("999.50")) &&
				q.MaxPrice == nil
		})).Return([]model.Product{{ID: 1, Name: "Розы", Price: decimal.RequireFromString("1500")}}, int64(1), nil)

		h := NewProductHandler(usecase.NewProductUsecase(products, nil, nil), nil)
		c, rec := newContext(http.MethodGet, "/products?min_price=999.50", "")
		require.NoError(t, h.list(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		var out usecase.ProductListOutput
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out.Items, 1)
		assert.Equal(t, "Розы", out.Items[0].Name)
		products.AssertExpectations(t)
	})
}

func TestAdminProductHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		products := new(productRepoMock)
		products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
			return p.Name == "Пионы" && p.Price.Equal(decimal.RequireFromString("2500"))
		})).Return(model.Product{ID: 9, Name: "Пионы", Price: decimal.RequireFromString("2500")}, nil)

		h := NewAdminProductHandler(usecase.NewProductUsecase(products, nil, nil))
		c, rec := newContext(http.MethodPost, "/admin/products", `{"name":"Пионы","price":"2500"}`)
		c.Set(middleware.CtxUserIDKey, int64(1))

		require.NoError(t, h.createProduct(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
		var p model.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, int64(9), p.ID)
	})

	t.Run("no user in context", func(t *testing.T) {
		h := NewAdminProductHandler(usecase.NewProductUsecase(new(productRepoMock), nil, nil))
		c, rec := newContext(http.MethodPost, "/admin/products", `{"name":"Пионы","price":"2500"}`)

		require.NoError(t, h.createProduct(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("validation", func(t *testing.T) {
		h := NewAdminProductHandler(usecase.NewProductUsecase(new(productRepoMock), nil, nil))
		c, rec := newContext(http.MethodPost, "/admin/products", `{"name":" ","price":"10"}`)
		c.Set(middleware.CtxUserIDKey, int64(1))

		require.NoError(t, h.createProduct(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "name required", decodeError(t, rec).Error)
	})
}

func TestAdminReportHandler_InvalidAsOf(t *testing.T) {
	h := NewAdminReportHandler(nil)

	c, rec := newContext(http.MethodGet, "/admin/reports/download?as_of=yesterday", "")
	require.NoError(t, h.download(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid as_of", decodeError(t, rec).Error)

	c, rec = newContext(http.MethodGet, "/admin/reports?as_of=2024-13-01", "")
	require.NoError(t, h.show(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseAsOf(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/admin/reports", "")
	asOf, err := parseAsOf(c)
	require.NoError(t, err)
	assert.True(t, asOf.IsZero())

	c, _ = newContext(http.MethodGet, "/admin/reports?as_of=2024-03-08T18:00:00%2B03:00", "")
	asOf, err = parseAsOf(c)
	require.NoError(t, err)
	assert.Equal(t, 15, asOf.UTC().Hour())
}
