package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/internal/domain/stage"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("agreement 7: %w", entity.ErrNotFound), http.StatusNotFound},
		{"forbidden", entity.ErrForbidden, http.StatusForbidden},
		{"validation", entity.ErrValidation, http.StatusBadRequest},
		{"unknown stage", stage.ErrInvalidStage, http.StatusBadRequest},
		{"conflict", entity.ErrConflict, http.StatusConflict},
		{"invalid state", entity.ErrInvalidState, http.StatusConflict},
		{"invalid transition", fmt.Errorf("%w: DRAFT -> SIGNED", stage.ErrInvalidTransition), http.StatusConflict},
		{"everything else", errors.New("db closed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 20, 0},
		{"explicit values", "limit=50&offset=10", 50, 10},
		{"limit capped", "limit=500", 20, 0},
		{"negative values fall back", "limit=-1&offset=-5", 20, 0},
		{"garbage falls back", "limit=abc&offset=xyz", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/api/agreements?"+tt.query, nil)
			limit, offset := pagination(c)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}
