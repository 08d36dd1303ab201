package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/party-planner-api/internal/constants"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}},
		{"?page=3&limit=10", PaginationParams{Page: 3, Limit: 10, Offset: 20}},
		{"?page=0&limit=0", PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}},
		{"?page=2&limit=1000", PaginationParams{Page: 2, Limit: constants.MaxPageSize, Offset: constants.MaxPageSize}},
		{"?page=abc", PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/list"+tc.query, nil)
		assert.Equal(t, tc.want, GetPaginationParams(c), tc.query)
	}
}

func TestPaginationResponse_HasMore(t *testing.T) {
	params := NewPaginationParams(2, 10)
	assert.True(t, params.Response(21).HasMore)
	assert.False(t, params.Response(20).HasMore)
	assert.Equal(t, int64(20), params.Response(20).Total)
}
