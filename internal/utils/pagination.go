package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/civic-proposals-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Limit int
	Skip  int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Limit int   `json:"limit"`
	Skip  int   `json:"skip"`
	Total int64 `json:"total"`
}

// GetPaginationParams extracts and validates limit/skip from the query string
func GetPaginationParams(c *gin.Context) PaginationParams {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constants.DefaultPageSize)))
	if err != nil || limit < 1 {
		limit = constants.DefaultPageSize
	}
	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}

	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}

	return PaginationParams{Limit: limit, Skip: skip}
}

// Response builds the pagination metadata for a result set
func (p PaginationParams) Response(total int64) PaginationResponse {
	return PaginationResponse{Limit: p.Limit, Skip: p.Skip, Total: total}
}
