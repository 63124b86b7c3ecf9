package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/carbonforge/onboarding-api/internal/constants"
)

// PaginationParams is the validated page window for list endpoints.
type PaginationParams struct {
	Page  int
	Limit int
}

// PaginationResponse is the pagination block echoed back in list responses.
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// GetPaginationParams reads page/limit from the query string, clamping both
// to the configured bounds. Garbage input falls back to the defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	return PaginationParams{
		Page:  queryInt(c, "page", constants.MinPageSize, constants.MinPageSize, 0),
		Limit: queryInt(c, "limit", constants.DefaultPageSize, constants.MinPageSize, constants.MaxPageSize),
	}
}

func queryInt(c *gin.Context, key string, def, min, max int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < min || (max > 0 && v > max) {
		return def
	}
	return v
}
