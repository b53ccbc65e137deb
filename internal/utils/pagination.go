// internal/utils/pagination.go
package utils

import (
	"math"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit well inside int for every accepted limit.
	MaxPage = 1_000_000
)

type PaginationParams struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Sort     string `json:"sort"`
	Order    string `json:"order"`
	Search   string `json:"search"`
	Category string `json:"category"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

// GetPaginationParams reads page, limit, sort and order from the query
// string. sortFields whitelists the sort column; the first entry is the
// default and created_at is used when none are given.
func GetPaginationParams(c *gin.Context, sortFields ...string) PaginationParams {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit)))
	if err != nil || limit < 1 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}

	return PaginationParams{
		Page:     page,
		Limit:    limit,
		Sort:     sortField(c.Query("sort"), sortFields),
		Order:    sortOrder(c.DefaultQuery("order", "desc")),
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
}

// Offset is the number of rows skipped before the requested page. ok is
// false when the page lies past any addressable row.
func (p PaginationParams) Offset() (offset int, ok bool) {
	if p.Limit <= 0 || p.Page <= 1 {
		return 0, true
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt, false
	}
	return (p.Page - 1) * p.Limit, true
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	offset, _ := params.Offset()
	return db.Offset(offset).Limit(params.Limit)
}

func ApplySort(db *gorm.DB, params PaginationParams, allowedSortFields []string) *gorm.DB {
	return db.Order(sortField(params.Sort, allowedSortFields) + " " + sortOrder(params.Order))
}

func sortField(requested string, allowed []string) string {
	if len(allowed) == 0 {
		return "created_at"
	}
	if slices.Contains(allowed, requested) {
		return requested
	}
	return allowed[0]
}

func sortOrder(requested string) string {
	if requested == "asc" {
		return "asc"
	}
	return "desc"
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(params.Limit)))
	}

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
