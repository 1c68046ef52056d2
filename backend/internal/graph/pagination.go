package graph

import "cybernauts/backend/internal/domain"

// NormalizePage applies defaults and bounds to a requested page/limit pair.
// Non-positive values fall back to page 1 and defaultLimit; limit is capped at maxLimit.
func NormalizePage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// Skip returns the number of records before the first one on page
func Skip(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}

// BuildPagination derives the metadata for a page holding returned items
func BuildPagination(page, limit, returned int, total int64) domain.Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return domain.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    int64(Skip(page, limit)+returned) < total,
	}
}
