package commands

// Pagination describes a page position within a filtered record set,
// returned alongside paginated listings so the UI can render paging
// controls without a second count query.
type Pagination struct {
	Total    int64 `json:"total"`
	PageNo   int64 `json:"page"`
	Pages    int64 `json:"pages"`
	Next     int64 `json:"next"`     // 0 means no next page
	Previous int64 `json:"previous"` // 0 means no previous page
}

// NewPagination calculates the pagination settings for a record set of
// totalRecords items shown pageLen to a page, with currentPage the page
// being viewed. Out-of-range page numbers are clamped rather than
// rejected: a deletion can shrink the set between count and view.
func NewPagination(totalRecords, pageLen, currentPage int64) *Pagination {
	if pageLen <= 0 {
		pageLen = 1
	}

	totalPages := int64(1)
	if totalRecords > 0 {
		totalPages = ((totalRecords - 1) / pageLen) + 1
	}

	if currentPage < 1 {
		currentPage = 1
	}
	if currentPage > totalPages {
		currentPage = totalPages
	}

	pg := &Pagination{
		Total:  totalRecords,
		PageNo: currentPage,
		Pages:  totalPages,
	}
	if pg.PageNo > 1 {
		pg.Previous = pg.PageNo - 1
	}
	if pg.PageNo < pg.Pages {
		pg.Next = pg.PageNo + 1
	}
	return pg
}
