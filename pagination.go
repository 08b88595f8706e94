package authentic

// DefaultPageSize caps listing responses unless overridden in Settings.
const DefaultPageSize = 10

// Pagination is a limit/offset window over a listing.
type Pagination struct {
	PageLimit  int `query:"limit" json:"limit"`
	PageOffset int `query:"offset" json:"offset"`
}

// Limit returns the effective page size, falling back to the default.
func (p Pagination) Limit() int {
	if p.PageLimit <= 0 {
		return DefaultPageSize
	}
	return p.PageLimit
}

// Clamp caps the page size at max. Zero max leaves the window as is.
func (p Pagination) Clamp(max int) Pagination {
	if max > 0 && p.Limit() > max {
		p.PageLimit = max
	}
	return p
}

// Offset returns the effective offset.
func (p Pagination) Offset() int {
	if p.PageOffset < 0 {
		return 0
	}
	return p.PageOffset
}

// Page wraps a listing response with its total count.
type Page[T any] struct {
	Count   int `json:"count"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
	Results []T `json:"results"`
}
