// Package pagination slices ordered collections into fixed-size pages.
// Callers are responsible for supplying a total order (the post queries
// sort by descending publication date, then id).
package pagination

// Window describes one page of a collection of Count items. Offset and
// Limit are ready to feed into a query.
type Window struct {
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	Offset      int   `json:"-"`
	Limit       int   `json:"-"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Paginate clamps the requested page number to the valid range rather
// than erroring: below 1 yields the first page, beyond the end yields
// the last. An empty collection still has one (empty) page.
func Paginate(count int64, pageSize, requested int) Window {
	if pageSize < 1 {
		pageSize = 1
	}

	numPages := int((count + int64(pageSize) - 1) / int64(pageSize))
	if numPages < 1 {
		numPages = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}

	return Window{
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		Offset:      (number - 1) * pageSize,
		Limit:       pageSize,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
}
