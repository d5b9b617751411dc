// internal/app/system/paging/paging.go
package paging

import (
	"fmt"
	"math"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultPageSize matches the console's review and finding tables.
const DefaultPageSize = 25

// MaxPageSize caps caller-supplied page sizes.
const MaxPageSize = 100

// Unbounded is the page size that disables pagination (exports).
const Unbounded = -1

// Limits holds the configured default and maximum page sizes.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits are used when configuration leaves the values unset.
var DefaultLimits = Limits{Default: DefaultPageSize, Max: MaxPageSize}

// Window is a resolved page request. Limit 0 means no limit.
type Window struct {
	Page  int
	Size  int
	Skip  int64
	Limit int64
}

// Unbounded reports whether the window returns every row.
func (w Window) Unbounded() bool { return w.Size == Unbounded }

// Normalize resolves a 1-based page and a page size. A zero page means the
// first page and a zero size means the default. Negative pages, pages whose
// skip would overflow, sizes below Unbounded, and sizes over the maximum are
// validation errors.
func (l Limits) Normalize(page, size int) (Window, error) {
	def, max := l.Default, l.Max
	if def <= 0 {
		def = DefaultPageSize
	}
	if max <= 0 {
		max = MaxPageSize
	}
	if def > max {
		def = max
	}

	if page < 0 {
		return Window{}, apperr.Validation("invalid_page", fmt.Sprintf("page must be >= 1, got %d", page))
	}
	if page == 0 {
		page = 1
	}

	switch {
	case size == Unbounded:
		return Window{Page: 1, Size: Unbounded}, nil
	case size == 0:
		size = def
	case size < 0 || size > max:
		return Window{}, apperr.Validation("invalid_page_size", fmt.Sprintf("pageSize must be between 1 and %d", max))
	}
	if int64(page-1) > math.MaxInt64/int64(size) {
		return Window{}, apperr.Validation("invalid_page", fmt.Sprintf("page %d is out of range", page))
	}

	return Window{
		Page:  page,
		Size:  size,
		Skip:  int64(page-1) * int64(size),
		Limit: int64(size),
	}, nil
}

// ApplyToFind sets skip and limit on find for bounded windows.
func (w Window) ApplyToFind(find *options.FindOptions) {
	if w.Unbounded() {
		return
	}
	find.SetSkip(w.Skip).SetLimit(w.Limit)
}

// PageCount returns how many pages of size hold total rows.
func PageCount(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}
