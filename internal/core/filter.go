package core

import (
	"strconv"
	"time"
)

const (
	DefaultPageLimit = 10
	// MaxPageLimit bounds a single page. Dashboards that want "all"
	// records fetch with this limit.
	MaxPageLimit = 1000
)

// YearMonth identifies one calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth accepts "2006-01" as well as full ISO dates; a full
// date selects the calendar month it falls in.
func ParseYearMonth(s string) (YearMonth, error) {
	for _, layout := range []string{"2006-01", "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return YearMonth{Year: t.Year(), Month: t.Month()}, nil
		}
	}
	ve := &ValidationError{}
	ve.Add("month", "month must be a valid date")
	return YearMonth{}, ve
}

// CurrentYearMonth returns the calendar month containing t (UTC).
func CurrentYearMonth(t time.Time) YearMonth {
	t = t.UTC()
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Range expands the month into the half-open UTC interval
// [first instant of month, first instant of next month).
func (ym YearMonth) Range() (start, end time.Time) {
	start = time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (ym YearMonth) String() string {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// ListFilter is a validated query specification for one owner's
// transactions plus its pagination window.
type ListFilter struct {
	OwnerID  string
	Month    *YearMonth
	Category string // case-insensitive substring match
	Kind     Kind   // empty means both kinds
	Page     int
	Limit    int
}

// FilterParams are the raw, optional query parameters of a list
// request, before validation.
type FilterParams struct {
	Month    string
	Category string
	Kind     string
	Page     string
	Limit    string
}

// BuildListFilter validates the raw parameters and produces a filter
// restricted to the owner. All violations are reported together.
func BuildListFilter(ownerID string, p FilterParams) (ListFilter, error) {
	ve := &ValidationError{}
	f := ListFilter{
		OwnerID: ownerID,
		Page:    1,
		Limit:   DefaultPageLimit,
	}

	if p.Month != "" {
		ym, err := ParseYearMonth(p.Month)
		if err != nil {
			ve.Add("month", "month must be a valid date")
		} else {
			f.Month = &ym
		}
	}
	f.Category = p.Category
	if p.Kind != "" {
		k, ok := ParseKind(p.Kind)
		if !ok {
			ve.Add("type", "type must be either income or expense")
		} else {
			f.Kind = k
		}
	}
	if p.Page != "" {
		n, err := strconv.Atoi(p.Page)
		if err != nil || n < 1 {
			ve.Add("page", "page must be a positive integer")
		} else {
			f.Page = n
		}
	}
	if p.Limit != "" {
		n, err := strconv.Atoi(p.Limit)
		switch {
		case err != nil || n < 1:
			ve.Add("limit", "limit must be a positive integer")
		case n > MaxPageLimit:
			ve.Add("limit", "limit cannot exceed 1000")
		default:
			f.Limit = n
		}
	}

	if err := ve.OrNil(); err != nil {
		return ListFilter{}, err
	}
	return f, nil
}

// Skip returns the offset of the page window.
func (f ListFilter) Skip() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes the page window relative to the total result
// set, in the shape the list endpoint returns.
type Pagination struct {
	CurrentPage       int   `json:"currentPage"`
	TotalPages        int   `json:"totalPages"`
	TotalTransactions int64 `json:"totalTransactions"`
	HasNextPage       bool  `json:"hasNextPage"`
	HasPrevPage       bool  `json:"hasPrevPage"`
}

// NewPagination derives page metadata from the unpaginated total and
// the number of records actually returned for this page.
func NewPagination(f ListFilter, total int64, returned int) Pagination {
	totalPages := int((total + int64(f.Limit) - 1) / int64(f.Limit))
	return Pagination{
		CurrentPage:       f.Page,
		TotalPages:        totalPages,
		TotalTransactions: total,
		HasNextPage:       int64(f.Skip()+returned) < total,
		HasPrevPage:       f.Page > 1,
	}
}
