package store

import (
	"fmt"
	"math"
	"net/http"
	"slices"
	"strings"

	"github.com/go-playground/form/v4"
)

var queryDecoder = form.NewDecoder()

// PaginateQueryFilter holds the list parameters read from the query string.
type PaginateQueryFilter struct {
	Page         int      `form:"page" json:"page" validate:"gte=1,lte=10000000"`
	PageSize     int      `form:"page_size" json:"page_size" validate:"gte=1,lte=100"`
	Sort         string   `form:"sort" json:"sort"`
	Search       string   `form:"search" json:"search" validate:"max=100"`
	SortSafelist []string `form:"-" json:"-"`
}

// Parse decodes the query string over the defaults already set on f.
func (f *PaginateQueryFilter) Parse(r *http.Request) error {
	if err := queryDecoder.Decode(f, r.URL.Query()); err != nil {
		return fmt.Errorf("invalid query parameters: %w", err)
	}

	f.Search = strings.TrimSpace(f.Search)

	if len(f.SortSafelist) > 0 && !slices.Contains(f.SortSafelist, f.Sort) {
		return fmt.Errorf("invalid sort value %q", f.Sort)
	}

	return nil
}

func (f PaginateQueryFilter) SortColumn() string {
	for _, safeValue := range f.SortSafelist {
		if f.Sort == safeValue {
			return strings.TrimPrefix(f.Sort, "-")
		}
	}

	panic("unsafe sort parameter: " + f.Sort)
}

func (f PaginateQueryFilter) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return "DESC"
	}
	return "ASC"
}

func (f PaginateQueryFilter) Limit() int {
	return f.PageSize
}

func (f PaginateQueryFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records"`
}

func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}

	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}
