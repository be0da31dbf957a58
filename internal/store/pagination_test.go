package store

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileFilter() PaginateQueryFilter {
	return PaginateQueryFilter{
		Page:         1,
		PageSize:     20,
		Sort:         "created_at",
		SortSafelist: []string{"created_at", "-created_at", "last_name", "-last_name"},
	}
}

func TestPaginateQueryFilter_Parse(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		want      PaginateQueryFilter
		wantErr   bool
		direction string
		offset    int
	}{
		{
			name:      "defaults",
			query:     "",
			want:      newProfileFilter(),
			direction: "ASC",
			offset:    0,
		},
		{
			name:  "overrides",
			query: "page=3&page_size=10&sort=-last_name&search=+ada+",
			want: func() PaginateQueryFilter {
				f := newProfileFilter()
				f.Page, f.PageSize, f.Sort, f.Search = 3, 10, "-last_name", "ada"
				return f
			}(),
			direction: "DESC",
			offset:    20,
		},
		{name: "unsafe sort", query: "sort=password_hash", wantErr: true},
		{name: "non numeric page", query: "page=two", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/v1/profiles?"+tt.query, nil)
			f := newProfileFilter()

			err := f.Parse(r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
			assert.Equal(t, tt.direction, f.SortDirection())
			assert.Equal(t, tt.offset, f.Offset())
			assert.Equal(t, f.PageSize, f.Limit())
		})
	}
}

func TestPaginateQueryFilter_SortColumn(t *testing.T) {
	f := newProfileFilter()
	f.Sort = "-last_name"
	assert.Equal(t, "last_name", f.SortColumn())

	f.Sort = "id; DROP TABLE profiles"
	assert.Panics(t, func() { f.SortColumn() })
}

func TestCalculateMetadata(t *testing.T) {
	assert.Equal(t, Metadata{}, calculateMetadata(0, 1, 20))
	assert.Equal(t, Metadata{
		CurrentPage:  2,
		PageSize:     20,
		FirstPage:    1,
		LastPage:     3,
		TotalRecords: 41,
	}, calculateMetadata(41, 2, 20))
}
