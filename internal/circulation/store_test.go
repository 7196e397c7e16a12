package circulation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_BuildListLoansQuery(t *testing.T) {
	cardNo := "R-1"
	copyID := "C-1"
	open := true
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		filter       LoanFilter
		page         Page
		wantContains []string
		wantArgs     []any
	}{
		{
			name:         "no_filters_defaults_page",
			filter:       LoanFilter{},
			page:         Page{},
			wantContains: []string{"WHERE 1=1", "ORDER BY borrow_date DESC, loan_id DESC", "LIMIT ? OFFSET ?"},
			wantArgs:     []any{50, 0},
		},
		{
			name:         "card_no_filter",
			filter:       LoanFilter{CardNo: &cardNo},
			page:         Page{Limit: 10},
			wantContains: []string{"AND card_no = ?"},
			wantArgs:     []any{"R-1", 10, 0},
		},
		{
			name:         "copy_and_open_filter",
			filter:       LoanFilter{CopyID: &copyID, Open: &open},
			page:         Page{Limit: 20, Offset: 40},
			wantContains: []string{"AND copy_id = ?", "AND status = 'OPEN'"},
			wantArgs:     []any{"C-1", 20, 40},
		},
		{
			name:         "date_range_filter",
			filter:       LoanFilter{From: &from, To: &to},
			page:         Page{Limit: 5},
			wantContains: []string{"AND borrow_date >= ?", "AND borrow_date < ?"},
			wantArgs:     []any{from, to, 5, 0},
		},
		{
			name:         "negative_offset_is_clamped",
			filter:       LoanFilter{},
			page:         Page{Limit: 5, Offset: -3},
			wantContains: []string{"LIMIT ? OFFSET ?"},
			wantArgs:     []any{5, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := buildListLoansQuery(tt.filter, tt.page)
			for _, want := range tt.wantContains {
				assert.Contains(t, q, want)
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func Test_BuildListLoansQuery_ClosedFilter(t *testing.T) {
	closed := false
	q, _ := buildListLoansQuery(LoanFilter{Open: &closed}, Page{})
	assert.Contains(t, q, "AND status = 'RETURNED'")
	assert.False(t, strings.Contains(q, "status = 'OPEN'"))
}
