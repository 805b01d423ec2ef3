package dashboard

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dalemusser/projectdash/internal/domain/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// StatusFilter restricts the table to one project status.
type StatusFilter string

// FilterAll passes every project through.
const FilterAll StatusFilter = "All"

// StatusFilters lists the accepted filters in display order.
var StatusFilters = []StatusFilter{
	FilterAll,
	StatusFilter(models.StatusCompleted),
	StatusFilter(models.StatusInProgress),
	StatusFilter(models.StatusNotStarted),
}

// ParseStatusFilter normalizes user input. Unknown values fall back to All.
func ParseStatusFilter(s string) StatusFilter {
	s = strings.TrimSpace(s)
	for _, f := range StatusFilters {
		if strings.EqualFold(s, string(f)) {
			return f
		}
	}
	return FilterAll
}

// SortKey orders the table.
type SortKey string

const (
	SortProfit     SortKey = "profit"
	SortIncome     SortKey = "income"
	SortName       SortKey = "name"
	SortCompletion SortKey = "completion"
)

// DefaultSort is used on first load and after a filter reset.
const DefaultSort = SortProfit

// SortKeys lists the accepted keys in display order.
var SortKeys = []SortKey{SortProfit, SortIncome, SortName, SortCompletion}

// ParseSortKey normalizes user input. Unknown values fall back to profit.
func ParseSortKey(s string) SortKey {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range SortKeys {
		if s == string(k) {
			return k
		}
	}
	return DefaultSort
}

// Label is the human text for a sort option.
func (k SortKey) Label() string {
	switch k {
	case SortIncome:
		return "Income"
	case SortName:
		return "Name"
	case SortCompletion:
		return "Completion"
	default:
		return "Profit"
	}
}

// Apply returns the projects matching filter, ordered by key.
//
// profit, income and completion sort descending; name sorts ascending with
// English collation. Ties keep collection order. The collection is never
// modified.
func Apply(collection []models.Project, filter StatusFilter, key SortKey) []models.Project {
	view := make([]models.Project, 0, len(collection))
	for _, p := range collection {
		if filter == FilterAll || p.Status == string(filter) {
			view = append(view, p)
		}
	}

	switch key {
	case SortName:
		// Collators keep internal buffers and are not safe to share.
		col := collate.New(language.English)
		slices.SortStableFunc(view, func(a, b models.Project) int {
			return col.CompareString(a.Name, b.Name)
		})
	case SortIncome:
		slices.SortStableFunc(view, func(a, b models.Project) int {
			return cmp.Compare(b.Income, a.Income)
		})
	case SortCompletion:
		slices.SortStableFunc(view, func(a, b models.Project) int {
			return cmp.Compare(b.Completion, a.Completion)
		})
	default:
		slices.SortStableFunc(view, func(a, b models.Project) int {
			return cmp.Compare(b.Profit, a.Profit)
		})
	}
	return view
}

// TopByProfit returns up to limit projects with the highest profit.
// A limit of zero or less returns all of them.
func TopByProfit(collection []models.Project, limit int) []models.Project {
	top := Apply(collection, FilterAll, SortProfit)
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top
}
