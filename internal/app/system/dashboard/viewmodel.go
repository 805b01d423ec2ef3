package dashboard

import (
	"html/template"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/projectdash/internal/app/system/htmlsanitize"
	"github.com/dalemusser/projectdash/internal/app/system/paging"
	"github.com/dalemusser/projectdash/internal/domain/models"
	"github.com/shopspring/decimal"
)

// Phase is the overall state of the dashboard region.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseEmpty   Phase = "empty"
	PhaseReady   Phase = "ready"
)

// Messages shown by the error and empty panels.
const (
	ErrorPrefix  = "Error loading dashboard data: "
	EmptyMessage = "No projects found matching your filters."
)

// Options carries rendering settings that do not change per request.
type Options struct {
	Currency          string // e.g. "PLN"
	DetailURLTemplate string // "{id}" is replaced by the escaped project id
}

// DefaultDetailURLTemplate links rows to the project detail page.
const DefaultDetailURLTemplate = "/project/{id}"

// DetailURL expands the detail link for one project.
func (o Options) DetailURL(id string) string {
	tmpl := o.DetailURLTemplate
	if tmpl == "" {
		tmpl = DefaultDetailURLTemplate
	}
	return strings.ReplaceAll(tmpl, "{id}", url.PathEscape(id))
}

// ViewModel is everything the dashboard region needs to draw itself.
type ViewModel struct {
	Phase     Phase
	Loading   bool // a load is in flight (may overlap existing data)
	SizeClass SizeClass
	Currency  string

	Error *ErrorPanel
	Empty *EmptyPanel

	Summary        []SummaryCard
	StatusChart    StatusChart
	FinancialChart FinancialChart

	Rows       []Row
	Pagination Pagination

	Filter        StatusFilter
	Sort          SortKey
	FilterOptions []Option
	SortOptions   []Option

	LastUpdated string
}

// ErrorPanel replaces all data when the last load failed.
type ErrorPanel struct {
	Message     string
	RetryAction string
}

// EmptyPanel is shown instead of an empty table.
type EmptyPanel struct {
	Message     string
	ResetAction string
}

// SummaryCard is one KPI tile.
type SummaryCard struct {
	Label string
	Value string
	Tone  string // "", "positive" or "negative"
}

// StatusChart is the status distribution over the full collection.
type StatusChart struct {
	Slices         []StatusSlice
	Total          int
	LegendPosition string
}

// StatusSlice is one status bucket.
type StatusSlice struct {
	Status  string
	Count   int
	Percent int
	Color   string
}

// FinancialChart compares income, expenses and profit of the top projects.
type FinancialChart struct {
	Bars           []FinancialBar
	LegendPosition string
}

// FinancialBar is one project in the financial chart. Widths are percentages
// of the largest magnitude on the chart.
type FinancialBar struct {
	Label         string
	Name          string
	Income        string
	Expenses      string
	Profit        string
	ProfitTone    string
	IncomeWidth   int
	ExpensesWidth int
	ProfitWidth   int
}

// Row is one table row.
type Row struct {
	ProjectID   string
	Name        string
	Description template.HTML
	DetailURL   string
	StartDate   string
	EndDate     string
	Status      string
	StatusColor string
	StatusClass string
	Completion  int
	Income      string
	Expenses    string
	Profit      string
	ProfitTone  string
}

// Pagination describes the table pager.
type Pagination struct {
	PageNumber int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Label      string
	Range      paging.Range
}

// Option is one choice in a select control.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Build projects the state into a view model. It has no side effects.
func Build(s State, opts Options, now time.Time) ViewModel {
	f := NewFormatter(opts.Currency)
	compact := s.Size.Compact()

	vm := ViewModel{
		Loading:       s.Loading,
		SizeClass:     s.Size,
		Currency:      f.currency,
		Filter:        s.Filter,
		Sort:          s.Sort,
		FilterOptions: filterOptions(s.Filter),
		SortOptions:   sortOptions(s.Sort),
		LastUpdated:   LastUpdated(s.LoadedAt, now),
	}

	if s.LoadErr != nil {
		vm.Phase = PhaseError
		vm.Error = &ErrorPanel{
			Message:     ErrorPrefix + s.LoadErr.Error(),
			RetryAction: "retry",
		}
		return vm
	}
	if !s.Loaded {
		vm.Phase = PhaseLoading
		return vm
	}

	vm.Summary = summaryCards(s.Collection, f, compact)
	vm.StatusChart = statusChart(s.Collection, s.Size)
	vm.FinancialChart = financialChart(s.Collection, s.Size, f)

	pageSize := s.Size.PageSize()
	vm.Pagination = Pagination{
		PageNumber: s.Page.PageNumber,
		TotalPages: s.Page.TotalPages,
		HasPrev:    s.Cursor.HasPrev(),
		HasNext:    s.Cursor.HasNext(),
		Label:      "Page " + strconv.Itoa(s.Page.PageNumber) + " of " + strconv.Itoa(s.Page.TotalPages),
		Range:      paging.ComputeRange(s.Page.PageNumber, pageSize, len(s.Page.Items), len(s.View)),
	}

	if len(s.View) == 0 {
		vm.Phase = PhaseEmpty
		vm.Empty = &EmptyPanel{Message: EmptyMessage, ResetAction: "reset"}
		return vm
	}

	vm.Phase = PhaseReady
	vm.Rows = make([]Row, 0, len(s.Page.Items))
	for _, p := range s.Page.Items {
		vm.Rows = append(vm.Rows, Row{
			ProjectID:   p.ProjectID,
			Name:        p.Name,
			Description: htmlsanitize.PrepareForDisplay(p.Description),
			DetailURL:   opts.DetailURL(p.ProjectID),
			StartDate:   f.Date(&p.StartDate, compact),
			EndDate:     f.Date(p.EndDate, compact),
			Status:      p.Status,
			StatusColor: StatusColor(p.Status),
			StatusClass: StatusClass(p.Status),
			Completion:  clampPercent(p.Completion),
			Income:      f.Currency(p.Income, compact),
			Expenses:    f.Currency(p.Expenses, compact),
			Profit:      f.Currency(p.Profit, compact),
			ProfitTone:  Tone(p.Profit),
		})
	}
	return vm
}

// Totals are the KPI aggregates over a collection.
type Totals struct {
	Count    int
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Profit   decimal.Decimal
}

// Summarize sums income and expenses over the whole collection.
// Profit is income minus expenses.
func Summarize(collection []models.Project) Totals {
	t := Totals{Count: len(collection)}
	for _, p := range collection {
		t.Income = t.Income.Add(decimal.NewFromFloat(p.Income))
		t.Expenses = t.Expenses.Add(decimal.NewFromFloat(p.Expenses))
	}
	t.Profit = t.Income.Sub(t.Expenses)
	return t
}

func summaryCards(collection []models.Project, f Formatter, compact bool) []SummaryCard {
	t := Summarize(collection)
	profitTone := "positive"
	if t.Profit.IsNegative() {
		profitTone = "negative"
	}
	return []SummaryCard{
		{Label: "Total Projects", Value: strconv.Itoa(t.Count)},
		{Label: "Total Income", Value: f.Amount(t.Income, compact)},
		{Label: "Total Expenses", Value: f.Amount(t.Expenses, compact)},
		{Label: "Total Profit", Value: f.Amount(t.Profit, compact), Tone: profitTone},
	}
}

// CountByStatus counts projects per status over the whole collection.
func CountByStatus(collection []models.Project) map[string]int {
	counts := map[string]int{
		models.StatusCompleted:  0,
		models.StatusInProgress: 0,
		models.StatusNotStarted: 0,
	}
	for _, p := range collection {
		counts[p.Status]++
	}
	return counts
}

func statusChart(collection []models.Project, size SizeClass) StatusChart {
	counts := CountByStatus(collection)
	chart := StatusChart{Total: len(collection), LegendPosition: size.LegendPosition()}
	for _, st := range []string{models.StatusCompleted, models.StatusInProgress, models.StatusNotStarted} {
		pct := 0
		if chart.Total > 0 {
			pct = int(math.Round(float64(counts[st]) * 100 / float64(chart.Total)))
		}
		chart.Slices = append(chart.Slices, StatusSlice{
			Status:  st,
			Count:   counts[st],
			Percent: pct,
			Color:   StatusColor(st),
		})
	}
	return chart
}

func financialChart(collection []models.Project, size SizeClass, f Formatter) FinancialChart {
	top := TopByProfit(collection, size.ChartLimit())
	chart := FinancialChart{LegendPosition: size.LegendPosition()}

	scale := 0.0
	for _, p := range top {
		scale = math.Max(scale, math.Max(math.Abs(p.Income), math.Max(math.Abs(p.Expenses), math.Abs(p.Profit))))
	}
	width := func(v float64) int {
		if scale == 0 {
			return 0
		}
		return int(math.Round(math.Abs(v) * 100 / scale))
	}

	compact := size.Compact()
	for _, p := range top {
		chart.Bars = append(chart.Bars, FinancialBar{
			Label:         Truncate(p.Name, size.LabelLimit()),
			Name:          p.Name,
			Income:        f.Currency(p.Income, compact),
			Expenses:      f.Currency(p.Expenses, compact),
			Profit:        f.Currency(p.Profit, compact),
			ProfitTone:    Tone(p.Profit),
			IncomeWidth:   width(p.Income),
			ExpensesWidth: width(p.Expenses),
			ProfitWidth:   width(p.Profit),
		})
	}
	return chart
}

func filterOptions(selected StatusFilter) []Option {
	out := make([]Option, 0, len(StatusFilters))
	for _, sf := range StatusFilters {
		label := string(sf)
		if sf == FilterAll {
			label = "All Projects"
		}
		out = append(out, Option{Value: string(sf), Label: label, Selected: sf == selected})
	}
	return out
}

func sortOptions(selected SortKey) []Option {
	out := make([]Option, 0, len(SortKeys))
	for _, k := range SortKeys {
		out = append(out, Option{Value: string(k), Label: k.Label(), Selected: k == selected})
	}
	return out
}

// StatusClass is the CSS class of a status badge.
func StatusClass(status string) string {
	return "status-" + strings.ReplaceAll(strings.ToLower(status), " ", "-")
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
