package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/projectdash/internal/app/system/paging"
	"github.com/dalemusser/projectdash/internal/domain/models"
	"go.uber.org/zap"
)

// State is the dashboard view state owned by one Controller.
type State struct {
	Collection []models.Project // as received, replaced wholesale on each successful load
	View       []models.Project // Collection filtered and sorted
	Filter     StatusFilter
	Sort       SortKey
	Size       SizeClass
	Cursor     paging.Cursor
	Page       paging.Page[models.Project]

	Loading  bool
	Loaded   bool // at least one load succeeded
	LoadErr  error
	LoadedAt time.Time
}

// Renderer draws view models. Render is called with the controller locked
// and must not call back into the controller.
type Renderer interface {
	Render(ViewModel) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ViewModel) error

// Render calls fn(vm).
func (fn RendererFunc) Render(vm ViewModel) error { return fn(vm) }

// LoadFunc fetches the full project collection.
type LoadFunc func(ctx context.Context) ([]models.Project, error)

// stage is where the pipeline re-runs from.
type stage int

const (
	stageFilter stage = iota
	stagePaginate
	stageRender
)

// Controller owns a State and re-runs filter, paginate and render whenever
// the state changes. It is safe for concurrent use.
type Controller struct {
	mu     sync.Mutex
	state  State
	opts   Options
	load   LoadFunc
	render Renderer
	log    *zap.Logger
	now    func() time.Time

	issued  uint64 // newest generation handed out by BeginLoad
	applied uint64 // newest generation whose result was applied
	last    ViewModel
}

// NewController builds a controller in the loading phase.
func NewController(load LoadFunc, r Renderer, opts Options, initial SizeClass, logger *zap.Logger) *Controller {
	if initial == "" {
		initial = DefaultSizeClass
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		state: State{
			Filter: FilterAll,
			Sort:   DefaultSort,
			Size:   initial,
			Cursor: paging.NewCursor(1),
		},
		opts:   opts,
		load:   load,
		render: r,
		log:    logger,
		now:    time.Now,
	}
	c.mu.Lock()
	c.onStateChange(stageFilter)
	c.mu.Unlock()
	return c
}

// SetClock replaces the time source. Tests use it for last-updated text.
func (c *Controller) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// onStateChange re-runs the pipeline from the given stage. c.mu must be held.
func (c *Controller) onStateChange(from stage) {
	s := &c.state
	pageSize := s.Size.PageSize()

	if from <= stageFilter {
		s.View = Apply(s.Collection, s.Filter, s.Sort)
	}
	if from <= stagePaginate {
		s.Cursor.TotalPages = paging.TotalPages(len(s.View), pageSize)
		if s.Cursor.Page < 1 || s.Cursor.Page > s.Cursor.TotalPages {
			s.Cursor.Page = 1
		}
		s.Page = paging.Paginate(s.View, pageSize, s.Cursor.Page)
	}

	c.last = Build(*s, c.opts, c.now())
	if c.render != nil {
		if err := c.render.Render(c.last); err != nil {
			c.log.Warn("dashboard render failed", zap.Error(err))
		}
	}
}

// Load fetches the collection and applies the result. Overlapping calls are
// allowed; a response older than one already applied is discarded.
func (c *Controller) Load(ctx context.Context) error {
	gen := c.BeginLoad()
	projects, err := c.load(ctx)
	c.CompleteLoad(gen, projects, err)
	return err
}

// BeginLoad marks a load as in flight and returns its generation.
func (c *Controller) BeginLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	c.state.Loading = true
	c.onStateChange(stageRender)
	return c.issued
}

// CompleteLoad applies the result of the load with the given generation.
// It reports whether the result was applied.
//
// On success the collection is replaced, filter and sort are kept and the
// cursor returns to page 1. On failure the collection is kept and the error
// phase is shown.
func (c *Controller) CompleteLoad(gen uint64, projects []models.Project, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen == c.issued {
		c.state.Loading = false
	}
	if gen < c.applied {
		c.log.Debug("discarding stale dashboard load",
			zap.Uint64("generation", gen),
			zap.Uint64("applied", c.applied))
		return false
	}
	c.applied = gen

	if err != nil {
		c.state.LoadErr = err
		c.onStateChange(stageRender)
		return true
	}

	c.state.Collection = append([]models.Project(nil), projects...)
	c.state.LoadErr = nil
	c.state.Loaded = true
	c.state.LoadedAt = c.now()
	c.state.Cursor.Page = 1
	c.onStateChange(stageFilter)
	return true
}

// SetSelection applies a filter and sort together and returns to page 1.
func (c *Controller) SetSelection(filter StatusFilter, key SortKey) ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Filter = filter
	c.state.Sort = key
	c.state.Cursor.Page = 1
	c.onStateChange(stageFilter)
	return c.last
}

// SetFilter changes the status filter and returns to page 1.
func (c *Controller) SetFilter(filter StatusFilter) ViewModel {
	c.mu.Lock()
	sort := c.state.Sort
	c.mu.Unlock()
	return c.SetSelection(filter, sort)
}

// SetSort changes the sort key and returns to page 1.
func (c *Controller) SetSort(key SortKey) ViewModel {
	c.mu.Lock()
	filter := c.state.Filter
	c.mu.Unlock()
	return c.SetSelection(filter, key)
}

// ResetFilters restores All and the default sort.
func (c *Controller) ResetFilters() ViewModel {
	return c.SetSelection(FilterAll, DefaultSort)
}

// SetSizeClass applies a new viewport class. When the class is unchanged
// nothing is re-rendered and false is returned. Otherwise the page size is
// recomputed and the cursor returns to page 1 without re-fetching.
func (c *Controller) SetSizeClass(size SizeClass) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if size == c.state.Size {
		return false
	}
	c.state.Size = size
	c.state.Cursor.Page = 1
	c.onStateChange(stagePaginate)
	return true
}

// NextPage advances the table; it is a no-op on the last page.
func (c *Controller) NextPage() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.state.Cursor.Next()
	if next != c.state.Cursor {
		c.state.Cursor = next
		c.onStateChange(stagePaginate)
	}
	return c.last
}

// PreviousPage goes back one page; it is a no-op on page 1.
func (c *Controller) PreviousPage() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.state.Cursor.Previous()
	if prev != c.state.Cursor {
		c.state.Cursor = prev
		c.onStateChange(stagePaginate)
	}
	return c.last
}

// Rerender rebuilds the view model without changing state. The last-updated
// text depends on the clock, so callers refresh it before serving.
func (c *Controller) Rerender() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChange(stageRender)
	return c.last
}

// ViewModel returns the most recently built view model.
func (c *Controller) ViewModel() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Collection returns a copy of the full collection.
func (c *Controller) Collection() []models.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Project(nil), c.state.Collection...)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Collection = append([]models.Project(nil), s.Collection...)
	s.View = append([]models.Project(nil), s.View...)
	return s
}

// SizeClass returns the current viewport class.
func (c *Controller) SizeClass() SizeClass {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Size
}
