package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher is a Renderer that keeps the latest view model and a version
// number bumped on every render. Pollers compare versions to skip redraws.
type Publisher struct {
	mu      sync.RWMutex
	vm      ViewModel
	version uint64
}

// Render stores vm as the latest view model.
func (p *Publisher) Render(vm ViewModel) error {
	p.mu.Lock()
	p.vm = vm
	p.version++
	p.mu.Unlock()
	return nil
}

// Latest returns the newest view model and its version.
func (p *Publisher) Latest() (ViewModel, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vm, p.version
}

// Version returns the number of renders so far.
func (p *Publisher) Version() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

// View is one visitor's dashboard: its controller, its viewport debouncer and
// the published view model.
type View struct {
	ID         string
	CompanyID  string
	Controller *Controller
	Responsive *Responsive
	Published  *Publisher

	mu       sync.Mutex
	hidden   bool
	lastSeen time.Time
}

// SetHidden records whether the page reported itself hidden.
func (v *View) SetHidden(hidden bool) {
	v.mu.Lock()
	v.hidden = hidden
	v.mu.Unlock()
}

// Hidden reports the last visibility the page reported.
func (v *View) Hidden() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hidden
}

func (v *View) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

// LastSeen is the time of the last request that used this view.
func (v *View) LastSeen() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

// LoaderFor returns the load function for one company.
type LoaderFor func(companyID string) LoadFunc

// Registry holds the live dashboard views keyed by view id.
type Registry struct {
	mu        sync.Mutex
	views     map[string]*View
	loaderFor LoaderFor
	opts      Options
	debounce  time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewRegistry builds an empty registry. Views created by it load through
// loaderFor and debounce viewport samples by debounce.
func NewRegistry(loaderFor LoaderFor, opts Options, debounce time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		views:     make(map[string]*View),
		loaderFor: loaderFor,
		opts:      opts,
		debounce:  debounce,
		log:       logger,
		now:       time.Now,
	}
}

// SetClock replaces the time source used for idle tracking.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Create registers a new view for companyID in the loading phase.
// The caller starts the first load.
func (r *Registry) Create(companyID string, size SizeClass) *View {
	pub := &Publisher{}
	ctrl := NewController(r.loaderFor(companyID), pub, r.opts, size, r.log)

	v := &View{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		Controller: ctrl,
		Published:  pub,
	}
	v.Responsive = NewResponsive(r.debounce, ctrl.SetSizeClass)

	r.mu.Lock()
	ctrl.SetClock(r.now)
	v.touch(r.now())
	r.views[v.ID] = v
	r.mu.Unlock()

	r.log.Debug("dashboard view created",
		zap.String("view_id", v.ID),
		zap.String("company_id", companyID))
	return v
}

// Get returns the view with id if it belongs to companyID, and marks it seen.
func (r *Registry) Get(id, companyID string) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	if !ok || v.CompanyID != companyID {
		return nil, false
	}
	v.touch(r.now())
	return v, true
}

// Views returns a snapshot of all live views.
func (r *Registry) Views() []*View {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		out = append(out, v)
	}
	return out
}

// Len returns the number of live views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// EvictIdle removes views not seen for longer than ttl and returns how many
// were removed.
func (r *Registry) EvictIdle(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-ttl)
	n := 0
	for id, v := range r.views {
		if v.LastSeen().Before(cutoff) {
			v.Responsive.Stop()
			delete(r.views, id)
			n++
		}
	}
	return n
}

// Close stops every view and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.views {
		v.Responsive.Stop()
		delete(r.views, id)
	}
}
