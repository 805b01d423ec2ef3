package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(loaders map[string]*countingLoader) (*Registry, *fakeClock) {
	clock := &fakeClock{now: buildNow}
	reg := NewRegistry(func(companyID string) LoadFunc {
		return loaders[companyID].Load
	}, Options{Currency: "PLN"}, 10*time.Millisecond, nil)
	reg.SetClock(clock.Now)
	return reg, clock
}

func TestRegistry_CreateAndGet(t *testing.T) {
	acme := &countingLoader{projects: twelveProjects()}
	reg, _ := newTestRegistry(map[string]*countingLoader{"acme": acme})

	v := reg.Create("acme", SizeXS)
	require.NotEmpty(t, v.ID)
	assert.Equal(t, 1, reg.Len())

	got, ok := reg.Get(v.ID, "acme")
	require.True(t, ok)
	assert.Same(t, v, got)

	_, ok = reg.Get(v.ID, "other-company")
	assert.False(t, ok, "views are scoped to their company")

	_, ok = reg.Get("missing", "acme")
	assert.False(t, ok)
}

func TestRegistry_ViewLoadsThroughCompanyLoader(t *testing.T) {
	acme := &countingLoader{projects: twelveProjects()}
	globex := &countingLoader{projects: twelveProjects()[:2]}
	reg, _ := newTestRegistry(map[string]*countingLoader{"acme": acme, "globex": globex})

	v := reg.Create("globex", SizeLG)
	require.NoError(t, v.Controller.Load(context.Background()))

	assert.Equal(t, 0, acme.calls)
	assert.Equal(t, 1, globex.calls)

	vm, version := v.Published.Latest()
	assert.Equal(t, PhaseReady, vm.Phase)
	assert.Len(t, vm.Rows, 2)
	// initial render, BeginLoad, CompleteLoad
	assert.Equal(t, uint64(3), version)
}

func TestRegistry_ResponsiveDrivesController(t *testing.T) {
	acme := &countingLoader{projects: twelveProjects()}
	reg, _ := newTestRegistry(map[string]*countingLoader{"acme": acme})

	v := reg.Create("acme", SizeLG)
	require.NoError(t, v.Controller.Load(context.Background()))
	before := v.Published.Version()

	changed := recv(t, v.Responsive.Observe(400))
	assert.True(t, changed)
	assert.Equal(t, SizeXS, v.Controller.SizeClass())
	assert.Greater(t, v.Published.Version(), before)
	assert.Equal(t, 1, acme.calls)
}

func TestRegistry_EvictIdle(t *testing.T) {
	acme := &countingLoader{}
	reg, clock := newTestRegistry(map[string]*countingLoader{"acme": acme})

	stale := reg.Create("acme", SizeLG)
	clock.Advance(20 * time.Minute)
	fresh := reg.Create("acme", SizeLG)
	clock.Advance(15 * time.Minute)

	removed := reg.EvictIdle(30 * time.Minute)
	assert.Equal(t, 1, removed)

	_, ok := reg.Get(stale.ID, "acme")
	assert.False(t, ok)
	_, ok = reg.Get(fresh.ID, "acme")
	assert.True(t, ok)
}

func TestRegistry_GetRefreshesIdleClock(t *testing.T) {
	reg, clock := newTestRegistry(map[string]*countingLoader{"acme": {}})

	v := reg.Create("acme", SizeLG)
	clock.Advance(25 * time.Minute)
	_, ok := reg.Get(v.ID, "acme")
	require.True(t, ok)
	clock.Advance(25 * time.Minute)

	assert.Equal(t, 0, reg.EvictIdle(30*time.Minute))
	assert.Equal(t, clock.Now().Add(-25*time.Minute), v.LastSeen())
}

func TestRegistry_Close(t *testing.T) {
	reg, _ := newTestRegistry(map[string]*countingLoader{"acme": {}})
	reg.Create("acme", SizeLG)
	reg.Create("acme", SizeSM)

	reg.Close()
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.Views())
}

func TestView_Hidden(t *testing.T) {
	reg, _ := newTestRegistry(map[string]*countingLoader{"acme": {}})
	v := reg.Create("acme", SizeLG)

	assert.False(t, v.Hidden())
	v.SetHidden(true)
	assert.True(t, v.Hidden())
}
