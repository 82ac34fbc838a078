package query

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/rileyhilliard/provmon/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves canned data and counts calls per method.
type fakeSource struct {
	mu        sync.Mutex
	calls     map[string]int
	machines  map[string][]status.Provider
	failing   map[string]error
	listErr   error
	listOrder []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		calls: make(map[string]int),
		machines: map[string][]status.Provider{
			"m1": {{ID: "p1", Status: status.StatusWorking}, {ID: "p2", Status: status.StatusWaiting}},
			"m2": {},
		},
		failing:   make(map[string]error),
		listOrder: []string{"m1", "m2"},
	}
}

func (f *fakeSource) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeSource) hit(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

func (f *fakeSource) machine(id string) status.Machine {
	return status.Machine{MachineID: id, DisplayName: "Machine " + id, Summary: status.Summarize(f.machines[id])}
}

func (f *fakeSource) ListMachines(context.Context) ([]status.Machine, error) {
	f.hit("all")
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]status.Machine, 0, len(f.listOrder))
	for _, id := range f.listOrder {
		out = append(out, f.machine(id))
	}
	return out, nil
}

func (f *fakeSource) FetchMachine(_ context.Context, id string) *status.Machine {
	f.hit("machine")
	if _, ok := f.machines[id]; !ok || f.failing[id] != nil {
		return nil
	}
	m := f.machine(id)
	return &m
}

func (f *fakeSource) FetchProviders(_ context.Context, id string) ([]status.Provider, error) {
	f.hit("providers")
	if err := f.failing[id]; err != nil {
		return nil, err
	}
	providers, ok := f.machines[id]
	if !ok {
		return nil, errors.NotFound("machine", id)
	}
	return providers, nil
}

func (f *fakeSource) FetchMachineWithProviders(_ context.Context, id string) (*status.MachineWithProviders, error) {
	f.hit("full")
	if err := f.failing[id]; err != nil {
		return nil, err
	}
	providers, ok := f.machines[id]
	if !ok {
		return nil, nil
	}
	return &status.MachineWithProviders{Machine: f.machine(id), Providers: providers}, nil
}

func (f *fakeSource) FetchProvider(ctx context.Context, machineID, providerID string) (*status.Provider, error) {
	f.hit("provider")
	if err := f.failing[machineID]; err != nil {
		return nil, err
	}
	p, ok := status.FindProvider(f.machines[machineID], providerID)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func newTestMachines(src Source) (*Machines, *fakeClock) {
	clock := newFakeClock()
	c, _ := newTestCache(clock)
	return NewMachines(c, src, 30*time.Second), clock
}

func TestMachines_List(t *testing.T) {
	src := newFakeSource()
	svc, clock := newTestMachines(src)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "m1", list[0].MachineID)
	assert.Equal(t, 50.0, list[0].Summary.WorkingPercent)

	_, _ = svc.List(context.Background())
	assert.Equal(t, 1, src.count("all"))

	clock.Advance(31 * time.Second)
	_, _ = svc.List(context.Background())
	assert.Equal(t, 2, src.count("all"))
}

func TestMachines_Machine(t *testing.T) {
	src := newFakeSource()
	svc, _ := newTestMachines(src)

	m, err := svc.Machine(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Machine m1", m.DisplayName)

	_, err = svc.Machine(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "Machine 'ghost' not found")

	entry, ok := svc.Cache().Peek(MachineDetail("ghost"))
	require.True(t, ok)
	assert.Equal(t, 1, entry.FailureCount)
}

func TestMachines_ProvidersAndDetail(t *testing.T) {
	src := newFakeSource()
	svc, _ := newTestMachines(src)
	ctx := context.Background()

	providers, err := svc.Providers(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, providers, 2)

	full, err := svc.WithProviders(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, full.Summary.Total)
	assert.Len(t, full.Providers, 2)

	_, err = svc.WithProviders(ctx, "ghost")
	assert.True(t, errors.IsNotFound(err))

	p, err := svc.Provider(ctx, "m1", "p2")
	require.NoError(t, err)
	assert.Equal(t, status.StatusWaiting, p.Status)

	_, err = svc.Provider(ctx, "m1", "p9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Provider 'p9' not found")
}

func TestMachines_FailureKeepsLastGoodData(t *testing.T) {
	src := newFakeSource()
	svc, clock := newTestMachines(src)
	ctx := context.Background()

	_, err := svc.Providers(ctx, "m1")
	require.NoError(t, err)

	src.failing["m1"] = errors.TransportStatus("http://m1/providers", 503)
	clock.Advance(time.Minute)

	_, err = svc.Providers(ctx, "m1")
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))

	entry, _ := svc.Cache().Peek(MachineProviders("m1"))
	assert.Len(t, entry.Data, 2)
	assert.Equal(t, 1, entry.FailureCount)
}

func TestMachines_ListStoreErrorKeepsLastList(t *testing.T) {
	src := newFakeSource()
	svc, clock := newTestMachines(src)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)

	src.listErr = errors.New(errors.ErrConfig, "machines file unreadable", "")
	clock.Advance(time.Minute)

	_, err = svc.List(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	entry, _ := svc.Cache().Peek(MachinesList())
	assert.Len(t, entry.Data, 2)
	assert.Equal(t, 1, entry.FailureCount)

	// the failure isn't cached: the next call retries
	src.listErr = nil
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 3, src.count("all"))
}

func TestMachines_Refresh(t *testing.T) {
	src := newFakeSource()
	svc, _ := newTestMachines(src)
	ctx := context.Background()

	_, _ = svc.List(ctx)
	_, _ = svc.Machine(ctx, "m1")
	_, _ = svc.Provider(ctx, "m1", "p1")

	svc.Refresh()

	_, _ = svc.List(ctx)
	_, _ = svc.Machine(ctx, "m1")
	_, _ = svc.Provider(ctx, "m1", "p1")

	assert.Equal(t, 2, src.count("all"))
	assert.Equal(t, 2, src.count("machine"))
	assert.Equal(t, 2, src.count("provider"))
}

func TestMachines_DefaultStaleTime(t *testing.T) {
	svc := NewMachines(New(), newFakeSource(), 0)
	assert.Equal(t, DefaultStaleTime, svc.staleTime)
}

func TestMachines_NotifiesSubscribers(t *testing.T) {
	src := newFakeSource()
	src.failing["m2"] = fmt.Errorf("dial tcp: refused")
	svc, _ := newTestMachines(src)

	var got []FailureEvent
	svc.Cache().Subscribe(func(e FailureEvent) { got = append(got, e) })

	_, _ = svc.Providers(context.Background(), "m2")
	require.Len(t, got, 1)
	assert.True(t, got[0].Key.Equal(MachineProviders("m2")))
}
