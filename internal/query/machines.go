package query

import (
	"context"
	"time"

	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/rileyhilliard/provmon/internal/status"
)

// Source is the remote side of the machine queries. *fetch.Fetcher
// satisfies it.
type Source interface {
	ListMachines(ctx context.Context) ([]status.Machine, error)
	FetchMachine(ctx context.Context, machineID string) *status.Machine
	FetchProviders(ctx context.Context, machineID string) ([]status.Provider, error)
	FetchMachineWithProviders(ctx context.Context, machineID string) (*status.MachineWithProviders, error)
	FetchProvider(ctx context.Context, machineID, providerID string) (*status.Provider, error)
}

// Machines serves machine and provider queries through a Cache.
type Machines struct {
	cache     *Cache
	source    Source
	staleTime time.Duration
}

// NewMachines binds cache to source. A non-positive staleTime uses
// DefaultStaleTime.
func NewMachines(cache *Cache, source Source, staleTime time.Duration) *Machines {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	return &Machines{cache: cache, source: source, staleTime: staleTime}
}

// Cache returns the underlying cache, for Peek and Subscribe.
func (m *Machines) Cache() *Cache {
	return m.cache
}

// List returns every configured machine with its summary. A config store
// failure is a failed load, so the previous list stays cached.
func (m *Machines) List(ctx context.Context) ([]status.Machine, error) {
	return Fetch(ctx, m.cache, MachinesList(), m.source.ListMachines, m.staleTime)
}

// Machine returns one machine. Unknown or unreachable machines are NotFound.
func (m *Machines) Machine(ctx context.Context, id string) (status.Machine, error) {
	return Fetch(ctx, m.cache, MachineDetail(id), func(ctx context.Context) (status.Machine, error) {
		machine := m.source.FetchMachine(ctx, id)
		if machine == nil {
			return status.Machine{}, errors.NotFound("machine", id)
		}
		return *machine, nil
	}, m.staleTime)
}

// Providers returns the providers of one machine.
func (m *Machines) Providers(ctx context.Context, id string) ([]status.Provider, error) {
	return Fetch(ctx, m.cache, MachineProviders(id), func(ctx context.Context) ([]status.Provider, error) {
		return m.source.FetchProviders(ctx, id)
	}, m.staleTime)
}

// WithProviders returns a machine together with its providers.
func (m *Machines) WithProviders(ctx context.Context, id string) (status.MachineWithProviders, error) {
	return Fetch(ctx, m.cache, MachineWithProviders(id), func(ctx context.Context) (status.MachineWithProviders, error) {
		machine, err := m.source.FetchMachineWithProviders(ctx, id)
		if err != nil {
			return status.MachineWithProviders{}, err
		}
		if machine == nil {
			return status.MachineWithProviders{}, errors.NotFound("machine", id)
		}
		return *machine, nil
	}, m.staleTime)
}

// Provider returns a single provider of a machine.
func (m *Machines) Provider(ctx context.Context, machineID, providerID string) (status.Provider, error) {
	return Fetch(ctx, m.cache, ProviderDetail(machineID, providerID), func(ctx context.Context) (status.Provider, error) {
		p, err := m.source.FetchProvider(ctx, machineID, providerID)
		if err != nil {
			return status.Provider{}, err
		}
		if p == nil {
			return status.Provider{}, errors.NotFound("provider", providerID)
		}
		return *p, nil
	}, m.staleTime)
}

// Refresh marks every machine query stale.
func (m *Machines) Refresh() {
	m.cache.InvalidatePrefix(MachinesRoot())
}
