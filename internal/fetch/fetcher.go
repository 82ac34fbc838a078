// Package fetch talks to machine status endpoints.
//
// Each machine exposes one HTTP GET endpoint returning a JSON array of
// provider records. The Fetcher resolves machine ids against a config
// snapshot, performs the request, and converts the body into normalized
// providers and summaries. It owns the partial-failure policy:
//
//	FetchProviders             errors propagate (NotFound, Transport, Parse)
//	FetchMachine               any failure -> nil
//	FetchMachineWithProviders  unknown id -> nil; Transport/Parse propagate
//	FetchProvider              unknown machine/provider -> nil; Transport/Parse propagate
//	FetchAllMachines           failures become zeroed summaries and are logged
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rileyhilliard/provmon/internal/config"
	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/rileyhilliard/provmon/internal/logger"
	"github.com/rileyhilliard/provmon/internal/status"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// ConfigSource provides the current machine configuration snapshot.
// config.Store satisfies it.
type ConfigSource interface {
	ListConfigs() ([]config.MachineConfig, error)
}

// Fetcher performs status endpoint requests.
type Fetcher struct {
	source     ConfigSource
	httpClient *http.Client
	log        logger.Logger
	now        func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithTimeout sets the per-request timeout on the default client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.httpClient = &http.Client{Timeout: d}
	}
}

// WithLogger sets where batch failures are reported.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		f.log = l
	}
}

// WithClock overrides the time source used for ReportedAt.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		f.now = now
	}
}

// New creates a Fetcher reading machine configs from source.
func New(source ConfigSource, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:     source,
		httpClient: &http.Client{Timeout: config.DefaultRequestTimeout},
		log:        logger.NewEnvLogger("[fetch]"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchProviders returns the normalized providers for one machine.
func (f *Fetcher) FetchProviders(ctx context.Context, machineID string) ([]status.Provider, error) {
	cfg, err := f.lookup(machineID)
	if err != nil {
		return nil, err
	}
	return f.fetchConfig(ctx, cfg)
}

// FetchMachine returns the machine with its summary, or nil if the machine
// is unknown or its endpoint failed.
func (f *Fetcher) FetchMachine(ctx context.Context, machineID string) *status.Machine {
	cfg, err := f.lookup(machineID)
	if err != nil {
		return nil
	}
	providers, err := f.fetchConfig(ctx, cfg)
	if err != nil {
		f.log.Debug("machine %s unavailable: %s", machineID, errors.Summary(err))
		return nil
	}
	m := status.NewMachine(cfg, providers, f.now())
	return &m
}

// FetchMachineWithProviders returns the machine and its providers.
// Unknown ids yield (nil, nil); endpoint failures are returned.
func (f *Fetcher) FetchMachineWithProviders(ctx context.Context, machineID string) (*status.MachineWithProviders, error) {
	cfg, err := f.lookup(machineID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	providers, err := f.fetchConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	m := status.NewMachineWithProviders(cfg, providers, f.now())
	return &m, nil
}

// FetchProvider returns one provider of one machine.
// Unknown machine or provider ids yield (nil, nil); endpoint failures are returned.
func (f *Fetcher) FetchProvider(ctx context.Context, machineID, providerID string) (*status.Provider, error) {
	providers, err := f.FetchProviders(ctx, machineID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	p, ok := status.FindProvider(providers, providerID)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// FetchAllMachines fetches every configured machine concurrently and waits
// for all of them. A machine whose fetch fails is returned with a zeroed
// summary and the failure is logged. The result has one entry per config,
// in config order. If the config store can't be read the failure is logged
// and the result is empty.
func (f *Fetcher) FetchAllMachines(ctx context.Context) []status.Machine {
	machines, err := f.ListMachines(ctx)
	if err != nil {
		f.log.Error("couldn't list machines: %s", errors.Summary(err))
		return []status.Machine{}
	}
	return machines
}

// ListMachines is FetchAllMachines that returns a config store failure
// instead of an empty list. Per-machine fetch failures still yield zeroed
// summaries.
func (f *Fetcher) ListMachines(ctx context.Context) ([]status.Machine, error) {
	configs, err := f.source.ListConfigs()
	if err != nil {
		return nil, err
	}

	results := make([]status.Machine, len(configs))
	var wg sync.WaitGroup

	for i, cfg := range configs {
		wg.Add(1)
		go func(i int, cfg config.MachineConfig) {
			defer wg.Done()

			providers, err := f.fetchConfig(ctx, cfg)
			if err != nil {
				f.log.Warn("failed to fetch machine %s: %s", cfg.ID, errors.Summary(err))
				results[i] = status.EmptyMachine(cfg, f.now())
				return
			}
			results[i] = status.NewMachine(cfg, providers, f.now())
		}(i, cfg)
	}

	wg.Wait()
	return results, nil
}

// lookup resolves a machine id against the current snapshot.
func (f *Fetcher) lookup(machineID string) (config.MachineConfig, error) {
	configs, err := f.source.ListConfigs()
	if err != nil {
		return config.MachineConfig{}, err
	}
	cfg, ok := config.FindConfig(configs, machineID)
	if !ok {
		return config.MachineConfig{}, errors.NotFound("machine", machineID)
	}
	return cfg, nil
}

// fetchConfig performs the single GET for one machine and decodes the body.
func (f *Fetcher) fetchConfig(ctx context.Context, cfg config.MachineConfig) ([]status.Provider, error) {
	url := cfg.EndpointURL

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Transport(url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.Transport(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes)) //nolint:errcheck // Drain for connection reuse
		return nil, errors.TransportStatus(url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Transport(url, err)
	}

	raws, err := decodeProviders(body)
	if err != nil {
		return nil, errors.Parse(url, err)
	}
	return status.TransformProviders(raws), nil
}

// decodeProviders requires the body to be a JSON array of objects.
func decodeProviders(body []byte) ([]status.RawProvider, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("expected a JSON array: %w", err)
	}
	if items == nil {
		return nil, fmt.Errorf("expected a JSON array, got null")
	}

	raws := make([]status.RawProvider, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &raws[i]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return raws, nil
}
