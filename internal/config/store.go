package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rileyhilliard/provmon/internal/errors"
	"gopkg.in/yaml.v3"
)

// Store holds the list of monitored machines.
// Ids are unique within a store; AddConfig enforces it.
type Store interface {
	ListConfigs() ([]MachineConfig, error)
	AddConfig(cfg MachineConfig) error
	RemoveConfig(id string) error
}

// machinesDocument is the on-disk shape of the machines file.
type machinesDocument struct {
	Machines []MachineConfig `yaml:"machines"`
}

const machinesFileHeader = `# provmon machines
# Add entries with 'provmon machines add' or edit by hand.

`

// FileStore persists machines as YAML. A missing file is an empty list.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// ListConfigs returns the machines in file order.
func (s *FileStore) ListConfigs() ([]MachineConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// AddConfig appends a machine after validating it and checking for a duplicate id.
func (s *FileStore) AddConfig(cfg MachineConfig) error {
	if err := ValidateMachine(cfg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := s.read()
	if err != nil {
		return err
	}
	if err := checkDuplicate(machines, cfg.ID); err != nil {
		return err
	}
	return s.write(append(machines, cfg))
}

// RemoveConfig deletes the machine with the given id.
func (s *FileStore) RemoveConfig(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := s.read()
	if err != nil {
		return err
	}
	remaining, ok := without(machines, id)
	if !ok {
		return errors.NotFound("machine", id)
	}
	return s.write(remaining)
}

func (s *FileStore) read() ([]MachineConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []MachineConfig{}, nil
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't read machines file %s", s.path),
			"Check that the file exists and is readable.")
	}

	var doc machinesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Machines file %s isn't valid YAML", s.path),
			"Fix the syntax, or move the file aside to start over.")
	}
	if doc.Machines == nil {
		doc.Machines = []MachineConfig{}
	}
	return doc.Machines, nil
}

func (s *FileStore) write(machines []MachineConfig) error {
	data, err := yaml.Marshal(machinesDocument{Machines: machines})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't encode the machines file",
			"This is unexpected - please report this bug!")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't create directory for %s", s.path),
			"Check that you have write permissions.")
	}

	// Write to a temp file and rename so readers never see a partial file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(machinesFileHeader+string(data)), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't write machines file to %s", s.path),
			"Check that you have write permissions.")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp) //nolint:errcheck // Cleanup, error not actionable
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't replace machines file %s", s.path),
			"Check that you have write permissions.")
	}
	return nil
}

// MemoryStore is an in-process Store, used by tests and embedders.
type MemoryStore struct {
	mu       sync.RWMutex
	machines []MachineConfig
}

// NewMemoryStore creates a store seeded with machines. Seeds are not
// validated or deduplicated.
func NewMemoryStore(machines ...MachineConfig) *MemoryStore {
	seeded := make([]MachineConfig, len(machines))
	copy(seeded, machines)
	return &MemoryStore{machines: seeded}
}

// ListConfigs returns a copy of the machine list.
func (s *MemoryStore) ListConfigs() ([]MachineConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MachineConfig, len(s.machines))
	copy(out, s.machines)
	return out, nil
}

// AddConfig appends a machine after validating it and checking for a duplicate id.
func (s *MemoryStore) AddConfig(cfg MachineConfig) error {
	if err := ValidateMachine(cfg); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkDuplicate(s.machines, cfg.ID); err != nil {
		return err
	}
	s.machines = append(s.machines, cfg)
	return nil
}

// RemoveConfig deletes the machine with the given id.
func (s *MemoryStore) RemoveConfig(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining, ok := without(s.machines, id)
	if !ok {
		return errors.NotFound("machine", id)
	}
	s.machines = remaining
	return nil
}

// FindConfig returns the machine with the given id from a snapshot.
func FindConfig(machines []MachineConfig, id string) (MachineConfig, bool) {
	for _, m := range machines {
		if m.ID == id {
			return m, true
		}
	}
	return MachineConfig{}, false
}

func checkDuplicate(machines []MachineConfig, id string) error {
	if _, exists := FindConfig(machines, id); exists {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Machine '%s' already exists", id),
			"Choose a different id, or remove the existing machine first.")
	}
	return nil
}

func without(machines []MachineConfig, id string) ([]MachineConfig, bool) {
	out := make([]MachineConfig, 0, len(machines))
	found := false
	for _, m := range machines {
		if m.ID == id {
			found = true
			continue
		}
		out = append(out, m)
	}
	return out, found
}
