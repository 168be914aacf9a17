package save

import (
	"errors"
	"fmt"

	"github.com/milk9111/shmup/entity"
	"github.com/milk9111/shmup/round"
	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const battleObject = "battle"

// ErrNoSave is returned when a slot holds no snapshot.
var ErrNoSave = errors.New("save: no snapshot")

// Snapshot is a whole battle in progress.
type Snapshot struct {
	Version  int            `yaml:"version"`
	Frame    int            `yaml:"frame"`
	Round    round.State    `yaml:"round"`
	Entities []entity.State `yaml:"entities"`
}

const snapshotVersion = 1

// Store persists snapshots through gdata. With a nil manager it keeps them in
// memory for the lifetime of the process.
type Store struct {
	manager *gdata.Manager
	memory  map[string][]byte
	log     *zap.Logger
}

// Open creates a store for appName. When the platform storage cannot be
// opened the store falls back to memory.
func Open(log *zap.Logger, appName string) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Warn("save storage unavailable, keeping saves in memory", zap.Error(err))
		manager = nil
	}
	return NewStore(log, manager)
}

// NewStore wraps manager, which may be nil.
func NewStore(log *zap.Logger, manager *gdata.Manager) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{manager: manager, memory: map[string][]byte{}, log: log}
}

// Save writes snap to slot.
func (s *Store) Save(slot string, snap Snapshot) error {
	snap.Version = snapshotVersion
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("save: encode %s: %w", slot, err)
	}
	if s.manager == nil {
		s.memory[slot] = data
	} else if err := s.manager.SaveObjectProp(battleObject, slot, data); err != nil {
		return fmt.Errorf("save: write %s: %w", slot, err)
	}
	s.log.Info("saved",
		zap.String("slot", slot),
		zap.Int("frame", snap.Frame),
		zap.Int("entities", len(snap.Entities)),
	)
	return nil
}

// Load reads the snapshot in slot.
func (s *Store) Load(slot string) (Snapshot, error) {
	data, err := s.read(slot)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("save: decode %s: %w", slot, err)
	}
	if snap.Version != snapshotVersion {
		return Snapshot{}, fmt.Errorf("save: %s has version %d, want %d", slot, snap.Version, snapshotVersion)
	}
	return snap, nil
}

// Exists reports whether slot holds a snapshot.
func (s *Store) Exists(slot string) bool {
	if s.manager == nil {
		_, ok := s.memory[slot]
		return ok
	}
	return s.manager.ObjectPropExists(battleObject, slot)
}

func (s *Store) read(slot string) ([]byte, error) {
	if s.manager == nil {
		data, ok := s.memory[slot]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoSave, slot)
		}
		return data, nil
	}
	if !s.manager.ObjectPropExists(battleObject, slot) {
		return nil, fmt.Errorf("%w: %s", ErrNoSave, slot)
	}
	data, err := s.manager.LoadObjectProp(battleObject, slot)
	if err != nil {
		return nil, fmt.Errorf("save: read %s: %w", slot, err)
	}
	return data, nil
}
