package prefabs

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// EntitySpec is the static configuration of one entity prefab.
type EntitySpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Behavior string `yaml:"behavior"`
	MainType int    `yaml:"main_type"`
	SubType  int    `yaml:"sub_type"`
	ID       int    `yaml:"id"`

	Width  float64    `yaml:"width"`
	Height float64    `yaml:"height"`
	Sprite SpriteSpec `yaml:"sprite"`

	Stats     StatsSpec      `yaml:"stats"`
	Move      MoveSpec       `yaml:"move"`
	Attack    AttackSpec     `yaml:"attack"`
	Delay     int            `yaml:"delay"`
	Animation *AnimationSpec `yaml:"animation"`

	DeathEffect string             `yaml:"death_effect"`
	CullMargin  float64            `yaml:"cull_margin"`
	Params      map[string]float64 `yaml:"params"`
}

type SpriteSpec struct {
	Image string   `yaml:"image"`
	SrcX  int      `yaml:"src_x"`
	SrcY  int      `yaml:"src_y"`
	Alpha *float64 `yaml:"alpha"`
}

type StatsSpec struct {
	Attack       int `yaml:"attack"`
	Defense      int `yaml:"defense"`
	HP           int `yaml:"hp"`
	IFramesOnHit int `yaml:"iframes_on_hit"`
}

type MoveSpec struct {
	Enabled    *bool   `yaml:"enabled"`
	SpeedX     float64 `yaml:"speed_x"`
	SpeedY     float64 `yaml:"speed_y"`
	DirectionX string  `yaml:"direction_x"`
	DirectionY string  `yaml:"direction_y"`
	// Delay is the MoveDelay threshold in ticks; 0 leaves it unset.
	Delay int `yaml:"delay"`
}

type AttackSpec struct {
	Enabled bool   `yaml:"enabled"`
	Delay   int    `yaml:"delay"`
	Shot    string `yaml:"shot"`
}

type AnimationSpec struct {
	Image       string `yaml:"image"`
	SrcX        int    `yaml:"src_x"`
	SrcY        int    `yaml:"src_y"`
	FrameW      int    `yaml:"frame_w"`
	FrameH      int    `yaml:"frame_h"`
	FrameCount  int    `yaml:"frame_count"`
	FrameRepeat int    `yaml:"frame_repeat"`
	FrameDelay  int    `yaml:"frame_delay"`
}

// RoundSpec binds a round script to its player and backdrop.
type RoundSpec struct {
	Name       string  `yaml:"name"`
	Script     string  `yaml:"script"`
	Background string  `yaml:"background"`
	Player     string  `yaml:"player"`
	PlayerX    float64 `yaml:"player_x"`
	PlayerY    float64 `yaml:"player_y"`
	// FinishTime overrides the script's finish time when > 0.
	FinishTime int `yaml:"finish_time"`
}

// LoadRoundSpec loads rounds/<name>.yaml.
func LoadRoundSpec(name string) (RoundSpec, error) {
	spec, err := LoadSpec[RoundSpec](path.Join("rounds", name+".yaml"))
	if err != nil {
		return RoundSpec{}, err
	}
	if spec.Name == "" {
		spec.Name = name
	}
	return spec, nil
}

// LoadEntitySpecs loads every entities/*.yaml prefab, keyed by name. Files on
// disk shadow embedded files of the same name.
func LoadEntitySpecs() (map[string]EntitySpec, error) {
	files := map[string]struct{}{}
	embedded, err := fs.Glob(PrefabsFS, "entities/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("prefabs: glob entities: %w", err)
	}
	for _, f := range embedded {
		files[f] = struct{}{}
	}
	onDisk, _ := filepath.Glob(diskPrefabPath("entities/*.yaml"))
	for _, f := range onDisk {
		files[cleanPrefabPath(f)] = struct{}{}
	}

	names := make([]string, 0, len(files))
	for f := range files {
		names = append(names, f)
	}
	sort.Strings(names)

	specs := make(map[string]EntitySpec, len(names))
	for _, f := range names {
		spec, err := LoadSpec[EntitySpec](f)
		if err != nil {
			return nil, err
		}
		if spec.Name == "" {
			spec.Name = strings.TrimSuffix(path.Base(f), path.Ext(f))
		}
		if _, dup := specs[spec.Name]; dup {
			return nil, fmt.Errorf("prefabs: duplicate entity %q in %s", spec.Name, f)
		}
		specs[spec.Name] = spec
	}
	return specs, nil
}
