// Package profile resolves named threshold presets (strict/normal/loose)
// plus per-call custom overrides into the flattened threshold map detectors
// consume, and loads/persists profile vectors from profiles.yaml.
package profile

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rendiffdev/frameguard/internal/detect"
	"github.com/rendiffdev/frameguard/internal/xerrors"
	"gopkg.in/yaml.v3"
)

// Name identifies a threshold preset.
type Name string

const (
	Strict Name = "strict"
	Normal Name = "normal"
	Loose  Name = "loose"
)

// Vector is a named threshold preset: a flat map keyed "<detector>.<key>".
type Vector struct {
	Name       Name               `yaml:"name"`
	Thresholds map[string]float64 `yaml:"thresholds"`
}

// File is the on-disk shape of profiles.yaml.
type File struct {
	Profiles []Vector `yaml:"profiles"`
}

// defaultVectors seeds the three built-in profiles. Strict thresholds are
// tighter (more sensitive to defects), loose thresholds are looser.
func defaultVectors() []Vector {
	return []Vector{
		{
			Name: Strict,
			Thresholds: map[string]float64{
				"blur.threshold":              150.0,
				"brightness.min":              60.0,
				"brightness.max":              200.0,
				"contrast.threshold":          45.0,
				"color.cast_ratio":            1.25,
				"color.saturation_min":        0.2,
				"color.dominance_ratio":       1.4,
				"noise.threshold":             4.0,
				"stripe.threshold":            4.5,
				"occlusion.texture_threshold": 20.0,
				"occlusion.fraction_threshold": 0.25,
				"signal_loss.uniformity_threshold": 0.95,
			},
		},
		{
			Name: Normal,
			Thresholds: map[string]float64{
				"blur.threshold":              100.0,
				"brightness.min":              40.0,
				"brightness.max":              220.0,
				"contrast.threshold":          35.0,
				"color.cast_ratio":            1.4,
				"color.saturation_min":        0.15,
				"color.dominance_ratio":       1.6,
				"noise.threshold":             6.0,
				"stripe.threshold":            6.0,
				"occlusion.texture_threshold": 15.0,
				"occlusion.fraction_threshold": 0.35,
				"signal_loss.uniformity_threshold": 0.98,
			},
		},
		{
			Name: Loose,
			Thresholds: map[string]float64{
				"blur.threshold":              60.0,
				"brightness.min":              25.0,
				"brightness.max":              235.0,
				"contrast.threshold":          25.0,
				"color.cast_ratio":            1.6,
				"color.saturation_min":        0.08,
				"color.dominance_ratio":       1.9,
				"noise.threshold":             9.0,
				"stripe.threshold":            8.0,
				"occlusion.texture_threshold": 10.0,
				"occlusion.fraction_threshold": 0.5,
				"signal_loss.uniformity_threshold": 0.99,
			},
		},
	}
}

// Store holds the active set of profile vectors as a read-mostly, atomically
// swapped snapshot: readers always see a fully-formed map, old or new,
// never a partially updated one.
type Store struct {
	path string
	mu   sync.Mutex // serializes writers only; readers use the atomic snapshot
	snap atomic.Pointer[map[Name]Vector]
}

// NewStore builds a Store seeded with the three default profiles, ignoring
// path until Load or Save is called.
func NewStore(path string) *Store {
	s := &Store{path: path}
	snap := vectorsToMap(defaultVectors())
	s.snap.Store(&snap)
	return s
}

func vectorsToMap(vectors []Vector) map[Name]Vector {
	m := make(map[Name]Vector, len(vectors))
	for _, v := range vectors {
		m[v.Name] = v
	}
	return m
}

// Load reads profiles.yaml from disk, replacing the active snapshot
// atomically. A missing file is not an error: the defaults remain active
// and are written out on the next Save.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return xerrors.Wrap(xerrors.KindConfig, "profile.Load", "failed to read profiles file", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return xerrors.Wrap(xerrors.KindConfig, "profile.Load", "failed to parse profiles.yaml", err)
	}
	if len(file.Profiles) == 0 {
		return xerrors.ConfigErr("profile.Load", "profiles.yaml must declare at least one profile")
	}

	snap := vectorsToMap(file.Profiles)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Store(&snap)
	return nil
}

// Save persists the active snapshot to profiles.yaml via write-then-rename
// so readers never observe a partially written file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := *s.snap.Load()
	vectors := make([]Vector, 0, len(snap))
	for _, v := range snap {
		vectors = append(vectors, v)
	}
	data, err := yaml.Marshal(File{Profiles: vectors})
	if err != nil {
		return xerrors.Wrap(xerrors.KindInternal, "profile.Save", "failed to marshal profiles", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return xerrors.Wrap(xerrors.KindInternal, "profile.Save", "failed to write temp profiles file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return xerrors.Wrap(xerrors.KindInternal, "profile.Save", "failed to rename temp profiles file", err)
	}
	return nil
}

// Resolve builds a detect.Config for the given profile name, level, and
// custom overrides. Overrides win over the profile's own thresholds.
func (s *Store) Resolve(name Name, level detect.Level, overrides map[string]float64) (detect.Config, error) {
	snap := *s.snap.Load()
	vector, ok := snap[name]
	if !ok {
		return detect.Config{}, xerrors.ConfigErr("profile.Resolve", fmt.Sprintf("unknown profile %q", name))
	}

	merged := make(map[string]float64, len(vector.Thresholds)+len(overrides))
	for k, v := range vector.Thresholds {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return detect.Config{Level: level, Thresholds: merged}, nil
}

// Set replaces or adds a named profile vector in the active snapshot.
func (s *Store) Set(v Vector) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := *s.snap.Load()
	next := make(map[Name]Vector, len(old)+1)
	for k, val := range old {
		next[k] = val
	}
	next[v.Name] = v
	s.snap.Store(&next)
}

// Names returns every known profile name.
func (s *Store) Names() []Name {
	snap := *s.snap.Load()
	names := make([]Name, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	return names
}
