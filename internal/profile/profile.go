// Package profile describes the player variants as configurations of a single
// hotspot controller.
package profile

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/prahasith1996/video-player/internal/hotspot"
	"github.com/prahasith1996/video-player/internal/playback"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var builtin []byte

type SourceKind string

const (
	SourceStatic  SourceKind = "static"
	SourceFetched SourceKind = "fetched"
)

// Hotspot is the YAML form of a static hotspot record.
type Hotspot struct {
	Time     float64        `yaml:"time"`
	Location map[string]any `yaml:"location"`
}

type Profile struct {
	Name                 string     `yaml:"name" json:"name"`
	Source               SourceKind `yaml:"source" json:"source"`
	VariantKey           string     `yaml:"variantKey" json:"variantKey,omitempty"`
	SeekRestriction      string     `yaml:"seekRestriction" json:"seekRestriction,omitempty"`
	CompletionTracking   bool       `yaml:"completionTracking" json:"completionTracking"`
	KeyboardResumeGate   bool       `yaml:"keyboardResumeGate" json:"keyboardResumeGate"`
	InteractionLogging   bool       `yaml:"interactionLogging" json:"interactionLogging"`
	ExpectedInteractions int        `yaml:"expectedInteractions" json:"expectedInteractions,omitempty"`
	Hotspots             []Hotspot  `yaml:"hotspots" json:"-"`

	records []hotspot.Record
}

// Options returns the controller options for this profile. Sinks and the
// clock are left for the caller to fill in.
func (p *Profile) Options() playback.Options {
	restriction, _ := playback.ParseSeekRestriction(p.SeekRestriction)
	return playback.Options{
		SeekRestriction:      restriction,
		CompletionTracking:   p.CompletionTracking,
		KeyboardResumeGate:   p.KeyboardResumeGate,
		InteractionLogging:   p.InteractionLogging,
		ExpectedInteractions: p.ExpectedInteractions,
	}
}

// StaticHotspots returns the profile's built-in list. It is nil for fetched
// profiles.
func (p *Profile) StaticHotspots() []hotspot.Record {
	if p.Source != SourceStatic {
		return nil
	}
	out := make([]hotspot.Record, len(p.records))
	copy(out, p.records)
	return out
}

func (p *Profile) compile() error {
	if p.Name == "" {
		return errors.New("profile name is required")
	}
	if _, err := playback.ParseSeekRestriction(p.SeekRestriction); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}
	if p.ExpectedInteractions < 0 {
		return fmt.Errorf("profile %s: expectedInteractions must not be negative", p.Name)
	}

	switch p.Source {
	case SourceStatic:
		records := make([]hotspot.Record, 0, len(p.Hotspots))
		for _, h := range p.Hotspots {
			placement := hotspot.DefaultPlacement
			if h.Location != nil {
				raw, err := json.Marshal(h.Location)
				if err != nil {
					return fmt.Errorf("profile %s: encode location at %.2fs: %w", p.Name, h.Time, err)
				}
				placement = hotspot.Placement(raw)
			}
			records = append(records, hotspot.Record{Time: h.Time, Placement: placement})
		}
		if err := hotspot.Validate(records); err != nil {
			return fmt.Errorf("profile %s: %w", p.Name, err)
		}
		p.records = records
	case SourceFetched:
		if p.VariantKey == "" {
			return fmt.Errorf("profile %s: fetched profiles need a variantKey", p.Name)
		}
		if len(p.Hotspots) > 0 {
			return fmt.Errorf("profile %s: fetched profiles cannot list hotspots", p.Name)
		}
	default:
		return fmt.Errorf("profile %s: unknown source %q", p.Name, p.Source)
	}
	return nil
}

// Catalog is an immutable set of profiles addressed by name.
type Catalog struct {
	byName map[string]*Profile
}

type catalogFile struct {
	Profiles []*Profile `yaml:"profiles"`
}

func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if len(f.Profiles) == 0 {
		return nil, errors.New("decode profiles: no profiles defined")
	}

	c := &Catalog{byName: make(map[string]*Profile, len(f.Profiles))}
	for _, p := range f.Profiles {
		if err := p.compile(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		c.byName[p.Name] = p
	}
	return c, nil
}

// Builtin returns the catalog shipped with the binary.
func Builtin() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("profile: builtin catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file, or returns the builtin catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}
	return Parse(data)
}

func (c *Catalog) Get(name string) (*Profile, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// List returns the profiles sorted by name.
func (c *Catalog) List() []*Profile {
	out := make([]*Profile, 0, len(c.byName))
	for _, p := range c.byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
