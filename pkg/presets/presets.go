// Package presets holds the catalogue of ready-made opening lines.
package presets

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/qnkhuat/openingrush/pkg/trainer"
)

//go:embed presets.yaml
var builtin []byte

type Preset struct {
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color" json:"color"`
	PGN   string `yaml:"pgn" json:"pgn"`
}

// Player returns the side the preset is meant to be trained as.
func (p Preset) Player() trainer.Color {
	c, _ := trainer.ParseColor(p.Color)
	return c
}

type Catalog struct {
	presets []Preset
}

// Builtin returns the catalogue shipped with the binary.
func Builtin() *Catalog {
	presets, err := Decode(bytes.NewReader(builtin))
	if err != nil {
		panic(fmt.Sprintf("presets: embedded catalogue: %v", err))
	}
	return &Catalog{presets: presets}
}

// Load returns the builtin catalogue extended by the file at path. Entries in
// the file replace builtin entries of the same name. An empty path loads the
// builtin catalogue only.
func Load(path string) (*Catalog, error) {
	c := Builtin()
	if path == "" {
		return c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open presets file: %w", err)
	}
	defer f.Close()

	extra, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Merge(extra)
	return c, nil
}

// Decode reads a YAML list of presets, rejecting unknown fields.
func Decode(r io.Reader) ([]Preset, error) {
	var presets []Preset
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&presets); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	for i, p := range presets {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("preset %d: %w", i+1, err)
		}
	}
	return presets, nil
}

func validate(p Preset) error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.PGN == "" {
		return fmt.Errorf("%s: pgn is required", p.Name)
	}
	if _, err := trainer.ParseColor(p.Color); err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}
	return nil
}

func (c *Catalog) Merge(presets []Preset) {
	for _, p := range presets {
		replaced := false
		for i := range c.presets {
			if c.presets[i].Name == p.Name {
				c.presets[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			c.presets = append(c.presets, p)
		}
	}
}

func (c *Catalog) All() []Preset {
	return append([]Preset(nil), c.presets...)
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.presets))
	for i, p := range c.presets {
		names[i] = p.Name
	}
	return names
}

func (c *Catalog) Find(name string) (Preset, bool) {
	for _, p := range c.presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
