package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lavilleavelo/carte-velo-lyon/internal/lines"
)

//go:embed network.yml
var defaultNetwork []byte

// Network describes the line network being consolidated.
type Network struct {
	Name       string   `yaml:"name" validate:"required"`
	TotalLines int      `yaml:"total_lines" validate:"gt=0"`
	SourceURL  string   `yaml:"source_url" validate:"required"`
	Palette    []string `yaml:"palette" validate:"dive,hexcolor"`
}

var validate = validator.New()

// LoadNetwork reads the embedded network, then overlays the YAML file at
// path when one is given. Fields the file leaves empty keep their defaults.
func LoadNetwork(path string) (*Network, error) {
	var n Network
	if err := yaml.Unmarshal(defaultNetwork, &n); err != nil {
		return nil, fmt.Errorf("parse embedded network: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read network file: %w", err)
		}
		if err := yaml.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("parse network file %s: %w", path, err)
		}
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// Validate checks field constraints and that the source URL has a slot for
// the line number.
func (n *Network) Validate() error {
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("invalid network: %w", err)
	}
	if !strings.Contains(n.SourceURL, "%d") {
		return fmt.Errorf("invalid network: source_url %q has no %%d placeholder", n.SourceURL)
	}
	return nil
}

// LinePalette returns the palette as a lines.Palette.
func (n *Network) LinePalette() lines.Palette {
	return lines.Palette(n.Palette)
}
