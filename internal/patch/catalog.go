package patch

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Names of the definitions shipped in catalog.yaml.
const (
	RootGradle      = "android-root-gradle"
	AppGradle       = "android-app-gradle"
	MainApplication = "main-application"
	AppDelegate     = "app-delegate"
	Podfile         = "podfile"
	BundlePhase     = "ios-bundle-phase"
	DSYMPhase       = "ios-dsym-phase"
)

// ErrUnknownDefinition is returned for names missing from the catalog.
var ErrUnknownDefinition = errors.New("unknown patch definition")

// ErrNoVariant is returned when a definition has no intents for a variant.
var ErrNoVariant = errors.New("definition has no variant")

//go:embed catalog.yaml
var catalogYAML []byte

// Definition is one named patch: text intents per variant, or a build
// phase edit for the Xcode project.
type Definition struct {
	Name        string                   `yaml:"name"`
	Description string                   `yaml:"description"`
	DocURL      string                   `yaml:"doc_url"`
	Variants    map[Variant][]EditIntent `yaml:"variants"`
	Phase       *PhaseEdit               `yaml:"phase"`
}

// Intents returns the intents for v.
func (d *Definition) Intents(v Variant) ([]EditIntent, error) {
	intents, ok := d.Variants[v]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s variant", ErrNoVariant, d.Name, v)
	}
	return append([]EditIntent(nil), intents...), nil
}

// Catalog is a validated set of definitions.
type Catalog struct {
	Definitions []*Definition `yaml:"definitions"`

	byName map[string]*Definition
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode patch catalog: %w", err)
	}
	c.byName = make(map[string]*Definition, len(c.Definitions))
	for _, d := range c.Definitions {
		if d.Name == "" {
			return nil, fmt.Errorf("patch catalog: definition without a name")
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("patch catalog: duplicate definition %s", d.Name)
		}
		if (d.Phase == nil) == (len(d.Variants) == 0) {
			return nil, fmt.Errorf("patch catalog: %s needs exactly one of variants or phase", d.Name)
		}
		for v, intents := range d.Variants {
			if !v.valid() {
				return nil, fmt.Errorf("patch catalog: %s: unknown variant %q", d.Name, v)
			}
			for i := range intents {
				if err := intents[i].compile(); err != nil {
					return nil, fmt.Errorf("patch catalog: %s/%s: %w", d.Name, v, err)
				}
			}
		}
		if d.Phase != nil {
			if err := d.Phase.compile(); err != nil {
				return nil, fmt.Errorf("patch catalog: %s: %w", d.Name, err)
			}
		}
		c.byName[d.Name] = d
	}
	return &c, nil
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
})

// DefaultCatalog returns the embedded catalog. It panics if the embedded file is
// invalid, which the package tests rule out.
func DefaultCatalog() *Catalog {
	c, err := loadDefault()
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the definition called name.
func (c *Catalog) Get(name string) (*Definition, error) {
	d, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDefinition, name)
	}
	return d, nil
}

// MustGet is Get for names known to be in the catalog.
func (c *Catalog) MustGet(name string) *Definition {
	d, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return d
}
