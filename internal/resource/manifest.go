package resource

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest entry types.
const (
	ManifestTypeLinkedService = "linked_service"
	ManifestTypeDataset       = "dataset"
)

// Manifest mirrors the resources.yaml file a deployment ships to declare
// the provider implementations it expects to find compiled in.
type Manifest struct {
	Resources []ManifestEntry `yaml:"resources"`
}

// ManifestEntry declares one expected resource implementation.
type ManifestEntry struct {
	Type        string         `yaml:"type"`
	Kind        string         `yaml:"kind"`
	Version     string         `yaml:"version"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Settings    map[string]any `yaml:"settings"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Wrap(KindValidation, err, fmt.Sprintf("manifest %s unreadable", path))
	}
	return ParseManifest(data)
}

// ParseManifest parses and validates manifest YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, Wrap(KindValidation, err, "manifest is not valid YAML")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks manifest shape: every entry needs a known type, a kind,
// and a version.
func (m *Manifest) Validate() error {
	if len(m.Resources) == 0 {
		return New(KindValidation, "manifest declares no resources")
	}
	for i, entry := range m.Resources {
		switch entry.Type {
		case ManifestTypeLinkedService, ManifestTypeDataset:
		case "":
			return New(KindValidation, fmt.Sprintf("resource %d: type is required", i)).
				WithDetail("index", i)
		default:
			return New(KindValidation, fmt.Sprintf("resource %d: unknown type %q", i, entry.Type)).
				WithDetail("index", i).
				WithDetail("type", entry.Type)
		}
		if entry.Kind == "" {
			return New(KindValidation, fmt.Sprintf("resource %d: kind is required", i)).
				WithDetail("index", i)
		}
		if entry.Version == "" {
			return New(KindValidation, fmt.Sprintf("resource %d: version is required", i)).
				WithDetail("index", i)
		}
	}
	return nil
}

// Verify resolves every declared entry against the global registries,
// failing on the first declaration without a compiled-in implementation.
func (m *Manifest) Verify() error {
	for _, entry := range m.Resources {
		var err error
		switch entry.Type {
		case ManifestTypeDataset:
			_, err = datasetRegistry.Resolve(entry.Kind, entry.Version)
		case ManifestTypeLinkedService:
			_, err = serviceRegistry.Resolve(entry.Kind, entry.Version)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
