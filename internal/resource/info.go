package resource

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Info identifies one resource implementation instance. Identity is fixed
// at construction and never changes afterwards, whatever the instance's
// operations do.
type Info struct {
	ID          string
	Kind        string
	Version     string
	Name        string
	Description string
}

// NewInfo builds an Info with a generated ID.
func NewInfo(kind, version, name string) Info {
	return Info{
		ID:      uuid.NewString(),
		Kind:    kind,
		Version: version,
		Name:    name,
	}
}

// String renders the registry key form, e.g. "SQLDB:v1.0.0".
func (i Info) String() string {
	return fmt.Sprintf("%s:v%s", strings.ToUpper(i.Kind), i.Version)
}

// Key returns the (kind, version) registry key for this implementation.
func (i Info) Key() Key {
	return Key{Kind: i.Kind, Version: i.Version}
}
