package rest

import (
	"github.com/nucleus/resource-core/internal/resource"
)

const (
	// Kind is the registry kind for the REST provider.
	Kind = "rest"
	// Version is the implementation version.
	Version = "1.0.0"
)

func init() {
	resource.RegisterLinkedService(Kind, Version, func(settings resource.Settings) (resource.LinkedService, error) {
		return NewLinkedService(settings)
	})
	resource.RegisterDataset(Kind, Version, func(service resource.LinkedService, settings resource.Settings) (resource.Dataset, error) {
		return NewDataset(service, settings)
	})
}
