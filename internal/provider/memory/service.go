package memory

import (
	"context"

	"github.com/nucleus/resource-core/internal/resource"
)

// LinkedService binds the contract surface to an in-process Store. The
// store lives on the connection handle, so reconnecting yields a fresh,
// empty store.
type LinkedService struct {
	*resource.ServiceBase
}

// NewLinkedService builds a memory linked service from settings. No
// settings are required; a title is picked up when present.
func NewLinkedService(settings resource.Settings) (*LinkedService, error) {
	name := settings.String(resource.SettingName, "title")
	if name == "" {
		name = "memory"
	}
	info := resource.NewInfo(Kind, Version, name)
	info.Description = "in-process row store"
	return &LinkedService{
		ServiceBase: resource.NewServiceBase(info, settings, connector{}),
	}, nil
}

// Store returns the connected store handle.
func (s *LinkedService) Store() (*Store, error) {
	h, err := s.Connection()
	if err != nil {
		return nil, err
	}
	store, ok := h.(*Store)
	if !ok {
		return nil, resource.New(resource.KindServiceMismatch, "connection handle is not a memory store")
	}
	return store, nil
}

type connector struct{}

func (connector) Open(ctx context.Context) (any, error) {
	return NewStore(), nil
}

func (connector) Ping(ctx context.Context, handle any) error {
	if _, ok := handle.(*Store); !ok {
		return resource.New(resource.KindServiceMismatch, "connection handle is not a memory store")
	}
	return nil
}

func (connector) Shutdown(handle any) error {
	return nil
}
