// Package resource is the public API of the resource contract: linked
// services, datasets, the failure taxonomy, operation telemetry, and the
// provider registries.
package resource

import (
	"io"

	internal "github.com/nucleus/resource-core/internal/resource"
)

// Re-export types for external use
type (
	Row                  = internal.Row
	Settings             = internal.Settings
	Checkpoint           = internal.Checkpoint
	Info                 = internal.Info
	Capabilities         = internal.Capabilities
	Method               = internal.Method
	Kind                 = internal.Kind
	Error                = internal.Error
	OperationInfo        = internal.OperationInfo
	OperationError       = internal.OperationError
	LinkedService        = internal.LinkedService
	Connector            = internal.Connector
	ServiceBase          = internal.ServiceBase
	Dataset              = internal.Dataset
	Operations           = internal.Operations
	State                = internal.State
	DatasetBase          = internal.DatasetBase
	Key                  = internal.Key
	Registry[F any]      = internal.Registry[F]
	DatasetFactory       = internal.DatasetFactory
	LinkedServiceFactory = internal.LinkedServiceFactory
	Manifest             = internal.Manifest
	ManifestEntry        = internal.ManifestEntry
)

// Dataset methods.
const (
	MethodCreate         = internal.MethodCreate
	MethodRead           = internal.MethodRead
	MethodUpdate         = internal.MethodUpdate
	MethodUpsert         = internal.MethodUpsert
	MethodDelete         = internal.MethodDelete
	MethodPurge          = internal.MethodPurge
	MethodList           = internal.MethodList
	MethodRename         = internal.MethodRename
	MethodConnect        = internal.MethodConnect
	MethodTestConnection = internal.MethodTestConnection
)

// Failure kinds.
const (
	KindResource     = internal.KindResource
	KindNotSupported = internal.KindNotSupported
	KindValidation   = internal.KindValidation

	KindLinkedService  = internal.KindLinkedService
	KindConnection     = internal.KindConnection
	KindAuthentication = internal.KindAuthentication
	KindPermission     = internal.KindPermission
	KindServiceType    = internal.KindServiceType

	KindDataset         = internal.KindDataset
	KindRead            = internal.KindRead
	KindCreate          = internal.KindCreate
	KindUpdate          = internal.KindUpdate
	KindUpsert          = internal.KindUpsert
	KindDelete          = internal.KindDelete
	KindPurge           = internal.KindPurge
	KindList            = internal.KindList
	KindRename          = internal.KindRename
	KindNotFound        = internal.KindNotFound
	KindServiceMismatch = internal.KindServiceMismatch
	KindDatasetType     = internal.KindDatasetType
)

// Shared settings keys.
const (
	SettingName               = internal.SettingName
	SettingIdentityColumns    = internal.SettingIdentityColumns
	SettingMaxInputRows       = internal.SettingMaxInputRows
	SettingSupportsCheckpoint = internal.SettingSupportsCheckpoint
	SettingCheckpointColumn   = internal.SettingCheckpointColumn
	SettingOperations         = internal.SettingOperations
)

// Manifest entry types.
const (
	ManifestTypeLinkedService = internal.ManifestTypeLinkedService
	ManifestTypeDataset       = internal.ManifestTypeDataset
)

// Family sentinels for errors.Is matching.
var (
	ErrResource      = internal.ErrResource
	ErrLinkedService = internal.ErrLinkedService
	ErrDataset       = internal.ErrDataset
	ErrNotSupported  = internal.ErrNotSupported
	ErrNotFound      = internal.ErrNotFound
)

// NewInfo builds an Info with a generated ID.
func NewInfo(kind, version, name string) Info { return internal.NewInfo(kind, version, name) }

// NewServiceBase binds service identity and settings to a Connector.
func NewServiceBase(info Info, settings Settings, conn Connector) *ServiceBase {
	return internal.NewServiceBase(info, settings, conn)
}

// NewDatasetBase binds dataset identity, settings, and a linked service to
// a provider's Operations.
func NewDatasetBase(info Info, settings Settings, service LinkedService, caps Capabilities, ops Operations) *DatasetBase {
	return internal.NewDatasetBase(info, settings, service, caps, ops)
}

// New builds a contract error of the given kind with defaults applied.
func New(kind Kind, message string) *Error { return internal.New(kind, message) }

// Wrap builds a contract error of the given kind around a backend cause.
func Wrap(kind Kind, err error, message string) *Error { return internal.Wrap(kind, err, message) }

// NotSupported reports that an implementation does not serve the given
// method.
func NotSupported(method Method) *Error { return internal.NotSupported(method) }

// AsError extracts the contract error from err's chain.
func AsError(err error) (*Error, bool) { return internal.AsError(err) }

// IsKind reports whether err carries a contract error of exactly kind.
func IsKind(err error, kind Kind) bool { return internal.IsKind(err, kind) }

// IsNotSupported reports whether err is the dedicated not-supported
// failure.
func IsNotSupported(err error) bool { return internal.IsNotSupported(err) }

// IsNotFound reports whether err marks a missing collection or row.
func IsNotFound(err error) bool { return internal.IsNotFound(err) }

// IsDatasetError reports whether err belongs to the dataset family.
func IsDatasetError(err error) bool { return internal.IsDatasetError(err) }

// IsLinkedServiceError reports whether err belongs to the linked-service
// family.
func IsLinkedServiceError(err error) bool { return internal.IsLinkedServiceError(err) }

// KindForMethod maps a dataset method to the failure kind its errors carry.
func KindForMethod(m Method) Kind { return internal.KindForMethod(m) }

// TrackedMethods returns the dataset methods wrapped with operation
// tracking.
func TrackedMethods() []Method { return internal.TrackedMethods() }

// WriteMethods returns the methods that consume staged input rows.
func WriteMethods() []Method { return internal.WriteMethods() }

// CloneRow returns a deep copy of row.
func CloneRow(row Row) Row { return internal.CloneRow(row) }

// CloneRows returns a deep copy of rows.
func CloneRows(rows []Row) []Row { return internal.CloneRows(rows) }

// CloneValue deep-copies a single row value.
func CloneValue(v any) any { return internal.CloneValue(v) }

// SchemaOf derives a column-to-type map from rows.
func SchemaOf(rows []Row) map[string]string { return internal.SchemaOf(rows) }

// IdentityKey renders the identity tuple of a row as a stable string.
func IdentityKey(row Row, cols []string) (string, error) { return internal.IdentityKey(row, cols) }

// With runs fn against v and always closes v on the way out.
func With[T io.Closer](v T, fn func(T) error) error { return internal.With(v, fn) }

// Datasets returns the global dataset registry.
func Datasets() *Registry[DatasetFactory] { return internal.Datasets() }

// LinkedServices returns the global linked-service registry.
func LinkedServices() *Registry[LinkedServiceFactory] { return internal.LinkedServices() }

// RegisterDataset adds a dataset factory to the global registry.
func RegisterDataset(kind, version string, factory DatasetFactory) {
	internal.RegisterDataset(kind, version, factory)
}

// RegisterLinkedService adds a linked-service factory to the global
// registry.
func RegisterLinkedService(kind, version string, factory LinkedServiceFactory) {
	internal.RegisterLinkedService(kind, version, factory)
}

// NewLinkedService instantiates a registered linked service. An empty
// version picks the highest registered one.
func NewLinkedService(kind, version string, settings Settings) (LinkedService, error) {
	return internal.NewLinkedService(kind, version, settings)
}

// NewDataset instantiates a registered dataset bound to service. An empty
// version picks the highest registered one.
func NewDataset(kind, version string, service LinkedService, settings Settings) (Dataset, error) {
	return internal.NewDataset(kind, version, service, settings)
}

// LoadManifest reads and validates a resource manifest file.
func LoadManifest(path string) (*Manifest, error) { return internal.LoadManifest(path) }

// ParseManifest parses and validates manifest YAML.
func ParseManifest(data []byte) (*Manifest, error) { return internal.ParseManifest(data) }
