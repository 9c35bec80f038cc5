package resource

import (
	"errors"
	"fmt"
)

// Kind discriminates contract failures. Kinds form two families, the
// linked-service family and the dataset family, both rooted in KindResource
// so a caller can match every contract failure uniformly.
type Kind string

const (
	KindResource     Kind = "resource"
	KindNotSupported Kind = "not_supported"
	KindValidation   Kind = "validation"

	KindLinkedService  Kind = "linked_service"
	KindConnection     Kind = "connection"
	KindAuthentication Kind = "authentication"
	KindPermission     Kind = "permission"
	KindServiceType    Kind = "linked_service_type"

	KindDataset         Kind = "dataset"
	KindRead            Kind = "read"
	KindCreate          Kind = "create"
	KindUpdate          Kind = "update"
	KindUpsert          Kind = "upsert"
	KindDelete          Kind = "delete"
	KindPurge           Kind = "purge"
	KindList            Kind = "list"
	KindRename          Kind = "rename"
	KindNotFound        Kind = "not_found"
	KindServiceMismatch Kind = "linked_service_mismatch"
	KindDatasetType     Kind = "dataset_type"
)

// Stable machine codes. These are API: orchestrators route on them, so the
// kind-to-code mapping never changes across releases.
const (
	CodeResource     = "DS_RESOURCE_ERROR"
	CodeNotSupported = "DS_RESOURCE_NOT_SUPPORTED_ERROR"
	CodeValidation   = "DS_RESOURCE_VALIDATION_ERROR"

	CodeLinkedService  = "DS_LINKED_SERVICE_ERROR"
	CodeConnection     = "DS_LINKED_SERVICE_CONNECTION_ERROR"
	CodeAuthentication = "DS_LINKED_SERVICE_AUTHENTICATION_ERROR"
	CodePermission     = "DS_LINKED_SERVICE_PERMISSION_ERROR"
	CodeServiceType    = "DS_LINKED_SERVICE_UNSUPPORTED_TYPE_ERROR"

	CodeDataset         = "DS_DATASET_ERROR"
	CodeRead            = "DS_DATASET_READ_ERROR"
	CodeCreate          = "DS_DATASET_CREATE_ERROR"
	CodeUpdate          = "DS_DATASET_UPDATE_ERROR"
	CodeUpsert          = "DS_DATASET_UPSERT_ERROR"
	CodeDelete          = "DS_DATASET_DELETE_ERROR"
	CodePurge           = "DS_DATASET_PURGE_ERROR"
	CodeList            = "DS_DATASET_LIST_ERROR"
	CodeRename          = "DS_DATASET_RENAME_ERROR"
	CodeNotFound        = "DS_DATASET_NOT_FOUND_ERROR"
	CodeServiceMismatch = "DS_DATASET_LINKED_SERVICE_MISMATCHED_ERROR"
	CodeDatasetType     = "DS_DATASET_UNSUPPORTED_TYPE_ERROR"
)

type kindDefault struct {
	code      string
	status    int
	retryable bool
}

var kindDefaults = map[Kind]kindDefault{
	KindResource:     {CodeResource, 500, false},
	KindNotSupported: {CodeNotSupported, 501, false},
	KindValidation:   {CodeValidation, 400, false},

	KindLinkedService:  {CodeLinkedService, 500, false},
	KindConnection:     {CodeConnection, 503, true},
	KindAuthentication: {CodeAuthentication, 401, false},
	KindPermission:     {CodePermission, 403, false},
	KindServiceType:    {CodeServiceType, 400, false},

	KindDataset:         {CodeDataset, 500, false},
	KindRead:            {CodeRead, 500, false},
	KindCreate:          {CodeCreate, 500, false},
	KindUpdate:          {CodeUpdate, 500, false},
	KindUpsert:          {CodeUpsert, 500, false},
	KindDelete:          {CodeDelete, 500, false},
	KindPurge:           {CodePurge, 500, false},
	KindList:            {CodeList, 500, false},
	KindRename:          {CodeRename, 500, false},
	KindNotFound:        {CodeNotFound, 404, false},
	KindServiceMismatch: {CodeServiceMismatch, 400, false},
	KindDatasetType:     {CodeDatasetType, 400, false},
}

var linkedServiceKinds = map[Kind]bool{
	KindLinkedService:  true,
	KindConnection:     true,
	KindAuthentication: true,
	KindPermission:     true,
	KindServiceType:    true,
}

var datasetKinds = map[Kind]bool{
	KindDataset:         true,
	KindRead:            true,
	KindCreate:          true,
	KindUpdate:          true,
	KindUpsert:          true,
	KindDelete:          true,
	KindPurge:           true,
	KindList:            true,
	KindRename:          true,
	KindNotFound:        true,
	KindServiceMismatch: true,
	KindDatasetType:     true,
}

// IsLinkedService reports whether the kind belongs to the linked-service
// family.
func (k Kind) IsLinkedService() bool { return linkedServiceKinds[k] }

// IsDataset reports whether the kind belongs to the dataset family.
func (k Kind) IsDataset() bool { return datasetKinds[k] }

// Error is the single failure type crossing the contract boundary. Kind
// discriminates the failure; Code, StatusCode and Retryable default from
// the kind; Details carries structured context; Err preserves the raw
// backend cause.
type Error struct {
	Kind       Kind
	Code       string
	StatusCode int
	Retryable  bool
	Message    string
	Details    map[string]any
	Err        error
}

// New builds a contract error of the given kind with defaults applied.
func New(kind Kind, message string) *Error {
	d, ok := kindDefaults[kind]
	if !ok {
		d = kindDefaults[KindResource]
		kind = KindResource
	}
	return &Error{
		Kind:       kind,
		Code:       d.code,
		StatusCode: d.status,
		Retryable:  d.retryable,
		Message:    message,
	}
}

// Wrap builds a contract error of the given kind around a backend cause.
func Wrap(kind Kind, err error, message string) *Error {
	e := New(kind, message)
	e.Err = err
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error         { return e.Err }
func (e *Error) CodeValue() string     { return e.Code }
func (e *Error) RetryableStatus() bool { return e.Retryable }

// Is matches kind-for-kind and lets the family sentinels below match any
// member of their family.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	switch t.Kind {
	case e.Kind:
		return true
	case KindResource:
		return true
	case KindLinkedService:
		return e.Kind.IsLinkedService()
	case KindDataset:
		return e.Kind.IsDataset()
	}
	return false
}

// WithCode overrides the default machine code.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithStatus overrides the default status classification.
func (e *Error) WithStatus(status int) *Error {
	e.StatusCode = status
	return e
}

// WithDetail records one structured context entry.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges structured context entries.
func (e *Error) WithDetails(details map[string]any) *Error {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// Family sentinels for errors.Is matching.
var (
	ErrResource      = &Error{Kind: KindResource}
	ErrLinkedService = &Error{Kind: KindLinkedService}
	ErrDataset       = &Error{Kind: KindDataset}
	ErrNotSupported  = &Error{Kind: KindNotSupported}
	ErrNotFound      = &Error{Kind: KindNotFound}
)

// NotSupported reports that an implementation does not serve the given
// method.
func NotSupported(method Method) *Error {
	return New(KindNotSupported, fmt.Sprintf("operation %s is not supported", method)).
		WithDetail("method", string(method))
}

// AsError extracts the contract error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries a contract error of exactly kind.
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

// IsNotSupported reports whether err is the dedicated not-supported
// failure.
func IsNotSupported(err error) bool { return IsKind(err, KindNotSupported) }

// IsNotFound reports whether err marks a missing collection or row.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsDatasetError reports whether err belongs to the dataset family.
func IsDatasetError(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind.IsDataset()
}

// IsLinkedServiceError reports whether err belongs to the linked-service
// family.
func IsLinkedServiceError(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind.IsLinkedService()
}

// coerceError passes contract errors through untouched and wraps foreign
// errors under the given kind.
func coerceError(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	return Wrap(kind, err, message)
}
