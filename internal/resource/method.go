package resource

// Method identifies one contract operation for telemetry and error
// mapping.
type Method string

const (
	MethodCreate Method = "create"
	MethodRead   Method = "read"
	MethodUpdate Method = "update"
	MethodUpsert Method = "upsert"
	MethodDelete Method = "delete"
	MethodPurge  Method = "purge"
	MethodList   Method = "list"
	MethodRename Method = "rename"

	// Service-side methods, used in audit metadata only.
	MethodConnect        Method = "connect"
	MethodTestConnection Method = "test_connection"
)

// TrackedMethods returns the dataset methods wrapped with operation
// tracking, in a stable order.
func TrackedMethods() []Method {
	return []Method{
		MethodCreate,
		MethodRead,
		MethodUpdate,
		MethodUpsert,
		MethodDelete,
		MethodPurge,
		MethodList,
		MethodRename,
	}
}

// WriteMethods returns the methods that consume staged input rows.
func WriteMethods() []Method {
	return []Method{MethodCreate, MethodUpdate, MethodUpsert, MethodDelete}
}

// KindForMethod maps a dataset method to the failure kind its errors
// carry.
func KindForMethod(m Method) Kind {
	switch m {
	case MethodCreate:
		return KindCreate
	case MethodRead:
		return KindRead
	case MethodUpdate:
		return KindUpdate
	case MethodUpsert:
		return KindUpsert
	case MethodDelete:
		return KindDelete
	case MethodPurge:
		return KindPurge
	case MethodList:
		return KindList
	case MethodRename:
		return KindRename
	default:
		return KindDataset
	}
}

// consumesInput reports whether the method operates on staged input rows.
func consumesInput(m Method) bool {
	switch m {
	case MethodCreate, MethodUpdate, MethodUpsert, MethodDelete:
		return true
	}
	return false
}

// requiresIdentity reports whether the method matches rows by identity
// columns.
func requiresIdentity(m Method) bool {
	switch m {
	case MethodUpdate, MethodUpsert, MethodDelete:
		return true
	}
	return false
}
