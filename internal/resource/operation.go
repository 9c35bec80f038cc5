package resource

import (
	"fmt"
	"time"
)

// OperationInfo captures the telemetry of one tracked dataset call. A
// fresh value is created per call and replaces the previous one; nothing
// accumulates across calls.
type OperationInfo struct {
	Method    Method
	Success   bool
	Error     *OperationError
	RowCount  int64
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	Schema    map[string]string
	Metadata  map[string]any
}

// DurationMillis reports the call duration in milliseconds.
func (o *OperationInfo) DurationMillis() float64 {
	return float64(o.Duration) / float64(time.Millisecond)
}

// SetMetadata records one provider metadata entry on the operation.
func (o *OperationInfo) SetMetadata(key string, value any) {
	if o.Metadata == nil {
		o.Metadata = make(map[string]any)
	}
	o.Metadata[key] = value
}

// OperationError is the structured failure payload embedded in
// OperationInfo.
type OperationError struct {
	Message    string
	Code       string
	StatusCode int
	Details    map[string]any
}

// newOperationError lifts a contract error's fields into the telemetry
// payload. Foreign errors keep their message and report the dynamic type
// name as the code.
func newOperationError(err error) *OperationError {
	if err == nil {
		return nil
	}
	if cerr, ok := AsError(err); ok {
		msg := cerr.Message
		if msg == "" {
			msg = cerr.Error()
		}
		return &OperationError{
			Message:    msg,
			Code:       cerr.Code,
			StatusCode: cerr.StatusCode,
			Details:    cerr.Details,
		}
	}
	return &OperationError{
		Message: err.Error(),
		Code:    fmt.Sprintf("%T", err),
	}
}
