package resource

import "fmt"

// Checkpoint is the opaque incremental-progress token a dataset carries
// between reads. Providers own its shape; an empty or nil checkpoint means
// a full load. Values stay JSON-serializable so orchestrators can persist
// them as-is.
type Checkpoint map[string]any

// IsZero reports whether the checkpoint demands a full load.
func (c Checkpoint) IsZero() bool { return len(c) == 0 }

// Clone returns a deep copy of the checkpoint.
func (c Checkpoint) Clone() Checkpoint {
	if c == nil {
		return nil
	}
	out := make(Checkpoint, len(c))
	for k, v := range c {
		out[k] = CloneValue(v)
	}
	return out
}

// String returns the value under key rendered as a string, or "" when the
// key is absent.
func (c Checkpoint) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Int64 returns the value under key as an int64, or 0 when absent or not
// numeric. JSON round-trips store numbers as float64, so both shapes are
// accepted.
func (c Checkpoint) Int64(key string) int64 {
	switch t := c[key].(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case uint64:
		return int64(t)
	default:
		return 0
	}
}
