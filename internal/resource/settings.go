package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// Settings is the opaque configuration map handed to a provider. Providers
// parse it into their own typed configs; the contract layer itself reads
// only the shared keys below.
type Settings map[string]any

// Shared settings keys consumed by the contract layer.
const (
	SettingName               = "name"
	SettingIdentityColumns    = "identityColumns"
	SettingMaxInputRows       = "maxInputRows"
	SettingSupportsCheckpoint = "supportsCheckpoint"
	SettingCheckpointColumn   = "checkpointColumn"
	SettingOperations         = "operations"
)

// String returns the first present key rendered as a trimmed string.
func (s Settings) String(keys ...string) string {
	for _, key := range keys {
		if v, ok := s[key]; ok {
			switch t := v.(type) {
			case string:
				return strings.TrimSpace(t)
			case fmt.Stringer:
				return strings.TrimSpace(t.String())
			}
		}
	}
	return ""
}

// Bool returns the first present key as a bool, or defaultVal when no key
// carries a recognizable boolean.
func (s Settings) Bool(defaultVal bool, keys ...string) bool {
	for _, key := range keys {
		if v, ok := s[key]; ok {
			switch t := v.(type) {
			case bool:
				return t
			case string:
				lowered := strings.ToLower(strings.TrimSpace(t))
				if lowered == "true" {
					return true
				}
				if lowered == "false" {
					return false
				}
			}
		}
	}
	return defaultVal
}

// Int returns the first present key as an int, or defaultVal. Numeric
// strings and the float64 values JSON decoding produces are accepted.
func (s Settings) Int(defaultVal int, keys ...string) int {
	for _, key := range keys {
		if v, ok := s[key]; ok {
			switch t := v.(type) {
			case int:
				return t
			case int64:
				return int(t)
			case float64:
				return int(t)
			case string:
				if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
					return n
				}
			}
		}
	}
	return defaultVal
}

// Float returns the first present key as a float64, or defaultVal.
func (s Settings) Float(defaultVal float64, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := s[key]; ok {
			switch t := v.(type) {
			case float64:
				return t
			case float32:
				return float64(t)
			case int:
				return float64(t)
			case int64:
				return float64(t)
			case string:
				if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
					return f
				}
			}
		}
	}
	return defaultVal
}

// Strings returns the first present key as a string slice. Accepts
// []string, []any of strings, and comma-separated strings.
func (s Settings) Strings(keys ...string) []string {
	for _, key := range keys {
		v, ok := s[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case []string:
			return trimAll(t)
		case []any:
			out := make([]string, 0, len(t))
			for _, item := range t {
				if str, ok := item.(string); ok {
					out = append(out, strings.TrimSpace(str))
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			if t == "" {
				continue
			}
			return trimAll(strings.Split(t, ","))
		}
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Sub returns a nested settings map under key, or nil.
func (s Settings) Sub(key string) Settings {
	switch t := s[key].(type) {
	case Settings:
		return t
	case map[string]any:
		return Settings(t)
	default:
		return nil
	}
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = CloneValue(v)
	}
	return out
}

// Name returns the configured collection name (table, object prefix,
// collection path) of the resource.
func (s Settings) Name() string {
	return s.String(SettingName, "table", "collection")
}

// IdentityColumns returns the configured identity columns in declaration
// order. Identity is defined entirely by settings and never inferred.
func (s Settings) IdentityColumns() []string {
	return s.Strings(SettingIdentityColumns, "identity_columns", "keyColumns", "key_columns")
}

// Operations returns the declared method subset, or nil when every
// method the provider implements is served.
func (s Settings) Operations() []Method {
	names := s.Strings(SettingOperations)
	if len(names) == 0 {
		return nil
	}
	out := make([]Method, 0, len(names))
	for _, name := range names {
		out = append(out, Method(strings.ToLower(name)))
	}
	return out
}
