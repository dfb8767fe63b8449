package options

// Helpers for reading typed values out of a resolved component configuration
// map. Absent or mistyped values fall back to the provided default.

// String returns a config value as string or def when absent/empty.
func String(cfg map[string]any, key, def string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Int returns a config value as int, falling back to def.
func Int(cfg map[string]any, key string, def int) int {
	switch v := cfg[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// Bool returns a config value as bool, falling back to def.
func Bool(cfg map[string]any, key string, def bool) bool {
	if v, ok := cfg[key].(bool); ok {
		return v
	}
	return def
}
