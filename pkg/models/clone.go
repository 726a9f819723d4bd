package models

// CloneValue deep copies JSON-like values (maps, slices and scalars).
// Values of other types are returned as is.
func CloneValue[T any](value T) T {
	cloned, ok := cloneAny(value).(T)
	if !ok {
		return value
	}

	return cloned
}

func cloneAny(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return v
		}

		cloned := make(map[string]any, len(v))
		for key, item := range v {
			cloned[key] = cloneAny(item)
		}

		return cloned
	case []any:
		if v == nil {
			return v
		}

		cloned := make([]any, len(v))
		for i, item := range v {
			cloned[i] = cloneAny(item)
		}

		return cloned
	case []string:
		if v == nil {
			return v
		}

		return append([]string(nil), v...)
	default:
		return value
	}
}
