package audit

const Redacted = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"password":        {},
	"confirmPassword": {},
	"oldPassword":     {},
	"newPassword":     {},
	"token":           {},
	"secret":          {},
}

// Sanitize returns a copy of v with sensitive keys redacted at any depth.
// Key matching is exact and case-sensitive.
func Sanitize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if _, ok := sensitiveKeys[k]; ok {
				out[k] = Redacted
				continue
			}
			out[k] = Sanitize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Sanitize(val)
		}
		return out
	default:
		return v
	}
}
