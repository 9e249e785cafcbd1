package crm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Lead is one account record as returned by the API. The backend does not
// publish a schema, so every field is kept in Fields and the accessors below
// look up the names the dashboard relies on.
type Lead struct {
	Fields map[string]any
}

// UnmarshalJSON decodes an object, turning JSON numbers into int64 when they
// are integral and float64 otherwise.
func (l *Lead) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	l.Fields = normalize(raw).(map[string]any)
	return nil
}

// MarshalJSON encodes the original fields.
func (l Lead) MarshalJSON() ([]byte, error) {
	if l.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(l.Fields)
}

// ID returns the lead identifier, or zero when the record carries none.
func (l Lead) ID() int64 {
	for _, name := range []string{"id", "lead_id", "account_id"} {
		switch v := l.Fields[name].(type) {
		case int64:
			return v
		case float64:
			return int64(v)
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

// Name returns a display name for the lead.
func (l Lead) Name() string {
	if name := l.firstString("name", "account_name", "full_name", "company_name"); name != "" {
		return name
	}
	first := l.String("first_name")
	last := l.String("last_name")
	return strings.TrimSpace(first + " " + last)
}

// Email returns the contact email, if any.
func (l Lead) Email() string { return l.firstString("email", "email_address") }

// Phone returns the contact phone number, if any.
func (l Lead) Phone() string { return l.firstString("phone", "phone_number", "mobile", "telephone") }

// Status returns the lead status label, if any.
func (l Lead) Status() string { return l.firstString("status", "lead_status", "stage") }

// String formats a single field for display. Nested values are rendered as
// compact JSON.
func (l Lead) String(field string) string {
	v, ok := l.Fields[field]
	if !ok || v == nil {
		return ""
	}
	return FormatValue(v)
}

// Keys returns the field names in sorted order.
func (l Lead) Keys() []string {
	keys := make([]string, 0, len(l.Fields))
	for k := range l.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l Lead) firstString(names ...string) string {
	for _, name := range names {
		if s := strings.TrimSpace(l.String(name)); s != "" {
			return s
		}
	}
	return ""
}

// FormatValue renders a decoded JSON value as a single line.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	}
}

func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil && !math.IsInf(f, 0) {
			return f
		}
		return val.String()
	default:
		return val
	}
}
