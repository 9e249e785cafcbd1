package logtail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Entry is one decoded log line.
type Entry struct {
	Time    time.Time
	Level   string // upper case: DEBUG, INFO, WARN, ERROR
	Message string
	Fields  []Field
	Raw     string
}

// Field is a structured key/value pair, in key order.
type Field struct {
	Key   string
	Value string
}

var reserved = map[string]bool{
	"level": true, "ts": true, "msg": true, "caller": true,
	"stacktrace": true, "logger": true,
}

// Parse decodes a zap JSON line. ok is false for anything else, in which
// case the entry only carries Raw.
func Parse(line string) (Entry, bool) {
	entry := Entry{Raw: line}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return entry, false
	}

	decoder := json.NewDecoder(strings.NewReader(trimmed))
	decoder.UseNumber()
	var obj map[string]any
	if err := decoder.Decode(&obj); err != nil {
		return entry, false
	}

	if lvl, ok := obj["level"].(string); ok {
		entry.Level = strings.ToUpper(lvl)
	}
	if msg, ok := obj["msg"].(string); ok {
		entry.Message = msg
	}
	if ts, ok := obj["ts"].(json.Number); ok {
		if f, err := ts.Float64(); err == nil {
			sec, frac := math.Modf(f)
			entry.Time = time.Unix(int64(sec), int64(frac*1e9))
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry.Fields = append(entry.Fields, Field{Key: k, Value: formatValue(obj[k])})
	}
	return entry, true
}

// String renders the entry on one line in local time.
func (e Entry) String() string {
	if e.Level == "" && e.Message == "" {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s %s", e.Level, e.Message)
	for _, f := range e.Fields {
		fmt.Fprintf(&b, " %s=%s", f.Key, f.Value)
	}
	return b.String()
}

// Format parses and renders each line.
func Format(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		entry, _ := Parse(line)
		out[i] = entry.String()
	}
	return out
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case nil:
		return "null"
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return fmt.Sprint(val)
		}
		return strings.TrimSpace(buf.String())
	}
}
