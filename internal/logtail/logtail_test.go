package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "leaddeck.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "missing.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestParse(t *testing.T) {
	line := `{"level":"warn","ts":1760870400.5,"caller":"query/client.go:383","msg":"query fetch failed","key":"\"leads\"","generation":3,"kind":"network"}`

	entry, ok := Parse(line)
	if !ok {
		t.Fatal("Parse() ok = false")
	}
	if entry.Level != "WARN" || entry.Message != "query fetch failed" {
		t.Fatalf("entry = %+v", entry)
	}
	if want := time.Unix(1760870400, 5e8); !entry.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", entry.Time, want)
	}
	wantFields := []Field{
		{Key: "generation", Value: "3"},
		{Key: "key", Value: `"leads"`},
		{Key: "kind", Value: "network"},
	}
	if !reflect.DeepEqual(entry.Fields, wantFields) {
		t.Fatalf("Fields = %v, want %v", entry.Fields, wantFields)
	}

	got := entry.String()
	if !strings.HasSuffix(got, `WARN  query fetch failed generation=3 key="leads" kind=network`) {
		t.Fatalf("String() = %q", got)
	}
}

func TestFormat_PassesThroughPlainLines(t *testing.T) {
	lines := []string{"plain text", "{broken", `{"level":"info","msg":"hi"}`}
	got := Format(lines)
	want := []string{"plain text", "{broken", "INFO  hi"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}
