package utils

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConvertEnvs(t *testing.T) {
	got := ConvertEnvs(map[string]string{
		"KC_HTTP_ENABLED": "false",
		"KC_HTTPS_PORT":   "8443",
	})
	sort.Strings(got)

	want := []string{"KC_HTTPS_PORT=8443", "KC_HTTP_ENABLED=false"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("ConvertEnvs() mismatch (-want +got):\n%s", d)
	}
}

func TestMergeStringMaps(t *testing.T) {
	tests := []struct {
		name   string
		m1, m2 map[string]string
		want   map[string]string
	}{
		{
			name: "m1 overrides m2",
			m1:   map[string]string{"a": "1"},
			m2:   map[string]string{"a": "0", "b": "2"},
			want: map[string]string{"a": "1", "b": "2"},
		},
		{
			name: "nil m1",
			m2:   map[string]string{"a": "0"},
			want: map[string]string{"a": "0"},
		},
		{
			name: "both nil",
			want: map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeStringMaps(tt.m1, tt.m2)
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("MergeStringMaps() mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "KC_LOG_LEVEL=debug\nKC_PROXY_HEADERS=xforwarded\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadEnvFile(path)
	if err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}

	want := map[string]string{
		"KC_LOG_LEVEL":     "debug",
		"KC_PROXY_HEADERS": "xforwarded",
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("LoadEnvFile() mismatch (-want +got):\n%s", d)
	}

	if _, err := LoadEnvFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("LoadEnvFile() expected an error for a missing file")
	}
}
