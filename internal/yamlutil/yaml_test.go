package yamlutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-telepress/internal/yamlutil"
)

type testSettings struct {
	Host    string `yaml:"host"`
	Retries int    `yaml:"retries"`
	Verbose bool   `yaml:"verbose"`
}

// ---------------------------------------------------------------------------
// TestUnmarshal - Parses YAML into Go structs
// ---------------------------------------------------------------------------

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr error
		check   func(t *testing.T, v any)
	}{
		{
			name: "valid YAML",
			data: []byte("host: imgbb\nretries: 3\nverbose: true"),
			dest: &testSettings{},
			check: func(t *testing.T, v any) {
				s := v.(*testSettings)
				if s.Host != "imgbb" {
					t.Errorf("Host = %q, want %q", s.Host, "imgbb")
				}
				if s.Retries != 3 {
					t.Errorf("Retries = %d, want %d", s.Retries, 3)
				}
				if !s.Verbose {
					t.Error("Verbose = false, want true")
				}
			},
		},
		{
			name:    "nil data",
			data:    nil,
			dest:    &testSettings{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "empty data",
			data:    []byte{},
			dest:    &testSettings{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "nil destination",
			data:    []byte("host: imgbb"),
			dest:    nil,
			wantErr: yamlutil.ErrNilDestination,
		},
		{
			name:    "invalid YAML syntax",
			data:    []byte("host: [unclosed"),
			dest:    &testSettings{},
			wantErr: errors.New("yamlutil:"), // partial match
		},
		{
			name: "unicode content",
			data: []byte("host: 画像ホスト"),
			dest: &testSettings{},
			check: func(t *testing.T, v any) {
				s := v.(*testSettings)
				if s.Host != "画像ホスト" {
					t.Errorf("Host = %q, want %q", s.Host, "画像ホスト")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.Unmarshal(tt.data, tt.dest)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if errors.Is(err, tt.wantErr) {
					return // exact match via errors.Is
				}
				if !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Fatalf("error = %q, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, tt.dest)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict - Parses YAML and rejects unknown fields
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name: "known fields only",
			data: []byte("host: custom\nretries: 5"),
		},
		{
			name:    "unknown field causes error",
			data:    []byte("host: custom\nunknown_field: value"),
			wantErr: errors.New("yamlutil:"),
		},
		{
			name:    "misspelled field causes error",
			data:    []byte("hsot: custom"),
			wantErr: errors.New("yamlutil:"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.UnmarshalStrict(tt.data, &testSettings{})
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Fatalf("error = %q, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDecodeFileStrict - Reads and strictly parses a config file
// ---------------------------------------------------------------------------

func TestDecodeFileStrict(t *testing.T) {
	t.Parallel()

	writeFile := func(t *testing.T, name, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
		return path
	}

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "settings.yaml", "host: smms\nretries: 2\n")
		var s testSettings
		if err := yamlutil.DecodeFileStrict(path, &s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Host != "smms" || s.Retries != 2 {
			t.Errorf("decoded = %+v, want host=smms retries=2", s)
		}
	})

	t.Run("JSON is accepted as a YAML subset", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "settings.json", `{"host": "imgur", "retries": 1}`)
		var s testSettings
		if err := yamlutil.DecodeFileStrict(path, &s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Host != "imgur" {
			t.Errorf("Host = %q, want %q", s.Host, "imgur")
		}
	})

	t.Run("missing file keeps os.IsNotExist detectable", func(t *testing.T) {
		t.Parallel()

		err := yamlutil.DecodeFileStrict(filepath.Join(t.TempDir(), "absent.yaml"), &testSettings{})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !os.IsNotExist(err) {
			t.Errorf("os.IsNotExist(err) = false, got: %v", err)
		}
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "settings.yaml", "host: smms\nsurprise: 1\n")
		err := yamlutil.DecodeFileStrict(path, &testSettings{})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if os.IsNotExist(err) {
			t.Error("parse failure must not look like a missing file")
		}
	})
}

// ---------------------------------------------------------------------------
// TestMarshal - Serializes Go structs to YAML
// ---------------------------------------------------------------------------

func TestMarshal(t *testing.T) {
	t.Parallel()

	data, err := yamlutil.Marshal(&testSettings{Host: "rclone", Retries: 4, Verbose: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"host: rclone", "retries: 4", "verbose: true"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("output missing %q, got: %s", want, data)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRoundTrip - Verifies Marshal/Unmarshal symmetry
// ---------------------------------------------------------------------------

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	original := testSettings{Host: "roundtrip", Retries: 9, Verbose: true}

	data, err := yamlutil.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded testSettings
	if err := yamlutil.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded != original {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
}

// ---------------------------------------------------------------------------
// TestInputSizeLimit - Verifies MaxInputSize enforcement
// ---------------------------------------------------------------------------

// Note: This test modifies the global MaxInputSize variable, so it cannot
// run in parallel with other tests to avoid data races.

func TestInputSizeLimit(t *testing.T) {
	originalMax := yamlutil.MaxInputSize
	t.Cleanup(func() { yamlutil.MaxInputSize = originalMax })

	t.Run("input at limit succeeds", func(t *testing.T) {
		yamlutil.MaxInputSize = 100
		data := make([]byte, 100)
		copy(data, []byte("host: x"))
		var s testSettings
		if err := yamlutil.Unmarshal(data, &s); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("input exceeding limit fails", func(t *testing.T) {
		yamlutil.MaxInputSize = 100
		data := make([]byte, 101)
		copy(data, []byte("host: x"))
		var s testSettings
		err := yamlutil.Unmarshal(data, &s)
		if !errors.Is(err, yamlutil.ErrInputTooLarge) {
			t.Errorf("errors.Is(err, ErrInputTooLarge) = false, got: %v", err)
		}
	})

	t.Run("error message includes sizes", func(t *testing.T) {
		yamlutil.MaxInputSize = 50
		data := make([]byte, 100)
		var s testSettings
		err := yamlutil.Unmarshal(data, &s)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		msg := err.Error()
		if !strings.Contains(msg, "100 bytes") {
			t.Errorf("error should contain actual size, got: %s", msg)
		}
		if !strings.Contains(msg, "max 50") {
			t.Errorf("error should contain max size, got: %s", msg)
		}
	})

	t.Run("UnmarshalStrict also enforces limit", func(t *testing.T) {
		yamlutil.MaxInputSize = 100
		data := make([]byte, 101)
		copy(data, []byte("host: x"))
		var s testSettings
		err := yamlutil.UnmarshalStrict(data, &s)
		if !errors.Is(err, yamlutil.ErrInputTooLarge) {
			t.Errorf("errors.Is(err, ErrInputTooLarge) = false, got: %v", err)
		}
	})
}
