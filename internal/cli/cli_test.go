package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		args    []string
		want    Args
		wantErr bool
	}{
		{args: nil, wantErr: true},
		{args: []string{"data"}, want: Args{Root: "data"}},
		{args: []string{"data", "usa"}, want: Args{Root: "data", Only: "usa"}},
		{args: []string{"data", "usa", "extra"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseArgs(tt.args)
		if tt.wantErr {
			if !errors.Is(err, ErrUsage) {
				t.Errorf("ParseArgs(%q) err = %v, want ErrUsage", tt.args, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseArgs(%q) = %+v, %v", tt.args, got, err)
		}
	}
}

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site_data")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(cfgPath, []byte(`{"urlRoot": "static/data"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(Flags{ConfigPath: cfgPath}, Args{Root: dir, Only: "usa"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Root.URLRoot != "static/data" || s.Only != "usa" {
		t.Errorf("session = %+v", s)
	}

	s, err = Open(Flags{ConfigPath: cfgPath, URLRoot: "cdn"}, Args{Root: dir})
	if err != nil || s.Root.URLRoot != "cdn" {
		t.Errorf("flag should override the config: %+v, %v", s, err)
	}

	if _, err := Open(Flags{ConfigPath: cfgPath}, Args{Root: filepath.Join(dir, "missing")}); !errors.Is(err, ErrUsage) {
		t.Errorf("missing root: err = %v", err)
	}
}

func TestFail(t *testing.T) {
	var buf bytes.Buffer
	if code := Fail(&buf, fmt.Errorf("%w: no root", ErrUsage)); code != ExitUsage {
		t.Errorf("usage code = %d", code)
	}
	if code := Fail(&buf, context.Canceled); code != ExitInterrupted {
		t.Errorf("interrupted code = %d", code)
	}
	if code := Fail(&buf, errors.New("disk full")); code != ExitFailure {
		t.Errorf("failure code = %d", code)
	}
}
