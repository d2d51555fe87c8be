package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSplitHosts(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"localhost,127.0.0.1", []string{"localhost", "127.0.0.1"}},
		{" api.local , ,10.0.0.5 ", []string{"api.local", "10.0.0.5"}},
		{"", nil},
		{" , ", nil},
	}
	for _, tt := range tests {
		if got := splitHosts(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitHosts(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRun_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	var out bytes.Buffer
	if err := run([]string{"-dir", dir, "-hosts", "localhost"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"ca.crt", "ca.key", "server.crt", "server.key"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if !strings.Contains(out.String(), filepath.Join(dir, "ca.crt")) {
		t.Errorf("output does not mention the CA path: %q", out.String())
	}
}

func TestRun_Errors(t *testing.T) {
	if err := run([]string{"-hosts", " , "}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for empty host list")
	}
	if err := run([]string{"-bogus"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown flag")
	}
}
