package credstore

import (
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNew_Drivers(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	cases := []struct {
		name string
		cfg  Config
		deps Dependencies
	}{
		{"default is file", Config{Path: filepath.Join(t.TempDir(), "c.json")}, Dependencies{}},
		{"memory", Config{Driver: DriverMemory}, Dependencies{}},
		{"postgres with handle", Config{Driver: DriverPostgres}, Dependencies{DB: db}},
		{"redis", Config{Driver: DriverRedis, Redis: &RedisConfig{Addr: mr.Addr()}}, Dependencies{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(tc.cfg, tc.deps)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			_ = s.Close()
		})
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(Config{Driver: "etcd"}, Dependencies{}); err == nil {
		t.Error("expected error for unsupported driver")
	}
	if _, err := New(Config{Driver: DriverPostgres}, Dependencies{}); err == nil {
		t.Error("expected error for postgres without DSN")
	}
}
