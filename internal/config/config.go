// Package config provides the client and server options, read from
// command-line flags, an optional JSON config file and environment
// variables, in that order of precedence (later wins).
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
)

// ClientOptions configures cmd/client.
type ClientOptions struct {
	// APIURL is the backend base URL.
	APIURL string `json:"api_url"`
	// RequestTimeout caps every backend call.
	RequestTimeout Duration `json:"request_timeout"`
	// CAFile trusts a private CA for the backend.
	CAFile string `json:"ca_file"`

	// Store selects the credential store driver.
	Store string `json:"store"`
	// StorePath is the file driver's document.
	StorePath string `json:"store_path"`
	// StoreKey seals the file document when set.
	StoreKey string `json:"store_key"`
	// DatabaseDSN is used by the postgres driver.
	DatabaseDSN string `json:"database_dsn"`
	// RedisAddr is used by the redis driver.
	RedisAddr string `json:"redis_addr"`

	// ProfileRefresh re-fetches the profile periodically; zero disables it.
	ProfileRefresh Duration `json:"profile_refresh"`
	LogLevel       string   `json:"log_level"`

	// Config is the path to the config file.
	Config string `json:"-"`
}

// ServerOptions configures cmd/server.
type ServerOptions struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`
	// DatabaseDSN holds the database connection string.
	DatabaseDSN string `json:"database_dsn"`
	// UploadDir receives profile photos.
	UploadDir string `json:"upload_dir"`
	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`
	// CleanInterval is how often expired reset codes and sessions are purged.
	CleanInterval Duration `json:"clean_interval"`
	// SessionTTL bounds bearer session age; 0 keeps sessions forever.
	SessionTTL Duration `json:"session_ttl"`
	LogLevel   string   `json:"log_level"`
	// SeedAdmin ("email:password") creates a SUPER_ADMIN on startup.
	SeedAdmin string `json:"seed_admin"`

	// Config is the path to the config file.
	Config string `json:"-"`
}

// ParseClient reads client options from args (without the program name).
func ParseClient(args []string) (*ClientOptions, error) {
	opts := &ClientOptions{}
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&opts.APIURL, "u", "https://localhost:8080", "backend base URL")
	fs.DurationVar((*time.Duration)(&opts.RequestTimeout), "t", 15*time.Second, "request timeout")
	fs.StringVar(&opts.CAFile, "ca", "", "path to a CA certificate for the backend")
	fs.StringVar(&opts.Store, "store", "file", "credential store: memory, file, postgres, redis")
	fs.StringVar(&opts.StorePath, "store-path", "credentials.json", "file store location")
	fs.StringVar(&opts.StoreKey, "store-key", "", "passphrase sealing the file store")
	fs.StringVar(&opts.DatabaseDSN, "d", "", "postgres DSN for the postgres store")
	fs.StringVar(&opts.RedisAddr, "redis", "localhost:6379", "redis address for the redis store")
	fs.DurationVar((*time.Duration)(&opts.ProfileRefresh), "refresh", 0, "profile refresh interval (0 disables)")
	fs.StringVar(&opts.LogLevel, "l", "warn", "log level")
	fs.StringVar(&opts.Config, "config", "", "path to config file")
	fs.StringVar(&opts.Config, "c", "", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := loadFile(&opts.Config, opts); err != nil {
		return nil, err
	}

	overrideString(&opts.APIURL, "API_URL")
	overrideString(&opts.Store, "CRED_STORE")
	overrideString(&opts.StorePath, "CRED_STORE_PATH")
	overrideString(&opts.StoreKey, "CRED_STORE_KEY")
	overrideString(&opts.DatabaseDSN, "DATABASE_DSN")
	overrideString(&opts.RedisAddr, "REDIS_ADDR")
	overrideString(&opts.LogLevel, "LOG_LEVEL")
	if err := overrideDuration(&opts.RequestTimeout, "REQUEST_TIMEOUT"); err != nil {
		return nil, err
	}

	if opts.APIURL == "" {
		return nil, errors.New("api url is required")
	}
	return opts, nil
}

// ParseServer reads server options from args (without the program name).
func ParseServer(args []string) (*ServerOptions, error) {
	opts := &ServerOptions{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&opts.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&opts.UploadDir, "uploads", "uploads", "directory for profile photos")
	fs.StringVar(&opts.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&opts.TLSKey, "tls-key", "", "TLS key file")
	fs.DurationVar((*time.Duration)(&opts.CleanInterval), "clean", 10*time.Minute, "expired reset code and session purge interval")
	fs.DurationVar((*time.Duration)(&opts.SessionTTL), "session-ttl", 30*24*time.Hour, "maximum bearer session age, 0 disables")
	fs.StringVar(&opts.LogLevel, "l", "info", "log level")
	fs.StringVar(&opts.SeedAdmin, "seed-admin", "", "create a super admin, email:password")
	fs.StringVar(&opts.Config, "config", "config.json", "path to config file")
	fs.StringVar(&opts.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := loadFile(&opts.Config, opts); err != nil {
		return nil, err
	}

	overrideString(&opts.Port, "SERVER_ADDRESS")
	overrideString(&opts.SeedAdmin, "SEED_ADMIN")
	overrideString(&opts.DatabaseDSN, "DATABASE_DSN")
	overrideString(&opts.LogLevel, "LOG_LEVEL")
	return opts, nil
}

// loadFile decodes the JSON config at *path into dst. CONFIG overrides the
// path; a missing file is ignored.
func loadFile(path *string, dst any) error {
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		*path = configPath
	}
	if *path == "" {
		return nil
	}
	if _, err := os.Stat(*path); err != nil {
		return nil
	}
	data, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func overrideString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func overrideDuration(dst *Duration, env string) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", env, err)
	}
	*dst = Duration(d)
	return nil
}

// Duration is a time.Duration that reads "15s" or integer nanoseconds from
// JSON.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*d = Duration(time.Duration(val))
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
