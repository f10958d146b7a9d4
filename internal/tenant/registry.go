package tenant

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the connection parameters for one tenant database.
// Every tenant key resolves to exactly one Config: either an explicit
// override from the registry file, or one derived by the default rule
// (shared host/port, key reused as user/password/database).
type Config struct {
	Key      string `yaml:"-"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Encoding string `yaml:"encoding"`
}

// Defaults are the parameters applied when a tenant has no override entry.
type Defaults struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Encoding string `yaml:"encoding"`
}

// Registry maps tenant keys to connection parameters. It is loaded once at
// startup and never mutated afterwards.
type Registry struct {
	defaults  Defaults
	overrides map[string]Config
}

type registryFile struct {
	Default Defaults          `yaml:"default"`
	Tenants map[string]Config `yaml:"tenants"`
}

// DefaultEncoding is the legacy 8-bit encoding the tenant databases were
// created with. Mismatches corrupt text silently, so it is always applied
// unless an override says otherwise.
const DefaultEncoding = "euc-kr"

// NewRegistry builds a registry from explicit parts. Used by tests and by
// LoadRegistry.
func NewRegistry(def Defaults, overrides map[string]Config) *Registry {
	if def.Encoding == "" {
		def.Encoding = DefaultEncoding
	}
	m := make(map[string]Config, len(overrides))
	for key, cfg := range overrides {
		cfg.Key = key
		if cfg.Encoding == "" {
			cfg.Encoding = def.Encoding
		}
		m[key] = cfg
	}
	return &Registry{defaults: def, overrides: m}
}

// LoadRegistry reads the tenant override file. A missing file is not an
// error: it yields a registry that derives every tenant from the defaults.
func LoadRegistry(path string, def Defaults) (*Registry, error) {
	if path == "" {
		return NewRegistry(def, nil), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(def, nil), nil
		}
		return nil, fmt.Errorf("read tenant registry %s: %w", path, err)
	}
	var f registryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse tenant registry %s: %w", path, err)
	}
	if f.Default.Host != "" {
		def.Host = f.Default.Host
	}
	if f.Default.Port != 0 {
		def.Port = f.Default.Port
	}
	if f.Default.Encoding != "" {
		def.Encoding = f.Default.Encoding
	}
	return NewRegistry(def, f.Tenants), nil
}

// Resolve returns the connection parameters for a tenant key. Keys come
// verbatim from an untrusted request parameter; an empty key is rejected
// here so no caller has to re-check.
func (r *Registry) Resolve(key string) (Config, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Config{}, fmt.Errorf("tenant key is empty")
	}
	if cfg, ok := r.overrides[key]; ok {
		return cfg, nil
	}
	return Config{
		Key:      key,
		Host:     r.defaults.Host,
		Port:     r.defaults.Port,
		User:     key,
		Password: key,
		Database: key,
		Encoding: r.defaults.Encoding,
	}, nil
}
