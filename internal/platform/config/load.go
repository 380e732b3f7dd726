package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix      = "APP_"
	profileEnv     = "APP_PROFILE"
	defaultProfile = "local"
)

// ResolveProfile picks the profile: flagValue, else $APP_PROFILE, else
// "local".
func ResolveProfile(flagValue string) string {
	for _, p := range []string{flagValue, os.Getenv(profileEnv)} {
		if p != "" {
			return p
		}
	}
	return defaultProfile
}

// Option configures Load.
type Option func(*loader)

// WithConfigDir sets the directory holding base.yaml and the profile files.
// The default is "configs" under the working directory.
func WithConfigDir(dir string) Option {
	return func(l *loader) { l.dir = dir }
}

// Load builds the configuration for profile from four layers, later ones
// winning:
//
//	built-in defaults
//	<dir>/base.yaml
//	<dir>/<profile>.yaml
//	APP_* environment variables
//
// Env names are matched against the keys the earlier layers produced, so
// APP_STORE_OP_TIMEOUT lands on store.op_timeout rather than
// store.op.timeout. Unknown names fall back to one level per underscore.
func Load(profile string, opts ...Option) (*Config, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	l := &loader{k: koanf.New("."), dir: "configs"}
	for _, opt := range opts {
		opt(l)
	}

	steps := []func() error{
		l.loadDefaults,
		func() error { return l.loadYAML("base") },
		func() error { return l.loadYAML(profile) },
		l.loadEnv,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

type loader struct {
	k   *koanf.Koanf
	dir string
}

func (l *loader) loadDefaults() error {
	for key, value := range defaults() {
		if err := l.k.Set(key, value); err != nil {
			return fmt.Errorf("setting default %s: %w", key, err)
		}
	}
	return nil
}

func (l *loader) loadYAML(name string) error {
	path := filepath.Join(l.dir, name+".yaml")
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (l *loader) loadEnv() error {
	known := make(map[string]string)
	for _, key := range l.k.Keys() {
		known[strings.ReplaceAll(key, ".", "_")] = key
	}

	provider := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(name, value string) (string, any) {
			name = strings.ToLower(strings.TrimPrefix(name, envPrefix))
			if key, ok := known[name]; ok {
				return key, value
			}
			return strings.ReplaceAll(name, "_", "."), value
		},
	})
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("loading env vars: %w", err)
	}
	return nil
}

// validateProfile keeps profile names to a single path element.
func validateProfile(profile string) error {
	switch {
	case strings.TrimSpace(profile) == "":
		return errors.New("profile must not be empty")
	case strings.ContainsAny(profile, `/\`), strings.Contains(profile, ".."):
		return fmt.Errorf("profile %q must be a plain name", profile)
	}
	return nil
}
