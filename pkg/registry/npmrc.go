package registry

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// NPMConfig is the merged view of the .npmrc files and npm_config_* variables that decide
// which registry a package is published to and which token authenticates against it.
type NPMConfig struct {
	entries map[string]string
	lookup  func(string) (string, bool)
}

// LoadNPMConfig merges, from lowest to highest precedence: ~/.npmrc, <projectDir>/.npmrc and
// NPM_CONFIG_* / npm_config_* environment variables. ${VAR} references in values are resolved
// from the environment first, then from <projectDir>/.env when present.
func LoadNPMConfig(projectDir string) (*NPMConfig, error) {
	cfg := &NPMConfig{entries: make(map[string]string)}

	if home, err := os.UserHomeDir(); err == nil {
		if err := cfg.parseFile(filepath.Join(home, ".npmrc")); err != nil {
			return nil, err
		}
	}
	if err := cfg.parseFile(filepath.Join(projectDir, ".npmrc")); err != nil {
		return nil, err
	}

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		var name string
		switch {
		case strings.HasPrefix(key, "NPM_CONFIG_"):
			name = strings.TrimPrefix(key, "NPM_CONFIG_")
		case strings.HasPrefix(key, "npm_config_"):
			name = strings.TrimPrefix(key, "npm_config_")
		default:
			continue
		}
		cfg.entries[strings.ReplaceAll(strings.ToLower(name), "_", "-")] = value
	}

	dotenv, err := godotenv.Read(filepath.Join(projectDir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	cfg.lookup = func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := dotenv[name]
		return v, ok
	}
	return cfg, nil
}

// parseFile reads key=value lines; a missing file is not an error.
func (c *NPMConfig) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		c.entries[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// RegistryURL returns the registry for a package: the "@scope:registry" entry for scoped
// packages, then "registry", then the public npm registry.
func (c *NPMConfig) RegistryURL(pkg string) string {
	if scope := Scope(pkg); scope != "" {
		if url, ok := c.entries[scope+":registry"]; ok && url != "" {
			return strings.TrimRight(url, "/")
		}
	}
	if url, ok := c.entries["registry"]; ok && url != "" {
		return strings.TrimRight(url, "/")
	}
	return DefaultNPMURL
}

// AuthToken returns the token for registryURL from "//host/path/:_authToken", falling back
// to a global "_authToken". The empty string means anonymous access.
func (c *NPMConfig) AuthToken(registryURL string) string {
	host := strings.TrimPrefix(registryURL, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimRight(host, "/")

	if token, ok := c.entries["//"+host+"/:_authToken"]; ok {
		return c.expand(token)
	}
	if token, ok := c.entries["_authToken"]; ok {
		return c.expand(token)
	}
	return ""
}

func (c *NPMConfig) expand(value string) string {
	return os.Expand(value, func(name string) string {
		if c.lookup == nil {
			return os.Getenv(name)
		}
		v, _ := c.lookup(name)
		return v
	})
}

// Scope returns "@scope" for "@scope/name" and "" for unscoped packages.
func Scope(pkg string) string {
	if !strings.HasPrefix(pkg, "@") {
		return ""
	}
	scope, _, ok := strings.Cut(pkg, "/")
	if !ok {
		return ""
	}
	return scope
}
