package oneup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/circlesac/oneup/pkg/calver"
)

// DefaultConfigFile is read from the project directory when present.
const DefaultConfigFile = ".oneup.yaml"

// Config is the optional per-project settings file. Values are overridden by flags
// given explicitly on the command line.
//
//	format: YYYY.MM.DD.MICRO
//	registry: ${NPM_REGISTRY}
//	package: "@acme/widget"
//	targets:
//	  - package.json
//	  - server.json
//	retries: 5
type Config struct {
	Format   string   `yaml:"format"`
	Registry string   `yaml:"registry"`
	Package  string   `yaml:"package"`
	Targets  []string `yaml:"targets"`
	Retries  *int     `yaml:"retries"`
}

// Validator is implemented by configuration types that check themselves after loading.
type Validator interface {
	Validate() error
}

var httpURL = regexp.MustCompile(`^https?://[^\s/]+`)

// Validate checks the config values.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if s == "" {
				return nil
			}
			_, err := calver.Parse(s)
			return err
		})),
		validation.Field(&c.Registry, validation.Match(httpURL).Error("must be an http(s) URL")),
		validation.Field(&c.Targets, validation.Each(validation.Required)),
		validation.Field(&c.Retries, validation.Min(0), validation.Max(10)),
	)
}

// Load reads a YAML file into target, expanding ${VAR} references from the environment,
// and validates it when target implements Validator.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config %s: validation failed: %w", filename, err)
		}
	}
	return nil
}

// LoadConfig reads the config at path. A missing file yields an empty Config unless
// required is set.
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := &Config{}
	if err := Load(path, cfg); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}
