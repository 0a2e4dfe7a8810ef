package config

import (
	"bytes"
	"fmt"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/stateful/mdpane/internal/preview"
)

const Version = "v1"

// Config is the configuration of mdpane. Command-line flags override it.
type Config struct {
	Version string `yaml:"version" validate:"required"`

	// BasePath resolves relative image references in new sessions.
	BasePath string `yaml:"base_path"`
	XHTML    bool   `yaml:"xhtml"`

	Highlight ConfigHighlight `yaml:"highlight"`

	ContentChangeEnabled bool                   `yaml:"content_change_enabled"`
	ColumnMaps           []preview.ColumnMap    `yaml:"column_maps" validate:"dive"`
	Variables            []preview.UserVariable `yaml:"variables" validate:"dive"`

	Log    ConfigLog    `yaml:"log"`
	Server ConfigServer `yaml:"server"`
}

type ConfigHighlight struct {
	Enabled bool   `yaml:"enabled"`
	Style   string `yaml:"style" validate:"required_if=Enabled true"`
}

type ConfigLog struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Verbose bool   `yaml:"verbose"`
}

type ConfigServer struct {
	// Address is host:port or unix:///path/to/file.sock.
	Address string          `yaml:"address" validate:"required,server_address"`
	TLS     ConfigServerTLS `yaml:"tls"`
	// Assets limits the files served from base paths. Empty serves any file.
	Assets  []string        `yaml:"assets" validate:"dive,required"`
}

// ConfigServerTLS enables HTTPS for the preview server. Empty file names
// resolve to the user config directory.
type ConfigServerTLS struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ParseYAML parses data on top of the default configuration.
func ParseYAML(data []byte) (*Config, error) {
	return parseYAML(data, Default())
}

func parseYAML(data []byte, base *Config) (*Config, error) {
	version, err := parseVersionFromYAML(data)
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, errors.Errorf("unknown version: %s", version)
	}

	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal yaml")
	}

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to validate config")
	}
	return cfg, nil
}

type versionOnly struct {
	Version string `yaml:"version"`
}

func parseVersionFromYAML(data []byte) (string, error) {
	var result versionOnly
	if err := yaml.Unmarshal(data, &result); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal version")
	}
	return result.Version, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("server_address", isServerAddress); err != nil {
		panic(err)
	}
	return v
}

func isServerAddress(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	if path, ok := strings.CutPrefix(addr, "unix://"); ok {
		return path != ""
	}
	_, port, err := net.SplitHostPort(addr)
	return err == nil && port != ""
}

func validateConfig(cfg *Config) error {
	var result error

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return errors.WithStack(err)
		}
		for _, fe := range fieldErrs {
			result = multierr.Append(result, fieldError(fe))
		}
	}

	if cfg.Log.Verbose && !cfg.Log.Enabled {
		result = multierr.Append(result, errors.New("log.verbose requires log.enabled"))
	}

	return result
}

func fieldError(fe validator.FieldError) error {
	// Namespace is "Config.Server.Address"; drop the root type name.
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	if fe.Param() != "" {
		return fmt.Errorf("%s: failed on %q (%s)", field, fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%s: failed on %q", field, fe.Tag())
}
