package config

import (
	"io/fs"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrRootConfigNotFound = errors.New("root configuration file not found")

// Loader finds the configuration file in a file system.
type Loader struct {
	configRootPath fs.FS
	configName     string
	configType     string
	logger         *zap.Logger
}

type LoaderOption func(*Loader)

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

func NewLoader(configName, configType string, configRootPath fs.FS, opts ...LoaderOption) *Loader {
	if configName == "" {
		panic("config name is not set")
	}

	l := &Loader{
		configRootPath: configRootPath,
		configName:     configName,
		configType:     configType,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	return l
}

func (l *Loader) configFullName() string {
	if l.configType == "" {
		return l.configName
	}
	return l.configName + "." + l.configType
}

func (l *Loader) RootConfig() ([]byte, error) {
	data, err := fs.ReadFile(l.configRootPath, l.configFullName())
	if err != nil {
		l.logger.Debug("root configuration file not found", zap.String("name", l.configFullName()), zap.Error(err))
		return nil, ErrRootConfigNotFound
	}
	return data, nil
}

// Load parses the root configuration file, falling back to the defaults
// when there is none.
func (l *Loader) Load() (*Config, error) {
	data, err := l.RootConfig()
	if errors.Is(err, ErrRootConfigNotFound) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	cfg, err := ParseYAML(data)
	return cfg, errors.Wrapf(err, "invalid %s", l.configFullName())
}
