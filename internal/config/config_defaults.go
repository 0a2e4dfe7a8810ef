package config

var defaults Config

func init() {
	yaml := []byte(`version: v1

# Prefix for relative image references. Hosts usually set it per document.
base_path: ""

# Close void elements like <img /> and <hr />.
xhtml: false

# Syntax highlighting of fenced code blocks in the preview.
highlight:
  enabled: false
  style: github

# Whether buffer changes are reported to the host as CodeChange messages.
content_change_enabled: false

# Initial substitution tables for new sessions.
column_maps: []
variables: []

server:
  # Also unix:///path/to/file.sock is supported.
  address: localhost:7863
  tls:
    enabled: false
    # If not specified, files in the user config directory are used.
    # cert_file: "/path/to/cert.pem"
    # key_file: "/path/to/key.pem"
  # Glob patterns of files served from a session's base path.
  # assets: ["**.png", "**.jpg", "**.svg"]
  assets: []

log:
  enabled: false
  path: ""
  verbose: false
`)

	cfg, err := parseYAML(yaml, &Config{})
	if err != nil {
		panic(err)
	}

	defaults = *cfg
}

// Default returns a copy of the default configuration.
func Default() *Config {
	c := defaults
	c.ColumnMaps = append(c.ColumnMaps[:0:0], defaults.ColumnMaps...)
	c.Variables = append(c.Variables[:0:0], defaults.Variables...)
	return &c
}
