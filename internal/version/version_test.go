package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseVersion(t *testing.T) {
	defer func(v string) { BuildVersion = v }(BuildVersion)

	tests := []struct {
		name         string
		buildVersion string
		expected     string
	}{
		{"standard version", "1.7.8-11-g2300850", "v1.7"},
		{"major and minor only", "2.3", "v2.3"},
		{"major only", "3", "v3.0"},
		{"zero", "0.0.0", "v0.0"},
		{"invalid", "1.2.beta", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			BuildVersion = tt.buildVersion
			assert.Equal(t, tt.expected, BaseVersion())
		})
	}
}

func TestString(t *testing.T) {
	assert.Contains(t, String(), "mdpane "+BuildVersion)
}
