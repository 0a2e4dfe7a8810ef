package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// These are variables so that they can be set during the build time.
var (
	BuildDate    = "unknown"
	BuildVersion = "0.0.0"
	Commit       = "unknown"
)

// BaseVersion returns "vMAJOR.MINOR" of BuildVersion, or "unknown" when it
// is not a semantic version.
func BaseVersion() string {
	v, err := semver.NewVersion(BuildVersion)
	if err != nil {
		return "unknown"
	}
	return fmt.Sprintf("v%d.%d", v.Major(), v.Minor())
}

// String is the long version reported by the CLI and in the Ready message.
func String() string {
	return fmt.Sprintf("mdpane %s (%s) on %s", BuildVersion, Commit, BuildDate)
}
