package buildver

import (
	"fmt"
	"time"

	"github.com/lincza/al-build/pkg/logger"
)

var versionLog = logger.New("buildver:version")

// epoch is the fixed origin for the build (day-count) field.
var epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// maxField is the largest value the AL toolchain accepts in a version
// component (16-bit unsigned, with 65535 reserved).
const maxField = 65534

// developmentMajor marks development builds unmistakably in the version.
const developmentMajor = 99

// Version is a four-part build version number.
type Version struct {
	Major    int
	Minor    int
	Build    int
	Revision int
}

// String renders the dotted four-part form the descriptor expects.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
}

// Generate derives the build version for a mode from the platform major
// version and the invocation timestamp.
//
// Validation builds are always 0.0.0.0. Development and production builds
// encode the timestamp: minor is the two-digit year, build is whole days
// since 2020-01-01 UTC, and revision is minutes since UTC midnight. All
// time arithmetic is UTC so the result does not depend on the runner's
// time zone. Two builds in the same minute produce the same version; that
// is an accepted trade for statelessness.
//
// Every field is validated against the range the downstream compiler
// accepts; an out-of-range field is an internal defect and fails loudly
// rather than overflowing.
func Generate(mode Mode, platformMajor int, now time.Time) (Version, error) {
	if mode == ModeValidation {
		return Version{}, nil
	}

	utc := now.UTC()

	major := platformMajor
	if mode == ModeDevelopment {
		major = developmentMajor
	}

	v := Version{
		Major:    major,
		Minor:    utc.Year() % 100,
		Build:    int(utc.Sub(epoch).Hours() / 24),
		Revision: utc.Hour()*60 + utc.Minute(),
	}

	if err := v.validate(); err != nil {
		return Version{}, err
	}
	versionLog.Printf("Generated %s version %s for platform major %d", mode, v, platformMajor)
	return v, nil
}

func (v Version) validate() error {
	for _, field := range []struct {
		name  string
		value int
	}{
		{"major", v.Major},
		{"minor", v.Minor},
		{"build", v.Build},
		{"revision", v.Revision},
	} {
		if field.value < 0 || field.value > maxField {
			return fmt.Errorf("version %s component %d is outside [0, %d]", field.name, field.value, maxField)
		}
	}
	return nil
}
