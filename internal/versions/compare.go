package versions

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// IsNewerVersion reports whether newVersion is strictly greater than oldVersion.
// Non-semver strings are compared lexicographically.
func IsNewerVersion(newVersion, oldVersion string) bool {
	newSemver, errNew := semver.NewVersion(newVersion)
	oldSemver, errOld := semver.NewVersion(oldVersion)
	if errNew != nil || errOld != nil {
		return newVersion > oldVersion
	}
	return newSemver.GreaterThan(oldSemver)
}

// Satisfies reports whether version meets a constraint such as ">= 1.2, < 2".
// Development builds satisfy every constraint.
func Satisfies(version, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	if version == "dev" {
		return true, nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", version, err)
	}
	return c.Check(v), nil
}
