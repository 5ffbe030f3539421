// Package semver validates and normalizes the SDK version sent with every request.
package semver

import (
	"fmt"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:parser"

// SDKVersion is a parsed client SDK version.
type SDKVersion struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
	Raw        string
	version    *masterminds.Version
}

// ParseSDKVersion parses a version such as "2.3.1", "v2.3" or "2.3.1-beta.1".
// Missing minor and patch components default to zero.
func ParseSDKVersion(input string) (*SDKVersion, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return nil, fmt.Errorf("%s - empty SDK version", logPrefix)
	}
	v, err := masterminds.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid SDK version %q: %w", logPrefix, raw, err)
	}
	return &SDKVersion{
		Major:      int(v.Major()),
		Minor:      int(v.Minor()),
		Patch:      int(v.Patch()),
		Prerelease: v.Prerelease(),
		Raw:        raw,
		version:    v,
	}, nil
}

// String returns the canonical form without a "v" prefix or build metadata, as sent
// in X-SDK-Version.
func (v *SDKVersion) String() string {
	return ToVersionString(v.Major, v.Minor, v.Patch, v.Prerelease)
}

// ToVersionString converts version components to a version string.
func ToVersionString(major, minor, patch int, prerelease string) string {
	base := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if prerelease != "" {
		return base + "-" + prerelease
	}
	return base
}

// Canonical parses input and returns its canonical string.
func Canonical(input string) (string, error) {
	v, err := ParseSDKVersion(input)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
