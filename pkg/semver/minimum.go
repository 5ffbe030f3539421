package semver

import "fmt"

const minimumLogPrefix = "semver:minimum"

// CheckMinimum returns an error when version is lower than minimum. An empty minimum
// always passes.
func CheckMinimum(version, minimum string) error {
	if minimum == "" {
		return nil
	}
	v, err := ParseSDKVersion(version)
	if err != nil {
		return err
	}
	m, err := ParseSDKVersion(minimum)
	if err != nil {
		return fmt.Errorf("%s - invalid minimum version: %w", minimumLogPrefix, err)
	}
	if v.version.LessThan(m.version) {
		return fmt.Errorf("%s - SDK version %s is below the supported minimum %s", minimumLogPrefix, v, m)
	}
	return nil
}
