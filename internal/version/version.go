// Package version pins the build version and the snapshot schema version.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is the current version of the trading core.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/stratigo-lab/stratigo/internal/version.Version=1.2.3"
var Version = "0.1.0"

// SnapshotSchemaVersion is written into every ledger snapshot. Snapshots with
// a different major version are rejected on restore.
const SnapshotSchemaVersion = "1.0.0"

// GetVersion returns the current version of the trading core.
func GetVersion() string {
	return Version
}

// CheckSnapshotCompatible reports whether a snapshot written with the given
// schema version can be restored by this build.
func CheckSnapshotCompatible(schemaVersion string) error {
	written, err := semver.NewVersion(schemaVersion)
	if err != nil {
		return fmt.Errorf("invalid snapshot schema version %q: %w", schemaVersion, err)
	}

	current := semver.MustParse(SnapshotSchemaVersion)
	if written.Major() != current.Major() {
		return fmt.Errorf("snapshot schema %s is incompatible with %s", schemaVersion, SnapshotSchemaVersion)
	}

	return nil
}
