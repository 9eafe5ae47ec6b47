package common

import "github.com/nspcc-dev/neo-go/pkg/interop/native/std"

const (
	major = 0
	minor = 2
	patch = 0

	// Oldest version the contracts can be updated from.
	prevMajor = 0
	prevMinor = 1
	prevPatch = 0

	// Version is encoded as major*10^6 + minor*10^3 + patch, it must match
	// VERSION file.
	Version = major*1_000_000 + minor*1_000 + patch

	// PrevVersion is encoded the same way as Version.
	PrevVersion = prevMajor*1_000_000 + prevMinor*1_000 + prevPatch

	// ErrVersionMismatch is thrown by CheckVersion when the stored contract
	// is too old to be updated in place.
	ErrVersionMismatch = "previous version mismatch"

	// ErrAlreadyUpdated is thrown by CheckVersion on repeated update.
	ErrAlreadyUpdated = "contract is already of the latest version"
)

// CheckVersion panics if contract of version from can't be updated to
// Version.
func CheckVersion(from int) {
	switch {
	case from < PrevVersion:
		panic(ErrVersionMismatch + ": expected >=" + std.Itoa(PrevVersion, 10))
	case from == Version:
		panic(ErrAlreadyUpdated + ": " + std.Itoa(Version, 10))
	}
}

// AppendVersion appends Version to the update data, so _deploy of the new
// code can call CheckVersion with it.
func AppendVersion(data interface{}) []interface{} {
	if data == nil {
		return []interface{}{Version}
	}
	return append(data.([]interface{}), Version)
}
