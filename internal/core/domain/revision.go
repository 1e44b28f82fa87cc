package domain

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// shortHashLength is the abbreviated hash length used for KILN_REVISION_SHORT.
const shortHashLength = 12

// Revision describes the VCS state a build runs against.
type Revision struct {
	Hash        string    `json:"hash,omitzero"`
	Timestamp   time.Time `json:"timestamp,omitzero"`
	Version     string    `json:"version,omitzero"`
	BuildNumber int       `json:"build_number,omitzero"`
}

// NewRevision builds a Revision, normalizing version to canonical vX.Y.Z form.
// An empty or invalid version becomes v0.0.0.
func NewRevision(hash string, timestamp time.Time, version string, buildNumber int) Revision {
	return Revision{
		Hash:        hash,
		Timestamp:   timestamp,
		Version:     CanonicalVersion(version),
		BuildNumber: buildNumber,
	}
}

// CanonicalVersion normalizes a tag such as "1.2" or "v1.2.3-rc.1+meta" to semver form.
// Build metadata is dropped. Values that are not semantic versions yield v0.0.0.
func CanonicalVersion(version string) string {
	if version != "" && !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return "v0.0.0"
	}
	return semver.Canonical(version)
}

// ShortHash returns the abbreviated commit hash.
func (r Revision) ShortHash() string {
	if len(r.Hash) <= shortHashLength {
		return r.Hash
	}
	return r.Hash[:shortHashLength]
}

// FullVersion returns the version without the leading "v" plus the build number, e.g. 1.2.3+7.
func (r Revision) FullVersion() string {
	return strings.TrimPrefix(CanonicalVersion(r.Version), "v") + "+" + strconv.Itoa(r.BuildNumber)
}

// Variables exposes the revision as environment variables for downstream tasks.
func (r Revision) Variables() map[string]string {
	return map[string]string{
		"KILN_REVISION":       r.Hash,
		"KILN_REVISION_SHORT": r.ShortHash(),
		"KILN_COMMIT_TIME":    r.Timestamp.UTC().Format(time.RFC3339),
		"KILN_VERSION":        strings.TrimPrefix(CanonicalVersion(r.Version), "v"),
		"KILN_BUILD_NUMBER":   strconv.Itoa(r.BuildNumber),
		"KILN_FULL_VERSION":   r.FullVersion(),
	}
}
