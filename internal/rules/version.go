package rules

import (
	"bufio"
	"strings"

	"golang.org/x/mod/semver"

	dErrors "candlepin/pkg/domain-errors"
)

const versionHeader = "-- version:"

// VersionFromBody reads the "-- version: X.Y[.Z]" header from the first
// comment lines of a rule script.
func VersionFromBody(body string) (string, error) {
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		if strings.HasPrefix(line, versionHeader) {
			v := strings.TrimSpace(strings.TrimPrefix(line, versionHeader))
			if !ValidVersion(v) {
				return "", dErrors.New(dErrors.CodeValidation, "invalid rules version: "+v)
			}
			return v, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "rules version header missing")
}

// ValidVersion reports whether v is a dotted numeric version such as 5.44 or 5.44.1.
func ValidVersion(v string) bool {
	c := canonical(v)
	return c != "" && semver.Prerelease(c) == "" && semver.Build(c) == ""
}

// CompareVersions orders two rule versions. Invalid versions sort before
// valid ones.
func CompareVersions(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}
