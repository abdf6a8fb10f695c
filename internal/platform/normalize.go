package platform

import (
	"fmt"
	"strings"
)

// archMap maps the spellings reported by GOARCH, uname and the Windows
// native system info to a canonical token.
var archMap = map[string]string{
	"amd64":   "amd64",
	"x86_64":  "amd64",
	"x64":     "amd64",
	"386":     "386",
	"i386":    "386",
	"i486":    "386",
	"i586":    "386",
	"i686":    "386",
	"x86":     "386",
	"arm64":   "arm64",
	"aarch64": "arm64",
}

// normalizeArch returns the canonical architecture token, or the lowercased
// input when it is not recognised.
func normalizeArch(arch string) string {
	normalized := strings.ToLower(strings.TrimSpace(arch))
	if canonical, ok := archMap[normalized]; ok {
		return canonical
	}
	return normalized
}

// Classify maps an OS and architecture to a Family. Only the combinations
// the runtime provider publishes archives for are accepted.
func Classify(goos, arch string) (Family, error) {
	normalized := normalizeArch(arch)

	switch goos {
	case "linux":
		if normalized == "amd64" {
			return FamilyLinuxX64, nil
		}
	case "darwin":
		if normalized == "amd64" {
			return FamilyMacOSX64, nil
		}
	case "windows":
		switch normalized {
		case "amd64":
			return FamilyWindowsX64, nil
		case "386":
			return FamilyWindowsX86, nil
		}
	}

	return FamilyUnknown, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, arch)
}
