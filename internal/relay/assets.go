package relay

import (
	"fmt"
	"strings"
)

// 32-bit ARM binaries built for the older revision run on the newer
// one, so an armv7 board can fall back to the armv6 asset when the
// release ships no armv7 build.
var armCompatTokens = map[string]string{
	"armv7": "armv6",
	"arm7":  "arm6",
}

// selectAsset picks the release asset matching the host platform.
// archTokens is the mapArch output, most specific spelling first.
//
// Matching runs in three passes over all tokens: an exact
// "{os}_{arch}" substring, then the 32-bit ARM compatibility
// fallback, then a loose match requiring only that the OS token and
// some architecture token both appear somewhere in the name.
func selectAsset(assets []string, osToken string, archTokens []string) (string, error) {
	for _, arch := range archTokens {
		if name := findExact(assets, osToken, arch); name != "" {
			return name, nil
		}
	}
	for _, arch := range archTokens {
		if compat, ok := armCompatTokens[arch]; ok {
			if name := findExact(assets, osToken, compat); name != "" {
				return name, nil
			}
		}
	}
	for _, name := range assets {
		if isChecksumAsset(name) || !strings.Contains(name, osToken) {
			continue
		}
		for _, arch := range archTokens {
			if strings.Contains(name, arch) {
				return name, nil
			}
			if compat, ok := armCompatTokens[arch]; ok && strings.Contains(name, compat) {
				return name, nil
			}
		}
	}
	return "", newError(ErrCodeNoMatchingAsset,
		fmt.Sprintf("no asset for %s/%s, release provides: %s",
			osToken, strings.Join(archTokens, "|"), strings.Join(assets, ", ")), nil)
}

func findExact(assets []string, osToken, arch string) string {
	needle := osToken + "_" + arch
	for _, name := range assets {
		if isChecksumAsset(name) {
			continue
		}
		if strings.Contains(name, needle) {
			return name
		}
	}
	return ""
}

func isChecksumAsset(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "checksum") ||
		strings.HasSuffix(lower, ".sha256") ||
		strings.HasSuffix(lower, ".sha256sum")
}
