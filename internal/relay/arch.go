package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/cdgriffith/pi-streaming-setup/internal/execute"
)

// Release asset names embed a Go-style architecture token. Current
// releases use the armv7/armv6 spelling; older release lines published
// arm7/arm6 instead, so both tables are consulted in order.
var (
	primaryArchTokens = map[string]string{
		"x86_64":  "amd64",
		"aarch64": "arm64",
		"armv7l":  "armv7",
		"armv6l":  "armv6",
	}
	legacyArchTokens = map[string]string{
		"aarch64": "arm64",
		"armv7l":  "arm7",
		"armv6l":  "arm6",
	}
)

// DetectArch reports the machine hardware name, as printed by uname.
func DetectArch(ctx context.Context, runner execute.Runner) (string, error) {
	stdout, stderr, err := runner.Run(ctx, "uname -m")
	if err != nil {
		return "", fmt.Errorf("detecting architecture: %w (%s)", err, strings.TrimSpace(stderr))
	}
	arch := strings.TrimSpace(stdout)
	if arch == "" {
		return "", fmt.Errorf("uname -m produced no output")
	}
	return arch, nil
}

// mapArch returns the asset-name tokens to try for a machine
// architecture, primary spelling first. An architecture absent from
// both tables is unsupported; the available asset names are included
// in the error so the mismatch can be diagnosed from the log alone.
func mapArch(arch string, assets []string) ([]string, error) {
	var tokens []string
	if t, ok := primaryArchTokens[arch]; ok {
		tokens = append(tokens, t)
	}
	if t, ok := legacyArchTokens[arch]; ok && !contains(tokens, t) {
		tokens = append(tokens, t)
	}
	if len(tokens) == 0 {
		return nil, newError(ErrCodeUnsupportedArch,
			fmt.Sprintf("no release asset mapping for architecture %q, release provides: %s",
				arch, strings.Join(assets, ", ")), nil)
	}
	return tokens, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
