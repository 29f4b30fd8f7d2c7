package buildroot

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RelativeToTree computes the path from the Buildroot tree to abs. Buildroot
// expects several configuration values as paths relative to its own top
// directory rather than to the invoking process.
func RelativeToTree(tree, abs string) (string, error) {
	if !filepath.IsAbs(tree) || !filepath.IsAbs(abs) {
		return "", fmt.Errorf("relative resolution requires absolute paths, got %q and %q", tree, abs)
	}

	rel, err := filepath.Rel(tree, abs)
	if err != nil {
		return "", fmt.Errorf("resolve %q relative to %q: %w", abs, tree, err)
	}

	// The value ends up inside a KEY="value" configuration line.
	if strings.ContainsAny(rel, "\"\n") {
		return "", fmt.Errorf("path %q cannot be used in a configuration line", rel)
	}
	return rel, nil
}
