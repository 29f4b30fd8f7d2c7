package buildroot

import (
	"fmt"
	"path/filepath"
	"strings"
)

// auxFile pairs a configuration key with the board-relative location of the
// file it points at. The set is fixed policy; baseline mode skips all of it.
type auxFile struct {
	Key  string
	Path string
}

// auxFiles are the auxiliary inputs layered onto every non-baseline build.
var auxFiles = []auxFile{
	{"BR2_GLOBAL_PATCH_DIR", "patches"},
	{"BR2_PACKAGE_BUSYBOX_CONFIG_FRAGMENT_FILES", "busybox.fragment"},
	{"BR2_PACKAGE_OVERRIDE_FILE", "package-overrides.mk"},
	{"BR2_ROOTFS_POST_BUILD_SCRIPT", "post-build.sh"},
	{"BR2_ROOTFS_USERS_TABLES", "users.table"},
}

// baseFragment is merged ahead of any user-supplied fragment, so user
// fragments can override its settings.
const baseFragment = "base.config"

// quoteValue wraps value for a KEY="value" configuration line. The bytes
// between the quotes are read back literally, so values holding a quote or a
// newline have no representable form and are rejected.
func quoteValue(value string) (string, error) {
	if strings.ContainsAny(value, "\"\n") {
		return "", fmt.Errorf("value %q cannot be used in a configuration line", value)
	}
	return `"` + value + `"`, nil
}

// Compose derives the configuration set for env. It is pure: env is never
// modified and identical environments yield identical sets.
//
// Line order is the override order. Explicit --config overrides are emitted
// last so they win over every fragment and built-in default.
func Compose(env BuildEnvironment) (ConfigurationSet, error) {
	if _, err := Defconfig(env.Arch); err != nil {
		return ConfigurationSet{}, err
	}

	dlDir, err := quoteValue(env.DownloadDir)
	if err != nil {
		return ConfigurationSet{}, fmt.Errorf("download directory: %w", err)
	}

	var set ConfigurationSet
	set.Lines = append(set.Lines,
		fmt.Sprintf("BR2_JLEVEL=%d", env.Jobs),
		"BR2_DL_DIR="+dlDir,
	)

	if !env.BuildLinux {
		// The commented-out form is Buildroot's convention for forcing an
		// option absent. It overrides state persisted in an existing output
		// directory, which plain omission would not.
		set.Lines = append(set.Lines, "# BR2_LINUX_KERNEL is not set")
	}

	if !env.Baseline {
		for _, aux := range auxFiles {
			rel, err := RelativeToTree(env.TreeDir, filepath.Join(env.BoardDir, aux.Path))
			if err != nil {
				return ConfigurationSet{}, err
			}
			quoted, err := quoteValue(rel)
			if err != nil {
				return ConfigurationSet{}, err
			}
			set.Lines = append(set.Lines, aux.Key+"="+quoted)
		}

		if !env.NoOverlay {
			rel, err := RelativeToTree(env.TreeDir, env.OverlayDir)
			if err != nil {
				return ConfigurationSet{}, err
			}
			quoted, err := quoteValue(rel)
			if err != nil {
				return ConfigurationSet{}, err
			}
			set.Lines = append(set.Lines, "BR2_ROOTFS_OVERLAY="+quoted)
		}

		set.Fragments = append(set.Fragments, filepath.Join(env.BoardDir, baseFragment))
		set.Fragments = append(set.Fragments, env.Fragments...)
	}

	if env.Initrd || env.Initramfs {
		set.Lines = append(set.Lines, "BR2_TARGET_ROOTFS_CPIO=y")
	}

	set.Lines = append(set.Lines, env.ConfigOverrides...)
	return set, nil
}
