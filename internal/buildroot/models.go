package buildroot

// BuildEnvironment is an immutable snapshot of one invocation's resolved
// configuration, assembled once from the settings file and CLI input.
// Compose reads it and never writes it.
type BuildEnvironment struct {
	Arch string

	TreeDir     string // Buildroot source tree
	OutputDir   string // build output directory (make O=)
	DownloadDir string // shared download cache
	PackagesDir string // parent of external package-definition sets
	OverlayDir  string // rootfs overlay copied onto the built filesystem
	BoardDir    string // root of the auxiliary file set

	BenchSourceDir string // handed to the build as a make variable

	Jobs int

	ConfigOverrides []string // KEY=VALUE overrides, applied last
	Fragments       []string // user fragment files, merged after the base fragment

	ExtraArgs []string // pass-through make arguments

	BuildLinux   bool
	Baseline     bool
	NoAll        bool
	NoOverlay    bool
	ForceRebuild bool
	Initrd       bool
	Initramfs    bool
	Verbose      bool
}

// ConfigurationSet is the ordered configuration produced by Compose.
// Fragment contents materialize before Lines, and Buildroot's merge resolves
// duplicate keys by last assignment, so later entries override earlier ones.
type ConfigurationSet struct {
	Lines     []string
	Fragments []string
}
