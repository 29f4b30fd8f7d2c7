package buildroot

import "sort"

// defconfigs maps each supported target architecture to its Buildroot base
// configuration.
var defconfigs = map[string]string{
	"x86_64":  "qemu_x86_64_defconfig",
	"arm":     "qemu_arm_vexpress_defconfig",
	"aarch64": "qemu_aarch64_virt_defconfig",
}

// Defconfig returns the base configuration name for arch.
func Defconfig(arch string) (string, error) {
	name, ok := defconfigs[arch]
	if !ok {
		return "", &UnsupportedArchitectureError{Arch: arch}
	}
	return name, nil
}

// SupportedArchitectures lists the known architecture identifiers, sorted.
func SupportedArchitectures() []string {
	arches := make([]string, 0, len(defconfigs))
	for arch := range defconfigs {
		arches = append(arches, arch)
	}
	sort.Strings(arches)
	return arches
}
