// Package capability detects host CPU features once per process and
// exposes them as an immutable snapshot.
//
// The snapshot is computed by the first caller and cached; it is pure
// read-only data afterwards, so it can be shared between instances
// without synchronization.
package capability

import (
	"strings"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Flags is a bit set of CPU features.
type Flags uint32

const (
	FPU Flags = 1 << iota
	MMX
	MMXEXT
	ThreeDNow
	SSE
	SSE2
	SSE3
	SSSE3
	AltiVec
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FPU, "FPU"},
	{MMX, "MMX"},
	{MMXEXT, "MMXEXT"},
	{ThreeDNow, "3DNow!"},
	{SSE, "SSE"},
	{SSE2, "SSE2"},
	{SSE3, "SSE3"},
	{SSSE3, "SSSE3"},
	{AltiVec, "AltiVec"},
}

// Snapshot is the set of capabilities detected on this host, possibly
// narrowed by configuration.
type Snapshot struct {
	flags Flags
}

var (
	detectOnce sync.Once
	detected   Snapshot
)

// Detect returns the process-wide capability snapshot, probing the CPU
// on the first call only.
func Detect() Snapshot {
	detectOnce.Do(func() {
		detected = probe()
	})
	return detected
}

func probe() Snapshot {
	var f Flags

	if cpuid.CPU.X64Level() > 0 || cpuid.CPU.Has(cpuid.CMOV) {
		// Any x86-64 CPU carries an FPU.
		f |= FPU
	}
	if cpuid.CPU.Has(cpuid.MMX) {
		f |= MMX
	}
	if cpuid.CPU.Has(cpuid.MMXEXT) {
		f |= MMXEXT
	}
	if cpuid.CPU.Has(cpuid.AMD3DNOW) {
		f |= ThreeDNow
	}
	if cpuid.CPU.Has(cpuid.SSE) {
		f |= SSE
	}
	if cpuid.CPU.Has(cpuid.SSE2) {
		f |= SSE2
	}
	if cpuid.CPU.Has(cpuid.SSE3) {
		f |= SSE3
	}
	if cpuid.CPU.Has(cpuid.SSSE3) {
		f |= SSSE3
	}
	return Snapshot{flags: f}
}

// FromFlags builds a snapshot from an explicit flag set.  Used by
// tests and by config-driven overrides.
func FromFlags(f Flags) Snapshot { return Snapshot{flags: f} }

// Has reports whether every flag in f is present.
func (s Snapshot) Has(f Flags) bool { return s.flags&f == f }

// Without returns a copy of s with the given flags removed.
func (s Snapshot) Without(f Flags) Snapshot {
	return Snapshot{flags: s.flags &^ f}
}

// Flags returns the raw bit set.
func (s Snapshot) Flags() Flags { return s.flags }

// String lists the detected capability names, space-separated, in a
// fixed order.
func (s Snapshot) String() string {
	var names []string
	for _, fn := range flagNames {
		if s.flags&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, " ")
}

// ── Config-driven masking ────────────────────────────────────────────

// BoolGetter is the subset of the config store the mask builder needs.
type BoolGetter interface {
	GetBool(name string) bool
}

// optionFlags maps capability-disabling option names to the flags they
// remove when set to false.
var optionFlags = []struct {
	option string
	flag   Flags
}{
	{"fpu", FPU},
	{"mmx", MMX},
	{"mmxext", MMXEXT},
	{"3dn", ThreeDNow},
	{"sse", SSE},
	{"sse2", SSE2},
}

// MaskFromConfig builds the set of flags the configuration disables.
// Each option defaults to true; setting it to false strips the
// corresponding capability from the effective snapshot.
func MaskFromConfig(cfg BoolGetter) Flags {
	var mask Flags
	for _, of := range optionFlags {
		if !cfg.GetBool(of.option) {
			mask |= of.flag
		}
	}
	return mask
}
