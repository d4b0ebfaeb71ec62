// Package isolation applies advisory cgroup limits to the provisioning run.
package isolation

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/shellquote"
)

// v1SharesPerWeight converts a cgroup v2 weight (default 100) into v1 cpu.shares
// (default 1024).
const v1SharesPerWeight = 1024.0 / 100.0

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidName reports whether name can be used as a cgroup subgroup name.
func ValidName(name string) bool {
	return validName.MatchString(name)
}

// Script returns an idempotent shell fragment that creates the named group and applies
// profile to it. Every step is best-effort and the fragment always exits 0.
func Script(name string, p domain.ResourceProfile) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("CG_ROOT=%s", shellquote.MustQuote(domain.CgroupRoot))
	line("CG_NAME=%s", shellquote.MustQuote(name))
	line(`if [ -f "$CG_ROOT/%s" ]; then`, domain.CgroupControllersFile)
	line(`  CG_DIR="$CG_ROOT/$CG_NAME"`)
	line(`  mkdir -p "$CG_DIR" 2>/dev/null || true`)
	line(`  for c in +cpu +io +memory; do`)
	line(`    echo "$c" > "$CG_ROOT/%s" 2>/dev/null || true`, domain.CgroupSubtreeControlFile)
	line(`  done`)
	line(`  rig_set() {`)
	line(`    if [ -f "$CG_DIR/$1" ] && [ -w "$CG_DIR/$1" ]; then`)
	line(`      echo "$2" > "$CG_DIR/$1" 2>/dev/null || true`)
	line(`    fi`)
	line(`  }`)
	for _, kv := range v2Settings(p) {
		line(`  rig_set %s %s`, kv[0], shellquote.MustQuote(kv[1]))
	}
	line(`elif command -v cgcreate >/dev/null 2>&1 && command -v cgset >/dev/null 2>&1; then`)
	line(`  cgcreate -g cpu,memory,blkio:/"$CG_NAME" 2>/dev/null || true`)
	for _, kv := range v1Settings(p) {
		line(`  cgset -r %s=%s "$CG_NAME" 2>/dev/null || true`, kv[0], kv[1])
	}
	line(`fi`)
	line(`exit 0`)

	return b.String()
}

// VerifyScript prints the membership file of every hierarchy the named group exists in,
// one per line.
func VerifyScript(name string) string {
	dirs := make([]string, 0, len(hierarchies))
	for _, h := range hierarchies {
		dirs = append(dirs, shellquote.MustQuote(path.Join(h, name)))
	}
	return fmt.Sprintf(
		"for d in %s; do\n"+
			"  if [ -d \"$d\" ] && [ -f \"$d/%s\" ]; then echo \"$d/%s\"; fi\n"+
			"done\n"+
			"exit 0\n",
		strings.Join(dirs, " "), domain.CgroupProcsFile, domain.CgroupProcsFile)
}

// hierarchies are the cgroup roots a group may live under: the v2 unified root first,
// then the v1 controllers the fragment configures.
var hierarchies = []string{
	domain.CgroupRoot,
	domain.CgroupV1CPUMount,
	path.Join(domain.CgroupRoot, "memory"),
	path.Join(domain.CgroupRoot, "blkio"),
}

func v2Settings(p domain.ResourceProfile) [][2]string {
	var out [][2]string
	if p.HasCPUQuota() {
		out = append(out, [2]string{"cpu.max", fmt.Sprintf("%d %d", p.CPUQuota, p.CPUPeriod)})
	}
	if p.CPUWeight > 0 {
		out = append(out, [2]string{"cpu.weight", strconv.FormatInt(p.CPUWeight, 10)})
	}
	if p.HasMemoryLimits() {
		out = append(out,
			[2]string{"memory.high", strconv.FormatInt(p.MemoryHigh, 10)},
			[2]string{"memory.max", strconv.FormatInt(p.MemoryMax, 10)},
		)
	}
	if p.IOWeight > 0 {
		out = append(out, [2]string{"io.weight", strconv.FormatInt(p.IOWeight, 10)})
	}
	return out
}

func v1Settings(p domain.ResourceProfile) [][2]string {
	var out [][2]string
	if p.HasCPUQuota() {
		out = append(out,
			[2]string{"cpu.cfs_period_us", strconv.FormatInt(p.CPUPeriod, 10)},
			[2]string{"cpu.cfs_quota_us", strconv.FormatInt(p.CPUQuota, 10)},
		)
	}
	if p.CPUWeight > 0 {
		out = append(out, [2]string{"cpu.shares", strconv.FormatInt(int64(float64(p.CPUWeight)*v1SharesPerWeight), 10)})
	}
	if p.HasMemoryLimits() {
		out = append(out,
			[2]string{"memory.soft_limit_in_bytes", strconv.FormatInt(p.MemoryHigh, 10)},
			[2]string{"memory.limit_in_bytes", strconv.FormatInt(p.MemoryMax, 10)},
		)
	}
	if p.IOWeight > 0 {
		out = append(out, [2]string{"blkio.weight", strconv.FormatInt(p.IOWeight, 10)})
	}
	return out
}
