// Package preflight verifies the host can actually run a batch before the
// workflow starts: directories writable, encoder present, and enough free
// space in the staging area.
package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"shrinkray/internal/config"
	"shrinkray/internal/deps"
)

// Result reports one preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least
// minFreeGiB gibibytes available.
func CheckFreeSpace(name, path string, minFreeGiB int) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	freeBytes := stat.Bavail * uint64(stat.Bsize)
	freeGiB := float64(freeBytes) / (1 << 30)
	if minFreeGiB > 0 && freeBytes < uint64(minFreeGiB)<<30 {
		return Result{
			Name:   name,
			Detail: fmt.Sprintf("%s (%.1f GiB free, need %d GiB)", path, freeGiB, minFreeGiB),
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%.1f GiB free)", path, freeGiB)}
}

// Run evaluates every preflight check for the given config.
func Run(cfg *config.Config) []Result {
	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckFreeSpace("Staging free space", cfg.Paths.StagingDir, cfg.Workflow.MinFreeSpaceGiB),
	}
	for _, status := range deps.CheckSystemDeps(cfg) {
		detail := status.Detail
		if detail == "" {
			detail = status.Command
		}
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available || status.Optional,
			Detail: detail,
		})
	}
	return results
}

// Failures summarizes failed checks into one message, empty when all passed.
func Failures(results []Result) string {
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	return strings.Join(failed, "; ")
}
