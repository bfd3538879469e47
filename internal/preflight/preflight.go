package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"bif/internal/config"
)

// Check names reported by RunAll.
const (
	NameScanRoot  = "Scan root"
	NameCacheDir  = "Cache directory"
	NameMetricDir = "Metrics directory"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Err returns nil for a passing result and a descriptive error otherwise.
func (r Result) Err() error {
	if r.Passed {
		return nil
	}
	return fmt.Errorf("%s: %s", r.Name, r.Detail)
}

// RunAll executes the checks that apply to a scan of root under cfg.
// Optional locations are only checked when their feature is enabled.
func RunAll(cfg *config.Config, root string) []Result {
	results := []Result{CheckReadableDir(NameScanRoot, root)}
	if cfg == nil {
		return results
	}
	if cfg.Cache.Enabled {
		results = append(results, CheckWritableDir(NameCacheDir, filepath.Dir(cfg.Cache.Path)))
	}
	if cfg.Metrics.Textfile != "" {
		results = append(results, CheckWritableDir(NameMetricDir, filepath.Dir(cfg.Metrics.Textfile)))
	}
	return results
}

// CheckReadableDir verifies that path is an existing directory that can be listed.
func CheckReadableDir(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckWritableDir verifies that path is, or can be created as, a writable
// directory. A missing directory is judged by its nearest existing ancestor.
func CheckWritableDir(name, path string) Result {
	target := path
	for {
		info, err := os.Stat(target)
		if err == nil {
			if !info.IsDir() {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s is not a directory)", path, target)}
			}
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
		}
		parent := filepath.Dir(target)
		if parent == target {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing ancestor)", path)}
		}
		target = parent
	}
	if err := unix.Access(target, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions on %s: %v)", path, target, err)}
	}
	if target != path {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
