package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/hirmes/hirmes/internal/history"
)

// MinFileDescriptors is the limit below which `index --watch` may run out
// of watch handles on large trees.
const MinFileDescriptors = 1024

// CheckDataDir checks that settings and history can be written.
func (c *Checker) CheckDataDir(dir string) CheckResult {
	result := CheckResult{Name: "data_dir", Required: true, Details: dir}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot create: %v", err)
		return result
	}
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	result.Status = StatusPass
	result.Message = "writable"
	return result
}

// CheckHistory opens the history database. An empty path means history is
// disabled, which is reported as a pass.
func (c *Checker) CheckHistory(path string) CheckResult {
	result := CheckResult{Name: "history", Details: path}
	if path == "" {
		result.Status = StatusPass
		result.Message = "disabled"
		return result
	}

	store, err := history.Open(path, 0)
	if err != nil {
		result.Status = StatusWarn
		result.Message = "cannot open database; searches will not be recorded"
		result.Details = err.Error()
		return result
	}
	_ = store.Close()

	result.Status = StatusPass
	result.Message = "OK"
	return result
}

// CheckIndexedPath reports whether the remembered indexing path still
// exists. The service may run elsewhere, so a missing path only warns.
func (c *Checker) CheckIndexedPath(path string) CheckResult {
	result := CheckResult{Name: "indexed_path", Details: path}
	if path == "" {
		result.Status = StatusPass
		result.Message = "nothing indexed yet"
		return result
	}

	info, err := os.Stat(filepath.Clean(path))
	switch {
	case err != nil:
		result.Status = StatusWarn
		result.Message = "remembered path not found on this machine"
	case !info.IsDir():
		result.Status = StatusWarn
		result.Message = "remembered path is not a directory"
	default:
		result.Status = StatusPass
		result.Message = path
	}
	return result
}

// CheckFileDescriptors checks the open file limit.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{Name: "file_descriptors"}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check limit: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d (recommended: %d)", rLimit.Cur, MinFileDescriptors)
	if rLimit.Cur < MinFileDescriptors {
		result.Status = StatusWarn
		result.Details = "Run 'ulimit -n 10240' before 'hirmes index --watch' on large trees"
		return result
	}
	result.Status = StatusPass
	return result
}
