// Package doctor provides environment preflight checks for crossmodal.
package doctor

import (
	"fmt"
	"io"
	"os"

	"github.com/example/crossmodal/internal/hub"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VerifyFunc verifies the checksums of a downloaded model.
type VerifyFunc func(modelID string, w io.Writer) error

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// ORTLibraryPath is the configured ONNX Runtime shared library path.
	ORTLibraryPath string
	// CacheDir is the model cache directory.
	CacheDir string
	// ModelIDs lists the models whose bundles are checked. Empty means all
	// known models.
	ModelIDs []string
	// Verify runs checksum verification for a downloaded model. Nil skips
	// verification; bundle presence is still checked.
	Verify VerifyFunc
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- ONNX Runtime library ---------------------------------------------
	if cfg.ORTLibraryPath == "" {
		res.fail("onnxruntime library: path not configured")
		fmt.Fprintf(w, "%s onnxruntime library: not configured (set runtime.ort_library_path)\n", FailMark)
	} else if _, err := os.Stat(cfg.ORTLibraryPath); err != nil {
		res.fail(fmt.Sprintf("onnxruntime library %q: %v", cfg.ORTLibraryPath, err))
		fmt.Fprintf(w, "%s onnxruntime library %s: not found\n", FailMark, cfg.ORTLibraryPath)
	} else {
		fmt.Fprintf(w, "%s onnxruntime library: %s\n", PassMark, cfg.ORTLibraryPath)
	}

	// ---- model cache directory --------------------------------------------
	cacheOK := false
	if info, err := os.Stat(cfg.CacheDir); err != nil {
		res.fail(fmt.Sprintf("model cache %q: %v", cfg.CacheDir, err))
		fmt.Fprintf(w, "%s model cache %s: not found\n", FailMark, cfg.CacheDir)
	} else if !info.IsDir() {
		res.fail(fmt.Sprintf("model cache %q: not a directory", cfg.CacheDir))
		fmt.Fprintf(w, "%s model cache %s: not a directory\n", FailMark, cfg.CacheDir)
	} else {
		cacheOK = true
		fmt.Fprintf(w, "%s model cache: %s\n", PassMark, cfg.CacheDir)
	}

	// ---- model bundles ----------------------------------------------------
	ids := cfg.ModelIDs
	if len(ids) == 0 {
		ids = hub.ModelIDs()
	}
	for _, id := range ids {
		if !cacheOK {
			fmt.Fprintf(w, "%s model %s: skipped (no cache)\n", FailMark, id)
			continue
		}

		dir := hub.ModelDir(cfg.CacheDir, id)
		if _, err := hub.LoadBundle(dir); err != nil {
			res.fail(fmt.Sprintf("model %s: %v", id, err))
			fmt.Fprintf(w, "%s model %s: not downloaded\n", FailMark, id)
			continue
		}

		if cfg.Verify != nil {
			if err := cfg.Verify(id, io.Discard); err != nil {
				res.fail(fmt.Sprintf("model %s: %v", id, err))
				fmt.Fprintf(w, "%s model %s: checksum mismatch\n", FailMark, id)
				continue
			}
		}

		fmt.Fprintf(w, "%s model: %s\n", PassMark, id)
	}

	return res
}
