// Package testutil provides shared skip helpers and WAV assertions for
// integration tests.
//
// Each skip helper calls t.Skip with a clear human-readable reason when the
// named prerequisite is absent, so integration tests remain runnable in
// partial environments without failing noisily.
package testutil

import (
	"os"
	"testing"
)

// ONNXRuntimePath returns the path of an ONNX Runtime shared library, or
// skips the test when none can be located. It checks (in order): the
// CROSSMODAL_ORT_LIB env var, the ORT_LIBRARY_PATH env var, then common
// system library paths.
func ONNXRuntimePath(tb testing.TB) string {
	tb.Helper()

	for _, env := range []string{"CROSSMODAL_ORT_LIB", "ORT_LIBRARY_PATH"} {
		if p := os.Getenv(env); p != "" {
			if _, err := os.Stat(p); err == nil {
				return p
			}
			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)
		}
	}

	// Fall back to common system locations.
	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	tb.Skip("ONNX Runtime shared library not found; set CROSSMODAL_ORT_LIB")
	return ""
}

// RequireModelBundle skips the test if the model's bundle directory does not
// exist under cacheDir.
func RequireModelBundle(tb testing.TB, cacheDir, modelID string) {
	tb.Helper()

	dir := cacheDir + string(os.PathSeparator) + modelID
	if _, err := os.Stat(dir); err != nil {
		tb.Skipf("model %q not downloaded under %q; run `crossmodal model download %s`", modelID, cacheDir, modelID)
	}
}
