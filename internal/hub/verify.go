package hub

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Verify checks a model's cached files against the pinned manifest and the
// local lock manifest. Every pinned file must exist and its SHA-256 must
// match either the pinned checksum or, when the pin is metadata-resolved,
// the checksum recorded in the lock manifest at download time.
func Verify(modelID, cacheDir string, stdout io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}

	manifest, err := PinnedManifest(modelID)
	if err != nil {
		return err
	}

	dir := ModelDir(cacheDir, modelID)
	lock := readLockManifest(filepath.Join(dir, "download-manifest.lock.json"))

	var failures []string
	for _, f := range manifest.Files {
		expected := strings.ToLower(f.SHA256)
		if expected == "" {
			lr, ok := lock.Files[f.Filename]
			if !ok || !isSHA256Hex(lr.SHA256) {
				failures = append(failures, fmt.Sprintf("%s: no recorded checksum (re-download to resolve)", f.Filename))
				continue
			}
			expected = strings.ToLower(lr.SHA256)
		}

		localPath := filepath.Join(dir, filepath.FromSlash(f.Filename))
		if _, err := os.Stat(localPath); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", f.Filename, err))
			continue
		}

		actual, err := fileSHA256(localPath)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", f.Filename, err))
			continue
		}
		if actual != expected {
			failures = append(failures, fmt.Sprintf("%s: checksum mismatch (expected %s, got %s)", f.Filename, expected, actual))
			continue
		}

		fmt.Fprintf(stdout, "PASS %s\n", f.Filename)
	}

	if len(failures) > 0 {
		return fmt.Errorf("verify failed for %s: %s", modelID, strings.Join(failures, "; "))
	}

	return nil
}
