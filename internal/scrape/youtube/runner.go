// Package youtube scrapes game soundtracks by shelling out to a
// yt-dlp-compatible downloader binary and parsing its JSON output.
package youtube

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Runner executes the downloader binary. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// execRunner shells out to the configured binary.
type execRunner struct {
	binary string
}

// NewRunner resolves the downloader binary by explicit path or PATH
// lookup and returns a Runner around it.
func NewRunner(binaryPath string) Runner {
	return &execRunner{binary: findBinary(binaryPath)}
}

func findBinary(binaryPath string) string {
	if binaryPath != "" {
		if _, err := os.Stat(binaryPath); err == nil {
			return binaryPath
		}
		if path, err := exec.LookPath(binaryPath); err == nil {
			return path
		}
	}
	if path, err := exec.LookPath("yt-dlp"); err == nil {
		return path
	}
	return binaryPath
}

// Run executes the binary and returns stdout. A non-zero exit code is an
// error carrying the captured stderr.
func (r *execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("downloader failed: %w: %s", err, stderr.String())
	}

	return stdout.Bytes(), nil
}
