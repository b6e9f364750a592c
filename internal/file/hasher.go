package file

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/spf13/afero"
)

func HashFile(fs afero.Fs, path string, hasher hash.Hash) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file '%s': %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to hash file '%s': %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func ValidateDigest(fs afero.Fs, path, expected string, hasher hash.Hash) error {
	actual, err := HashFile(fs, path, hasher)
	if err != nil {
		return err
	}

	if !strings.EqualFold(strings.TrimSpace(expected), actual) {
		return fmt.Errorf("digest mismatch for '%s': expected %q, got %q", path, expected, actual)
	}
	return nil
}
