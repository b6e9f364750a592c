package file

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

// ReadCredential reads a single-line credential (API key or token) from the given file. An empty path means
// no credential was configured and yields an empty string without error.
func ReadCredential(fs afero.Fs, path string) (string, error) {
	if path == "" {
		return "", nil
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("unable to expand credential path %q: %w", path, err)
	}

	f, err := fs.Open(expanded)
	if err != nil {
		return "", fmt.Errorf("unable to open credential file %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("unable to read credential file %q: %w", path, err)
		}
		return "", fmt.Errorf("credential file %q is empty", path)
	}

	return strings.TrimRight(scanner.Text(), " \t\r\n"), nil
}

// ReadLines returns the non-blank lines of the given file with surrounding whitespace removed.
func ReadLines(fs afero.Fs, path string) ([]string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("unable to expand path %q: %w", path, err)
	}

	f, err := fs.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("unable to open input file %q: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read input file %q: %w", path, err)
	}
	return lines, nil
}
