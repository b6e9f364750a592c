package commands

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/application"
	"github.com/anchore/cwe-lookup/internal/file"
	"github.com/anchore/cwe-lookup/internal/log"
	"github.com/anchore/cwe-lookup/pkg/snapshot"
)

func Snapshot(_ *application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "inspect local NVD snapshots",
		Args:  cobra.NoArgs,
	}

	commonConfiguration(nil, cmd, nil)
	return cmd
}

// openSnapshot opens a local snapshot, or downloads a remote one into a temporary directory first. The digest
// is verified when one was recorded next to the snapshot.
func openSnapshot(fs afero.Fs, location string) (snapshot.Reader, func(), error) {
	cleanup := func() {}

	localPath := location
	if file.IsRemote(location) {
		dir, err := os.MkdirTemp("", "cwe-lookup-snapshot-")
		if err != nil {
			return nil, cleanup, fmt.Errorf("unable to create download directory: %w", err)
		}
		cleanup = func() {
			if err := os.RemoveAll(dir); err != nil {
				log.WithFields("dir", dir, "error", err).Warn("unable to remove snapshot download directory")
			}
		}

		localPath, err = downloadSnapshot(file.NewDefaultGetter(), location, dir)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		// the downloaded copy always lives on the OS filesystem
		fs = afero.NewOsFs()
	}

	store := snapshot.NewStore(fs)
	if err := store.Verify(localPath); err != nil {
		if !errors.Is(err, snapshot.ErrNoDigest) {
			cleanup()
			return nil, func() {}, err
		}
		log.WithFields("path", location).Debug("no snapshot digest found, skipping verification")
	}

	reader, err := store.Open(localPath)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	return reader, func() {
		if err := reader.Close(); err != nil {
			log.WithFields("error", err).Warn("unable to close snapshot")
		}
		cleanup()
	}, nil
}

// downloadSnapshot fetches the snapshot (and its digest, when published) into the given directory, keeping the
// file name so the format can still be told from the extension.
func downloadSnapshot(getter file.Getter, location, dir string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid snapshot URL %q: %w", location, err)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = "snapshot.json"
	}
	dst := filepath.Join(dir, name)

	mon := progress.NewManual(-1)
	if err := getter.GetFile(dst, location, mon); err != nil {
		return "", fmt.Errorf("unable to download snapshot %q: %w", location, err)
	}
	mon.SetCompleted()

	digestURL := *u
	digestURL.Path += snapshot.DigestSuffix
	if err := getter.GetFileOnce(dst+snapshot.DigestSuffix, digestURL.String()); err != nil {
		log.WithFields("url", digestURL.String()).Debug("no snapshot digest published")
	}

	return dst, nil
}
