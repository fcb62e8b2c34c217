// Package downloader streams individual artifacts to disk with retry and
// atomic finalization: the final path only ever holds a complete file.
package downloader

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go-civitai-mirror/internal/helpers"
	"go-civitai-mirror/internal/models"
	"go-civitai-mirror/internal/retry"

	log "github.com/sirupsen/logrus"
)

// Custom downloader errors.
var (
	ErrUnauthorized = errors.New("download unauthorized (content may require an API token)")
	ErrNotFound     = errors.New("file not found on server")
	ErrHttpStatus   = errors.New("unexpected HTTP status code")
	ErrFileSystem   = errors.New("filesystem error")
	ErrHashMismatch = errors.New("downloaded file hash mismatch")
)

// TempSuffix marks in-flight downloads. A lingering temp file from an
// interrupted run is treated as absent and overwritten.
const TempSuffix = ".tmp"

// FileComplete reports whether the final (non-temporary) file already exists
// at path with a non-zero size. This probe is the basis of idempotent
// re-runs.
func FileComplete(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// Downloader fetches files with bearer auth, the shared retry policy, and
// temp-file + rename finalization.
type Downloader struct {
	client       *http.Client
	token        string
	policy       retry.Policy
	verifyHashes bool
}

func New(client *http.Client, token string, policy retry.Policy, verifyHashes bool) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Minute}
	}
	return &Downloader{client: client, token: token, policy: policy, verifyHashes: verifyHashes}
}

// Fetch streams url to targetPath. The body is written to targetPath+".tmp"
// and atomically renamed on success, so no observer ever sees a partial file
// at the final name. A failed attempt discards the temp file and the whole
// file is retried (no byte-range resume). Authorization failures are not
// retried.
func (d *Downloader) Fetch(url, targetPath string, hashes models.Hashes) error {
	targetDir := filepath.Dir(targetPath)
	if !helpers.CheckAndMakeDir(targetDir) {
		return retry.Terminal(fmt.Errorf("%w: failed to create directory %s", ErrFileSystem, targetDir))
	}

	return d.policy.Do(fmt.Sprintf("download %s", filepath.Base(targetPath)), func() error {
		return d.fetchOnce(url, targetPath, hashes)
	})
}

func (d *Downloader) fetchOnce(url, targetPath string, hashes models.Hashes) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return retry.Terminal(fmt.Errorf("creating download request for %s: %w", url, err))
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("performing request for %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return retry.Terminal(fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return retry.Terminal(fmt.Errorf("%w: %s", ErrNotFound, url))
	default:
		// 429 and 5xx, but also any other surprise: retry.
		return fmt.Errorf("%w: received status %d", ErrHttpStatus, resp.StatusCode)
	}

	tempPath := targetPath + TempSuffix
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return retry.Terminal(fmt.Errorf("%w: creating temporary file %s: %v", ErrFileSystem, tempPath, err))
	}

	counter := &helpers.CounterWriter{Writer: tempFile}
	_, copyErr := io.Copy(counter, resp.Body)
	closeErr := tempFile.Close()

	if copyErr != nil || closeErr != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) {
			log.WithError(removeErr).Warnf("Failed to remove temporary file %s", tempPath)
		}
		if copyErr != nil {
			return fmt.Errorf("writing temporary file %s: %w", tempPath, copyErr)
		}
		return fmt.Errorf("%w: closing temporary file %s: %v", ErrFileSystem, tempPath, closeErr)
	}

	if d.verifyHashes && hashesProvided(hashes) {
		if !helpers.CheckHash(tempPath, hashes) {
			os.Remove(tempPath)
			return fmt.Errorf("%w: %s", ErrHashMismatch, targetPath)
		}
		log.Debugf("Hash verified for %s", tempPath)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return retry.Terminal(fmt.Errorf("%w: renaming %s to %s: %v", ErrFileSystem, tempPath, targetPath, err))
	}

	log.Debugf("Downloaded %s (%s)", targetPath, helpers.BytesToSize(counter.Total))
	return nil
}

func hashesProvided(h models.Hashes) bool {
	return h.SHA256 != "" || h.BLAKE3 != "" || h.CRC32 != "" || h.AutoV2 != ""
}
