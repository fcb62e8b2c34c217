// Package sidecar writes the metadata artifacts that accompany each fetched
// file: the details record, the trigger-word list, and the description
// document. Sidecars are only written when a download freshly completed;
// files skipped as already existing leave every sidecar untouched, which
// keeps re-runs from rewriting the whole tree.
package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	DetailsFileName      = "details.txt"
	TriggerWordsFileName = "triggerWords.txt"
	DescriptionFileName  = "description.html"
)

// Writer serializes sidecar writes across the worker pool. Several workers
// can finish files of the same item concurrently and the details file is
// shared between them.
type Writer struct {
	mu sync.Mutex
}

func NewWriter() *Writer {
	return &Writer{}
}

// WriteFileRecord appends the record for a freshly downloaded model file to
// the item's details file.
func (w *Writer) WriteFileRecord(itemDir, modelURL, fileName, fileURL string) error {
	record := fmt.Sprintf("Model URL: %s\nFile Name: %s\nFile URL: %s\n", modelURL, fileName, fileURL)
	return w.appendDetails(itemDir, record)
}

// WriteImageRecord appends the record for a freshly downloaded preview image.
func (w *Writer) WriteImageRecord(itemDir string, imageID int, imageURL string) error {
	record := fmt.Sprintf("Image ID: %d\nImage URL: %s\n", imageID, imageURL)
	return w.appendDetails(itemDir, record)
}

func (w *Writer) appendDetails(itemDir, record string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(itemDir, DetailsFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(record); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteTriggerWords overwrites the item's trigger-word list, one word per
// line. Versions without trigger words get no file.
func (w *Writer) WriteTriggerWords(itemDir string, words []string) error {
	if len(words) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(itemDir, TriggerWordsFileName)
	content := strings.Join(words, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteDescription overwrites the version's description as a standalone
// markup document. Empty descriptions get no file.
func (w *Writer) WriteDescription(itemDir, description string) error {
	if strings.TrimSpace(description) == "" {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(itemDir, DescriptionFileName)
	if err := os.WriteFile(path, []byte(description), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
