package sidecar

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileRecordAppends(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()

	require.NoError(t, w.WriteFileRecord(dir, "https://civitai.com/models/42", "model.safetensors", "https://civitai.com/api/download/models/1"))
	require.NoError(t, w.WriteImageRecord(dir, 7, "https://image.example/7.jpeg"))

	data, err := os.ReadFile(filepath.Join(dir, DetailsFileName))
	require.NoError(t, err)
	expected := "Model URL: https://civitai.com/models/42\n" +
		"File Name: model.safetensors\n" +
		"File URL: https://civitai.com/api/download/models/1\n" +
		"Image ID: 7\n" +
		"Image URL: https://image.example/7.jpeg\n"
	assert.Equal(t, expected, string(data))
}

func TestWriteTriggerWords(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()

	require.NoError(t, w.WriteTriggerWords(dir, []string{"forest", "green hair"}))
	data, err := os.ReadFile(filepath.Join(dir, TriggerWordsFileName))
	require.NoError(t, err)
	assert.Equal(t, "forest\ngreen hair\n", string(data))

	// Overwrite, not append.
	require.NoError(t, w.WriteTriggerWords(dir, []string{"ocean"}))
	data, err = os.ReadFile(filepath.Join(dir, TriggerWordsFileName))
	require.NoError(t, err)
	assert.Equal(t, "ocean\n", string(data))
}

func TestWriteTriggerWordsSkipsEmpty(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()

	require.NoError(t, w.WriteTriggerWords(dir, nil))
	_, err := os.Stat(filepath.Join(dir, TriggerWordsFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteDescription(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()

	require.NoError(t, w.WriteDescription(dir, "<p>A model.</p>"))
	data, err := os.ReadFile(filepath.Join(dir, DescriptionFileName))
	require.NoError(t, err)
	assert.Equal(t, "<p>A model.</p>", string(data))
}

func TestWriteDescriptionSkipsBlank(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()

	require.NoError(t, w.WriteDescription(dir, "   \n\t"))
	_, err := os.Stat(filepath.Join(dir, DescriptionFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestConcurrentAppendsAllLand(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, w.WriteImageRecord(dir, n, "https://image.example/x.jpeg"))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(dir, DetailsFileName))
	require.NoError(t, err)
	assert.Equal(t, 40, countLines(string(data)), "each record contributes two lines")
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
