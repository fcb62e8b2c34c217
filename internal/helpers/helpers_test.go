package helpers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-civitai-mirror/internal/models"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain name", "My Model", "My Model"},
		{"forbidden characters", "model<>:\"|?*name", "model_name"},
		{"path separators", "a/b\\c", "a_b_c"},
		{"control characters", "bad\x00\x1fname", "bad_name"},
		{"whitespace collapse", "  spaced \t  name  ", "spaced name"},
		{"underscore runs collapse", "a___b", "a_b"},
		{"leading trailing dots", "..hidden..", "hidden"},
		{"reserved device name", "CON", "untitled"},
		{"reserved name lowercase", "nul", "untitled"},
		{"reserved stem keeps extension", "con.txt", "untitled.txt"},
		{"com port", "COM1", "untitled"},
		{"empty input", "", "untitled"},
		{"only forbidden", "///", "untitled"},
		{"dot", ".", "untitled"},
		{"dot dot", "..", "untitled"},
		{"unicode preserved", "モデル 模型", "モデル 模型"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input, MaxNameLength))
		})
	}
}

func TestSanitizeNeverEmpty(t *testing.T) {
	inputs := []string{"", ".", "..", "...", "///", "\\\\", "???", "   ", "___", "<>:\"|?*"}
	for _, input := range inputs {
		out := Sanitize(input, MaxNameLength)
		assert.NotEmpty(t, out, "input %q", input)
		assert.NotEqual(t, ".", out, "input %q", input)
		assert.NotEqual(t, "..", out, "input %q", input)
	}
}

func TestSanitizeTruncatesStemNotExtension(t *testing.T) {
	name := strings.Repeat("a", 300) + ".safetensors"
	out := Sanitize(name, 200)

	assert.LessOrEqual(t, len(out), 200)
	assert.True(t, strings.HasSuffix(out, ".safetensors"))
}

func TestSanitizeTruncationIsUTF8Safe(t *testing.T) {
	name := strings.Repeat("é", 150) // 300 bytes
	out := Sanitize(name, 100)

	assert.LessOrEqual(t, len(out), 100)
	assert.True(t, utf8.ValidString(out))
}

func TestSanitizeLongNameNoExtension(t *testing.T) {
	out := Sanitize(strings.Repeat("x", 500), 200)
	assert.Equal(t, 200, len(out))
}

func TestSanitizeVersionLabelIsNotAnExtension(t *testing.T) {
	// "v1.5 final" must not lose "5 final" to extension handling.
	out := Sanitize("model v1.5 final", MaxNameLength)
	assert.Equal(t, "model v1.5 final", out)
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		parentDir string
		expected  string
	}{
		{"redundant prefix stripped", "MyModel_v1.safetensors", "MyModel", "v1.safetensors"},
		{"stem equals directory kept", "MyModel.safetensors", "MyModel", "MyModel.safetensors"},
		{"unrelated name untouched", "other.bin", "MyModel", "other.bin"},
		{"no parent dir", "plain.pt", "", "plain.pt"},
		{"stem reduces to nothing falls back", "MyModel_.safetensors", "MyModel_", "MyModel.safetensors"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFileName(tt.input, tt.parentDir, MaxNameLength))
		})
	}
}

func TestCheckHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0600))

	sha := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	crc := "0d4a1185"

	assert.True(t, CheckHash(path, models.Hashes{SHA256: sha}))
	assert.True(t, CheckHash(path, models.Hashes{CRC32: crc}))
	assert.True(t, CheckHash(path, models.Hashes{SHA256: strings.ToUpper(sha)}), "hash comparison is case-insensitive")
	assert.False(t, CheckHash(path, models.Hashes{SHA256: strings.Repeat("0", 64)}))
	assert.False(t, CheckHash(path, models.Hashes{}), "no declared hashes means no match")
	assert.False(t, CheckHash(filepath.Join(dir, "missing.bin"), models.Hashes{SHA256: sha}))
}

func TestCheckHashAnyMatchWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0600))

	// Wrong BLAKE3 but right SHA256 still verifies.
	hashes := models.Hashes{
		BLAKE3: strings.Repeat("f", 64),
		SHA256: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
	}
	assert.True(t, CheckHash(path, hashes))
}

func TestBytesToSize(t *testing.T) {
	tests := []struct {
		bytes    uint64
		expected string
	}{
		{0, "0B"},
		{500, "500.00B"},
		{1024, "1.00KB"},
		{1536, "1.50KB"},
		{1048576, "1.00MB"},
		{1073741824, "1.00GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, BytesToSize(tt.bytes))
	}
}

func TestCounterWriter(t *testing.T) {
	var sb strings.Builder
	cw := &CounterWriter{Writer: &sb}

	n, err := cw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = cw.Write([]byte(" world"))
	require.NoError(t, err)

	assert.Equal(t, uint64(11), cw.Total)
	assert.Equal(t, "hello world", sb.String())
}

func TestCheckAndMakeDir(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")

	assert.True(t, CheckAndMakeDir(nested))
	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent on an existing directory.
	assert.True(t, CheckAndMakeDir(nested))
}
