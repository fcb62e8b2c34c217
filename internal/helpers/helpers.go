package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go-civitai-mirror/internal/models"

	log "github.com/sirupsen/logrus"
	"lukechampine.com/blake3"
)

// MaxNameLength is the default byte limit for one path segment. The exact
// filesystem threshold is platform-dependent; this constant is deliberately
// conservative and overridable through the config.
const MaxNameLength = 200

// Placeholder is substituted when a name sanitizes to nothing.
const Placeholder = "untitled"

// Windows reserved device names, rejected on every platform so a mirrored
// tree stays portable.
var reservedNames = func() map[string]struct{} {
	names := []string{"CON", "PRN", "AUX", "NUL"}
	for i := 1; i <= 9; i++ {
		names = append(names, fmt.Sprintf("COM%d", i), fmt.Sprintf("LPT%d", i))
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}()

func forbiddenRune(r rune) bool {
	switch r {
	case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
		return true
	}
	return r < 0x20 || r == 0x7f
}

// splitExt separates a plausible file extension from a name. Extensions
// longer than 15 bytes or containing spaces are treated as part of the stem
// ("v1.5 final" has no extension).
func splitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	if ext == name || len(ext) > 16 || strings.ContainsAny(ext, " \t") {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// Sanitize converts arbitrary text into a filesystem-safe path segment no
// longer than maxLen bytes. Forbidden characters become underscores,
// whitespace runs collapse, reserved device names are replaced, and when the
// name carries an extension the stem is truncated rather than the suffix.
// Never returns an empty string, ".", or "..".
func Sanitize(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = MaxNameLength
	}

	stem, ext := splitExt(name)

	var b strings.Builder
	for _, r := range stem {
		switch {
		case forbiddenRune(r):
			b.WriteRune('_')
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	stem = strings.Join(strings.Fields(b.String()), " ")

	for strings.Contains(stem, "__") {
		stem = strings.ReplaceAll(stem, "__", "_")
	}
	stem = strings.Trim(stem, "_. ")

	if _, reserved := reservedNames[strings.ToUpper(stem)]; reserved {
		stem = Placeholder
	}

	// Sanitize the extension too; a hostile "extension" must not smuggle
	// separators back in.
	if ext != "" {
		cleanExt := strings.Map(func(r rune) rune {
			if forbiddenRune(r) {
				return -1
			}
			return r
		}, ext)
		if cleanExt == "." || cleanExt == "" {
			cleanExt = ""
		}
		ext = cleanExt
	}

	// Truncate the stem, never the extension.
	budget := maxLen - len(ext)
	if budget < 1 {
		ext = ""
		budget = maxLen
	}
	for len(stem) > budget {
		_, size := decodeLastRune(stem)
		stem = stem[:len(stem)-size]
	}
	stem = strings.Trim(stem, "_. ")

	out := stem + ext
	if stem == "" || out == "." || out == ".." {
		out = Placeholder
		if len(out)+len(ext) <= maxLen {
			out += ext
		}
	}
	return out
}

func decodeLastRune(s string) (rune, int) {
	for i := len(s) - 1; i >= 0; i-- {
		if (s[i] & 0xC0) != 0x80 {
			return rune(s[i]), len(s) - i
		}
	}
	return rune(s[0]), len(s)
}

// SanitizeFileName sanitizes a declared file name destined for the item
// directory parentDir. A redundant parent-directory prefix is stripped from
// the stem, except when the stem equals the directory name outright: that
// exact match is legitimate and stripping it was a prior defect.
func SanitizeFileName(name, parentDir string, maxLen int) string {
	stem, ext := splitExt(name)
	if parentDir != "" && stem != parentDir && strings.Contains(stem, parentDir) {
		stem = strings.Trim(strings.ReplaceAll(stem, parentDir, ""), "_ ")
		if stem == "" {
			stem = parentDir
		}
	}
	return Sanitize(stem+ext, maxLen)
}

// CheckHash verifies a file against the API-declared hashes (BLAKE3, CRC32,
// SHA256). Returns true if any provided hash matches.
func CheckHash(path string, hashes models.Hashes) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warnf("Error reading %s for hash check", path)
		}
		return false
	}

	if hashes.BLAKE3 != "" {
		sum := blake3.Sum256(data)
		if strings.EqualFold(hex.EncodeToString(sum[:]), strings.TrimSpace(hashes.BLAKE3)) {
			log.WithField("hash", "BLAKE3").Debugf("Hash match for %s", path)
			return true
		}
	}

	if hashes.CRC32 != "" {
		sum := fmt.Sprintf("%08x", crc32.ChecksumIEEE(data))
		if strings.EqualFold(sum, strings.TrimSpace(hashes.CRC32)) {
			log.WithField("hash", "CRC32").Debugf("Hash match for %s", path)
			return true
		}
	}

	if hashes.SHA256 != "" {
		sum := sha256.Sum256(data)
		if strings.EqualFold(hex.EncodeToString(sum[:]), strings.TrimSpace(hashes.SHA256)) {
			log.WithField("hash", "SHA256").Debugf("Hash match for %s", path)
			return true
		}
	}

	return false
}

// CounterWriter tracks the number of bytes written to the underlying writer,
// used for progress reporting.
type CounterWriter struct {
	Total  uint64
	Writer io.Writer
}

func (cw *CounterWriter) Write(p []byte) (int, error) {
	n, err := cw.Writer.Write(p)
	cw.Total += uint64(n)
	return n, err
}

// BytesToSize converts a byte count into a human-readable string.
func BytesToSize(bytes uint64) string {
	sizes := []string{"B", "KB", "MB", "GB", "TB"}
	if bytes == 0 {
		return "0B"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	return fmt.Sprintf("%.2f%s", float64(bytes)/math.Pow(1024, float64(i)), sizes[i])
}

// CheckAndMakeDir ensures a directory exists, creating it if necessary.
func CheckAndMakeDir(dir string) bool {
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.WithError(err).Errorf("Error creating directory %s", dir)
		return false
	}
	return true
}
