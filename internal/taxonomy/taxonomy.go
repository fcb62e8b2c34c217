// Package taxonomy maps the catalog's declared model types onto the fixed
// set of directory categories used to organize the local mirror.
package taxonomy

import (
	"fmt"
	"strings"
	"sync"

	"go-civitai-mirror/internal/helpers"

	log "github.com/sirupsen/logrus"
)

// Category is one of the content-type buckets the mirror sorts items into.
type Category string

const (
	CategoryLora         Category = "Lora"
	CategoryCheckpoints  Category = "Checkpoints"
	CategoryEmbeddings   Category = "Embeddings"
	CategoryTrainingData Category = "Training_Data"
	CategoryOther        Category = "Other"
)

// Categories lists every bucket, in the order reports print them.
var Categories = []Category{
	CategoryCheckpoints,
	CategoryEmbeddings,
	CategoryLora,
	CategoryTrainingData,
	CategoryOther,
}

func (c Category) String() string { return string(c) }

// typeTable is the closed mapping from the API's declared type to a
// category. Anything absent falls back to Other: variant architectures
// (VAE, LoCon, DoRA, ...) have historically been ambiguous and must never
// cause an item to be rejected.
var typeTable = map[string]Category{
	"CHECKPOINT":       CategoryCheckpoints,
	"TEXTUALINVERSION": CategoryEmbeddings,
	"LORA":             CategoryLora,
	"TRAINING_DATA":    CategoryTrainingData,
}

// unseenTypes records classifier misses already logged, once per distinct
// raw type, so a catalog full of one exotic type does not flood the log.
var unseenTypes sync.Map

// Classify maps a declared type string to its category. Total and
// deterministic: the same input always yields the same category.
func Classify(rawType string) Category {
	key := strings.ToUpper(strings.TrimSpace(rawType))
	if c, ok := typeTable[key]; ok {
		return c
	}
	if key != "" {
		if _, logged := unseenTypes.LoadOrStore(key, struct{}{}); !logged {
			log.WithField("type", rawType).Debug("Unrecognized model type, filing under Other")
		}
	}
	return CategoryOther
}

// Subfolder derives the optional base-model path segment for a version.
// Returns "" when the label is absent or sanitizes to nothing, in which case
// the item is stored directly under the category directory.
func Subfolder(baseModel string, maxLen int) string {
	label := strings.TrimSpace(baseModel)
	if label == "" {
		return ""
	}
	seg := helpers.Sanitize(label, maxLen)
	if seg == helpers.Placeholder {
		// A label with no usable characters gets no subfolder at all.
		return ""
	}
	return seg
}

// ParseCategory validates an operator-supplied download-type value.
// Accepts "All" (case-insensitive) or any category name, matching the
// original tool's accepted values.
func ParseCategory(s string) (Category, bool, error) {
	if strings.EqualFold(strings.TrimSpace(s), "All") || strings.TrimSpace(s) == "" {
		return "", true, nil
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, false, nil
		}
	}
	return "", false, fmt.Errorf("invalid download type %q, valid values: Lora, Checkpoints, Embeddings, Training_Data, Other, All", s)
}
