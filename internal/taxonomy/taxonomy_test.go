package taxonomy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-civitai-mirror/internal/helpers"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		rawType  string
		expected Category
	}{
		{"Checkpoint", CategoryCheckpoints},
		{"CHECKPOINT", CategoryCheckpoints},
		{"checkpoint", CategoryCheckpoints},
		{"TextualInversion", CategoryEmbeddings},
		{"LORA", CategoryLora},
		{"lora", CategoryLora},
		{"TRAINING_DATA", CategoryTrainingData},
		{"  LORA  ", CategoryLora},
		{"VAE", CategoryOther},
		{"LoCon", CategoryOther},
		{"DoRA", CategoryOther},
		{"AestheticGradient", CategoryOther},
		{"", CategoryOther},
		{"no-such-type", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.rawType, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.rawType))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, CategoryOther, Classify("SomethingNew"))
	}
}

func TestSubfolder(t *testing.T) {
	tests := []struct {
		name      string
		baseModel string
		expected  string
	}{
		{"plain label", "SD 1.5", "SD 1.5"},
		{"trimmed", "  SDXL 1.0  ", "SDXL 1.0"},
		{"empty label", "", ""},
		{"whitespace only", "   ", ""},
		{"junk sanitizes to nothing", "///", ""},
		{"forbidden characters replaced", "SD:1.5", "SD_1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Subfolder(tt.baseModel, helpers.MaxNameLength))
		})
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, all, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.False(t, all)
		assert.Equal(t, c, got)
	}

	// Case-insensitive.
	got, all, err := ParseCategory("lora")
	require.NoError(t, err)
	assert.False(t, all)
	assert.Equal(t, CategoryLora, got)

	// "All" and empty mean no filter.
	for _, s := range []string{"All", "all", "ALL", ""} {
		_, all, err := ParseCategory(s)
		require.NoError(t, err)
		assert.True(t, all, "input %q", s)
	}

	_, _, err = ParseCategory("Paintings")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid download type"))
}
