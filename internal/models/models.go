package models

import "fmt"

type (
	// Config holds the validated run configuration shared by every component.
	// Loaded from config.toml and overridden by CLI flags; treated as
	// immutable once a run starts.
	Config struct {
		// Connection/Auth
		ApiKey string `toml:"ApiKey"`

		// Paths
		SavePath string `toml:"SavePath"`

		// Mirror behavior
		DownloadType string `toml:"DownloadType"` // "All" or one category name
		MaxThreads   int    `toml:"MaxThreads"`
		MaxTries     int    `toml:"MaxTries"`
		RetryDelay   int    `toml:"RetryDelay"` // seconds between attempts
		MaxPages     int    `toml:"MaxPages"`

		// API client behavior
		ApiClientTimeoutSec  int `toml:"ApiClientTimeoutSec"`
		ApiRequestsPerSecond int `toml:"ApiRequestsPerSecond"`

		// Naming
		MaxNameLength int `toml:"MaxNameLength"`

		// Sidecar artifacts
		SkipImages       bool `toml:"SkipImages"`
		SkipDescription  bool `toml:"SkipDescription"`
		SkipTriggerWords bool `toml:"SkipTriggerWords"`
		VerifyHashes     bool `toml:"VerifyHashes"`

		// Other
		LogApiRequests bool `toml:"LogApiRequests"`
	}

	// Model is one catalog item from the listing endpoint.
	Model struct {
		ID            int            `json:"id"`
		Name          string         `json:"name"`
		Description   string         `json:"description"`
		Type          string         `json:"type"`
		Nsfw          bool           `json:"nsfw"`
		Stats         Stats          `json:"stats"`
		Creator       Creator        `json:"creator"`
		Tags          []string       `json:"tags"`
		ModelVersions []ModelVersion `json:"modelVersions"`
	}

	Stats struct {
		DownloadCount int     `json:"downloadCount"`
		FavoriteCount int     `json:"favoriteCount"`
		CommentCount  int     `json:"commentCount"`
		RatingCount   int     `json:"ratingCount"`
		Rating        float64 `json:"rating"`
	}

	Creator struct {
		Username string `json:"username"`
		Image    string `json:"image"`
	}

	ModelVersion struct {
		ID           int          `json:"id"`
		ModelId      int          `json:"modelId"`
		Name         string       `json:"name"`
		PublishedAt  string       `json:"publishedAt"`
		TrainedWords []string     `json:"trainedWords"`
		BaseModel    string       `json:"baseModel"`
		Description  string       `json:"description"`
		Files        []File       `json:"files"`
		Images       []ModelImage `json:"images"`
		DownloadUrl  string       `json:"downloadUrl"`
	}

	File struct {
		ID          int     `json:"id"`
		Name        string  `json:"name"`
		SizeKB      float64 `json:"sizeKB"` // advisory only, never used for completion checks
		Type        string  `json:"type"`
		Hashes      Hashes  `json:"hashes"`
		DownloadUrl string  `json:"downloadUrl"`
		Primary     bool    `json:"primary"`
	}

	Hashes struct {
		AutoV2 string `json:"AutoV2"`
		SHA256 string `json:"SHA256"`
		CRC32  string `json:"CRC32"`
		BLAKE3 string `json:"BLAKE3"`
	}

	ModelImage struct {
		ID     int    `json:"id"`
		URL    string `json:"url"`
		Hash   string `json:"hash"` // Blurhash
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Nsfw   bool   `json:"nsfw"`
	}

	ApiResponse struct {
		Items    []Model            `json:"items"`
		Metadata PaginationMetadata `json:"metadata"`
	}

	PaginationMetadata struct {
		TotalItems  int    `json:"totalItems"`
		CurrentPage int    `json:"currentPage"`
		PageSize    int    `json:"pageSize"`
		TotalPages  int    `json:"totalPages"`
		NextPage    string `json:"nextPage"`
		PrevPage    string `json:"prevPage"`
	}
)

// ModelURL returns the public page URL for a catalog item, used in the
// details sidecar and the failure ledger.
func ModelURL(modelID int) string {
	return fmt.Sprintf("https://civitai.com/models/%d", modelID)
}
