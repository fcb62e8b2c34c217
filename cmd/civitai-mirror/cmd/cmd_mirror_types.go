package cmd

import "go-civitai-mirror/internal/models"

type jobKind int

const (
	jobKindFile jobKind = iota
	jobKindImage
)

// downloadJob is one transfer handed to the worker pool. Everything a worker
// needs to finish the file and its sidecars travels with the job.
type downloadJob struct {
	Kind       jobKind
	Name       string // item display name, used in the failure ledger
	URL        string
	TargetPath string
	ItemDir    string

	// File jobs
	ModelURL     string
	FileName     string // as declared by the API, for the details record
	Hashes       models.Hashes
	TriggerWords []string
	Description  string

	// Image jobs
	ImageID int
}
