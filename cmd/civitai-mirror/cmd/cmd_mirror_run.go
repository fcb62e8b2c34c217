package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gosuri/uilive"
	log "github.com/sirupsen/logrus"

	"go-civitai-mirror/internal/api"
	"go-civitai-mirror/internal/downloader"
	"go-civitai-mirror/internal/helpers"
	"go-civitai-mirror/internal/models"
	"go-civitai-mirror/internal/sidecar"
	"go-civitai-mirror/internal/stats"
	"go-civitai-mirror/internal/taxonomy"
)

// mirrorRun carries the state for one username's traversal. Dispatch runs on
// a single goroutine; only the RunResult and the sidecar writer are shared
// with the workers.
type mirrorRun struct {
	cfg      models.Config
	dl       *downloader.Downloader
	username string
	userRoot string

	filter taxonomy.Category
	all    bool

	jobs     chan downloadJob
	result   *stats.RunResult
	sidecars *sidecar.Writer
	writer   *uilive.Writer

	seenModels  map[int]bool
	claimedDirs map[string]int // item directory -> owning model ID
}

// mirrorUser runs the full pipeline for one username: paginate, classify,
// probe, download, account. Pagination runs strictly ahead of dispatch; the
// unbuffered job channel blocks dispatch while all workers are busy, which
// is the backpressure that keeps at most MaxThreads transfers in flight.
func mirrorUser(cfg models.Config, client *api.Client, dl *downloader.Downloader, username string) (stats.Summary, error) {
	filter, all, err := taxonomy.ParseCategory(cfg.DownloadType)
	if err != nil {
		return stats.Summary{}, err
	}

	safeUser := helpers.Sanitize(username, cfg.MaxNameLength)
	m := &mirrorRun{
		cfg:         cfg,
		dl:          dl,
		username:    username,
		userRoot:    filepath.Join(cfg.SavePath, safeUser),
		filter:      filter,
		all:         all,
		jobs:        make(chan downloadJob),
		result:      stats.NewRunResult(username),
		sidecars:    sidecar.NewWriter(),
		writer:      uilive.New(),
	}
	m.seenModels = make(map[int]bool)
	m.claimedDirs = make(map[string]int)

	m.writer.Start()
	defer m.writer.Stop()

	var wg sync.WaitGroup
	for w := 1; w <= cfg.MaxThreads; w++ {
		wg.Add(1)
		go mirrorWorker(w, m, &wg)
	}

	paginator := api.NewPaginator(client, cfg.MaxPages)
	pages, pageErr := paginator.Run(username, func(page api.ApiPage) error {
		log.Infof("Processing page %d for %s (%d item(s))", page.Number, username, len(page.Response.Items))
		for _, model := range page.Response.Items {
			m.dispatchModel(model)
		}
		return nil
	})

	close(m.jobs)
	wg.Wait()

	if pageErr != nil {
		log.WithError(pageErr).Warnf("Traversal for %s ended early after %d completed page(s); results cover what was yielded", username, pages)
	}

	summary := m.result.Snapshot()
	if err := writeFailureLedger(cfg.SavePath, safeUser, summary); err != nil {
		log.WithError(err).Warnf("Failed to write failure ledger for %s", username)
	}
	return summary, nil
}

// dispatchModel classifies one catalog item and enqueues its download
// candidates. Items repeated across pages are processed once per run.
func (m *mirrorRun) dispatchModel(model models.Model) {
	if m.seenModels[model.ID] {
		return
	}
	m.seenModels[model.ID] = true

	category := taxonomy.Classify(model.Type)
	modelURL := models.ModelURL(model.ID)
	itemName := helpers.Sanitize(model.Name, m.cfg.MaxNameLength)

	for _, version := range model.ModelVersions {
		files, images := validEntries(version, m.cfg.SkipImages)

		if !m.all && category != m.filter {
			// Excluded by the operator's type filter: no directory, no
			// network, but every would-be candidate is still accounted for.
			for range files {
				m.result.Record(stats.OutcomeSkippedByTypeFilter)
			}
			for range images {
				m.result.Record(stats.OutcomeSkippedByTypeFilter)
			}
			continue
		}

		subfolder := taxonomy.Subfolder(version.BaseModel, m.cfg.MaxNameLength)
		dir := m.itemDir(category, subfolder, itemName, model.ID)

		imageBase := itemName
		for _, file := range files {
			fileName := helpers.SanitizeFileName(file.Name, itemName, m.cfg.MaxNameLength)
			if imageBase == itemName {
				imageBase = strings.TrimSuffix(fileName, filepath.Ext(fileName))
			}
			m.jobs <- downloadJob{
				Kind:         jobKindFile,
				Name:         model.Name,
				URL:          file.DownloadUrl,
				TargetPath:   filepath.Join(dir, fileName),
				ItemDir:      dir,
				ModelURL:     modelURL,
				FileName:     file.Name,
				Hashes:       file.Hashes,
				TriggerWords: version.TrainedWords,
				Description:  version.Description,
			}
		}

		for _, image := range images {
			raw := fmt.Sprintf("%s_%d_for_%s.jpeg", model.Name, image.ID, imageBase)
			imageName := helpers.SanitizeFileName(raw, itemName, m.cfg.MaxNameLength)
			m.jobs <- downloadJob{
				Kind:       jobKindImage,
				Name:       model.Name,
				URL:        image.URL,
				TargetPath: filepath.Join(dir, imageName),
				ItemDir:    dir,
				ModelURL:   modelURL,
				ImageID:    image.ID,
			}
		}
	}
}

// validEntries filters out entries the API declared without a name/ID or
// URL; they are not download candidates.
func validEntries(version models.ModelVersion, skipImages bool) ([]models.File, []models.ModelImage) {
	var files []models.File
	for _, f := range version.Files {
		if f.Name == "" || f.DownloadUrl == "" {
			log.Warnf("Invalid file entry in version %d, skipping", version.ID)
			continue
		}
		files = append(files, f)
	}
	if skipImages {
		return files, nil
	}
	var images []models.ModelImage
	for _, img := range version.Images {
		if img.ID == 0 || img.URL == "" {
			log.Warnf("Invalid image entry in version %d, skipping", version.ID)
			continue
		}
		images = append(images, img)
	}
	return files, images
}

// itemDir claims the target directory for an item. Two distinct items whose
// sanitized names collide under the same category and base model get a
// numeric suffix on the later one instead of silently merging.
func (m *mirrorRun) itemDir(category taxonomy.Category, subfolder, itemName string, modelID int) string {
	base := filepath.Join(m.userRoot, category.String())
	if subfolder != "" {
		base = filepath.Join(base, subfolder)
	}

	dir := filepath.Join(base, itemName)
	owner, claimed := m.claimedDirs[dir]
	if !claimed {
		m.claimedDirs[dir] = modelID
		return dir
	}
	if owner == modelID {
		return dir
	}

	for n := 2; ; n++ {
		candidate := filepath.Join(base, fmt.Sprintf("%s_%d", itemName, n))
		owner, claimed := m.claimedDirs[candidate]
		if !claimed {
			log.Warnf("Item name collision under %s, using %s", base, filepath.Base(candidate))
			m.claimedDirs[candidate] = modelID
			return candidate
		}
		if owner == modelID {
			return candidate
		}
	}
}

// writeFailureLedger persists the (name, URL) pairs of permanently failed
// downloads for manual follow-up. Written every run so a clean run leaves an
// empty ledger rather than a stale one.
func writeFailureLedger(savePath, safeUser string, summary stats.Summary) error {
	path := filepath.Join(savePath, fmt.Sprintf("failed_downloads_%s.txt", safeUser))
	var b strings.Builder
	fmt.Fprintf(&b, "Failed Downloads for Username: %s\n\n", summary.Username)
	for _, f := range summary.Failures {
		fmt.Fprintf(&b, "Item Name: %s\nURL: %s\n---\n", f.Name, f.URL)
	}
	return os.WriteFile(path, []byte(b.String()), 0600)
}
