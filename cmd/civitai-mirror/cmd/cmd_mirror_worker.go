package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"go-civitai-mirror/internal/downloader"
	"go-civitai-mirror/internal/stats"
)

// mirrorWorker drains the job channel: probe, fetch, account, sidecars.
// Every per-item failure is contained here; nothing a worker hits can abort
// the rest of the batch.
func mirrorWorker(id int, m *mirrorRun, wg *sync.WaitGroup) {
	defer wg.Done()
	log.Debugf("Worker %d starting", id)

	for job := range m.jobs {
		base := filepath.Base(job.TargetPath)

		if downloader.FileComplete(job.TargetPath) {
			log.Debugf("Worker %d: %s already present, skipping", id, base)
			m.result.Record(stats.OutcomeSkippedExisting)
			continue
		}

		fmt.Fprintf(m.writer.Newline(), "Worker %d: downloading %s...\n", id, base)
		if err := m.dl.Fetch(job.URL, job.TargetPath, job.Hashes); err != nil {
			if errors.Is(err, downloader.ErrUnauthorized) {
				log.WithError(err).Errorf("Worker %d: %s requires a valid API token", id, base)
			} else {
				log.WithError(err).Errorf("Worker %d: failed to download %s", id, base)
			}
			m.result.RecordFailure(job.Name, job.URL)
			fmt.Fprintf(m.writer.Newline(), "Worker %d: error downloading %s\n", id, base)
			continue
		}

		m.result.Record(stats.OutcomeDownloaded)
		fmt.Fprintf(m.writer.Newline(), "Worker %d: finished %s\n", id, base)

		// Sidecars follow the outcome: only freshly downloaded files get
		// their metadata written, so an unchanged re-run touches nothing.
		m.writeSidecars(job)
	}

	log.Debugf("Worker %d finished", id)
}

func (m *mirrorRun) writeSidecars(job downloadJob) {
	switch job.Kind {
	case jobKindFile:
		if err := m.sidecars.WriteFileRecord(job.ItemDir, job.ModelURL, job.FileName, job.URL); err != nil {
			log.WithError(err).Warnf("Failed to write details record for %s", job.FileName)
		}
		if !m.cfg.SkipTriggerWords {
			if err := m.sidecars.WriteTriggerWords(job.ItemDir, job.TriggerWords); err != nil {
				log.WithError(err).Warnf("Failed to write trigger words for %s", job.FileName)
			}
		}
		if !m.cfg.SkipDescription {
			if err := m.sidecars.WriteDescription(job.ItemDir, job.Description); err != nil {
				log.WithError(err).Warnf("Failed to write description for %s", job.FileName)
			}
		}
	case jobKindImage:
		if err := m.sidecars.WriteImageRecord(job.ItemDir, job.ImageID, job.URL); err != nil {
			log.WithError(err).Warnf("Failed to write details record for image %d", job.ImageID)
		}
	}
}
