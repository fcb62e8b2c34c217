package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"go-civitai-mirror/internal/api"
	"go-civitai-mirror/internal/helpers"
	"go-civitai-mirror/internal/models"
	"go-civitai-mirror/internal/taxonomy"
)

// otherItem carries the raw API type alongside the name so the report can
// show what the unclassified item actually was.
type otherItem struct {
	Name string
	Type string
}

// catalogReport is the categorized view of one creator's catalog.
type catalogReport struct {
	Username string
	Items    map[taxonomy.Category][]string
	Others   []otherItem
}

// Total counts every listed item across categories.
func (r *catalogReport) Total() int {
	total := 0
	for _, items := range r.Items {
		total += len(items)
	}
	return total
}

// buildCatalogReport traverses the catalog and buckets every item by its
// classified category. Training-data archives attached to versions of
// non-training items are listed under Training_Data as well, since they do
// not appear as catalog items of their own.
func buildCatalogReport(client *api.Client, cfg models.Config, username string) (*catalogReport, error) {
	report := &catalogReport{
		Username: username,
		Items:    make(map[taxonomy.Category][]string),
	}

	paginator := api.NewPaginator(client, cfg.MaxPages)
	pages, err := paginator.Run(username, func(page api.ApiPage) error {
		log.Debugf("Summarizing page %d for %s (%d item(s))", page.Number, username, len(page.Response.Items))
		for _, model := range page.Response.Items {
			report.addModel(model)
		}
		return nil
	})
	if err != nil {
		if pages == 0 {
			return nil, err
		}
		log.WithError(err).Warnf("Traversal for %s ended early after %d completed page(s); report covers what was yielded", username, pages)
	}
	return report, nil
}

func (r *catalogReport) addModel(model models.Model) {
	category := taxonomy.Classify(model.Type)
	r.Items[category] = append(r.Items[category], model.Name)
	if category == taxonomy.CategoryOther {
		r.Others = append(r.Others, otherItem{Name: model.Name, Type: model.Type})
	}

	for _, version := range model.ModelVersions {
		for _, file := range version.Files {
			if file.Type == "Training Data" && file.Name != "" {
				r.Items[taxonomy.CategoryTrainingData] = append(r.Items[taxonomy.CategoryTrainingData], file.Name)
			}
		}
	}
}

// Format renders the report: counts first, then the full listing. Other
// items additionally show the raw type the API declared.
func (r *catalogReport) Format() string {
	var b strings.Builder
	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "Total - Count: %d\n", r.Total())
	for _, category := range taxonomy.Categories {
		fmt.Fprintf(&b, "%s - Count: %d\n", category, len(r.Items[category]))
	}

	b.WriteString("\nDetailed Listing:\n")
	for _, category := range taxonomy.Categories {
		fmt.Fprintf(&b, "\n%s:\n", category)
		if category == taxonomy.CategoryOther {
			for _, item := range r.Others {
				fmt.Fprintf(&b, "  %s - Type: %s\n", item.Name, item.Type)
			}
			continue
		}
		for _, name := range r.Items[category] {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	return b.String()
}

// WriteFile writes the report to <dir>/<safeUsername>.txt atomically: the
// content lands in a temp file first and replaces any previous report in
// one rename, so a crash never leaves a truncated report behind.
func (r *catalogReport) WriteFile(dir string, maxNameLen int) (string, error) {
	safeUser := helpers.Sanitize(r.Username, maxNameLen)
	path := filepath.Join(dir, safeUser+".txt")

	tmp, err := os.CreateTemp(dir, safeUser+".*.tmp")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(r.Format()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return path, nil
}
