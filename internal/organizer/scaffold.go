package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
	"github.com/psych-ds/psychds-r-sub001/internal/fileutil"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/textutil"
)

// Scaffold creates an empty dataset skeleton at dir: the data/ directory,
// the configured optional subdirectories, README.md, CHANGES.md, and a
// template dataset_description.json carrying the name and default license.
// It refuses to scaffold over an existing description.
func (o *Organizer) Scaffold(dir, name string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return services.Wrap(services.ErrValidation, "organizer", "scaffold", "No target directory provided", nil)
	}
	descPath := filepath.Join(dir, dataset.DescriptionFileName)
	if fileutil.PathExists(descPath) {
		return services.Wrap(
			services.ErrValidation,
			"organizer",
			"scaffold",
			fmt.Sprintf("%s already contains %s", dir, dataset.DescriptionFileName),
			nil,
		)
	}

	dirs := []string{filepath.Join(dir, dataset.DataDirName)}
	for _, sub := range o.cfg.Wizard.OptionalDirs {
		dirs = append(dirs, filepath.Join(dir, sub))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return services.Wrap(services.ErrTransient, "organizer", "scaffold", fmt.Sprintf("Failed to create %s", d), err)
		}
	}

	displayName := strings.TrimSpace(name)
	if displayName == "" {
		displayName = filepath.Base(dir)
	}
	if err := writeIfAbsent(filepath.Join(dir, "README.md"), readmeContent(displayName)); err != nil {
		return services.Wrap(services.ErrTransient, "organizer", "scaffold", "Failed to write README.md", err)
	}
	if err := writeIfAbsent(filepath.Join(dir, "CHANGES.md"), changesContent()); err != nil {
		return services.Wrap(services.ErrTransient, "organizer", "scaffold", "Failed to write CHANGES.md", err)
	}

	template := dataset.NewDescriptionTemplate(displayName)
	template.License = o.cfg.Wizard.DefaultLicense
	if err := dataset.WriteDescription(dir, template); err != nil {
		return services.Wrap(services.ErrTransient, "organizer", "scaffold", "Failed to write dataset description", err)
	}

	o.logger.Info("dataset skeleton created",
		logging.String("dir", dir),
		logging.String("name", displayName))
	return nil
}

func writeIfAbsent(path, content string) error {
	if fileutil.PathExists(path) {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func readmeContent(name string) string {
	slug := textutil.Slug(name)
	return fmt.Sprintf(`# %s

Tabular data lives under data/ and follows keyword-value file naming,
for example study-%s_data.csv. Describe the dataset by editing
dataset_description.json.
`, name, slug)
}

func changesContent() string {
	return `# Changes

## 1.0.0

- Initial scaffold.
`
}
