package validation

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/scan"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
)

//go:embed schema/dataset_description_schema.json
var defaultSchema []byte

// Rule names reported by Check.
const (
	RuleDescriptionPresent = "description-present"
	RuleDescriptionSchema  = "description-schema"
	RuleDataDirectory      = "data-directory"
	RuleDataFiles          = "data-files"
	RuleFileNames          = "file-names"
	RuleManifest           = "manifest"
)

// CheckResult is the outcome of one conformance rule.
type CheckResult struct {
	Rule   string `json:"rule"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Report is the full validation verdict for a dataset tree.
type Report struct {
	Valid  bool          `json:"valid"`
	Checks []CheckResult `json:"checks"`
}

func (r *Report) add(rule string, passed bool, detail string) {
	r.Checks = append(r.Checks, CheckResult{Rule: rule, Passed: passed, Detail: detail})
	if !passed {
		r.Valid = false
	}
}

// Keyword-value file names: one or more key-value pairs joined by
// underscores, then a suffix, all lowercase alphanumeric.
var fileNamePattern = regexp.MustCompile(`^[a-z0-9]+-[a-z0-9]+(?:_[a-z0-9]+-[a-z0-9]+)*_[a-z0-9]+\.[a-z0-9]+$`)

// ValidFileName reports whether a data file base name follows the
// keyword-value convention, e.g. study-mem_subject-01_data.csv.
func ValidFileName(name string) bool {
	return fileNamePattern.MatchString(name)
}

// Validator runs the conformance checks against a dataset file tree.
type Validator struct {
	schema          *gojsonschema.Schema
	requireManifest bool
	logger          *slog.Logger
}

// NewValidator compiles the description schema. The embedded default is used
// unless validator.schema_path points at an override.
func NewValidator(cfg *config.Config, logger *slog.Logger) (*Validator, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	data := defaultSchema
	source := "embedded"
	if override := strings.TrimSpace(cfg.Validator.SchemaPath); override != "" {
		raw, err := os.ReadFile(override)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "validator", "load schema", "reading schema override", err)
		}
		data = raw
		source = override
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "validator", "compile schema", "compiling description schema", err)
	}
	logger.Debug("description schema compiled", logging.String("source", source))
	return &Validator{
		schema:          schema,
		requireManifest: cfg.Validator.RequireManifest,
		logger:          logging.NewComponentLogger(logger, "validator"),
	}, nil
}

// Check evaluates every conformance rule against the tree. Rule failures are
// report entries, not errors; only an unusable engine or canceled context
// returns an error.
func (v *Validator) Check(ctx context.Context, tree FileTree) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{Valid: true}

	v.checkDescription(report, tree)
	v.checkDataDir(report, tree)
	v.checkFileNames(report, tree)
	v.checkManifest(report, tree)

	v.logger.Info("validation finished",
		logging.Bool("valid", report.Valid),
		logging.Int("checks", len(report.Checks)))
	return report, nil
}

func (v *Validator) checkDescription(report *Report, tree FileTree) {
	entry := tree.File(dataset.DescriptionFileName)
	if entry == nil {
		report.add(RuleDescriptionPresent, false, dataset.DescriptionFileName+" is missing")
		report.add(RuleDescriptionSchema, false, "not checked: description file missing")
		return
	}
	report.add(RuleDescriptionPresent, true, "")

	raw, err := tree.ReadFile(dataset.DescriptionFileName)
	if err != nil {
		report.add(RuleDescriptionSchema, false, fmt.Sprintf("reading %s: %v", dataset.DescriptionFileName, err))
		return
	}
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		report.add(RuleDescriptionSchema, false, fmt.Sprintf("description is not valid JSON: %v", err))
		return
	}
	if result.Valid() {
		report.add(RuleDescriptionSchema, true, "")
		return
	}
	details := make([]string, 0, len(result.Errors()))
	for _, issue := range result.Errors() {
		details = append(details, issue.String())
	}
	report.add(RuleDescriptionSchema, false, strings.Join(details, "; "))
}

func (v *Validator) checkDataDir(report *Report, tree FileTree) {
	if !tree.HasDir(dataset.DataDirName) {
		report.add(RuleDataDirectory, false, "data/ directory is missing")
		report.add(RuleDataFiles, false, "not checked: data/ directory missing")
		return
	}
	report.add(RuleDataDirectory, true, "")

	count := 0
	for _, file := range tree.FilesUnder(dataset.DataDirName) {
		if scan.IsTabular(file) {
			count++
		}
	}
	if count == 0 {
		report.add(RuleDataFiles, false, "data/ contains no tabular files")
		return
	}
	report.add(RuleDataFiles, true, fmt.Sprintf("%d tabular file(s)", count))
}

func (v *Validator) checkFileNames(report *Report, tree FileTree) {
	var offenders []string
	for _, file := range tree.FilesUnder(dataset.DataDirName) {
		if !scan.IsTabular(file) {
			continue
		}
		if !ValidFileName(path.Base(file)) {
			offenders = append(offenders, file)
		}
	}
	if len(offenders) > 0 {
		report.add(RuleFileNames, false, "not keyword-value named: "+strings.Join(offenders, ", "))
		return
	}
	report.add(RuleFileNames, true, "")
}

func (v *Validator) checkManifest(report *Report, tree FileTree) {
	entry := tree.File(dataset.ManifestFileName)
	if entry == nil {
		if v.requireManifest {
			report.add(RuleManifest, false, dataset.ManifestFileName+" is missing")
		}
		return
	}
	raw, err := tree.ReadFile(dataset.ManifestFileName)
	if err != nil {
		report.add(RuleManifest, false, fmt.Sprintf("reading %s: %v", dataset.ManifestFileName, err))
		return
	}
	manifest, err := parseManifest(raw)
	if err != nil {
		report.add(RuleManifest, false, err.Error())
		return
	}
	var missing []string
	for _, res := range manifest.Resources {
		if tree.File(path.Clean(res.Path)) == nil {
			missing = append(missing, res.Path)
		}
	}
	if len(missing) > 0 {
		report.add(RuleManifest, false, "resources not found in dataset: "+strings.Join(missing, ", "))
		return
	}
	report.add(RuleManifest, true, fmt.Sprintf("%d resource(s) resolved", len(manifest.Resources)))
}

func parseManifest(raw []byte) (*dataset.Manifest, error) {
	var manifest dataset.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %v", dataset.ManifestFileName, err)
	}
	return &manifest, nil
}
