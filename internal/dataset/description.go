package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	// DescriptionFileName is the canonical dataset description file name.
	DescriptionFileName = "dataset_description.json"
	// ManifestFileName is the canonical data-package manifest file name.
	ManifestFileName = "datapackage.json"
	// DataDirName is the required tabular-data subdirectory.
	DataDirName = "data"

	// SchemaOrgContext and DatasetType frame the description as JSON-LD.
	SchemaOrgContext = "https://schema.org"
	DatasetType      = "Dataset"
	personType       = "Person"
)

// Person identifies a dataset author.
type Person struct {
	Type       string `json:"@type,omitempty"`
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

// NewPerson builds a schema.org Person from name parts.
func NewPerson(given, family string) Person {
	return Person{
		Type:       personType,
		GivenName:  strings.TrimSpace(given),
		FamilyName: strings.TrimSpace(family),
	}
}

// DisplayName renders the person for tables and codebooks.
func (p Person) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.GivenName) + " " + strings.TrimSpace(p.FamilyName))
	if name == "" {
		return "Unknown author"
	}
	return name
}

// Description is the dataset_description.json document. Every field except
// the JSON-LD framing is optional; empty fields are dropped on marshal so the
// file carries only what the user supplied.
type Description struct {
	Context          string   `json:"@context,omitempty"`
	Type             string   `json:"@type,omitempty"`
	Name             string   `json:"name,omitempty"`
	Description      string   `json:"description,omitempty"`
	License          string   `json:"license,omitempty"`
	Authors          []Person `json:"author,omitempty"`
	Acknowledgements string   `json:"acknowledgements,omitempty"`
	Funding          []string `json:"funding,omitempty"`
	References       []string `json:"references,omitempty"`
	Version          string   `json:"version,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
}

// NewDescriptionTemplate returns a description carrying only the JSON-LD
// framing and the dataset name.
func NewDescriptionTemplate(name string) Description {
	return Description{
		Context: SchemaOrgContext,
		Type:    DatasetType,
		Name:    strings.TrimSpace(name),
	}
}

// Normalize trims free-text fields and restores the JSON-LD framing. Author
// entries with no name at all are dropped.
func (d Description) Normalize() Description {
	out := d
	out.Context = SchemaOrgContext
	out.Type = DatasetType
	out.Name = strings.TrimSpace(d.Name)
	out.Description = strings.TrimSpace(d.Description)
	out.License = strings.TrimSpace(d.License)
	out.Acknowledgements = strings.TrimSpace(d.Acknowledgements)
	out.Version = strings.TrimSpace(d.Version)
	out.Funding = trimAll(d.Funding)
	out.References = trimAll(d.References)
	out.Keywords = trimAll(d.Keywords)
	if len(d.Authors) > 0 {
		authors := make([]Person, 0, len(d.Authors))
		for _, a := range d.Authors {
			p := NewPerson(a.GivenName, a.FamilyName)
			if p.GivenName == "" && p.FamilyName == "" {
				continue
			}
			authors = append(authors, p)
		}
		out.Authors = authors
		if len(authors) == 0 {
			out.Authors = nil
		}
	}
	return out
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ReadDescription loads and parses a dataset_description.json file.
func ReadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading description: %w", err)
	}
	var desc Description
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", DescriptionFileName, err)
	}
	return &desc, nil
}
