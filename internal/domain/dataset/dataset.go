// Package dataset holds the static dummy dataset the seeder replays into the stores.
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/menuseed/internal/domain"
)

// Category is a dataset category record. Name is the reference key.
type Category struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Customization is a dataset customization record. Name is the reference key.
type Customization struct {
	Name  string  `yaml:"name" json:"name"`
	Price float64 `yaml:"price" json:"price"`
	Type  string  `yaml:"type" json:"type"`
}

// MenuItem is a dataset menu record referencing a category and customizations by name.
type MenuItem struct {
	Name           string   `yaml:"name" json:"name"`
	Description    string   `yaml:"description" json:"description"`
	ImageURL       string   `yaml:"image_url" json:"image_url"`
	Price          float64  `yaml:"price" json:"price"`
	Rating         float64  `yaml:"rating" json:"rating"`
	Calories       int      `yaml:"calories" json:"calories"`
	Protein        int      `yaml:"protein" json:"protein"`
	CategoryName   string   `yaml:"category_name" json:"category_name"`
	Customizations []string `yaml:"customizations" json:"customizations"`
}

// Dataset is the whole dummy dataset.
type Dataset struct {
	Categories     []Category      `yaml:"categories" json:"categories"`
	Customizations []Customization `yaml:"customizations" json:"customizations"`
	Menu           []MenuItem      `yaml:"menu" json:"menu"`
}

// LinkCount returns the number of (menu item, customization) pairs.
func (d *Dataset) LinkCount() int {
	n := 0
	for i := range d.Menu {
		n += len(d.Menu[i].Customizations)
	}
	return n
}

// Load reads and validates a dataset file. JSON files parse as YAML.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	ds, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes a dataset, rejecting unknown fields, and validates it.
func Parse(r io.Reader) (*Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document: %w", domain.ErrInvalidDataset)
		}
		return nil, fmt.Errorf("parse: %w: %w", domain.ErrInvalidDataset, err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks field-level constraints and collects every violation.
// Duplicate names and dangling references are not checked here: the resolver
// applies last-write-wins and the seeders fail on unresolved names.
func (d *Dataset) Validate() error {
	var result *multierror.Error

	for i, c := range d.Categories {
		if c.Name == "" {
			result = multierror.Append(result, fmt.Errorf("categories[%d]: name is required", i))
		}
	}

	for i, c := range d.Customizations {
		if c.Name == "" {
			result = multierror.Append(result, fmt.Errorf("customizations[%d]: name is required", i))
		}
		if c.Price < 0 {
			result = multierror.Append(result, fmt.Errorf("customizations[%d]: price must be >= 0, got %v", i, c.Price))
		}
		if c.Type == "" {
			result = multierror.Append(result, fmt.Errorf("customizations[%d]: type is required", i))
		}
	}

	for i := range d.Menu {
		m := &d.Menu[i]
		if m.Name == "" {
			result = multierror.Append(result, fmt.Errorf("menu[%d]: name is required", i))
		}
		if m.CategoryName == "" {
			result = multierror.Append(result, fmt.Errorf("menu[%d]: category_name is required", i))
		}
		if m.Price < 0 {
			result = multierror.Append(result, fmt.Errorf("menu[%d]: price must be >= 0, got %v", i, m.Price))
		}
		if m.Rating < 0 || m.Rating > 5 {
			result = multierror.Append(result, fmt.Errorf("menu[%d]: rating must be between 0 and 5, got %v", i, m.Rating))
		}
		if m.Calories < 0 || m.Protein < 0 {
			result = multierror.Append(result, fmt.Errorf("menu[%d]: calories and protein must be >= 0", i))
		}
		if err := validateSourceURL(m.ImageURL); err != nil {
			result = multierror.Append(result, fmt.Errorf("menu[%d]: image_url: %w", i, err))
		}
		for j, name := range m.Customizations {
			if name == "" {
				result = multierror.Append(result, fmt.Errorf("menu[%d].customizations[%d]: empty name", i, j))
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidDataset, err)
	}
	return nil
}

func validateSourceURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
