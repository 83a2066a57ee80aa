package catalog

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/LLabsTech/EstateSearchAI/core"
)

// Options controls how a catalog load treats malformed entries.
type Options struct {
	// Strict fails the whole load on the first malformed entry instead of
	// skipping it with a warning.
	Strict bool

	// Logger receives per-entry warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// Report summarizes one catalog load.
type Report struct {
	Accepted int
	Skipped  int
	Warnings []string
}

// xmlProperty mirrors one <property> element of the catalog feed.
type xmlProperty struct {
	ID        string `xml:"id"`
	Date      string `xml:"date"`
	Ref       string `xml:"ref"`
	Price     string `xml:"price"`
	Currency  string `xml:"currency"`
	PriceFreq string `xml:"price_freq"`
	NewBuild  string `xml:"new_build"`
	Type      string `xml:"type"`
	Town      string `xml:"town"`
	Province  string `xml:"province"`
	Country   string `xml:"country"`
	Beds      string `xml:"beds"`
	Baths     string `xml:"baths"`
	Surface   struct {
		Built string `xml:"built"`
		Plot  string `xml:"plot"`
	} `xml:"surface_area"`
	Desc struct {
		ES string `xml:"es"`
		EN string `xml:"en"`
	} `xml:"desc"`
	Features struct {
		Feature []string `xml:"feature"`
	} `xml:"features"`
	Pool string `xml:"pool"`
	Name string `xml:"property_name"`
}

// xmlCatalog matches <property> children under any feed root element.
type xmlCatalog struct {
	Properties []xmlProperty `xml:"property"`
}

// Load parses a property catalog feed from r. All returned records are fully
// validated; a malformed individual entry is skipped with a warning in the
// report, or fails the whole load when opts.Strict is set. Duplicate
// identifiers always reject the whole catalog. A structurally unparseable
// feed is an error.
func Load(r io.Reader, opts Options) ([]core.Property, *Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading catalog: %w", err)
	}

	var feed xmlCatalog
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}
	if len(feed.Properties) == 0 {
		return nil, nil, fmt.Errorf("%w: no property entries found", ErrMalformedCatalog)
	}

	report := &Report{}
	seen := make(map[string]bool, len(feed.Properties))
	properties := make([]core.Property, 0, len(feed.Properties))

	for i, entry := range feed.Properties {
		record, err := core.ParseProperty(rawFromXML(&entry))
		if err != nil {
			if opts.Strict {
				return nil, nil, fmt.Errorf("catalog entry %d: %w", i+1, err)
			}
			report.Skipped++
			report.Warnings = append(report.Warnings, err.Error())
			logger.Warn("skipping malformed catalog entry", "entry", i+1, "err", err)
			continue
		}

		// An ambiguous catalog must never produce a partially loaded index.
		if seen[record.ID] {
			return nil, nil, fmt.Errorf("%w: identifier %q", ErrDuplicateID, record.ID)
		}
		seen[record.ID] = true

		properties = append(properties, *record)
		report.Accepted++
	}

	logger.Info("catalog loaded", "accepted", report.Accepted, "skipped", report.Skipped)
	return properties, report, nil
}

// LoadFile parses the catalog feed at path.
func LoadFile(path string, opts Options) ([]core.Property, *Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	return Load(f, opts)
}

func rawFromXML(entry *xmlProperty) *core.RawProperty {
	description := entry.Desc.EN
	if description == "" {
		description = entry.Desc.ES
	}

	return &core.RawProperty{
		ID:           entry.ID,
		Ref:          entry.Ref,
		Name:         entry.Name,
		Type:         entry.Type,
		Town:         entry.Town,
		Province:     entry.Province,
		Country:      entry.Country,
		Price:        entry.Price,
		Currency:     entry.Currency,
		PriceFreq:    entry.PriceFreq,
		Beds:         entry.Beds,
		Baths:        entry.Baths,
		SurfaceBuilt: entry.Surface.Built,
		SurfacePlot:  entry.Surface.Plot,
		NewBuild:     entry.NewBuild,
		Pool:         entry.Pool,
		Features:     entry.Features.Feature,
		Description:  description,
	}
}
