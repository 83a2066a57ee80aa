package core

import (
	"fmt"
	"strconv"
	"strings"
)

// PropertyType classifies a property listing.
type PropertyType int

const (
	// PropertyTypeUnspecified is the neutral value for catalogs that omit the type.
	PropertyTypeUnspecified PropertyType = iota
	// PropertyTypeApartment represents apartments and flats.
	PropertyTypeApartment
	// PropertyTypeVilla represents detached villas.
	PropertyTypeVilla
	// PropertyTypeHouse represents houses, townhouses and bungalows.
	PropertyTypeHouse
	// PropertyTypeOther represents any recognized listing outside the main categories.
	PropertyTypeOther
)

// String returns the lowercase name of the property type.
func (t PropertyType) String() string {
	switch t {
	case PropertyTypeApartment:
		return "apartment"
	case PropertyTypeVilla:
		return "villa"
	case PropertyTypeHouse:
		return "house"
	case PropertyTypeOther:
		return "other"
	default:
		return "unspecified"
	}
}

// ParsePropertyType maps a catalog type string to a PropertyType.
// Empty input yields PropertyTypeUnspecified; any non-empty value that is not
// a known category yields PropertyTypeOther.
func ParsePropertyType(s string) PropertyType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PropertyTypeUnspecified
	case "apartment", "flat", "penthouse", "studio":
		return PropertyTypeApartment
	case "villa":
		return PropertyTypeVilla
	case "house", "townhouse", "bungalow", "country house":
		return PropertyTypeHouse
	default:
		return PropertyTypeOther
	}
}

// Property is the canonical in-memory representation of one catalog listing.
// A Property is created once during ingestion and never mutated afterwards;
// re-ingestion replaces it wholesale.
type Property struct {
	ID           string
	Ref          string
	Name         string
	Type         PropertyType
	Town         string
	Province     string
	Country      string
	Price        float64
	Currency     string
	PriceFreq    string
	Beds         int
	Baths        int
	SurfaceBuilt float64
	SurfacePlot  float64
	NewBuild     bool
	Pool         bool
	Features     []string
	Description  string
}

// RawProperty holds the unvalidated string fields of one catalog entry,
// as produced by a catalog parser before coercion.
type RawProperty struct {
	ID           string
	Ref          string
	Name         string
	Type         string
	Town         string
	Province     string
	Country      string
	Price        string
	Currency     string
	PriceFreq    string
	Beds         string
	Baths        string
	SurfaceBuilt string
	SurfacePlot  string
	NewBuild     string
	Pool         string
	Features     []string
	Description  string
}

// ParseProperty validates and coerces a raw catalog entry into a Property.
// Missing or malformed required fields (ID, Town, Price) and out-of-range
// numeric fields fail with an error wrapping ErrInvalidProperty. Optional
// fields coerce to neutral defaults instead of failing.
func ParseProperty(raw *RawProperty) (*Property, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: raw entry is nil", ErrInvalidProperty)
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProperty, ErrMissingID)
	}

	town := strings.TrimSpace(raw.Town)
	if town == "" {
		return nil, fmt.Errorf("%w: entry %q: %w", ErrInvalidProperty, id, ErrMissingLocation)
	}

	priceStr := strings.TrimSpace(raw.Price)
	if priceStr == "" {
		return nil, fmt.Errorf("%w: entry %q: %w", ErrInvalidProperty, id, ErrMissingPrice)
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q: price %q is not numeric", ErrInvalidProperty, id, priceStr)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: entry %q: %w", ErrInvalidProperty, id, ErrNegativePrice)
	}

	beds, err := parseOptionalCount(raw.Beds)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q: bedrooms: %w", ErrInvalidProperty, id, err)
	}
	baths, err := parseOptionalCount(raw.Baths)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q: bathrooms: %w", ErrInvalidProperty, id, err)
	}

	features := make([]string, 0, len(raw.Features))
	for _, f := range raw.Features {
		f = strings.TrimSpace(f)
		if f != "" {
			features = append(features, f)
		}
	}

	return &Property{
		ID:           id,
		Ref:          strings.TrimSpace(raw.Ref),
		Name:         strings.TrimSpace(raw.Name),
		Type:         ParsePropertyType(raw.Type),
		Town:         town,
		Province:     strings.TrimSpace(raw.Province),
		Country:      strings.TrimSpace(raw.Country),
		Price:        price,
		Currency:     strings.TrimSpace(raw.Currency),
		PriceFreq:    strings.TrimSpace(raw.PriceFreq),
		Beds:         beds,
		Baths:        baths,
		SurfaceBuilt: parseOptionalFloat(raw.SurfaceBuilt),
		SurfacePlot:  parseOptionalFloat(raw.SurfacePlot),
		NewBuild:     parseOptionalBool(raw.NewBuild),
		Pool:         parseOptionalBool(raw.Pool),
		Features:     features,
		Description:  strings.TrimSpace(raw.Description),
	}, nil
}

// parseOptionalCount coerces an optional non-negative integer field.
// Empty input defaults to 0.
func parseOptionalCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("value %q is not an integer", s)
	}
	if n < 0 {
		return 0, ErrNegativeCount
	}
	return n, nil
}

// parseOptionalFloat coerces an optional numeric field, defaulting to 0.
// Malformed optional numerics are treated as absent rather than fatal.
func parseOptionalFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// parseOptionalBool coerces an optional boolean field, defaulting to false.
func parseOptionalBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

// EmbeddingText returns the canonical text serialization of the property used
// as embedding input. It is a pure function of the record's fields so that
// re-ingestion of an identical catalog is idempotent.
func (p *Property) EmbeddingText() string {
	var b strings.Builder

	writeLine := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}

	writeLine("Property Name", p.Name)
	writeLine("Type", p.Type.String())

	location := p.Town
	if p.Province != "" {
		location += ", " + p.Province
	}
	if p.Country != "" {
		location += ", " + p.Country
	}
	writeLine("Location", location)

	price := strconv.FormatFloat(p.Price, 'f', -1, 64)
	if p.Currency != "" {
		price += " " + p.Currency
	}
	if p.PriceFreq != "" {
		price += " (" + p.PriceFreq + ")"
	}
	writeLine("Price", price)

	writeLine("Details", fmt.Sprintf("%d bedrooms, %d bathrooms", p.Beds, p.Baths))
	if p.SurfaceBuilt > 0 {
		writeLine("Area", fmt.Sprintf("%gm2 built", p.SurfaceBuilt))
	}
	if len(p.Features) > 0 {
		writeLine("Features", strings.Join(p.Features, ", "))
	}
	if p.Pool {
		writeLine("Pool", "Yes")
	}
	writeLine("Description", p.Description)

	return strings.TrimSuffix(b.String(), "\n")
}

// DisplayText renders the property for end users, one attribute per line.
func (p *Property) DisplayText() string {
	var b strings.Builder

	name := p.Name
	if name == "" {
		name = "Property " + p.ID
	}
	fmt.Fprintf(&b, "%s (%s)\n", name, p.Type)

	location := p.Town
	if p.Province != "" {
		location += ", " + p.Province
	} else if p.Country != "" {
		location += ", " + p.Country
	}
	fmt.Fprintf(&b, "Location: %s\n", location)

	fmt.Fprintf(&b, "Price: %s %s", strconv.FormatFloat(p.Price, 'f', -1, 64), p.Currency)
	if p.PriceFreq != "" {
		fmt.Fprintf(&b, " (%s)", p.PriceFreq)
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "Bedrooms: %d, Bathrooms: %d\n", p.Beds, p.Baths)
	if p.SurfaceBuilt > 0 {
		fmt.Fprintf(&b, "Area: %gm2\n", p.SurfaceBuilt)
	}
	if len(p.Features) > 0 {
		fmt.Fprintf(&b, "Features: %s\n", strings.Join(p.Features, ", "))
	}
	if p.Pool {
		b.WriteString("Pool: Yes\n")
	}
	if p.Ref != "" {
		fmt.Fprintf(&b, "Reference: %s\n", p.Ref)
	}

	return strings.TrimSuffix(b.String(), "\n")
}
