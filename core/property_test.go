package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() *RawProperty {
	return &RawProperty{
		ID:          "p-100",
		Ref:         "R100",
		Name:        "Casa del Mar",
		Type:        "villa",
		Town:        "Torrevieja",
		Province:    "Alicante",
		Country:     "Spain",
		Price:       "140000",
		Currency:    "EUR",
		PriceFreq:   "sale",
		Beds:        "3",
		Baths:       "2",
		Pool:        "true",
		Features:    []string{"garage", "sea view"},
		Description: "Bright villa close to the beach.",
	}
}

func TestParseProperty(t *testing.T) {
	t.Run("valid entry", func(t *testing.T) {
		p, err := ParseProperty(validRaw())
		require.NoError(t, err)
		assert.Equal(t, "p-100", p.ID)
		assert.Equal(t, PropertyTypeVilla, p.Type)
		assert.Equal(t, "Torrevieja", p.Town)
		assert.Equal(t, 140000.0, p.Price)
		assert.Equal(t, 3, p.Beds)
		assert.Equal(t, 2, p.Baths)
		assert.True(t, p.Pool)
		assert.Equal(t, []string{"garage", "sea view"}, p.Features)
	})

	t.Run("nil entry", func(t *testing.T) {
		_, err := ParseProperty(nil)
		assert.ErrorIs(t, err, ErrInvalidProperty)
	})

	t.Run("missing id", func(t *testing.T) {
		raw := validRaw()
		raw.ID = "  "
		_, err := ParseProperty(raw)
		assert.ErrorIs(t, err, ErrMissingID)
	})

	t.Run("missing location", func(t *testing.T) {
		raw := validRaw()
		raw.Town = ""
		_, err := ParseProperty(raw)
		assert.ErrorIs(t, err, ErrMissingLocation)
	})

	t.Run("missing price", func(t *testing.T) {
		raw := validRaw()
		raw.Price = ""
		_, err := ParseProperty(raw)
		assert.ErrorIs(t, err, ErrMissingPrice)
	})

	t.Run("negative price", func(t *testing.T) {
		raw := validRaw()
		raw.Price = "-5"
		_, err := ParseProperty(raw)
		assert.ErrorIs(t, err, ErrNegativePrice)
	})

	t.Run("malformed price", func(t *testing.T) {
		raw := validRaw()
		raw.Price = "cheap"
		_, err := ParseProperty(raw)
		assert.ErrorIs(t, err, ErrInvalidProperty)
	})

	t.Run("negative bedroom count", func(t *testing.T) {
		raw := validRaw()
		raw.Beds = "-1"
		_, err := ParseProperty(raw)
		assert.ErrorIs(t, err, ErrNegativeCount)
	})

	t.Run("optional fields default to neutral values", func(t *testing.T) {
		raw := &RawProperty{ID: "1", Town: "Guardamar", Price: "95000"}
		p, err := ParseProperty(raw)
		require.NoError(t, err)
		assert.Equal(t, PropertyTypeUnspecified, p.Type)
		assert.Zero(t, p.Beds)
		assert.Zero(t, p.Baths)
		assert.False(t, p.Pool)
		assert.Empty(t, p.Features)
	})
}

func TestParsePropertyType(t *testing.T) {
	assert.Equal(t, PropertyTypeApartment, ParsePropertyType("Apartment"))
	assert.Equal(t, PropertyTypeApartment, ParsePropertyType("flat"))
	assert.Equal(t, PropertyTypeVilla, ParsePropertyType(" villa "))
	assert.Equal(t, PropertyTypeHouse, ParsePropertyType("townhouse"))
	assert.Equal(t, PropertyTypeOther, ParsePropertyType("castle"))
	assert.Equal(t, PropertyTypeUnspecified, ParsePropertyType(""))
}

func TestEmbeddingTextDeterministic(t *testing.T) {
	p, err := ParseProperty(validRaw())
	require.NoError(t, err)

	first := p.EmbeddingText()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, p.EmbeddingText())
	}

	// Same raw fields always produce the same text.
	q, err := ParseProperty(validRaw())
	require.NoError(t, err)
	assert.Equal(t, first, q.EmbeddingText())

	assert.Contains(t, first, "Torrevieja")
	assert.Contains(t, first, "villa")
	assert.Contains(t, first, "3 bedrooms, 2 bathrooms")
}

func TestDisplayText(t *testing.T) {
	p, err := ParseProperty(validRaw())
	require.NoError(t, err)

	text := p.DisplayText()
	assert.Contains(t, text, "Casa del Mar")
	assert.Contains(t, text, "Price: 140000 EUR (sale)")
	assert.Contains(t, text, "Reference: R100")
	assert.Contains(t, text, "Pool: Yes")
}
