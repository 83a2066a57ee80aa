package catalog

import (
	"strings"
	"testing"

	"github.com/LLabsTech/EstateSearchAI/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<root>
  <property>
    <id>1</id>
    <ref>V-001</ref>
    <price>140000</price>
    <currency>EUR</currency>
    <price_freq>sale</price_freq>
    <type>villa</type>
    <town>Torrevieja</town>
    <province>Alicante</province>
    <country>Spain</country>
    <beds>3</beds>
    <baths>2</baths>
    <surface_area><built>120</built><plot>300</plot></surface_area>
    <desc><en>Detached villa with private pool.</en></desc>
    <features><feature>pool</feature><feature>garage</feature></features>
    <pool>1</pool>
    <property_name>Villa Sol</property_name>
  </property>
  <property>
    <id>2</id>
    <ref>A-002</ref>
    <price>95000</price>
    <currency>EUR</currency>
    <price_freq>sale</price_freq>
    <type>apartment</type>
    <town>Guardamar</town>
    <country>Spain</country>
    <beds>2</beds>
    <baths>1</baths>
    <desc><es>Apartamento cerca de la playa.</es></desc>
  </property>
</root>`

func TestLoad(t *testing.T) {
	properties, report, err := Load(strings.NewReader(sampleFeed), Options{})
	require.NoError(t, err)
	require.Len(t, properties, 2)
	assert.Equal(t, 2, report.Accepted)
	assert.Zero(t, report.Skipped)

	assert.Equal(t, "1", properties[0].ID)
	assert.Equal(t, core.PropertyTypeVilla, properties[0].Type)
	assert.Equal(t, []string{"pool", "garage"}, properties[0].Features)
	assert.True(t, properties[0].Pool)
	assert.Equal(t, 120.0, properties[0].SurfaceBuilt)
	assert.Equal(t, "Detached villa with private pool.", properties[0].Description)

	assert.Equal(t, "2", properties[1].ID)
	assert.Equal(t, "Guardamar", properties[1].Town)
	// Spanish description used when no English variant exists.
	assert.Equal(t, "Apartamento cerca de la playa.", properties[1].Description)
}

func TestLoadUnparseableFeed(t *testing.T) {
	_, _, err := Load(strings.NewReader("not xml at all <"), Options{})
	assert.ErrorIs(t, err, ErrMalformedCatalog)
}

func TestLoadEmptyFeed(t *testing.T) {
	_, _, err := Load(strings.NewReader("<root></root>"), Options{})
	assert.ErrorIs(t, err, ErrMalformedCatalog)
}

func TestLoadDuplicateIdentifiers(t *testing.T) {
	feed := `<root>
	  <property><id>7</id><town>Orihuela</town><price>100000</price></property>
	  <property><id>7</id><town>Orihuela</town><price>120000</price></property>
	</root>`

	_, _, err := Load(strings.NewReader(feed), Options{})
	assert.ErrorIs(t, err, ErrDuplicateID)

	// Strict mode rejects duplicates just the same.
	_, _, err = Load(strings.NewReader(feed), Options{Strict: true})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestLoadMalformedEntry(t *testing.T) {
	feed := `<root>
	  <property><id>1</id><town>Torrevieja</town><price>140000</price></property>
	  <property><id>2</id><town>Guardamar</town></property>
	</root>`

	t.Run("default mode skips with warning", func(t *testing.T) {
		properties, report, err := Load(strings.NewReader(feed), Options{})
		require.NoError(t, err)
		require.Len(t, properties, 1)
		assert.Equal(t, "1", properties[0].ID)
		assert.Equal(t, 1, report.Accepted)
		assert.Equal(t, 1, report.Skipped)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "price is required")
	})

	t.Run("strict mode fails the whole load", func(t *testing.T) {
		_, _, err := Load(strings.NewReader(feed), Options{Strict: true})
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrMissingPrice)
	})
}

func TestLoadDeterministic(t *testing.T) {
	first, _, err := Load(strings.NewReader(sampleFeed), Options{})
	require.NoError(t, err)
	second, _, err := Load(strings.NewReader(sampleFeed), Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
