package iconpane

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cdnManifest = `{
  "id": "bootstrap",
  "name": "Bootstrap Icons",
  "version": "1.11.3",
  "totalIcons": 2,
  "cdnPattern": "https://cdn.example/{name}.svg",
  "icons": [
    {"name": "alarm", "title": "Alarm", "tags": ["clock", "time"]},
    {"name": "heart-fill", "title": "Heart Fill", "tags": ["love"]}
  ]
}`

func TestManifest_ShouldLoadArrayIcons(t *testing.T) {
	m, err := LoadManifest(strings.NewReader(cdnManifest))
	require.NoError(t, err)

	assert.Equal(t, "bootstrap", m.ID)
	assert.Equal(t, 2, m.TotalIcons)
	assert.Equal(t, "https://cdn.example/{name}.svg", m.CDNPattern)
	assert.Equal(t, []string{"clock", "time"}, m.Icons[0].Tags)
	assert.Nil(t, m.Icons[0].SVG)
}

func TestManifest_ShouldLoadCategoryKeyedIcons(t *testing.T) {
	doc := `{
	  "id": "healthicons", "name": "Health Icons", "version": "2.0", "totalIcons": 0,
	  "icons": {
	    "devices": [{"name": "stethoscope", "keywords": ["doctor"]}],
	    "body": [{"name": "heart_organ", "title": "Heart"}, {"name": "lungs"}]
	  }
	}`
	m, err := LoadManifest(strings.NewReader(doc))
	require.NoError(t, err)

	want := []IconReference{
		{Name: "stethoscope", Title: "Stethoscope", Tags: []string{"doctor"}, Category: "devices"},
		{Name: "heart_organ", Title: "Heart", Category: "body"},
		{Name: "lungs", Title: "Lungs", Category: "body"},
	}
	if diff := cmp.Diff(want, m.References()); diff != "" {
		t.Errorf("references mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"devices", "body"}, m.Categories())
	assert.Equal(t, 3, m.TotalIcons)

	icon, ok := m.Lookup("lungs", "")
	assert.True(t, ok)
	assert.Equal(t, "body", icon.Category)
	_, ok = m.Lookup("lungs", "devices")
	assert.False(t, ok)
}

func TestManifest_ShouldDecodeEmbeddedPayloads(t *testing.T) {
	doc := `{
	  "id": "open", "name": "Open", "version": "1", "totalIcons": 2,
	  "attributes": {"fill": "currentColor", "stroke-width": 2},
	  "icons": [
	    {"name": "a", "svg": "<svg><path d=\"M0 0\"/></svg>"},
	    {"name": "b", "svg": {"content": "<path d=\"M1 1\"/>", "viewBox": "0 0 16 16"}}
	  ]
	}`
	m, err := LoadManifest(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "<svg><path d=\"M0 0\"/></svg>", m.Icons[0].SVG.Markup)
	assert.Equal(t, "<path d=\"M1 1\"/>", m.Icons[1].SVG.Content)
	assert.Equal(t, "0 0 16 16", m.Icons[1].SVG.ViewBox)
	assert.Equal(t, "2", m.Attributes["stroke-width"])
}

func TestManifest_ShouldRejectInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"missing id":      `{"name": "x", "version": "1", "icons": []}`,
		"missing name":    `{"id": "x", "version": "1", "icons": []}`,
		"missing version": `{"id": "x", "name": "x", "icons": []}`,
		"blank version":   `{"id": "x", "name": "x", "version": " ", "icons": []}`,
		"negative count":  `{"id": "x", "name": "x", "version": "1", "totalIcons": -1, "icons": []}`,
		"bad pattern":     `{"id": "x", "name": "x", "version": "1", "cdnPattern": "https://cdn/{name}/{name}.svg", "icons": []}`,
		"pattern no name": `{"id": "x", "name": "x", "version": "1", "cdnPattern": "https://cdn/icon.svg", "icons": []}`,
		"duplicate icon":  `{"id": "x", "name": "x", "version": "1", "icons": [{"name": "a"}, {"name": "a"}]}`,
		"unnamed icon":    `{"id": "x", "name": "x", "version": "1", "icons": [{"title": "A"}]}`,
		"not json":        `{"id": `,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadManifest(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestManifest_ShouldLoadAndBuildIndex(t *testing.T) {
	entries, err := LoadIndex(strings.NewReader(`[
	  {"id": "tabler", "name": "tabler", "totalIcons": 4969, "version": "3"},
	  {"id": "bootstrap", "name": "Bootstrap", "totalIcons": 2050, "version": "1"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, "bootstrap", entries[0].ID)
	assert.Equal(t, "tabler", entries[1].ID)

	_, err = LoadIndex(strings.NewReader(`[{"name": "x"}]`))
	assert.ErrorIs(t, err, ErrInvalidManifest)

	index := BuildIndex([]*ManifestDocument{
		{ID: "z", Name: "Zeta", Icons: []ManifestIcon{{IconReference: IconReference{Name: "a"}}}},
		{ID: "empty", Name: "Empty"},
		{ID: "a", Name: "alpha", TotalIcons: 7},
	})
	want := []IndexEntry{
		{ID: "a", Name: "alpha", TotalIcons: 7},
		{ID: "z", Name: "Zeta", TotalIcons: 1},
	}
	if diff := cmp.Diff(want, index); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestManifest_ShouldFormatNames(t *testing.T) {
	assert.Equal(t, "Alarm Clock", TitleFromName("alarm-clock"))
	assert.Equal(t, "Heart Organ", TitleFromName("body/heart_organ"))
	assert.Equal(t, "All Icons", FormatCategory("all"))
	assert.Equal(t, "All Icons", FormatCategory(""))
	assert.Equal(t, "PPE", FormatCategory("ppe"))
	assert.Equal(t, "Devices", FormatCategory("devices"))
	assert.Equal(t, "Écoles", FormatCategory("écoles"))
	assert.Equal(t, "Ünits", FormatCategory("ünits"))
}
