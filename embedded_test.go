package iconpane

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bundle builds a script asset embedding pkg the way bundled icon packages ship.
func bundle(t *testing.T, pkg *IconPackage, scheme Scheme) string {
	t.Helper()
	blob, err := EncodePackage(pkg, scheme)
	require.NoError(t, err)
	return fmt.Sprintf(`(function(){var d="%s";return d;})();`, blob)
}

func samplePackage(n int) *IconPackage {
	pkg := &IconPackage{
		Name:       "Sample",
		Version:    "2.1.0",
		Icons:      make(map[string]Payload, n),
		Attributes: map[string]string{"fill": "currentColor"},
	}
	for i := 0; i < n; i++ {
		pkg.Icons[fmt.Sprintf("icon-%03d", i)] = Payload{
			Markup: fmt.Sprintf(`<path d="M%d %d h10 v10 h-10 z"/>`, i, i),
		}
	}
	return pkg
}

func TestEmbedded_ShouldExtractAndDecodePackage(t *testing.T) {
	for _, scheme := range []Scheme{SchemeBase64, SchemeURI} {
		t.Run(string(scheme), func(t *testing.T) {
			script := bundle(t, samplePackage(200), scheme)

			blob, err := ExtractCompressed(script)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(blob), 1000)

			pkg, err := DecodePackage(blob, scheme)
			require.NoError(t, err)
			assert.Equal(t, "Sample", pkg.Name)
			assert.Len(t, pkg.Icons, 200)
			assert.Equal(t, `<path d="M7 7 h10 v10 h-10 z"/>`, pkg.Icons["icon-007"].Markup)
			assert.Equal(t, "currentColor", pkg.Attributes["fill"])
		})
	}
}

func TestEmbedded_ShouldRoundTripEveryScheme(t *testing.T) {
	for _, scheme := range []Scheme{SchemeBase64, SchemeURI, SchemeUTF16, SchemeJSON} {
		t.Run(string(scheme), func(t *testing.T) {
			blob, err := EncodePackage(samplePackage(50), scheme)
			require.NoError(t, err)

			pkg, err := DecodePackage(blob, scheme)
			require.NoError(t, err)
			assert.Equal(t, "2.1.0", pkg.Version)
			assert.Len(t, pkg.Icons, 50)
			assert.Equal(t, `<path d="M9 9 h10 v10 h-10 z"/>`, pkg.Icons["icon-009"].Markup)
		})
	}
}

func TestEmbedded_ShouldRoundTripRawWhenRepresentable(t *testing.T) {
	blob, err := EncodePackage(samplePackage(5), SchemeRaw)
	if err != nil {
		assert.ErrorContains(t, err, "not representable")
		return
	}
	pkg, err := DecodePackage(blob, SchemeRaw)
	require.NoError(t, err)
	assert.Len(t, pkg.Icons, 5)
}

func TestEmbedded_ShouldDetectSchemeWhenUndeclared(t *testing.T) {
	for _, scheme := range []Scheme{SchemeBase64, SchemeUTF16} {
		t.Run(string(scheme), func(t *testing.T) {
			blob, err := EncodePackage(samplePackage(20), scheme)
			require.NoError(t, err)

			pkg, err := DecodePackage(blob, SchemeAuto)
			require.NoError(t, err)
			assert.Len(t, pkg.Icons, 20)

			pkg, err = DecodePackage(blob, "")
			require.NoError(t, err)
			assert.Equal(t, "Sample", pkg.Name)
		})
	}

	_, err := DecodePackage(strings.Repeat("!", 1200), SchemeAuto)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestEmbedded_ShouldFailOnMissingOrCorruptPackage(t *testing.T) {
	_, err := ExtractCompressed(`var short = "abc";`)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodePackage(strings.Repeat("!", 1200), SchemeBase64)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodePackage(`{"name": "x", "icons": {}}`, SchemeJSON)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodePackage(`{"name": "x"`, SchemeJSON)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodePackage("", "zip")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestEmbedded_ShouldWrapFragments(t *testing.T) {
	attrs := map[string]string{"fill": "none", "stroke": "currentColor"}

	markup, err := payloadMarkup(Payload{Content: `<circle r="4"/>`, ViewBox: "0 0 8 8"}, attrs)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(markup, "<svg"))
	assert.Contains(t, markup, `viewBox="0 0 8 8"`)
	assert.Contains(t, markup, `stroke="currentColor"`)
	assert.Contains(t, markup, `<circle r="4"/>`)

	markup, err = payloadMarkup(Payload{Markup: `<path d="M0 0"/><path d="M1 1"/>`}, nil)
	require.NoError(t, err)
	assert.Contains(t, markup, `viewBox="0 0 24 24"`)
	assert.Equal(t, 2, strings.Count(markup, "<path"))

	doc := `<svg viewBox="0 0 1 1"><path/></svg>`
	markup, err = payloadMarkup(Payload{Markup: doc}, attrs)
	require.NoError(t, err)
	assert.Equal(t, doc, markup)

	_, err = payloadMarkup(Payload{Markup: `<path d="M0 0">`}, nil)
	assert.ErrorIs(t, err, ErrDecode)
	_, err = payloadMarkup(Payload{}, nil)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestEmbedded_ShouldDeriveLibraryFromScript(t *testing.T) {
	d, m, err := DescriptorFromScript("sample", bundle(t, samplePackage(120), SchemeBase64), SchemeBase64)
	require.NoError(t, err)
	assert.Equal(t, "Sample", d.Name)
	assert.Equal(t, 120, d.TotalIcons)
	assert.Equal(t, "icon-000", m.Icons[0].Name)
	assert.Equal(t, "Icon 000", m.Icons[0].Title)
	require.NoError(t, m.Validate())

	scheme, err := ParseScheme("")
	require.NoError(t, err)
	assert.Equal(t, SchemeAuto, scheme)
	scheme, err = ParseScheme("lz-raw")
	require.NoError(t, err)
	assert.Equal(t, SchemeRaw, scheme)
	_, err = ParseScheme("gzip")
	assert.Error(t, err)
}
