package iconpane

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/beevik/etree"
	lzstring "github.com/daku10/go-lz-string"
)

// Scheme is the text compression scheme of an embedded icon package.
type Scheme string

const (
	// SchemeAuto tries base64, raw and UTF-16 decompression in turn.
	SchemeAuto   Scheme = "auto"
	SchemeBase64 Scheme = "lz-base64"
	SchemeRaw    Scheme = "lz-raw"
	SchemeURI    Scheme = "lz-uri"
	SchemeUTF16  Scheme = "lz-utf16"
	SchemeJSON   Scheme = "json"
)

// autoSchemes are tried in order on a package without a declared scheme.
var autoSchemes = []Scheme{SchemeBase64, SchemeRaw, SchemeUTF16}

// ParseScheme converts a manifest or configuration value into a Scheme.
// An empty value selects SchemeAuto.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case "":
		return SchemeAuto, nil
	case SchemeAuto, SchemeBase64, SchemeRaw, SchemeURI, SchemeUTF16, SchemeJSON:
		return Scheme(s), nil
	}
	return "", fmt.Errorf("unsupported compression scheme %q", s)
}

const (
	svgNamespace   = "http://www.w3.org/2000/svg"
	defaultViewBox = "0 0 24 24"
)

// compressedBlob matches the long quoted literal holding the package data in a script asset.
var compressedBlob = regexp.MustCompile(`"([^"]{1000,})"`)

// ExtractCompressed pulls the compressed package literal out of a bundled script.
func ExtractCompressed(script string) (string, error) {
	m := compressedBlob.FindStringSubmatch(script)
	if m == nil {
		return "", decodeError("no compressed package found in script")
	}
	return m[1], nil
}

// IconPackage is the decoded form of an embedded compressed package.
type IconPackage struct {
	Name       string
	Version    string
	Icons      map[string]Payload
	Attributes map[string]string
}

// Names returns the icon names of the package in lexical order.
func (p *IconPackage) Names() []string {
	return slices.Sorted(maps.Keys(p.Icons))
}

// Manifest converts the package into a manifest document with embedded content.
func (p *IconPackage) Manifest(id string) *ManifestDocument {
	m := &ManifestDocument{
		ID:         id,
		Name:       p.Name,
		Version:    p.Version,
		Attributes: p.Attributes,
	}
	if m.Name == "" {
		m.Name = id
	}
	if m.Version == "" {
		m.Version = "1.0.0"
	}
	for _, name := range p.Names() {
		svg := p.Icons[name]
		m.Icons = append(m.Icons, ManifestIcon{
			IconReference: IconReference{Name: name, Title: TitleFromName(name)},
			SVG:           &svg,
		})
	}
	m.TotalIcons = len(m.Icons)
	return m
}

// DecodePackage decompresses blob with scheme and parses the resulting JSON document.
// With SchemeAuto (or no scheme) the first decompression yielding a JSON object wins.
func DecodePackage(blob string, scheme Scheme) (*IconPackage, error) {
	var text string
	switch scheme {
	case SchemeAuto, "":
		for _, s := range autoSchemes {
			if t, err := decompress(blob, s); err == nil && isObject(t) {
				text = t
				break
			}
		}
		if text == "" {
			return nil, decodeError("package matches none of %v", autoSchemes)
		}
	default:
		t, err := decompress(blob, scheme)
		if err != nil {
			return nil, err
		}
		if !isObject(t) {
			return nil, decodeError("decompressed %s package is not a JSON object", scheme)
		}
		text = t
	}

	var raw struct {
		Name       string             `json:"name"`
		Version    string             `json:"version"`
		Icons      map[string]Payload `json:"icons"`
		Attributes map[string]any     `json:"attributes"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	if err := dec.Decode(&raw); err != nil {
		return nil, decodeError("parse package: %v", err)
	}
	if len(raw.Icons) == 0 {
		return nil, decodeError("package %q carries no icons", raw.Name)
	}
	pkg := &IconPackage{
		Name:    raw.Name,
		Version: raw.Version,
		Icons:   raw.Icons,
	}
	if len(raw.Attributes) > 0 {
		pkg.Attributes = make(map[string]string, len(raw.Attributes))
		for k, v := range raw.Attributes {
			pkg.Attributes[k] = fmt.Sprint(v)
		}
	}
	return pkg, nil
}

// EncodePackage compresses a package with scheme. It is the inverse of DecodePackage
// and is used to produce bundled packages.
func EncodePackage(pkg *IconPackage, scheme Scheme) (string, error) {
	data, err := json.Marshal(struct {
		Name       string             `json:"name"`
		Version    string             `json:"version"`
		Icons      map[string]Payload `json:"icons"`
		Attributes map[string]string  `json:"attributes,omitempty"`
	}{pkg.Name, pkg.Version, pkg.Icons, pkg.Attributes})
	if err != nil {
		return "", err
	}
	switch scheme {
	case SchemeBase64, SchemeAuto, "":
		return lzstring.CompressToBase64(string(data))
	case SchemeURI:
		return lzstring.CompressToEncodedURIComponent(string(data))
	case SchemeUTF16:
		u, err := lzstring.CompressToUTF16(string(data))
		if err != nil {
			return "", err
		}
		return unitsToString(u, scheme)
	case SchemeRaw:
		u, err := lzstring.Compress(string(data))
		if err != nil {
			return "", err
		}
		return unitsToString(u, scheme)
	case SchemeJSON:
		return string(data), nil
	}
	return "", fmt.Errorf("unsupported compression scheme %q", scheme)
}

// decompress undoes one scheme. Strings are handed to the UTF-16 based
// schemes as the code units a script literal holds.
func decompress(blob string, scheme Scheme) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", decodeError("decompress %s package: %v", scheme, r)
		}
	}()

	switch scheme {
	case SchemeBase64:
		text, err = lzstring.DecompressFromBase64(blob)
	case SchemeURI:
		text, err = lzstring.DecompressFromEncodedURIComponent(blob)
	case SchemeUTF16:
		text, err = lzstring.DecompressFromUTF16(utf16.Encode([]rune(blob)))
	case SchemeRaw:
		text, err = lzstring.Decompress(utf16.Encode([]rune(blob)))
	case SchemeJSON:
		text = blob
	default:
		return "", decodeError("unsupported compression scheme %q", scheme)
	}
	if err != nil {
		return "", decodeError("decompress %s package: %v", scheme, err)
	}
	return strings.TrimSpace(text), nil
}

// unitsToString converts compressor output into a string. Raw output may hold
// unpaired surrogates, which no UTF-8 string can carry.
func unitsToString(u []uint16, scheme Scheme) (string, error) {
	s := string(utf16.Decode(u))
	if !slices.Equal(utf16.Encode([]rune(s)), u) {
		return "", fmt.Errorf("%s output is not representable as text", scheme)
	}
	return s, nil
}

func isObject(text string) bool {
	return strings.HasPrefix(text, "{")
}

// payloadMarkup turns an embedded payload into standalone vector markup.
// Complete documents are returned as they are; fragments and {content, viewBox}
// pairs get a minimal svg wrapper carrying the library attributes.
func payloadMarkup(p Payload, attrs map[string]string) (string, error) {
	if p.Markup != "" {
		if isDocument(p.Markup) {
			return p.Markup, nil
		}
		return wrapFragment(p.Markup, "", attrs)
	}
	if p.Content == "" {
		return "", decodeError("empty icon payload")
	}
	return wrapFragment(p.Content, p.ViewBox, attrs)
}

func isDocument(markup string) bool {
	s := strings.TrimSpace(markup)
	if strings.HasPrefix(s, "<?xml") {
		if i := strings.Index(s, "?>"); i >= 0 {
			s = strings.TrimSpace(s[i+2:])
		}
	}
	return strings.HasPrefix(s, "<svg")
}

func wrapFragment(content, viewBox string, attrs map[string]string) (string, error) {
	frag := etree.NewDocument()
	if err := frag.ReadFromString("<g>" + content + "</g>"); err != nil {
		return "", decodeError("parse icon fragment: %v", err)
	}

	doc := etree.NewDocument()
	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", svgNamespace)
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		if k == "xmlns" {
			continue
		}
		svg.CreateAttr(k, attrs[k])
	}
	switch {
	case viewBox != "":
		svg.CreateAttr("viewBox", viewBox)
	case svg.SelectAttr("viewBox") == nil:
		svg.CreateAttr("viewBox", defaultViewBox)
	}

	for _, tok := range slices.Clone(frag.Root().Child) {
		svg.AddChild(tok)
	}
	out, err := doc.WriteToString()
	if err != nil {
		return "", decodeError("write icon wrapper: %v", err)
	}
	return out, nil
}

// DescriptorFromScript decodes the compressed package bundled in a script asset and
// derives the descriptor and manifest of the library it holds.
func DescriptorFromScript(id, script string, scheme Scheme) (LibraryDescriptor, *ManifestDocument, error) {
	blob, err := ExtractCompressed(script)
	if err != nil {
		return LibraryDescriptor{}, nil, fmt.Errorf("%s: %w", id, err)
	}
	pkg, err := DecodePackage(blob, scheme)
	if err != nil {
		return LibraryDescriptor{}, nil, fmt.Errorf("%s: %w", id, err)
	}
	m := pkg.Manifest(id)
	d := LibraryDescriptor{
		ID:         id,
		Name:       m.Name,
		Version:    m.Version,
		TotalIcons: m.TotalIcons,
		Source:     EmbeddedSource{Icons: pkg.Icons, Attributes: pkg.Attributes},
	}
	return d, m, nil
}
