// Package packaging provides a high-level typed view over an OPC (.docx)
// package: a ZIP archive of XML parts connected by relationship files. It
// classifies parts by relationship type for convenient access by the
// service layer, and exposes the main document part as a parsed tree so
// callers can edit it (see pkg/docx/revision) before saving.
package packaging

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/tracklayer/godocx/pkg/docx/oxml"
)

// Relationship type URIs this package recognizes. OPC defines many more;
// anything else lands in UnknownParts.
const (
	relOfficeDocument    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCoreProperties    = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relExtendedProps     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relStyles            = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relSettings          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	relNumbering         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	relComments          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
	relFootnotes         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footnotes"
	relEndnotes          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/endnotes"
	relFontTable         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/fontTable"
	relTheme             = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relWebSettings       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/webSettings"
	relHeader            = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	relFooter            = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	relImage             = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	rootRelsPath         = "_rels/.rels"
	docRelsSuffixPattern = "_rels/%s.rels"
)

// Document represents an opened .docx with parts classified by relationship
// type. Every part other than the main document part is kept verbatim, so
// Save writes those parts' contents back unchanged and re-serializes only
// the main document part from Root.
type Document struct {
	files       map[string][]byte // every original zip entry, verbatim
	names       []string          // entry names, sorted, for deterministic Save
	docPartName string

	// Root is the parsed <w:document> tree. Callers build a
	// revision.Document around it (or its <w:body>) to make edits, then
	// call Save to re-serialize it back into the package.
	Root *etree.Element

	CoreProps *CoreProperties
	AppProps  *AppProperties

	Styles    []byte
	Settings  []byte
	Numbering []byte
	Comments  []byte
	Footnotes []byte
	Endnotes  []byte
	Fonts     []byte

	Theme       []byte
	WebSettings []byte

	Headers [][]byte
	Footers [][]byte

	Media map[string][]byte

	UnknownParts []UnknownPart
}

// CoreProperties holds Dublin Core metadata from core.xml.
type CoreProperties struct {
	Title       string
	Creator     string
	Description string
}

// AppProperties holds extended-property metadata from app.xml.
type AppProperties struct {
	Application string
}

// UnknownPart is a package part with no recognized relationship type.
type UnknownPart struct {
	PartName    string
	ContentType string
	Blob        []byte
}

type xmlRelationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type xmlRelationships struct {
	Relationships []xmlRelationship `xml:"Relationship"`
}

// OpenReader opens a .docx from an io.ReaderAt.
func OpenReader(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("packaging: open zip: %w", err)
	}
	return load(zr)
}

// OpenBytes opens a .docx from in-memory bytes.
func OpenBytes(data []byte) (*Document, error) {
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// SaveWriter writes the document back as a .docx ZIP archive: every
// original entry verbatim, except the main document part, which is
// re-serialized from Root.
func (d *Document) SaveWriter(w io.Writer) error {
	docBytes, err := oxml.SerializeXML(d.Root)
	if err != nil {
		return fmt.Errorf("packaging: serialize document part: %w", err)
	}

	zw := zip.NewWriter(w)
	for _, name := range d.names {
		blob := d.files[name]
		if name == d.docPartName {
			blob = docBytes
		}
		fw, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("packaging: create zip entry %q: %w", name, err)
		}
		if _, err := fw.Write(blob); err != nil {
			return fmt.Errorf("packaging: write zip entry %q: %w", name, err)
		}
	}
	return zw.Close()
}

// SaveBytes returns the document as a byte slice.
func (d *Document) SaveBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.SaveWriter(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func load(zr *zip.Reader) (*Document, error) {
	files := make(map[string][]byte, len(zr.File))
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("packaging: open entry %q: %w", f.Name, err)
		}
		blob, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("packaging: read entry %q: %w", f.Name, err)
		}
		files[f.Name] = blob
		names = append(names, f.Name)
	}
	sort.Strings(names)

	doc := &Document{files: files, names: names, Media: make(map[string][]byte)}

	rootRels, err := readRelationships(files, rootRelsPath)
	if err != nil {
		return nil, err
	}

	classified := make(map[string]bool)
	classified[rootRelsPath] = true
	classified["[Content_Types].xml"] = true

	for _, rel := range rootRels {
		target := resolveTarget("", rel.Target)
		switch rel.Type {
		case relOfficeDocument:
			doc.docPartName = target
		case relCoreProperties:
			doc.CoreProps = parseCoreProps(files[target])
		case relExtendedProps:
			doc.AppProps = parseAppProps(files[target])
		}
		classified[target] = true
	}

	if doc.docPartName == "" {
		return nil, fmt.Errorf("packaging: no main document part found")
	}
	docBytes, ok := files[doc.docPartName]
	if !ok {
		return nil, fmt.Errorf("packaging: main document part %q missing", doc.docPartName)
	}
	root, err := oxml.ParseXML(docBytes)
	if err != nil {
		return nil, fmt.Errorf("packaging: parse %q: %w", doc.docPartName, err)
	}
	doc.Root = root

	docDir := path.Dir(doc.docPartName)
	docRelsPath := path.Join(docDir, fmt.Sprintf(docRelsSuffixPattern, path.Base(doc.docPartName)))
	classified[docRelsPath] = true

	docRels, err := readRelationships(files, docRelsPath)
	if err != nil {
		return nil, err
	}
	for _, rel := range docRels {
		target := resolveTarget(docDir, rel.Target)
		classified[target] = true
		blob := files[target]

		switch rel.Type {
		case relStyles:
			doc.Styles = blob
		case relSettings:
			doc.Settings = blob
		case relNumbering:
			doc.Numbering = blob
		case relComments:
			doc.Comments = blob
		case relFootnotes:
			doc.Footnotes = blob
		case relEndnotes:
			doc.Endnotes = blob
		case relFontTable:
			doc.Fonts = blob
		case relTheme:
			doc.Theme = blob
		case relWebSettings:
			doc.WebSettings = blob
		case relHeader:
			doc.Headers = append(doc.Headers, blob)
		case relFooter:
			doc.Footers = append(doc.Footers, blob)
		case relImage:
			doc.Media[target] = blob
		default:
			if isMediaContentType(contentTypeFromExt(target)) {
				doc.Media[target] = blob
			}
		}
	}

	for name, blob := range files {
		if classified[name] {
			continue
		}
		doc.UnknownParts = append(doc.UnknownParts, UnknownPart{
			PartName:    name,
			ContentType: contentTypeFromExt(name),
			Blob:        blob,
		})
	}
	sort.Slice(doc.UnknownParts, func(i, j int) bool { return doc.UnknownParts[i].PartName < doc.UnknownParts[j].PartName })

	return doc, nil
}

func readRelationships(files map[string][]byte, relsPath string) ([]xmlRelationship, error) {
	blob, ok := files[relsPath]
	if !ok {
		return nil, nil
	}
	var rels xmlRelationships
	if err := xml.Unmarshal(blob, &rels); err != nil {
		return nil, fmt.Errorf("packaging: parse relationships %q: %w", relsPath, err)
	}
	return rels.Relationships, nil
}

// resolveTarget resolves a relationship Target against baseDir, the way OPC
// does: absolute targets (leading "/") are package-rooted, everything else
// is relative to baseDir.
func resolveTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(baseDir, target))
}

func isMediaContentType(ct string) bool {
	return strings.HasPrefix(ct, "image/")
}

func contentTypeFromExt(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".xml", ".rels":
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}

type xmlCoreProperties struct {
	XMLName     xml.Name `xml:"coreProperties"`
	Title       string   `xml:"title"`
	Creator     string   `xml:"creator"`
	Description string   `xml:"description"`
}

func parseCoreProps(blob []byte) *CoreProperties {
	if len(blob) == 0 {
		return nil
	}
	var props xmlCoreProperties
	if err := xml.Unmarshal(blob, &props); err != nil {
		return &CoreProperties{}
	}
	return &CoreProperties{
		Title:       props.Title,
		Creator:     props.Creator,
		Description: props.Description,
	}
}

type xmlAppProperties struct {
	XMLName     xml.Name `xml:"Properties"`
	Application string   `xml:"Application"`
}

func parseAppProps(blob []byte) *AppProperties {
	if len(blob) == 0 {
		return nil
	}
	var props xmlAppProperties
	if err := xml.Unmarshal(blob, &props); err != nil {
		return &AppProperties{}
	}
	return &AppProperties{
		Application: props.Application,
	}
}
