package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// loadXLSX reads one worksheet of an XLSX workbook into a Frame. The format
// is a ZIP of XML parts; only workbook.xml (sheet names), the workbook rels
// (sheet paths), sharedStrings.xml, and the selected sheet are touched.
func loadXLSX(path string, opt Options) (*Frame, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read xlsx")
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, errors.Wrap(err, "open xlsx")
	}

	sheets := parseWorkbookSheets(zipPart(zr, "xl/workbook.xml"))
	rels := parseWorkbookRels(zipPart(zr, "xl/_rels/workbook.xml.rels"))
	target, err := resolveSheetPath(sheets, rels, opt, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	shared := parseSharedStrings(zipPart(zr, "xl/sharedStrings.xml"))
	rows := newSheetRows(zipPart(zr, target), shared)

	header, ok := rows.next()
	if !ok || len(header) == 0 {
		return nil, errors.Wrap(ErrEmptyDataset, filepath.Base(path))
	}
	b, err := newFrameBuilder(filepath.Base(path), header, opt)
	if err != nil {
		return nil, err
	}
	for !b.full() {
		row, ok := rows.next()
		if !ok {
			break
		}
		b.add(row)
	}
	return b.finish()
}

// resolveSheetPath maps the requested sheet to its ZIP entry. An explicit name
// that does not exist is an error listing the available sheets; index
// selection falls back to the conventional sheetN.xml path.
func resolveSheetPath(sheets []sheetEntry, rels map[string]string, opt Options, file string) (string, error) {
	if opt.Sheet != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, opt.Sheet) {
				if rel, ok := rels[s.RID]; ok {
					return sheetRelPath(rel), nil
				}
			}
		}
		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = s.Name
		}
		return "", errors.Newf("sheet %q not found in %s (available: %s)",
			opt.Sheet, file, strings.Join(names, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	for _, s := range sheets {
		if s.SheetID == idx {
			if rel, ok := rels[s.RID]; ok {
				return sheetRelPath(rel), nil
			}
		}
	}
	return filepath.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", idx)), nil
}

type sheetEntry struct {
	Name    string
	SheetID int
	RID     string
}

// parseWorkbookSheets extracts the sheet entries with names and relationship
// ids from workbook.xml.
func parseWorkbookSheets(data []byte) []sheetEntry {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []sheetEntry
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s sheetEntry
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID = digitsPrefix(a.Value)
			case "id": // carries the r: namespace
				s.RID = a.Value
			}
		}
		sheets = append(sheets, s)
	}
}

// parseWorkbookRels maps relationship ids to worksheet part targets.
func parseWorkbookRels(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

// parseSharedStrings flattens sharedStrings.xml into an index-addressed list.
// Rich-text runs inside one <si> concatenate into a single value.
func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "si" {
				buf.Reset()
			}
			if se.Name.Local == "t" {
				inT = true
			}
		case xml.EndElement:
			if se.Name.Local == "t" {
				inT = false
			}
			if se.Name.Local == "si" {
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write([]byte(se))
			}
		}
	}
}

// sheetRows streams <row> elements of one worksheet as string slices, with
// shared-string cells resolved and sparse cells left empty.
type sheetRows struct {
	dec    *xml.Decoder
	shared []string
	inRow  bool
	cur    []string
	maxCol int
}

func newSheetRows(data []byte, shared []string) *sheetRows {
	return &sheetRows{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *sheetRows) next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				r.inRow = true
				r.cur = nil
				r.maxCol = 0
			}
			if r.inRow && se.Name.Local == "c" {
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := columnIndex(ref)
				if col < 0 {
					// The r attribute is optional; cells without it
					// fill the next position in document order.
					col = len(r.cur)
				}
				if col+1 > r.maxCol {
					r.maxCol = col + 1
				}
				val := r.cellValue(typ)
				if len(r.cur) <= col {
					grown := make([]string, col+1)
					copy(grown, r.cur)
					r.cur = grown
				}
				r.cur[col] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				if len(r.cur) < r.maxCol {
					grown := make([]string, r.maxCol)
					copy(grown, r.cur)
					r.cur = grown
				}
				r.inRow = false
				return r.cur, true
			}
		}
	}
}

// cellValue consumes tokens to the end of the current <c>, capturing <v> or
// inline <is><t> content and resolving shared-string references.
func (r *sheetRows) cellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, err := r.dec.Token()
					if err != nil {
						break
					}
					if end, ok := tk.(xml.EndElement); ok && (end.Name.Local == "v" || end.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write([]byte(ch))
					}
				}
				val = sb.String()
			}
		case xml.EndElement:
			if se.Name.Local == "c" {
				if typ == "s" {
					idx := digitsPrefix(val)
					if idx >= 0 && idx < len(r.shared) {
						return r.shared[idx]
					}
					return ""
				}
				return val
			}
		}
	}
}

// columnIndex converts a cell reference like "C12" to its 0-based column.
func columnIndex(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			i++
			continue
		}
		break
	}
	idx := 0
	for _, c := range strings.ToUpper(ref[:i]) {
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1
}

func digitsPrefix(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// sheetRelPath converts a relationship target to its ZIP entry path.
// Targets may carry a leading slash, which ZIP entries never have.
func sheetRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return filepath.Join("xl", rel)
}

// zipPart returns a named archive member, or nil so a missing or corrupt
// part degrades to an empty section instead of failing the whole load.
func zipPart(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}
