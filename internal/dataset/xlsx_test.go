package dataset

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeWorkbook assembles a minimal two-sheet XLSX on disk. Sheet1 carries a
// small numeric/categorical table with shared strings and a sparse cell;
// Sheet2 holds a different single column so sheet selection is observable.
func writeWorkbook(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0"?>
<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets>
    <sheet name="Harvest" sheetId="1" r:id="rId1"/>
    <sheet name="Notes" sheetId="2" r:id="rId2"/>
  </sheets>
</workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0"?>
<Relationships>
  <Relationship Id="rId1" Target="worksheets/sheet1.xml"/>
  <Relationship Id="rId2" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`,
		"xl/sharedStrings.xml": `<?xml version="1.0"?>
<sst>
  <si><t>batch</t></si>
  <si><t>volume (L)</t></si>
  <si><t>grade</t></si>
  <si><t>ale</t></si>
  <si><t>la</t><t>ger</t></si>
</sst>`,
		"xl/worksheets/sheet1.xml": `<?xml version="1.0"?>
<worksheet>
  <sheetData>
    <row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>2</v></c></row>
    <row r="2"><c r="A2"><v>1</v></c><c r="B2"><v>10.5</v></c><c r="C2" t="s"><v>3</v></c></row>
    <row r="3"><c r="A3"><v>2</v></c><c r="B3"><v>11.2</v></c><c r="C3" t="s"><v>4</v></c></row>
    <row r="4"><c r="A4"><v>3</v></c><c r="C4" t="s"><v>3</v></c></row>
  </sheetData>
</worksheet>`,
		"xl/worksheets/sheet2.xml": `<?xml version="1.0"?>
<worksheet>
  <sheetData>
    <row r="1"><c r="A1" t="inlineStr"><is><t>remark</t></is></c></row>
    <row r="2"><c r="A2" t="inlineStr"><is><t>second sheet only</t></is></c></row>
  </sheetData>
</worksheet>`,
	}
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	path := filepath.Join(t.TempDir(), "harvest.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return path
}

func TestLoadXLSXFirstSheet(t *testing.T) {
	path := writeWorkbook(t)
	f, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Rows != 3 {
		t.Fatalf("rows = %d, want 3", f.Rows)
	}
	if len(f.Columns) != 3 {
		t.Fatalf("cols = %d, want 3", len(f.Columns))
	}

	vol, ok := f.Column("volume")
	if !ok {
		t.Fatal("missing volume column (header unit should split off)")
	}
	if vol.Unit != "L" {
		t.Errorf("volume unit = %q, want L", vol.Unit)
	}
	if vol.Kind != KindNumeric {
		t.Errorf("volume kind = %s, want numeric", vol.Kind)
	}
	if vol.Missing != 1 {
		t.Errorf("volume missing = %d, want 1 (sparse B4 cell)", vol.Missing)
	}

	grade, ok := f.Column("grade")
	if !ok {
		t.Fatal("missing grade column")
	}
	if grade.Kind != KindCategorical {
		t.Errorf("grade kind = %s, want categorical", grade.Kind)
	}
	if grade.Raw[1] != "lager" {
		t.Errorf("rich-text shared string = %q, want lager", grade.Raw[1])
	}
}

func TestLoadXLSXSheetByName(t *testing.T) {
	path := writeWorkbook(t)
	f, err := Load(path, Options{Sheet: "notes"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(f.Columns) != 1 || f.Columns[0].Name != "remark" {
		t.Fatalf("unexpected schema: %+v", f.Meta().Columns)
	}
	if f.Rows != 1 {
		t.Errorf("rows = %d, want 1", f.Rows)
	}
	if f.Columns[0].Raw[0] != "second sheet only" {
		t.Errorf("inline string = %q", f.Columns[0].Raw[0])
	}
}

func TestLoadXLSXSheetByIndex(t *testing.T) {
	path := writeWorkbook(t)
	f, err := Load(path, Options{SheetIndex: 2})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Columns[0].Name != "remark" {
		t.Errorf("column = %q, want remark", f.Columns[0].Name)
	}
}

func TestLoadXLSXUnknownSheet(t *testing.T) {
	path := writeWorkbook(t)
	_, err := Load(path, Options{Sheet: "nope"})
	if err == nil {
		t.Fatal("expected an error for an unknown sheet")
	}
	if got := err.Error(); !strings.Contains(got, "Harvest") {
		t.Errorf("error should list available sheets, got: %s", got)
	}
}

// Some writers omit the optional cell reference attribute entirely; cells
// then land at consecutive positions in document order.
func TestLoadXLSXCellsWithoutRefs(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0"?>
<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets><sheet name="Data" sheetId="1" r:id="rId1"/></sheets>
</workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0"?>
<Relationships><Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/worksheets/sheet1.xml": `<?xml version="1.0"?>
<worksheet>
  <sheetData>
    <row><c t="inlineStr"><is><t>name</t></is></c><c t="inlineStr"><is><t>score</t></is></c></row>
    <row><c t="inlineStr"><is><t>alpha</t></is></c><c><v>1.5</v></c></row>
    <row><c t="inlineStr"><is><t>beta</t></is></c><c><v>2.5</v></c></row>
  </sheetData>
</worksheet>`,
	}
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	path := filepath.Join(t.TempDir(), "norefs.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Rows != 2 {
		t.Fatalf("rows = %d, want 2", f.Rows)
	}
	score, ok := f.Column("score")
	if !ok {
		t.Fatal("missing score column")
	}
	if score.Kind != KindNumeric {
		t.Errorf("score kind = %s, want numeric", score.Kind)
	}
	if score.Raw[0] != "1.5" || score.Raw[1] != "2.5" {
		t.Errorf("score values = %v, want [1.5 2.5]", score.Raw)
	}
}

func TestLoadXLSXNotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.xlsx")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, Options{}); err == nil {
		t.Fatal("expected an error for a non-zip file")
	}
}
