package dataset

import (
	"bufio"
	"encoding/csv"
	"hash/fnv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Options controls dataset loading.
type Options struct {
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, auto-detects from the filename and header.
	Delimiter rune
	// Target names the column downstream target analysis focuses on.
	Target string
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Sheet selects an XLSX worksheet by name; SheetIndex by 1-based position.
	// Both empty means the first sheet.
	Sheet      string
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for dataset loading.
func DefaultOptions() Options {
	return Options{MaxRows: 100000}
}

// ErrEmptyDataset is returned when the input has no data rows. An empty
// dataset is one of the two hard stops in the tool.
var ErrEmptyDataset = errors.New("dataset has no rows")

// Load reads a CSV/TSV/XLSX file into a Frame, inferring a kind per column.
func Load(path string, opt Options) (*Frame, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path, opt)
	}
	return loadCSV(path, opt)
}

func loadCSV(path string, opt Options) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open dataset")
	}
	defer f.Close()

	br := bufio.NewReader(f)
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, br)
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.Wrap(ErrEmptyDataset, filepath.Base(path))
		}
		return nil, errors.Wrap(err, "read header")
	}

	b, err := newFrameBuilder(filepath.Base(path), header, opt)
	if err != nil {
		return nil, err
	}
	for !b.full() {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrapf(err, "read row %d", b.frame.Rows+1)
		}
		b.add(rec)
	}
	return b.finish()
}

// frameBuilder accumulates rows into a Frame. Both the CSV and the XLSX
// loaders feed it, so parsing, duplicate tracking, and kind inference behave
// identically across formats.
type frameBuilder struct {
	frame *Frame
	opt   Options
	ncol  int
	max   int
	seen  map[uint64]bool
}

func newFrameBuilder(name string, header []string, opt Options) (*frameBuilder, error) {
	ncol := len(header)
	if ncol == 0 {
		return nil, errors.Wrap(ErrEmptyDataset, name)
	}
	frame := &Frame{Name: name, Target: opt.Target, Columns: make([]Column, ncol)}
	for i, h := range header {
		clean, unit := splitUnits(strings.TrimSpace(h))
		frame.Columns[i] = Column{Name: clean, Unit: unit}
	}
	max := opt.MaxRows
	if max <= 0 {
		max = math.MaxInt
	}
	return &frameBuilder{frame: frame, opt: opt, ncol: ncol, max: max, seen: make(map[uint64]bool)}, nil
}

func (b *frameBuilder) full() bool { return b.frame.Rows >= b.max }

func (b *frameBuilder) add(rec []string) {
	if b.full() {
		return
	}
	if len(rec) < b.ncol {
		padded := make([]string, b.ncol)
		copy(padded, rec)
		rec = padded
	}
	b.frame.Rows++

	h := fnv.New64a()
	for j := 0; j < b.ncol; j++ {
		v := strings.TrimSpace(rec[j])
		h.Write([]byte(v))
		h.Write([]byte{0})
		c := &b.frame.Columns[j]
		c.Raw = append(c.Raw, v)
		if v == "" {
			c.Missing++
			c.Floats = append(c.Floats, math.NaN())
			continue
		}
		if strings.Contains(v, "%") && c.Unit == "" {
			c.Unit = "%"
		}
		if x, ok := parseNumeric(v, b.opt); ok {
			c.Floats = append(c.Floats, x)
		} else {
			c.Floats = append(c.Floats, math.NaN())
		}
	}
	sum := h.Sum64()
	if b.seen[sum] {
		b.frame.DuplicateRows++
	}
	b.seen[sum] = true
}

func (b *frameBuilder) finish() (*Frame, error) {
	frame := b.frame
	if frame.Rows == 0 {
		return nil, errors.Wrap(ErrEmptyDataset, frame.Name)
	}
	for i := range frame.Columns {
		inferKind(&frame.Columns[i])
	}
	if b.opt.Target != "" {
		if _, ok := frame.Column(b.opt.Target); !ok {
			return nil, errors.Newf("target column %q not found", b.opt.Target)
		}
	}
	return frame, nil
}

// inferKind decides a column's kind by its predominant parsed type, the same
// way the schema summary classifies columns.
func inferKind(c *Column) {
	var numCnt, dtCnt, txtCnt int
	cats := make(map[string]int)
	for i, raw := range c.Raw {
		if raw == "" {
			continue
		}
		if !math.IsNaN(c.Floats[i]) {
			numCnt++
			continue
		}
		if _, ok := parseTimeMaybe(raw); ok {
			dtCnt++
			continue
		}
		txtCnt++
		if len(raw) <= 64 && len(cats) <= 10000 {
			cats[raw]++
		}
	}

	switch {
	case numCnt >= dtCnt && numCnt >= txtCnt && numCnt > 0:
		c.Kind = KindNumeric
	case dtCnt >= txtCnt && dtCnt > 0:
		c.Kind = KindDatetime
	case len(cats) > 0:
		c.Kind = KindCategorical
		c.Unique = len(cats)
	case txtCnt > 0:
		c.Kind = KindText
	default:
		c.Kind = KindUnknown
	}
}

// sniffDelimiter picks the separator from the filename, falling back to
// whichever candidate dominates the header line.
func sniffDelimiter(path string, br *bufio.Reader) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	head, _ := br.Peek(4096)
	if i := strings.IndexByte(string(head), '\n'); i >= 0 {
		head = head[:i]
	}
	line := string(head)
	best, bestCnt := ',', strings.Count(line, ",")
	for _, cand := range []rune{';', '\t', '|'} {
		if n := strings.Count(line, string(cand)); n > bestCnt {
			best, bestCnt = cand, n
		}
	}
	return best
}
