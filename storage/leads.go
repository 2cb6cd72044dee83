package storage

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/cases"

	"realty-automation/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LeadOptions names the header aliases that identify the name and phone
// columns. Matching is case-insensitive; the first alias present wins.
type LeadOptions struct {
	NameColumns  []string
	PhoneColumns []string
}

// ReadLeads loads leads from a .csv or .xlsx file. Rows keep their order and
// empty fields are preserved; validation belongs to the caller.
func ReadLeads(path string, opts LeadOptions) ([]models.Lead, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readLeadsXLSX(path, opts)
	case ".csv", ".txt", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "leads: open %s", path)
		}
		defer f.Close()
		return ReadLeadsCSV(f, opts)
	default:
		return nil, eris.Errorf("leads: unsupported file type %q", filepath.Ext(path))
	}
}

// ReadLeadsCSV parses UTF-8 CSV (with or without a byte-order mark) whose
// first row is the header.
func ReadLeadsCSV(r io.Reader, opts LeadOptions) ([]models.Lead, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "leads: read csv")
	}
	return leadsFromRecords(records, opts)
}

func readLeadsXLSX(path string, opts LeadOptions) ([]models.Lead, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "leads: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("leads: %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		records = append(records, cells)
	}
	return leadsFromRecords(records, opts)
}

func leadsFromRecords(records [][]string, opts LeadOptions) ([]models.Lead, error) {
	if len(records) == 0 {
		return nil, eris.New("leads: file has no header row")
	}

	header := records[0]
	nameIdx := columnIndex(header, opts.NameColumns)
	if nameIdx < 0 {
		return nil, eris.Errorf("leads: none of %v found in header %v", opts.NameColumns, header)
	}
	phoneIdx := columnIndex(header, opts.PhoneColumns)
	if phoneIdx < 0 {
		return nil, eris.Errorf("leads: none of %v found in header %v", opts.PhoneColumns, header)
	}

	// Rows with cells are kept even when every cell is blank; the campaign
	// counts them as failed. Only cell-less rows (sheet padding) are dropped.
	leads := make([]models.Lead, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		leads = append(leads, models.Lead{
			Row:   i + 1,
			Name:  field(rec, nameIdx),
			Phone: field(rec, phoneIdx),
		})
	}
	return leads, nil
}

// columnIndex returns the position of the first alias found in header, or -1.
func columnIndex(header, aliases []string) int {
	fold := cases.Fold()
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = fold.String(strings.TrimSpace(h))
	}
	for _, alias := range aliases {
		want := fold.String(strings.TrimSpace(alias))
		for i, h := range folded {
			if h == want {
				return i
			}
		}
	}
	return -1
}

func field(rec []string, idx int) string {
	if idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
