package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"realty-automation/models"
)

var defaultLeadOpts = LeadOptions{
	NameColumns:  []string{"Name"},
	PhoneColumns: []string{"Mobile", "Phone"},
}

func TestReadLeadsCSV_Basic(t *testing.T) {
	input := "Name,Mobile,City\nAsha,9999999999,Bengaluru\n,9876543210,Mysuru\n"

	leads, err := ReadLeadsCSV(strings.NewReader(input), defaultLeadOpts)
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, models.Lead{Row: 1, Name: "Asha", Phone: "9999999999"}, leads[0])
	assert.Equal(t, models.Lead{Row: 2, Name: "", Phone: "9876543210"}, leads[1])
	assert.False(t, leads[1].Valid())
}

func TestReadLeadsCSV_StripsBOMAndFoldsHeaderCase(t *testing.T) {
	input := "\xEF\xBB\xBFNAME , phone\n  Ravi  , 98450 00000 \n"

	leads, err := ReadLeadsCSV(strings.NewReader(input), defaultLeadOpts)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Ravi", leads[0].Name)
	assert.Equal(t, "98450 00000", leads[0].Phone)
}

func TestReadLeadsCSV_KeepsRowsWithOnlyBlankCells(t *testing.T) {
	input := "Name,Mobile\nA,1\n,\nB,2\n"

	leads, err := ReadLeadsCSV(strings.NewReader(input), defaultLeadOpts)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, models.Lead{Row: 2}, leads[1])
	assert.False(t, leads[1].Valid())
	assert.Equal(t, 3, leads[2].Row)
}

func TestReadLeadsCSV_ShortRow(t *testing.T) {
	input := "Name,Mobile\nOnlyName\n"

	leads, err := ReadLeadsCSV(strings.NewReader(input), defaultLeadOpts)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "", leads[0].Phone)
}

func TestReadLeadsCSV_MissingColumn(t *testing.T) {
	_, err := ReadLeadsCSV(strings.NewReader("Customer,Mobile\nA,1\n"), defaultLeadOpts)
	assert.Error(t, err)

	_, err = ReadLeadsCSV(strings.NewReader(""), defaultLeadOpts)
	assert.Error(t, err)
}

func TestReadLeads_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	require.NoError(t, err)
	for _, rec := range [][]string{{"Name", "Mobile"}, {"Asha", "9999999999"}, {"Kiran", ""}} {
		row := sheet.AddRow()
		for _, v := range rec {
			row.AddCell().SetString(v)
		}
	}
	require.NoError(t, f.Save(path))

	leads, err := ReadLeads(path, defaultLeadOpts)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "Asha", leads[0].Name)
	assert.Equal(t, "9999999999", leads[0].Phone)
	assert.False(t, leads[1].Valid())
}

func TestReadLeads_CSVFileAndUnsupportedExt(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "leads.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Name,Mobile\nAsha,1\n"), 0644))

	leads, err := ReadLeads(csvPath, defaultLeadOpts)
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	_, err = ReadLeads(filepath.Join(dir, "leads.pdf"), defaultLeadOpts)
	assert.Error(t, err)

	_, err = ReadLeads(filepath.Join(dir, "missing.csv"), defaultLeadOpts)
	assert.Error(t, err)
}
