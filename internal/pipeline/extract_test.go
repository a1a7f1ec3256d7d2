package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"restaurantfinder/internal"
)

func TestParseCSV(t *testing.T) {
	text := "\uFEFFName, \"Location\" ,Award\r\n" +
		"Chez Leon,\"Chicago, Illinois\",One Star\r\n" +
		"\n" +
		"   \n" +
		"Short Row\n"
	table := ParseCSV(text)

	assert.Equal(t, []string{"Name", "Location", "Award"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, internal.RawRow{"Name": "Chez Leon", "Location": "Chicago, Illinois", "Award": "One Star"}, table.Rows[0])
	assert.Equal(t, internal.RawRow{"Name": "Short Row", "Location": "", "Award": ""}, table.Rows[1])
}

func TestParseCSVKnownLimitations(t *testing.T) {
	t.Run("escaped quotes are not collapsed", func(t *testing.T) {
		table := ParseCSV("a,b\n\"say \"\"hi\"\"\",x\n")
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "say hi", table.Rows[0]["a"])
		assert.Equal(t, "x", table.Rows[0]["b"])
	})

	t.Run("quoted header comma is split", func(t *testing.T) {
		table := ParseCSV("\"city, state\",x\n1,2\n")
		assert.Equal(t, []string{"city", "state", "x"}, table.Headers)
	})

	t.Run("extra cells are ignored", func(t *testing.T) {
		table := ParseCSV("a\n1,2,3\n")
		require.Len(t, table.Rows, 1)
		assert.Equal(t, internal.RawRow{"a": "1"}, table.Rows[0])
	})

	t.Run("empty input", func(t *testing.T) {
		table := ParseCSV("")
		assert.Empty(t, table.Rows)
	})
}

func TestParseHTMLTable(t *testing.T) {
	html := `<html><body>
<table><tr><td>layout only</td></tr></table>
<table>
  <tr><th>restaurant_name</th><th>location</th><th>award_status</th></tr>
  <tr><td>Leon's</td><td>Chicago,  IL</td><td>Winner</td></tr>
  <tr><td></td><td></td><td></td></tr>
  <tr><td>Mako</td></tr>
</table></body></html>`
	table := ParseHTMLTable(html)

	assert.Equal(t, []string{"restaurant_name", "location", "award_status"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Chicago, IL", table.Rows[0]["location"])
	assert.Equal(t, "", table.Rows[1]["award_status"])
}

func mkXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf := bytes.NewBuffer(nil)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	blob := mkXLSX(t, [][]any{
		{"Name", "Location", "Latitude"},
		{"Alinea", "Chicago, Illinois", 41.9134},
		{"", "", ""},
		{"Smyth", "Chicago, Illinois"},
	})
	table, err := ParseXLSX(blob)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Location", "Latitude"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Alinea", table.Rows[0]["Name"])
	assert.Equal(t, "41.9134", table.Rows[0]["Latitude"])
	assert.Equal(t, "", table.Rows[1]["Latitude"])
}

func TestParseInput(t *testing.T) {
	table, err := ParseInput("CSV", []byte("a\n1\n"))
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	_, err = ParseInput("pdf", nil)
	assert.Error(t, err)
}
