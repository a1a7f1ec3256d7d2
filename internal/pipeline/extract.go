package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"restaurantfinder/internal"
)

const (
	FormatCSV  = "csv"
	FormatHTML = "html"
	FormatXLSX = "xlsx"
)

// ParseInput turns a fetched feed body into a Table.
func ParseInput(format string, blob []byte) (internal.Table, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		return ParseCSV(string(blob)), nil
	case FormatHTML:
		return ParseHTMLTable(string(blob)), nil
	case FormatXLSX:
		return ParseXLSX(blob)
	default:
		return internal.Table{}, fmt.Errorf("unsupported input format: %s", format)
	}
}

// ParseCSV reads comma-delimited text whose first line is the header.
//
// The header line is split on every comma and has its quotes removed, so a
// quoted header containing a comma is split. Data lines honour double quotes
// as a toggle, the quote characters themselves are dropped and "" is not
// collapsed to a literal quote. Records never span lines. Blank lines are
// skipped and missing trailing cells read as "".
func ParseCSV(text string) internal.Table {
	lines := strings.Split(text, "\n")
	headers := splitHeaderLine(lines[0])

	rows := make([]internal.RawRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if trimCell(line) == "" {
			continue
		}
		rows = append(rows, toRawRow(headers, splitDataLine(line)))
	}
	return internal.Table{Headers: headers, Rows: rows}
}

func splitHeaderLine(line string) []string {
	parts := strings.Split(line, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.ReplaceAll(trimCell(p), `"`, ""))
	}
	return out
}

func splitDataLine(line string) []string {
	var (
		values   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			values = append(values, trimCell(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(values, trimCell(current.String()))
}

// ParseHTMLTable reads the first table with a header row and at least one
// data row. Cells are matched to headers by position.
func ParseHTMLTable(html string) internal.Table {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return internal.Table{}
	}

	var out internal.Table
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return true
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, normalizeSpaces(cell.Text()))
		})

		data := []internal.RawRow{}
		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, normalizeSpaces(cell.Text()))
			})
			if strings.Join(cells, "") == "" {
				return
			}
			data = append(data, toRawRow(headers, cells))
		})

		out = internal.Table{Headers: headers, Rows: data}
		return false
	})
	return out
}

// ParseXLSX reads the first sheet that has rows; its first non-empty row is
// the header.
func ParseXLSX(content []byte) (internal.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return internal.Table{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		var headers []string
		data := []internal.RawRow{}
		for _, row := range rows {
			cells := normalizeCells(row)
			if strings.Join(cells, "") == "" {
				continue
			}
			if headers == nil {
				headers = cells
				continue
			}
			data = append(data, toRawRow(headers, cells))
		}
		if headers != nil {
			return internal.Table{Headers: headers, Rows: data}, nil
		}
	}
	return internal.Table{}, nil
}

func toRawRow(headers, values []string) internal.RawRow {
	row := make(internal.RawRow, len(headers))
	for i, h := range headers {
		if i < len(values) {
			row[h] = values[i]
		} else {
			row[h] = ""
		}
	}
	return row
}

// trimCell strips surrounding whitespace including a byte order mark.
func trimCell(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

func normalizeSpaces(input string) string {
	return trimCell(strings.Join(strings.Fields(input), " "))
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, normalizeSpaces(c))
	}
	return out
}
