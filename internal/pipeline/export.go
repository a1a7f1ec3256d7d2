package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"restaurantfinder/internal"
)

// WriteJSON writes v as two-space indented JSON, creating parent directories.
func WriteJSON(path string, v any) error {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

// ReadRecordsJSON loads a record array. A missing file keeps os.ErrNotExist
// in the chain so callers can treat the source as absent.
func ReadRecordsJSON(path string) ([]internal.Record, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []internal.Record
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

func ReadRestaurantsJSON(path string) ([]internal.FinalRestaurant, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []internal.FinalRestaurant
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

func ExportRestaurantsToXLSX(restaurants []internal.FinalRestaurant, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{
		"id", "name", "chef", "address", "city", "state", "state_name",
		"lat", "lng", "cuisine", "price_range", "source", "url",
		"has_michelin", "has_james_beard", "michelin_stars", "is_bib_gourmand", "james_beard_status",
		"awards",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range restaurants {
		row := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, r.ID)
		set(2, r.Name)
		set(3, r.Chef)
		set(4, r.Address)
		set(5, r.City)
		set(6, r.State)
		set(7, r.StateName)
		set(8, derefFloat(r.Lat))
		set(9, derefFloat(r.Lng))
		set(10, r.Cuisine)
		set(11, r.PriceRange)
		set(12, string(r.Source))
		set(13, r.URL)
		set(14, r.HasMichelin)
		set(15, r.HasJamesBeard)
		set(16, derefString(r.MichelinStars))
		set(17, r.IsBibGourmand)
		set(18, derefString(r.JamesBeardStatus))
		set(19, formatAwards(r.Awards))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// formatAwards renders "type (year)" entries joined with "; ".
func formatAwards(awards []internal.AwardEntry) string {
	parts := make([]string, 0, len(awards))
	for _, a := range awards {
		parts = append(parts, fmt.Sprintf("%s (%d)", a.Type, a.Year))
	}
	return strings.Join(parts, "; ")
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
