package vocabulary

import (
	"context"
	"fmt"
)

// ColumnLoader reads the values of one spreadsheet column.
type ColumnLoader interface {
	LoadColumn(ctx context.Context, sheetTitle, column string, skipHeader bool) ([]string, error)
}

// SheetLayout names the sheet holding each vocabulary list. Each list is read
// from column A below a header row. Empty titles keep the default list.
type SheetLayout struct {
	Locations        string
	Resources        string
	PhoneKeywords    string
	ExclusionTerms   string
	ExclusionPhrases string
}

// DefaultSheetLayout is the layout used when none is configured.
var DefaultSheetLayout = SheetLayout{
	Locations: "Locations",
	Resources: "Resources",
}

// LoadFromSheets reads the configured lists and falls back to the built-in
// vocabulary for the rest. Resource detail patterns always come from the
// defaults.
func LoadFromSheets(ctx context.Context, loader ColumnLoader, layout SheetLayout) (*Vocabulary, error) {
	var fromSheets Vocabulary

	lists := []struct {
		sheet string
		dest  *[]string
	}{
		{layout.Locations, &fromSheets.Locations},
		{layout.Resources, &fromSheets.Resources},
		{layout.PhoneKeywords, &fromSheets.PhoneKeywords},
		{layout.ExclusionTerms, &fromSheets.ExclusionTerms},
		{layout.ExclusionPhrases, &fromSheets.ExclusionPhrases},
	}
	for _, list := range lists {
		if list.sheet == "" {
			continue
		}
		values, err := loader.LoadColumn(ctx, list.sheet, "A", true)
		if err != nil {
			return nil, fmt.Errorf("failed to load vocabulary sheet %s: %w", list.sheet, err)
		}
		*list.dest = values
	}

	vocab := Defaults().Merge(&fromSheets)
	if err := vocab.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vocabulary sheets: %w", err)
	}
	return vocab, nil
}
