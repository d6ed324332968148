package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pageza/recipe-recommender/backend/internal/model"
)

// Columns read from a RAW_recipes.csv export. id, contributor_id and
// submitted are present in the file but not loaded.
var requiredColumns = []string{
	"name", "minutes", "tags", "nutrition", "n_steps",
	"steps", "description", "ingredients", "n_ingredients",
}

// Row is one parsed CSV record together with its association names
type Row struct {
	Line        int
	Recipe      model.Recipe
	Tags        []string
	Ingredients []string
}

// RowError reports a record that could not be parsed
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Reader decodes recipes from CSV, locating columns by header name
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
}

// NewReader reads the header line and checks that every needed column exists
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	return &Reader{csv: cr, columns: columns}, nil
}

// Next returns the next row. It returns io.EOF at the end of input and a
// *RowError for a record that cannot be parsed; reading may continue after a
// RowError.
func (r *Reader) Next() (*Row, error) {
	record, err := r.csv.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, &RowError{Line: parseErr.Line, Err: parseErr.Err}
		}
		return nil, err
	}

	line, _ := r.csv.FieldPos(0)
	row, err := r.parse(record)
	if err != nil {
		return nil, &RowError{Line: line, Err: err}
	}
	row.Line = line
	return row, nil
}

func (r *Reader) parse(record []string) (*Row, error) {
	field := func(name string) string {
		i := r.columns[name]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	minutes, err := parseInt(field("minutes"))
	if err != nil {
		return nil, fmt.Errorf("minutes: %w", err)
	}
	nSteps, err := parseInt(field("n_steps"))
	if err != nil {
		return nil, fmt.Errorf("n_steps: %w", err)
	}
	nIngredients, err := parseInt(field("n_ingredients"))
	if err != nil {
		return nil, fmt.Errorf("n_ingredients: %w", err)
	}
	nutrition, err := ParseNutrition(field("nutrition"))
	if err != nil {
		return nil, err
	}
	tags, err := ParseStringList(field("tags"))
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	steps, err := ParseStringList(field("steps"))
	if err != nil {
		return nil, fmt.Errorf("steps: %w", err)
	}
	ingredients, err := ParseStringList(field("ingredients"))
	if err != nil {
		return nil, fmt.Errorf("ingredients: %w", err)
	}

	return &Row{
		Recipe: model.Recipe{
			Name:             field("name"),
			Minutes:          minutes,
			Description:      field("description"),
			Steps:            model.StringList(steps),
			NSteps:           nSteps,
			NIngredients:     nIngredients,
			Calories:         nutrition.Calories,
			TotalFatPDV:      nutrition.TotalFatPDV,
			SugarPDV:         nutrition.SugarPDV,
			SodiumPDV:        nutrition.SodiumPDV,
			ProteinPDV:       nutrition.ProteinPDV,
			SaturatedFatPDV:  nutrition.SaturatedFatPDV,
			CarbohydratesPDV: nutrition.CarbohydratesPDV,
		},
		Tags:        tags,
		Ingredients: ingredients,
	}, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
