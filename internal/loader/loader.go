// Package loader imports the Food.com recipe dataset into the database.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/recipe-recommender/backend/internal/metrics"
	"github.com/pageza/recipe-recommender/backend/internal/model"
)

const (
	// DefaultBatchSize is the number of recipes written per transaction
	DefaultBatchSize = 500

	// rows per INSERT or IN list, well below the bind parameter limits of
	// both postgres and sqlite
	chunkSize = 1000
)

// Stats summarises a load
type Stats struct {
	Recipes         int
	Skipped         int
	Tags            int64
	Ingredients     int64
	TagLinks        int64
	IngredientLinks int64
}

// Loader writes parsed rows in batches. Tags and ingredients are created on
// first sight and their ids cached for the rest of the load.
type Loader struct {
	db            *gorm.DB
	batchSize     int
	tagIDs        map[string]uint
	ingredientIDs map[string]uint
}

// New creates a loader; a batchSize below 1 selects DefaultBatchSize
func New(db *gorm.DB, batchSize int) *Loader {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Loader{
		db:            db,
		batchSize:     batchSize,
		tagIDs:        make(map[string]uint),
		ingredientIDs: make(map[string]uint),
	}
}

// Load reads the CSV from r and stores every parsable row in file order.
// Unparsable rows are logged and skipped. A failed batch aborts the load;
// batches committed before it are kept.
func (l *Loader) Load(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats
	start := time.Now()

	reader, err := NewReader(r)
	if err != nil {
		return stats, err
	}

	batch := make([]*Row, 0, l.batchSize)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			log.Warn().Int("line", rowErr.Line).Err(rowErr.Err).Msg("Skipping malformed recipe row")
			stats.Skipped++
			metrics.RecordLoaderRows("skipped", 1)
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read recipes: %w", err)
		}

		batch = append(batch, row)
		if len(batch) == l.batchSize {
			if err := l.flush(ctx, batch, &stats); err != nil {
				return stats, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := l.flush(ctx, batch, &stats); err != nil {
			return stats, err
		}
	}

	log.Info().
		Int("recipes", stats.Recipes).
		Int("skipped", stats.Skipped).
		Int64("tags", stats.Tags).
		Int64("ingredients", stats.Ingredients).
		Dur("elapsed", time.Since(start)).
		Msg("Recipe load complete")
	return stats, nil
}

// flush writes one batch in a single transaction
func (l *Loader) flush(ctx context.Context, rows []*Row, stats *Stats) error {
	newTags := make(map[string]uint)
	newIngredients := make(map[string]uint)
	var batchStats Stats

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := l.ensureTags(tx, rows, newTags)
		if err != nil {
			return err
		}
		batchStats.Tags = created

		created, err = l.ensureIngredients(tx, rows, newIngredients)
		if err != nil {
			return err
		}
		batchStats.Ingredients = created

		recipes := make([]model.Recipe, len(rows))
		for i, row := range rows {
			recipes[i] = row.Recipe
		}
		if err := tx.Omit(clause.Associations).CreateInBatches(&recipes, chunkSize).Error; err != nil {
			return fmt.Errorf("failed to insert recipes: %w", err)
		}

		var tagLinks []model.RecipeTag
		var ingredientLinks []model.RecipeIngredient
		for i, row := range rows {
			id := recipes[i].ID
			for _, name := range unique(row.Tags) {
				tagLinks = append(tagLinks, model.RecipeTag{RecipeID: id, TagID: lookup(name, newTags, l.tagIDs)})
			}
			for _, name := range unique(row.Ingredients) {
				ingredientLinks = append(ingredientLinks, model.RecipeIngredient{RecipeID: id, IngredientID: lookup(name, newIngredients, l.ingredientIDs)})
			}
		}

		if len(tagLinks) > 0 {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&tagLinks, chunkSize)
			if res.Error != nil {
				return fmt.Errorf("failed to link tags: %w", res.Error)
			}
			batchStats.TagLinks = res.RowsAffected
		}
		if len(ingredientLinks) > 0 {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ingredientLinks, chunkSize)
			if res.Error != nil {
				return fmt.Errorf("failed to link ingredients: %w", res.Error)
			}
			batchStats.IngredientLinks = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("batch ending at line %d: %w", rows[len(rows)-1].Line, err)
	}

	// ids only become visible to later batches once committed
	for name, id := range newTags {
		l.tagIDs[name] = id
	}
	for name, id := range newIngredients {
		l.ingredientIDs[name] = id
	}

	stats.Recipes += len(rows)
	stats.Tags += batchStats.Tags
	stats.Ingredients += batchStats.Ingredients
	stats.TagLinks += batchStats.TagLinks
	stats.IngredientLinks += batchStats.IngredientLinks
	metrics.RecordLoaderRows("loaded", len(rows))

	log.Debug().Int("recipes", stats.Recipes).Int("line", rows[len(rows)-1].Line).Msg("Batch committed")
	return nil
}

// ensureTags inserts unseen tag names and records their ids in found
func (l *Loader) ensureTags(tx *gorm.DB, rows []*Row, found map[string]uint) (int64, error) {
	missing := missingNames(rows, func(r *Row) []string { return r.Tags }, l.tagIDs)

	var created int64
	for _, chunk := range chunks(missing) {
		tags := make([]model.Tag, len(chunk))
		for i, name := range chunk {
			tags[i] = model.Tag{TagName: name}
		}
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tag_name"}}, DoNothing: true}).Create(&tags)
		if res.Error != nil {
			return 0, fmt.Errorf("failed to insert tags: %w", res.Error)
		}
		created += res.RowsAffected

		// rows that already existed come back without an id
		var stored []model.Tag
		if err := tx.Where("tag_name IN ?", chunk).Find(&stored).Error; err != nil {
			return 0, fmt.Errorf("failed to look up tags: %w", err)
		}
		for _, tag := range stored {
			found[tag.TagName] = tag.ID
		}
	}
	return created, nil
}

// ensureIngredients inserts unseen ingredient names and records their ids in found
func (l *Loader) ensureIngredients(tx *gorm.DB, rows []*Row, found map[string]uint) (int64, error) {
	missing := missingNames(rows, func(r *Row) []string { return r.Ingredients }, l.ingredientIDs)

	var created int64
	for _, chunk := range chunks(missing) {
		ingredients := make([]model.Ingredient, len(chunk))
		for i, name := range chunk {
			ingredients[i] = model.Ingredient{IngredientName: name}
		}
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "ingredient_name"}}, DoNothing: true}).Create(&ingredients)
		if res.Error != nil {
			return 0, fmt.Errorf("failed to insert ingredients: %w", res.Error)
		}
		created += res.RowsAffected

		var stored []model.Ingredient
		if err := tx.Where("ingredient_name IN ?", chunk).Find(&stored).Error; err != nil {
			return 0, fmt.Errorf("failed to look up ingredients: %w", err)
		}
		for _, ingredient := range stored {
			found[ingredient.IngredientName] = ingredient.ID
		}
	}
	return created, nil
}

// missingNames returns the distinct names of the batch not yet cached, in
// first-seen order
func missingNames(rows []*Row, names func(*Row) []string, cached map[string]uint) []string {
	seen := make(map[string]struct{})
	var missing []string
	for _, row := range rows {
		for _, name := range names(row) {
			if _, ok := cached[name]; ok {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			missing = append(missing, name)
		}
	}
	return missing
}

func lookup(name string, batch, cached map[string]uint) uint {
	if id, ok := batch[name]; ok {
		return id
	}
	return cached[name]
}

func unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func chunks(names []string) [][]string {
	var out [][]string
	for len(names) > chunkSize {
		out = append(out, names[:chunkSize])
		names = names[chunkSize:]
	}
	if len(names) > 0 {
		out = append(out, names)
	}
	return out
}
