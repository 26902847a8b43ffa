package db

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/raphaelgruber/recipebox/internal/models"
)

type optionRow struct {
	Kind  models.OptionKind `db:"kind"`
	Key   string            `db:"key"`
	Label string            `db:"label"`
}

// GetMetadata returns every reference list ordered by position.
func (c *Client) GetMetadata(ctx context.Context) (_ *models.Metadata, err error) {
	defer c.metrics.Track(metrics.OpDBQuery)(&err)

	var rows []optionRow
	if err := pgxscan.Select(ctx, c.pool, &rows, `
		SELECT kind, key, label FROM metadata_options
		ORDER BY kind, position, key`); err != nil {
		return nil, fmt.Errorf("select metadata: %w", err)
	}

	md := &models.Metadata{
		Categories: []models.Option{},
		Levels:     []models.Option{},
		Labels:     []models.Option{},
		Units:      []models.Option{},
	}
	for _, r := range rows {
		opt := models.Option{Key: r.Key, Label: r.Label}
		switch r.Kind {
		case models.KindCategory:
			md.Categories = append(md.Categories, opt)
		case models.KindLevel:
			md.Levels = append(md.Levels, opt)
		case models.KindLabel:
			md.Labels = append(md.Labels, opt)
		case models.KindUnit:
			md.Units = append(md.Units, opt)
		default:
			c.logger.Warn("unknown metadata kind", "kind", r.Kind, "key", r.Key)
		}
	}
	return md, nil
}

// UpsertOption inserts or relabels a single metadata option.
func (c *Client) UpsertOption(ctx context.Context, kind models.OptionKind, opt models.Option, position int) (err error) {
	defer c.metrics.Track(metrics.OpDBQuery)(&err)

	_, err = c.pool.Exec(ctx, `
		INSERT INTO metadata_options (kind, key, label, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, key) DO UPDATE SET label = EXCLUDED.label, position = EXCLUDED.position`,
		string(kind), opt.Key, opt.Label, position)
	if err != nil {
		return fmt.Errorf("upsert option: %w", wrapQueryError(err))
	}
	return nil
}
