package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/podcast-api/internal/model"
	"github.com/sakif/podcast-api/internal/repository"
)

var _ repository.CategoryRepository = (*CategoryStore)(nil)

type CategoryStore struct {
	c conn
}

func (s *CategoryStore) Create(ctx context.Context, category *model.Category) error {
	id, err := s.c.insert(ctx, `INSERT INTO category (title) VALUES (?)`, category.Title)
	if err != nil {
		return fmt.Errorf("sqlstore: creating category: %w", err)
	}
	category.ID = id
	return nil
}

func (s *CategoryStore) List(ctx context.Context) ([]model.Category, error) {
	out := []model.Category{}
	if err := sqlx.SelectContext(ctx, s.c.ext, &out, `SELECT id, title FROM category ORDER BY id`); err != nil {
		return nil, fmt.Errorf("sqlstore: listing categories: %w", err)
	}
	return out, nil
}
