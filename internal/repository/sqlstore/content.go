package sqlstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/podcast-api/internal/apperror"
	"github.com/sakif/podcast-api/internal/model"
	"github.com/sakif/podcast-api/internal/repository"
)

var _ repository.ContentRepository = (*ContentStore)(nil)

type ContentStore struct {
	c conn
}

const contentColumns = `id, title, preview_path, file_path, description`

// Create inserts content and links it to categoryIDs in one transaction.
// If any link fails nothing is stored.
func (s *ContentStore) Create(ctx context.Context, content *model.Content, categoryIDs ...int64) error {
	return s.c.inTx(ctx, func(c conn) error {
		id, err := c.insert(ctx,
			`INSERT INTO content (title, preview_path, file_path, description) VALUES (?, ?, ?, ?)`,
			content.Title, content.PreviewPath, content.FilePath, content.Description,
		)
		if err != nil {
			if classify(err) == uniqueViolation {
				return fmt.Errorf("sqlstore: creating content: %w", apperror.Conflict("content", "file_path"))
			}
			return fmt.Errorf("sqlstore: creating content: %w", err)
		}

		for _, catID := range dedupe(categoryIDs) {
			link := model.ContentCategory{CategoryID: catID, ContentID: id}
			if _, err := sqlx.NamedExecContext(ctx, c.ext,
				`INSERT INTO content_categories (category_id, content_id) VALUES (:category_id, :content_id)`, link); err != nil {
				if classify(err) == foreignKeyViolation {
					return fmt.Errorf("sqlstore: linking content: %w",
						apperror.NotFound("category", strconv.FormatInt(catID, 10)))
				}
				return fmt.Errorf("sqlstore: linking content to category %d: %w", catID, err)
			}
		}

		content.ID = id
		return nil
	})
}

// dedupe drops repeated ids, keeping first-seen order. A repeated link would
// hit the composite primary key, and on Postgres that aborts the transaction.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// List returns every content row ordered by id. It never returns nil.
func (s *ContentStore) List(ctx context.Context) ([]model.Content, error) {
	out := []model.Content{}
	err := sqlx.SelectContext(ctx, s.c.ext, &out,
		`SELECT `+contentColumns+` FROM content ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing content: %w", err)
	}
	return out, nil
}

// Categories returns the categories linked to contentID, ordered by id.
func (s *ContentStore) Categories(ctx context.Context, contentID int64) ([]model.Category, error) {
	out := []model.Category{}
	err := sqlx.SelectContext(ctx, s.c.ext, &out, s.c.ext.Rebind(
		`SELECT c.id, c.title
		   FROM category c
		   JOIN content_categories cc ON cc.category_id = c.id
		  WHERE cc.content_id = ?
		  ORDER BY c.id`), contentID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing categories of content %d: %w", contentID, err)
	}
	return out, nil
}
