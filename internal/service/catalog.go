package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/apperror"
	"github.com/sakif/podcast-api/internal/model"
	"github.com/sakif/podcast-api/internal/repository"
)

// Catalog is a bulk import document, read by cmd/seed from JSON.
//
//	{
//	  "categories": [{"title": "Tech"}],
//	  "content": [{"title": "Ep 1", "preview_path": "/p/1.png",
//	               "file_path": "/f/1.mp3", "categories": ["Tech"]}]
//	}
type Catalog struct {
	Categories []CatalogCategory `json:"categories"`
	Content    []CatalogItem     `json:"content"`
}

type CatalogCategory struct {
	Title string `json:"title"`
}

// CatalogItem is one content row. Categories are referenced by title and
// must be declared in Catalog.Categories or already exist in the store.
type CatalogItem struct {
	Title       *string  `json:"title"`
	PreviewPath string   `json:"preview_path"`
	FilePath    string   `json:"file_path"`
	Description *string  `json:"description"`
	Categories  []string `json:"categories"`
}

// ImportResult counts the rows an import wrote.
type ImportResult struct {
	CategoriesCreated int
	CategoriesReused  int
	ContentCreated    int
}

// CatalogService lists content and loads catalogs.
type CatalogService struct {
	contents   repository.ContentRepository
	categories repository.CategoryRepository
	tx         repository.Transactor
	logger     *zap.Logger
}

func NewCatalogService(
	contents repository.ContentRepository,
	categories repository.CategoryRepository,
	tx repository.Transactor,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		contents:   contents,
		categories: categories,
		tx:         tx,
		logger:     logger,
	}
}

// ListContent returns every content row in id order. An empty catalog is an
// empty, non-nil slice.
func (s *CatalogService) ListContent(ctx context.Context) ([]model.Content, error) {
	items, err := s.contents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing content: %w", err)
	}
	if items == nil {
		items = []model.Content{}
	}
	return items, nil
}

// ListCategories returns every category in id order.
func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing categories: %w", err)
	}
	return cats, nil
}

// CategoriesOf returns the categories linked to one content row.
func (s *CatalogService) CategoriesOf(ctx context.Context, contentID int64) ([]model.Category, error) {
	cats, err := s.contents.Categories(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: categories of content %d: %w", contentID, err)
	}
	return cats, nil
}

// Import writes cat in one transaction. Categories whose title already
// exists are reused. Any failure leaves the store unchanged.
func (s *CatalogService) Import(ctx context.Context, cat Catalog) (ImportResult, error) {
	if err := validateCatalog(cat); err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	err := s.tx.WithinTx(ctx, func(r repository.Repositories) error {
		res = ImportResult{}

		existing, err := r.Categories.List(ctx)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}
		byTitle := make(map[string]int64, len(existing)+len(cat.Categories))
		for _, c := range existing {
			if c.Title != nil {
				if _, seen := byTitle[*c.Title]; !seen {
					byTitle[*c.Title] = c.ID
				}
			}
		}

		for _, c := range cat.Categories {
			if _, ok := byTitle[c.Title]; ok {
				res.CategoriesReused++
				continue
			}
			title := c.Title
			row := &model.Category{Title: &title}
			if err := r.Categories.Create(ctx, row); err != nil {
				return fmt.Errorf("creating category %q: %w", c.Title, err)
			}
			byTitle[c.Title] = row.ID
			res.CategoriesCreated++
		}

		for i, item := range cat.Content {
			ids := make([]int64, 0, len(item.Categories))
			for _, title := range item.Categories {
				id, ok := byTitle[title]
				if !ok {
					return apperror.ValidationFailed(
						fmt.Sprintf("content[%d].categories", i),
						fmt.Sprintf("category %q is not declared", title),
					)
				}
				ids = append(ids, id)
			}

			row := &model.Content{
				Title:       item.Title,
				PreviewPath: item.PreviewPath,
				FilePath:    item.FilePath,
				Description: item.Description,
			}
			if err := r.Contents.Create(ctx, row, ids...); err != nil {
				return fmt.Errorf("creating content %q: %w", item.FilePath, err)
			}
			res.ContentCreated++
		}
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return ImportResult{}, err
		}
		s.logger.Error("catalog import failed", zap.Error(err))
		return ImportResult{}, fmt.Errorf("service/catalog: import: %w", err)
	}

	s.logger.Info("catalog imported",
		zap.Int("categories_created", res.CategoriesCreated),
		zap.Int("categories_reused", res.CategoriesReused),
		zap.Int("content_created", res.ContentCreated),
	)
	return res, nil
}

func validateCatalog(cat Catalog) error {
	for i, c := range cat.Categories {
		field := fmt.Sprintf("categories[%d].title", i)
		if strings.TrimSpace(c.Title) == "" {
			return apperror.ValidationFailed(field, "title is required")
		}
		if utf8.RuneCountInString(c.Title) > model.MaxTitleLength {
			return apperror.ValidationFailed(field, fmt.Sprintf("title must be %d characters or fewer", model.MaxTitleLength))
		}
	}

	for i, item := range cat.Content {
		prefix := fmt.Sprintf("content[%d]", i)
		if item.Title != nil && utf8.RuneCountInString(*item.Title) > model.MaxTitleLength {
			return apperror.ValidationFailed(prefix+".title", fmt.Sprintf("title must be %d characters or fewer", model.MaxTitleLength))
		}
		if item.PreviewPath == "" {
			return apperror.ValidationFailed(prefix+".preview_path", "preview_path is required")
		}
		if utf8.RuneCountInString(item.PreviewPath) > model.MaxPreviewPathLength {
			return apperror.ValidationFailed(prefix+".preview_path", fmt.Sprintf("preview_path must be %d characters or fewer", model.MaxPreviewPathLength))
		}
		if item.FilePath == "" {
			return apperror.ValidationFailed(prefix+".file_path", "file_path is required")
		}
		if utf8.RuneCountInString(item.FilePath) > model.MaxFilePathLength {
			return apperror.ValidationFailed(prefix+".file_path", fmt.Sprintf("file_path must be %d characters or fewer", model.MaxFilePathLength))
		}
	}
	return nil
}
