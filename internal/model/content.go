package model

// Content is a single podcast episode or media item.
//
// Title and Description are nullable columns, so they are pointers: nil means
// NULL in the database and null on the wire. An empty string is a real value.
type Content struct {
	ID          int64   `db:"id"`
	Title       *string `db:"title"`
	PreviewPath string  `db:"preview_path"`
	FilePath    string  `db:"file_path"`
	Description *string `db:"description"`
}

const (
	MaxTitleLength       = 255
	MaxPreviewPathLength = 255
	MaxFilePathLength    = 80
)

// Serialize returns the scalar columns of the content row. Linked categories
// are never included.
func (c *Content) Serialize() map[string]any {
	return map[string]any{
		"id":           c.ID,
		"title":        nullable(c.Title),
		"preview_path": c.PreviewPath,
		"file_path":    c.FilePath,
		"description":  nullable(c.Description),
	}
}

// nullable unwraps a nullable column so the map holds either a plain string or
// an untyped nil.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
