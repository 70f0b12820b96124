package model

// Category groups content. The link lives in the content_categories table;
// neither side carries the other's id.
type Category struct {
	ID    int64   `db:"id"`
	Title *string `db:"title"`
}

func (c *Category) Serialize() map[string]any {
	return map[string]any{
		"id":    c.ID,
		"title": nullable(c.Title),
	}
}

// ContentCategory is one row of the content_categories join table.
type ContentCategory struct {
	CategoryID int64 `db:"category_id"`
	ContentID  int64 `db:"content_id"`
}
