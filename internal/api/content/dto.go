package content

import (
	"time"

	"course-studio/internal/domain/courses"
	"course-studio/internal/domain/items"
	"course-studio/internal/infra/storage"
)

type ItemDTO struct {
	ID      uint       `json:"id"`
	Type    items.Kind `json:"type"`
	Title   string     `json:"title"`
	Content string     `json:"content,omitempty"`
	URL     string     `json:"url,omitempty"`
	File    string     `json:"file,omitempty"`
	FileURL string     `json:"file_url,omitempty"`
	Created time.Time  `json:"created"`
	Updated time.Time  `json:"updated"`
}

type ContentDTO struct {
	ID       uint       `json:"id"`
	ModuleID uint       `json:"module_id"`
	Order    int        `json:"order"`
	Type     items.Kind `json:"type"`
	Item     ItemDTO    `json:"item"`
}

func NewItemDTO(it items.Item, store storage.Store) ItemDTO {
	base := items.BaseOf(it)
	dto := ItemDTO{
		ID:      base.ID,
		Type:    it.Kind(),
		Title:   base.Title,
		Created: base.CreatedAt,
		Updated: base.UpdatedAt,
	}
	switch v := it.(type) {
	case *items.Text:
		dto.Content = v.Content
	case *items.Video:
		dto.URL = v.URL
	case *items.Image, *items.File:
		dto.File = items.BlobKey(v)
		if store != nil && dto.File != "" {
			dto.FileURL = store.URL(dto.File)
		}
	}
	return dto
}

func NewContentDTO(row courses.Content, it items.Item, store storage.Store) ContentDTO {
	return ContentDTO{
		ID:       row.ID,
		ModuleID: row.ModuleID,
		Order:    row.SortIndex,
		Type:     row.ItemType,
		Item:     NewItemDTO(it, store),
	}
}
