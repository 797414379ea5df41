package display

import (
	"time"

	"headlines/internal/domain"
)

// DefaultPlaceholderImage показывается вместо отсутствующей картинки.
const DefaultPlaceholderImage = "/static/placeholder.svg"

// Item - новость в виде, готовом к отображению.
type Item struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	ImageURL    string    `json:"image_url"`
	Placeholder bool      `json:"placeholder"`
	PublishedAt time.Time `json:"published_at,omitzero"`
}

// Page - список новостей для отображения.
type Page struct {
	Version   uint64    `json:"version"`
	Country   string    `json:"country"`
	Language  string    `json:"language"`
	Derived   bool      `json:"derived"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
	Items     []Item    `json:"items"`
}

// View преобразует снимок в страницу; пустая ссылка на картинку заменяется
// на placeholder (или DefaultPlaceholderImage, если он пуст).
func View(snap domain.Snapshot, placeholder string) Page {
	if placeholder == "" {
		placeholder = DefaultPlaceholderImage
	}
	page := Page{
		Version:   snap.Version,
		Country:   string(snap.Region.Country),
		Language:  string(snap.Region.Language),
		Derived:   snap.Region.Derived,
		UpdatedAt: snap.UpdatedAt,
		Items:     make([]Item, 0, len(snap.Articles)),
	}
	for _, a := range snap.Articles {
		item := Item{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			PublishedAt: a.PublishedAt,
		}
		if !a.HasImage() {
			item.ImageURL = placeholder
			item.Placeholder = true
		}
		page.Items = append(page.Items, item)
	}
	return page
}
