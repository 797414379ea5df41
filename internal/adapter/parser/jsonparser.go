package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"headlines/internal/domain"
)

type headlinesJSON struct {
	Status       string         `json:"status"`
	TotalResults int            `json:"totalResults"`
	Articles     *[]articleJSON `json:"articles"`
	Code         string         `json:"code"`
	Message      string         `json:"message"`
}

type sourceJSON struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

type articleJSON struct {
	Source      sourceJSON `json:"source"`
	Author      *string    `json:"author"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	URL         string     `json:"url"`
	URLToImage  *string    `json:"urlToImage"`
	PublishedAt string     `json:"publishedAt"`
	Content     *string    `json:"content"`
}

// APIError описывает ответ сервиса заголовков со статусом "error".
type APIError struct {
	Status  string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("headlines api returned status %q: %s: %s", e.Status, e.Code, e.Message)
}

type JSONParser struct {
	log *slog.Logger
}

func NewJSONParser(log *slog.Logger) *JSONParser {
	return &JSONParser{
		log: log.With(slog.String("component", "headlines-parser")),
	}
}

// Parse реализует метод интерфейса HeadlinesParser.
// Ответ со статусом, отличным от "ok", возвращается как *APIError.
// Порядок статей сохраняется, статьи не отбрасываются. Если поле articles
// отсутствует или равно null, Articles в результате равен nil.
func (p *JSONParser) Parse(ctx context.Context, reader io.Reader) (*domain.HeadlinesResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var payload headlinesJSON
	if err := json.NewDecoder(reader).Decode(&payload); err != nil {
		p.log.Error("Error decoding JSON", slog.Any("error", err))
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if payload.Status != domain.StatusOK {
		apiErr := &APIError{Status: payload.Status, Code: payload.Code, Message: payload.Message}
		p.log.Error("Headlines API reported failure",
			slog.String("status", payload.Status),
			slog.String("code", payload.Code),
		)
		return nil, apiErr
	}
	resp := &domain.HeadlinesResponse{
		Status:       payload.Status,
		TotalResults: payload.TotalResults,
	}
	if payload.Articles == nil {
		p.log.Warn("Headlines response has no articles list")
		return resp, nil
	}
	resp.Articles = make([]domain.Article, 0, len(*payload.Articles))
	for _, dto := range *payload.Articles {
		publishedAt, err := parsePublishedAt(dto.PublishedAt)
		if err != nil {
			p.log.Warn("could not parse article publishedAt",
				slog.String("publishedAt", dto.PublishedAt),
				slog.String("item_title", dto.Title),
			)
		}
		resp.Articles = append(resp.Articles, domain.Article{
			Source:      domain.Source{ID: deref(dto.Source.ID), Name: dto.Source.Name},
			Author:      deref(dto.Author),
			Title:       dto.Title,
			Description: deref(dto.Description),
			URL:         dto.URL,
			URLToImage:  strings.TrimSpace(deref(dto.URLToImage)),
			PublishedAt: publishedAt,
			Content:     deref(dto.Content),
		})
	}
	return resp, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parsePublishedAt разбирает дату публикации; пустая строка дает нулевое время.
func parsePublishedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date in any known format: %q", s)
}
