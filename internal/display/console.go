package display

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"headlines/internal/domain"
)

// ConsoleRenderer печатает каждый новый список в io.Writer.
type ConsoleRenderer struct {
	w           io.Writer
	placeholder string
	log         *slog.Logger
}

func NewConsoleRenderer(w io.Writer, placeholder string, log *slog.Logger) *ConsoleRenderer {
	return &ConsoleRenderer{
		w:           w,
		placeholder: placeholder,
		log:         log.With(slog.String("component", "console")),
	}
}

// Run печатает списки из board до отмены ctx.
func (r *ConsoleRenderer) Run(ctx context.Context, board *Board) error {
	updates, unsubscribe := board.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if err := r.Render(snap); err != nil {
				r.log.Error("Failed to render headlines", slog.Any("error", err))
			}
		}
	}
}

// Render печатает один список.
func (r *ConsoleRenderer) Render(snap domain.Snapshot) error {
	page := View(snap, r.placeholder)
	var b strings.Builder
	fmt.Fprintf(&b, "=== Top headlines (%s/%s", page.Country, page.Language)
	if !page.Derived {
		b.WriteString(", default region")
	}
	fmt.Fprintf(&b, ") #%d ===\n", page.Version)
	if len(page.Items) == 0 {
		b.WriteString("  no headlines\n")
	}
	for i, item := range page.Items {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, item.Title)
		if item.Source != "" {
			fmt.Fprintf(&b, "    [%s]\n", item.Source)
		}
		if item.Description != "" {
			fmt.Fprintf(&b, "    %s\n", item.Description)
		}
		fmt.Fprintf(&b, "    image: %s\n", item.ImageURL)
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}
