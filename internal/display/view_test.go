package display

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"headlines/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_SubstitutesPlaceholder(t *testing.T) {
	snap := domain.Snapshot{
		Version: 4,
		Region:  ru,
		Articles: []domain.Article{
			{Title: "with image", Source: domain.Source{Name: "RBC"}, URLToImage: "https://img.example/a.jpg"},
			{Title: "without image"},
		},
	}

	page := View(snap, "/img/none.png")

	require.Len(t, page.Items, 2)
	assert.Equal(t, "https://img.example/a.jpg", page.Items[0].ImageURL)
	assert.False(t, page.Items[0].Placeholder)
	assert.Equal(t, "RBC", page.Items[0].Source)
	assert.Equal(t, "/img/none.png", page.Items[1].ImageURL)
	assert.True(t, page.Items[1].Placeholder)
	assert.Equal(t, "RU", page.Country)
	assert.Equal(t, uint64(4), page.Version)
}

func TestView_DefaultPlaceholderAndEmptyList(t *testing.T) {
	page := View(domain.Snapshot{Articles: []domain.Article{{Title: "x"}}}, "")
	assert.Equal(t, DefaultPlaceholderImage, page.Items[0].ImageURL)

	empty := View(domain.Snapshot{}, "")
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func TestConsoleRenderer_Render(t *testing.T) {
	var out bytes.Buffer
	r := NewConsoleRenderer(&out, "", discardLogger())

	err := r.Render(domain.Snapshot{
		Version: 1,
		Region:  domain.Region{Country: "ru", Language: "ru"},
		Articles: []domain.Article{
			{Title: "Headline", Description: "Body", Source: domain.Source{Name: "TASS"}},
		},
	})

	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "=== Top headlines (ru/ru, default region) #1 ===")
	assert.Contains(t, text, " 1. Headline")
	assert.Contains(t, text, "[TASS]")
	assert.Contains(t, text, "image: "+DefaultPlaceholderImage)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConsoleRenderer_RunPrintsPublishedLists(t *testing.T) {
	board := NewBoard(discardLogger())
	out := &syncBuffer{}
	r := NewConsoleRenderer(out, "", discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	board.Publish(ctx, ru, articles("before start"))
	go func() { done <- r.Run(ctx, board) }()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "before start")
	}, time.Second, 10*time.Millisecond)

	board.Publish(ctx, ru, articles("after start"))
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "after start")
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
