package platform

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"headlines/internal/domain"
)

// StaticPermissions возвращает заранее заданное решение о доступе к местоположению.
type StaticPermissions struct {
	grant domain.Grant
}

func NewStaticPermissions(grant domain.Grant) *StaticPermissions {
	return &StaticPermissions{grant: grant}
}

func (p *StaticPermissions) Check(context.Context) (domain.Grant, error) {
	return p.grant, nil
}

// Request ничего не спрашивает: решение уже принято в конфигурации.
// Неопределенное решение трактуется как отказ.
func (p *StaticPermissions) Request(context.Context) (domain.Grant, error) {
	if p.grant == domain.GrantUndetermined {
		return domain.GrantDenied, nil
	}
	return p.grant, nil
}

// PromptPermissions задает пользователю вопрос о доступе к местоположению
// и запоминает ответ до конца работы процесса.
// Ответы: "y" - точное местоположение, "c" - приблизительное, остальное - отказ.
type PromptPermissions struct {
	mu    sync.Mutex
	in    *bufio.Reader
	out   io.Writer
	log   *slog.Logger
	grant domain.Grant
	asked bool
	// pending - ожидаемый ответ от запущенного чтения; переживает отмену Request.
	pending chan answer
}

type answer struct {
	line string
	err  error
}

func NewPromptPermissions(in io.Reader, out io.Writer, log *slog.Logger) *PromptPermissions {
	return &PromptPermissions{
		in:  bufio.NewReader(in),
		out: out,
		log: log.With(slog.String("component", "permissions")),
	}
}

func (p *PromptPermissions) Check(context.Context) (domain.Grant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grant, nil
}

// Request показывает вопрос один раз; повторные вызовы возвращают сохраненный ответ.
// Чтение ответа не блокирует отмену контекста: при отмене возвращается ctx.Err(),
// а следующий вызов дожидается ответа от того же чтения.
func (p *PromptPermissions) Request(ctx context.Context) (domain.Grant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.asked {
		return p.grant, nil
	}
	if _, err := fmt.Fprint(p.out, "Allow access to your location? [y]es (precise) / [c]oarse / [N]o: "); err != nil {
		return domain.GrantDenied, fmt.Errorf("failed to show permission prompt: %w", err)
	}

	if p.pending == nil {
		answers := make(chan answer, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			answers <- answer{line: line, err: err}
		}()
		p.pending = answers
	}

	var line string
	select {
	case <-ctx.Done():
		return domain.GrantUndetermined, ctx.Err()
	case a := <-p.pending:
		p.pending = nil
		if a.err != nil && a.err != io.EOF {
			return domain.GrantDenied, fmt.Errorf("failed to read permission answer: %w", a.err)
		}
		line = a.line
	}

	p.asked = true
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		p.grant = domain.GrantFine
	case "c", "coarse":
		p.grant = domain.GrantCoarse
	default:
		p.grant = domain.GrantDenied
	}
	p.log.Info("Location permission answered", slog.String("grant", p.grant.String()))
	return p.grant, nil
}
