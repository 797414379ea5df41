package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"headlines/internal/domain"

	"github.com/google/uuid"
)

// State - состояние сценария получения заголовков.
type State string

const (
	StateStart             State = "start"
	StatePermissionChecked State = "permission_checked"
	StateLocationResolved  State = "location_resolved"
	StateLocationDefaulted State = "location_defaulted"
	StateRegionResolved    State = "region_resolved"
	StateRegionDefaulted   State = "region_defaulted"
	StateRequestSent       State = "request_sent"
	StatePublished         State = "published"
	StateLoggedAndDropped  State = "logged_and_dropped"
)

// Report описывает один прогон сценария.
type Report struct {
	RunID    string
	States   []State
	Grant    domain.Grant
	Region   domain.Region
	Outcome  FetchOutcome
	Articles int
	Err      error
	Duration time.Duration
}

// Final возвращает последнее состояние прогона.
func (r Report) Final() State {
	if len(r.States) == 0 {
		return StateStart
	}
	return r.States[len(r.States)-1]
}

// FlowDeps - зависимости сценария.
type FlowDeps struct {
	Resolver *LocationResolver
	Mapper   *RegionMapper
	Locale   LocaleProvider
	Fetcher  *HeadlineFetcher
	Defaults domain.Region
	Metrics  Metrics
}

// Flow связывает LocationResolver, RegionMapper и HeadlineFetcher в линейный
// сценарий: разрешение, местоположение, регион, запрос, публикация.
// Любой исход проверки разрешения приводит ровно к одному запросу заголовков.
type Flow struct {
	resolver *LocationResolver
	mapper   *RegionMapper
	locale   LocaleProvider
	fetcher  *HeadlineFetcher
	defaults domain.Region
	metrics  Metrics
	log      *slog.Logger
}

func NewFlow(deps FlowDeps, log *slog.Logger) *Flow {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	defaults := deps.Defaults
	defaults.Derived = false
	return &Flow{
		resolver: deps.Resolver,
		mapper:   deps.Mapper,
		locale:   deps.Locale,
		fetcher:  deps.Fetcher,
		defaults: defaults,
		metrics:  metrics,
		log:      log.With(slog.String("component", "flow")),
	}
}

// Run выполняет сценарий до конечного состояния и возвращает отчет.
func (f *Flow) Run(ctx context.Context) (report Report) {
	start := time.Now()
	report = Report{RunID: uuid.NewString(), States: []State{StateStart}}
	log := f.log.With(slog.String("run_id", report.RunID))
	step := func(s State) {
		report.States = append(report.States, s)
		log.Debug("Flow state changed", slog.String("state", string(s)))
	}
	defer func() {
		if p := recover(); p != nil {
			report.Outcome = FetchDropped
			report.Err = fmt.Errorf("flow panicked: %v", p)
			report.States = append(report.States, StateLoggedAndDropped)
			log.Error("Flow panicked", slog.Any("error", report.Err))
		}
		report.Duration = time.Since(start)
		f.metrics.FlowCompleted(string(report.Outcome), report.Region.Derived)
	}()

	log.Info("Flow started")

	report.Grant = f.resolver.Permission(ctx)
	step(StatePermissionChecked)

	report.Region = f.region(ctx, log, report.Grant, step)

	step(StateRequestSent)
	res := f.fetcher.FetchSync(ctx, report.Region)
	report.Outcome = res.Outcome
	report.Articles = res.Articles
	report.Err = res.Err
	if res.Outcome == FetchPublished {
		step(StatePublished)
	} else {
		step(StateLoggedAndDropped)
	}

	log.Info("Flow finished",
		slog.String("outcome", string(report.Outcome)),
		slog.String("country", string(report.Region.Country)),
		slog.String("language", string(report.Region.Language)),
		slog.Int("articles", report.Articles),
		slog.Duration("duration", time.Since(start)),
	)
	return report
}

// Start запускает Run в отдельной горутине; отчет приходит в канал.
func (f *Flow) Start(ctx context.Context) <-chan Report {
	out := make(chan Report, 1)
	go func() {
		defer close(out)
		out <- f.Run(ctx)
	}()
	return out
}

// Cancel отменяет активный запрос заголовков.
func (f *Flow) Cancel() {
	f.fetcher.Cancel()
}

func (f *Flow) region(ctx context.Context, log *slog.Logger, grant domain.Grant, step func(State)) domain.Region {
	coords, err := f.resolver.Locate(ctx, grant)
	if err != nil {
		step(StateLocationDefaulted)
		level := slog.LevelInfo
		if !errors.Is(err, ErrPermissionDenied) {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "Using default region",
			slog.String("grant", grant.String()),
			slog.Any("error", err),
		)
		step(StateRegionDefaulted)
		return f.defaults
	}
	step(StateLocationResolved)

	code, err := f.mapper.Map(ctx, coords)
	if err != nil {
		log.Warn("Using default region", slog.Any("error", err))
		step(StateRegionDefaulted)
		return f.defaults
	}

	lang, err := f.language()
	if err != nil {
		log.Warn("Locale language unavailable, using default",
			slog.String("language", string(f.defaults.Language)),
			slog.Any("error", err),
		)
		lang = f.defaults.Language
	}
	step(StateRegionResolved)
	return domain.Region{Country: code, Language: lang, Derived: true}
}

func (f *Flow) language() (domain.LanguageCode, error) {
	if f.locale == nil {
		return "", errors.New("no locale provider")
	}
	lang, err := f.locale.Language()
	if err != nil {
		return "", err
	}
	if !lang.Valid() {
		return "", fmt.Errorf("invalid locale language %q", lang)
	}
	return lang, nil
}
