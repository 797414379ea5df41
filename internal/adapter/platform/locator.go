package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"headlines/internal/domain"
)

// StaticLocator отдает последнее известное местоположение из конфигурации.
// Если координаты не заданы, местоположение считается отсутствующим.
type StaticLocator struct {
	coords *domain.Coordinates
}

func NewStaticLocator(coords *domain.Coordinates) *StaticLocator {
	return &StaticLocator{coords: coords}
}

func (l *StaticLocator) LastKnown(_ context.Context, grant domain.Grant) (domain.Coordinates, bool, error) {
	if l.coords == nil || !grant.Granted() {
		return domain.Coordinates{}, false, nil
	}
	return precision(*l.coords, grant), true, nil
}

type ipLocationJSON struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// IPLocator определяет приблизительное местоположение по IP-адресу
// через сервис, совместимый с ip-api.com ({"status":"success","lat":..,"lon":..}).
type IPLocator struct {
	client   *http.Client
	endpoint string
	log      *slog.Logger
}

func NewIPLocator(client *http.Client, endpoint string, log *slog.Logger) *IPLocator {
	if client == nil {
		client = http.DefaultClient
	}
	return &IPLocator{
		client:   client,
		endpoint: endpoint,
		log:      log.With(slog.String("component", "ip-locator")),
	}
}

// LastKnown выполняет один запрос к сервису геолокации.
// Ответ без координат означает отсутствие местоположения, а не ошибку.
func (l *IPLocator) LastKnown(ctx context.Context, grant domain.Grant) (domain.Coordinates, bool, error) {
	if !grant.Granted() {
		return domain.Coordinates{}, false, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("failed to create location request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("failed to query ip location: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return domain.Coordinates{}, false, fmt.Errorf("ip location: unexpected status code: %d", resp.StatusCode)
	}
	var payload ipLocationJSON
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("failed to decode ip location: %w", err)
	}
	if payload.Status != "success" {
		l.log.Warn("IP location lookup returned no fix",
			slog.String("status", payload.Status),
			slog.String("message", payload.Message),
		)
		return domain.Coordinates{}, false, nil
	}
	coords := domain.Coordinates{Latitude: payload.Lat, Longitude: payload.Lon}
	return precision(coords, grant), true, nil
}

func precision(c domain.Coordinates, grant domain.Grant) domain.Coordinates {
	if grant == domain.GrantCoarse {
		return c.Coarsen()
	}
	return c
}
