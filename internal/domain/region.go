package domain

import (
	"fmt"
	"math"
	"strings"
)

// Coordinates - пара широта/долгота, полученная от сервиса геолокации.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid проверяет, что координаты лежат в допустимых диапазонах.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Coarsen округляет координаты до двух знаков (примерно километр),
// как при выдаче приблизительного местоположения.
func (c Coordinates) Coarsen() Coordinates {
	return Coordinates{
		Latitude:  math.Round(c.Latitude*100) / 100,
		Longitude: math.Round(c.Longitude*100) / 100,
	}
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// RegionCode - двухбуквенный код страны.
type RegionCode string

// LanguageCode - двухбуквенный код языка.
type LanguageCode string

// Valid проверяет, что код состоит ровно из двух латинских букв.
func (r RegionCode) Valid() bool { return isTwoLetter(string(r)) }

// Valid проверяет, что код состоит ровно из двух латинских букв.
func (l LanguageCode) Valid() bool { return isTwoLetter(string(l)) }

func isTwoLetter(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// Region - пара страна/язык, с которой выполняется запрос заголовков.
// Derived равен true, если страна определена по местоположению,
// и false, если подставлены значения по умолчанию.
type Region struct {
	Country  RegionCode   `json:"country"`
	Language LanguageCode `json:"language"`
	Derived  bool         `json:"derived"`
}

// Grant - результат запроса разрешения на доступ к местоположению.
type Grant int

const (
	GrantUndetermined Grant = iota
	GrantFine
	GrantCoarse
	GrantDenied
)

// Granted сообщает, выдано ли точное или приблизительное разрешение.
func (g Grant) Granted() bool {
	return g == GrantFine || g == GrantCoarse
}

func (g Grant) String() string {
	switch g {
	case GrantFine:
		return "fine"
	case GrantCoarse:
		return "coarse"
	case GrantDenied:
		return "denied"
	default:
		return "undetermined"
	}
}

// ParseGrant преобразует строковое значение из конфигурации в Grant.
func ParseGrant(s string) (Grant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fine":
		return GrantFine, nil
	case "coarse":
		return GrantCoarse, nil
	case "denied", "deny":
		return GrantDenied, nil
	case "", "undetermined":
		return GrantUndetermined, nil
	default:
		return GrantUndetermined, fmt.Errorf("unknown permission grant %q", s)
	}
}
