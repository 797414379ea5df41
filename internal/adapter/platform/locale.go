package platform

import (
	"fmt"
	"os"
	"strings"

	"headlines/internal/domain"

	"golang.org/x/text/language"
)

// localeEnv - переменные окружения POSIX в порядке приоритета.
var localeEnv = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// EnvLocale определяет язык пользователя по настройкам локали системы.
type EnvLocale struct {
	override string
	lookup   func(string) string
}

// NewEnvLocale создает источник языка. Непустой override имеет приоритет над окружением.
func NewEnvLocale(override string) *EnvLocale {
	return &EnvLocale{override: override, lookup: os.Getenv}
}

// Language возвращает двухбуквенный код языка (например, "ru" для ru_RU.UTF-8).
func (l *EnvLocale) Language() (domain.LanguageCode, error) {
	if l.override != "" {
		return ParseLanguage(l.override)
	}
	for _, key := range localeEnv {
		if v := l.lookup(key); v != "" && v != "C" && v != "POSIX" {
			return ParseLanguage(v)
		}
	}
	return "", fmt.Errorf("locale is not set")
}

// ParseLanguage приводит POSIX-локаль или BCP 47 тег к двухбуквенному коду языка.
func ParseLanguage(locale string) (domain.LanguageCode, error) {
	tag := locale
	if i := strings.IndexAny(tag, ".@"); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.ReplaceAll(tag, "_", "-")
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	base, _ := parsed.Base()
	code := domain.LanguageCode(base.String())
	if !code.Valid() {
		return "", fmt.Errorf("locale %q has no two-letter language code", locale)
	}
	return code, nil
}
