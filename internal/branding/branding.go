// Package branding keeps the operator's theme choice, which decides the
// brand every draft is created under.
package branding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/store"
)

// Key is the long-lived storage key of the theme.
const Key = "td-theme"

// Theme is a visual identity.
type Theme string

const (
	ThemeSAP        Theme = "sap"
	ThemeMercedes   Theme = "mercedes"
	ThemeAndes      Theme = "andes"
	ThemeStellantis Theme = "stellantis"

	DefaultTheme = ThemeSAP
)

// Themes lists every supported theme.
func Themes() []Theme {
	return []Theme{ThemeSAP, ThemeMercedes, ThemeAndes, ThemeStellantis}
}

// ParseTheme validates a theme id.
func ParseTheme(raw string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Themes() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q (want sap, mercedes, andes or stellantis)", raw)
}

// Brand is the tenant drafts are filed under for this theme.
func (t Theme) Brand() entities.Brand {
	switch t {
	case ThemeAndes:
		return entities.BrandAndesMotor
	case ThemeStellantis:
		return entities.BrandStellantis
	default:
		return entities.BrandMercedesBenz
	}
}

// DisplayName is the name shown in headers.
func (t Theme) DisplayName() string {
	switch t {
	case ThemeMercedes:
		return "Mercedes-Benz"
	case ThemeAndes:
		return "Andes Motor"
	case ThemeStellantis:
		return "Stellantis"
	default:
		return "Divemotor"
	}
}

// Selector reads and writes the theme in a store outside session scope.
type Selector struct {
	kv store.KeyValue
}

func NewSelector(kv store.KeyValue) *Selector {
	return &Selector{kv: kv}
}

// Current returns the stored theme, falling back to the default when the
// value is absent or unknown.
func (s *Selector) Current(ctx context.Context) (Theme, error) {
	data, err := s.kv.Get(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultTheme, nil
	}
	if err != nil {
		return DefaultTheme, fmt.Errorf("failed to read theme: %w", err)
	}
	t, err := ParseTheme(string(data))
	if err != nil {
		return DefaultTheme, nil
	}
	return t, nil
}

// Apply persists theme.
func (s *Selector) Apply(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, Key, []byte(theme)); err != nil {
		return fmt.Errorf("failed to store theme: %w", err)
	}
	return nil
}
