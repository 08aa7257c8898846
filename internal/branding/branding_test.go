package branding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/store"
)

func TestThemeBrands(t *testing.T) {
	assert.Equal(t, entities.BrandMercedesBenz, ThemeSAP.Brand())
	assert.Equal(t, entities.BrandMercedesBenz, ThemeMercedes.Brand())
	assert.Equal(t, entities.BrandAndesMotor, ThemeAndes.Brand())
	assert.Equal(t, entities.BrandStellantis, ThemeStellantis.Brand())
	assert.Equal(t, "Divemotor", ThemeSAP.DisplayName())
}

func TestSelectorPersistsTheme(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	sel := NewSelector(kv)

	got, err := sel.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultTheme, got)

	require.NoError(t, sel.Apply(ctx, ThemeAndes))
	got, err = NewSelector(kv).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeAndes, got)

	assert.Error(t, sel.Apply(ctx, Theme("audi")))
}

func TestUnknownStoredThemeFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, Key, []byte("neon")))

	got, err := NewSelector(kv).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultTheme, got)
}

func TestParseTheme(t *testing.T) {
	got, err := ParseTheme(" Stellantis ")
	require.NoError(t, err)
	assert.Equal(t, ThemeStellantis, got)

	_, err = ParseTheme("")
	assert.Error(t, err)
}
