package categories

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrizq/rizq/internal/model"
)

func TestDefaults(t *testing.T) {
	cats := Defaults()
	require.Len(t, cats, 5)

	byName := make(map[string]model.Category)
	for _, c := range cats {
		assert.NotEmpty(t, c.ID)
		assert.Regexp(t, `^#[0-9a-f]{6}$`, c.Color)
		byName[c.Name] = c
	}
	assert.Equal(t, "utensils", byName["Food & Dining"].Icon)
	assert.Equal(t, "#3b82f6", byName["Food & Dining"].Color)
	assert.Equal(t, "car", byName["Transportation"].Icon)
	assert.Equal(t, "#ef4444", byName["Housing"].Color)
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCategories(&buf, Defaults()))

	got, err := ReadCategories(&buf)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestRead_Errors(t *testing.T) {
	_, err := ReadCategories(strings.NewReader("category_id,name,icon,color\nx,,,\n"))
	assert.Error(t, err)

	_, err = ReadCategories(strings.NewReader("category_id,name\nx,y\n"))
	assert.Error(t, err)

	cats, err := ReadCategories(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog", "categories.csv")

	missing, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), missing.All(), "missing file falls back to defaults")

	custom := NewCatalog([]model.Category{{ID: "pets", Name: "Pets", Icon: "paw", Color: "#123456"}})
	require.NoError(t, custom.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	got, ok := loaded.Get("pets")
	require.True(t, ok)
	assert.Equal(t, "Pets", got.Name)
	_, ok = loaded.Get("food-dining")
	assert.False(t, ok)
}
