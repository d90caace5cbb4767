package catalog

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casevue/internal/models"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "select_img.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_PreservesOrder(t *testing.T) {
	path := writeManifest(t, "E001_3\nE002_1  \r\nE001_7\n\n\n")

	cat, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, []models.Case{
		{Key: "E001_3", Index: 0},
		{Key: "E002_1", Index: 1},
		{Key: "E001_7", Index: 2},
	}, cat.Cases())
}

func TestLoad_CountsNonBlankLines(t *testing.T) {
	path := writeManifest(t, "a\n\nb\n   \nc")

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())
}

func TestLoad_TrimsUnicodeTrailingSpace(t *testing.T) {
	path := writeManifest(t, "E001_3\u00a0\u2003\nE002_1\u3000\n")

	cat, err := Load(path)
	require.NoError(t, err)

	keys := []string{}
	for _, c := range cat.Cases() {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"E001_3", "E002_1"}, keys)
}

func TestLoad_LongLine(t *testing.T) {
	long := strings.Repeat("k", 70000)
	path := writeManifest(t, "a\n"+long+"\n")

	cat, err := Load(path)
	require.NoError(t, err)

	c, ok := cat.At(1)
	require.True(t, ok)
	assert.Equal(t, long, c.Key)
}

func TestLoad_LineOverLimit(t *testing.T) {
	path := writeManifest(t, "a\n"+strings.Repeat("k", MaxLineSize+1)+"\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, bufio.ErrTooLong)
	assert.ErrorContains(t, err, "line 2")
}

func TestLoad_DuplicatesAreIndependent(t *testing.T) {
	path := writeManifest(t, "E001_3\nE001_3\n")

	cat, err := Load(path)
	require.NoError(t, err)

	first, ok := cat.At(0)
	require.True(t, ok)
	second, ok := cat.At(1)
	require.True(t, ok)

	assert.Equal(t, first.Key, second.Key)
	assert.NotEqual(t, first.Index, second.Index)
}

func TestLoad_MissingManifest(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestLoad_EmptyManifest(t *testing.T) {
	path := writeManifest(t, "\n  \n")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestAt_OutOfRange(t *testing.T) {
	cat, err := FromKeys([]string{"a"})
	require.NoError(t, err)

	_, ok := cat.At(-1)
	assert.False(t, ok)
	_, ok = cat.At(1)
	assert.False(t, ok)
}

func TestFind(t *testing.T) {
	cat, err := FromKeys([]string{"a", "b", "b"})
	require.NoError(t, err)

	c, ok := cat.Find("b")
	require.True(t, ok)
	assert.Equal(t, 1, c.Index)

	_, ok = cat.Find("z")
	assert.False(t, ok)
}

func TestCases_ReturnsCopy(t *testing.T) {
	cat, err := FromKeys([]string{"a"})
	require.NoError(t, err)

	cs := cat.Cases()
	cs[0].Key = "mutated"

	c, _ := cat.At(0)
	assert.Equal(t, "a", c.Key)
}
