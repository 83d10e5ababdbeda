package pathindex

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTestFile(idx *Index, relPath, lang string, lines int) {
	text := strings.Repeat("x\n", lines-1) + "x"
	_ = idx.IndexFile(relPath, "/project/"+relPath, text, lang, time.Now())
}

func Test_Index_IndexAndGet(t *testing.T) {
	idx := New()
	require.NoError(t, idx.IndexFile("src/main.go", "/project/src/main.go", "package main\n", "Go", time.Now()))

	got := idx.Get("src/main.go")
	require.NotNil(t, got)
	assert.Equal(t, "Go", got.Language)
}

func Test_Index_RemoveFile(t *testing.T) {
	idx := New()
	require.NoError(t, idx.IndexFile("src/main.go", "/p/src/main.go", "x", "Go", time.Now()))
	require.NoError(t, idx.RemoveFile("src/main.go"))

	assert.Equal(t, 0, idx.FileCount())
	assert.Nil(t, idx.Get("src/main.go"))
}

func Test_Index_SearchByGlob_DoubleStarExtension(t *testing.T) {
	idx := New()
	addTestFile(idx, "src/main.go", "Go", 10)
	addTestFile(idx, "src/utils/helper.go", "Go", 10)
	addTestFile(idx, "src/app.ts", "TypeScript", 10)
	addTestFile(idx, "README.md", "Markdown", 10)

	results, err := idx.SearchByGlob("**/*.go", 50)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func Test_Index_SearchByGlob_SpecificDirectory(t *testing.T) {
	idx := New()
	addTestFile(idx, "src/main.go", "Go", 10)
	addTestFile(idx, "test/main_test.go", "Go", 10)

	results, err := idx.SearchByGlob("src/**/*.go", 50)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func Test_Index_SearchByGlob_InvalidPattern(t *testing.T) {
	idx := New()
	_, err := idx.SearchByGlob("[invalid", 50)
	assert.Error(t, err)
}

func Test_Index_FileCount(t *testing.T) {
	idx := New()
	addTestFile(idx, "a.go", "Go", 10)
	addTestFile(idx, "b.go", "Go", 10)
	addTestFile(idx, "c.ts", "TypeScript", 10)

	assert.Equal(t, 3, idx.FileCount())
}

func Test_Index_TotalSizeBytes(t *testing.T) {
	idx := New()
	require.NoError(t, idx.IndexFile("a.go", "/p/a.go", "12345", "Go", time.Now()))
	require.NoError(t, idx.IndexFile("b.go", "/p/b.go", "1234567890", "Go", time.Now()))

	assert.EqualValues(t, 15, idx.TotalSizeBytes())
}

func Test_Index_LanguageCounts(t *testing.T) {
	idx := New()
	addTestFile(idx, "a.go", "Go", 10)
	addTestFile(idx, "b.go", "Go", 10)
	addTestFile(idx, "c.ts", "TypeScript", 10)

	counts := idx.LanguageCounts()
	assert.Equal(t, 2, counts["Go"])
	assert.Equal(t, 1, counts["TypeScript"])
}

func Test_Index_Clear(t *testing.T) {
	idx := New()
	addTestFile(idx, "a.go", "Go", 10)
	idx.Clear()

	assert.Equal(t, 0, idx.FileCount())
}

func Test_Index_MaxResults(t *testing.T) {
	idx := New()
	for i := 0; i < 100; i++ {
		addTestFile(idx, "file"+string(rune('a'+i%26))+string(rune('0'+i/26))+".go", "Go", 10)
	}

	results, err := idx.SearchByGlob("**/*.go", 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 5)
}
