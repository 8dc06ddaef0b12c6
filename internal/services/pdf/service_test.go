package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

const noteMarkdown = "# 成都火锅攻略\n\n**Author:** 美食家小王\n\n**Type:** normal\n\n三天吃遍成都的火锅店，附排队攻略。\n\n![image 1](https://sns-img.example.com/a.jpg)\n![image 2](https://sns-img.example.com/b.jpg)\n\n[Source](https://www.xiaohongshu.com/explore/665f0a1b000000001e02b8c7)\n"

// readBack parses generated bytes with pdfcpu to prove they form a
// structurally valid document, and returns the page count.
func readBack(t *testing.T, data []byte) int {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.pdf")
	require.NoError(t, os.WriteFile(path, data, 0644))

	pdfCtx, err := api.ReadContextFile(path)
	require.NoError(t, err, "generated PDF did not parse")
	return pdfCtx.PageCount
}

func TestConvertMarkdownToPDF(t *testing.T) {
	service := NewService(arbor.NewLogger())

	tests := []struct {
		name     string
		markdown string
		title    string
	}{
		{
			name:     "full note export",
			markdown: noteMarkdown,
			title:    "成都火锅攻略",
		},
		{
			name:     "basic markdown",
			markdown: "# Title\n\nSome paragraph text.\n\n- Item 1\n- Item 2",
			title:    "Test Document",
		},
		{
			name:     "empty markdown",
			markdown: "",
			title:    "Empty Doc",
		},
		{
			name:     "bold and italic",
			markdown: "Normal **Bold** *Italic* ***BoldItalic***",
			title:    "Styling",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfBytes, err := service.ConvertMarkdownToPDF(tt.markdown, tt.title)
			require.NoError(t, err)
			require.NotEmpty(t, pdfBytes)

			assert.Equal(t, "%PDF", string(pdfBytes[:4]))
			pages := readBack(t, pdfBytes)
			assert.GreaterOrEqual(t, pages, 1)
		})
	}
}

func TestConvertMarkdownToPDF_NoteExportHasContent(t *testing.T) {
	service := NewService(arbor.NewLogger())

	pdfBytes, err := service.ConvertMarkdownToPDF(noteMarkdown, "note")
	require.NoError(t, err)
	readBack(t, pdfBytes)

	// Content streams are compressed, so size is the cheap proxy that
	// the body was written rather than dropped
	assert.Greater(t, len(pdfBytes), 800)
}

func TestConvertMarkdownToPDF_LongDocumentPaginates(t *testing.T) {
	service := NewService(arbor.NewLogger())

	var b strings.Builder
	b.WriteString("# Long note\n\n")
	for i := 0; i < 200; i++ {
		b.WriteString("A paragraph of filler text that occupies a line of the page.\n\n")
	}

	pdfBytes, err := service.ConvertMarkdownToPDF(b.String(), "long")
	require.NoError(t, err)

	pages := readBack(t, pdfBytes)
	assert.Greater(t, pages, 1)
}
