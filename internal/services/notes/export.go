package notes

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/ternarybob/rednote/pkg/models"
)

// ErrPDFUnavailable means no PDF renderer was wired into the service.
var ErrPDFUnavailable = errors.New("pdf export not available")

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
)

// ExportMarkdown renders a note summary as a markdown document: title,
// author and type lines, the description, image links, source link.
func (s *Service) ExportMarkdown(summary *models.NoteSummary) string {
	var b strings.Builder

	title := summary.Title
	if title == "" {
		title = defaultTitle
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if summary.User != nil && *summary.User != "" {
		fmt.Fprintf(&b, "**Author:** %s\n\n", *summary.User)
	}
	if summary.Type != nil && *summary.Type != "" {
		fmt.Fprintf(&b, "**Type:** %s\n\n", *summary.Type)
	}

	if desc := s.descMarkdown(summary.Desc); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}

	for i, img := range summary.ImageList {
		fmt.Fprintf(&b, "![image %d](%s)\n", i+1, img)
	}
	if len(summary.ImageList) > 0 {
		b.WriteString("\n")
	}

	if summary.RawURL != "" {
		fmt.Fprintf(&b, "[Source](%s)\n", summary.RawURL)
	}

	return b.String()
}

// ExportPDF renders a note summary as a PDF document via the markdown form.
func (s *Service) ExportPDF(summary *models.NoteSummary) ([]byte, error) {
	if s.pdf == nil {
		return nil, ErrPDFUnavailable
	}
	title := summary.Title
	if title == "" {
		title = defaultTitle
	}
	return s.pdf.ConvertMarkdownToPDF(s.ExportMarkdown(summary), title)
}

// descMarkdown normalizes a note description for markdown output. Plain
// text passes through; descriptions carrying HTML markup are converted,
// with a tag-stripping fallback when conversion fails.
func (s *Service) descMarkdown(desc string) string {
	if !strings.Contains(desc, "<") {
		return strings.TrimSpace(desc)
	}

	converter := md.NewConverter("", true, nil)
	converted, err := converter.ConvertString(desc)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Description markdown conversion failed, stripping tags")
		return stripHTMLTags(desc)
	}
	if strings.TrimSpace(converted) == "" {
		return stripHTMLTags(desc)
	}
	return strings.TrimSpace(converted)
}

// stripHTMLTags removes markup and decodes the common entities for fallback
// rendering.
func stripHTMLTags(html string) string {
	stripped := htmlTagPattern.ReplaceAllString(html, "")
	stripped = whitespacePattern.ReplaceAllString(stripped, " ")

	stripped = strings.ReplaceAll(stripped, "&amp;", "&")
	stripped = strings.ReplaceAll(stripped, "&lt;", "<")
	stripped = strings.ReplaceAll(stripped, "&gt;", ">")
	stripped = strings.ReplaceAll(stripped, "&quot;", "\"")
	stripped = strings.ReplaceAll(stripped, "&#39;", "'")
	stripped = strings.ReplaceAll(stripped, "&nbsp;", " ")

	return strings.TrimSpace(stripped)
}
