package pdf

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/rednote/internal/interfaces"
)

const (
	bodyFontSize = 10.0
	lineHeight   = 5.0
)

// cjkFontPaths is probed for a TTF able to render Chinese glyphs. Note
// titles and descriptions are mostly Chinese, so without one of these
// the core cp1252 fonts are used and non-latin runes degrade.
var cjkFontPaths = []string{
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
	"/usr/share/fonts/droid/DroidSansFallbackFull.ttf",
	"/usr/local/share/fonts/DroidSansFallbackFull.ttf",
}

// Service renders exported note markdown into PDF documents.
type Service struct {
	logger   arbor.ILogger
	fontPath string
}

// Compile-time assertion
var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a new PDF service, probing for a CJK-capable font.
func NewService(logger arbor.ILogger) *Service {
	s := &Service{logger: logger}
	for _, path := range cjkFontPaths {
		if _, err := os.Stat(path); err == nil {
			s.fontPath = path
			break
		}
	}
	if s.fontPath == "" {
		logger.Debug().Msg("No CJK font found, PDF export degrades to latin glyphs")
	} else {
		logger.Debug().Str("font", s.fontPath).Msg("Using CJK font for PDF export")
	}
	return s
}

// ConvertMarkdownToPDF converts markdown content to a PDF byte slice.
// The title only feeds the document metadata, the markdown is expected
// to carry its own H1.
func (s *Service) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Converting markdown to PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.SetTitle(title, true)
	pdf.AddPage()

	font := "Arial"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if s.fontPath != "" {
		font = "notebody"
		// The same file backs every style, bold rendering is sacrificed
		// for glyph coverage
		for _, style := range []string{"", "B", "I", "BI"} {
			pdf.AddUTF8Font(font, style, s.fontPath)
		}
		translate = func(in string) string { return in }
	}
	pdf.SetFont(font, "", bodyFontSize)

	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	renderer := &pdfRenderer{
		pdf:       pdf,
		source:    source,
		translate: translate,
		font:      font,
		size:      bodyFontSize,
	}

	if err := renderer.render(doc); err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate PDF")
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate PDF output")
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF generated")
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	translate func(string) string
	font      string
	size      float64
	bold      bool
	italic    bool
	listLevel int
}

func (r *pdfRenderer) render(node ast.Node) error {
	return ast.Walk(node, r.walk)
}

func (r *pdfRenderer) write(text string) {
	r.pdf.Write(lineHeight, r.translate(text))
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		return r.handleParagraph(n.(*ast.Paragraph), entering)
	case ast.KindText:
		return r.handleText(n.(*ast.Text), entering)
	case ast.KindEmphasis:
		return r.handleEmphasis(n.(*ast.Emphasis), entering)
	case ast.KindLink:
		return r.handleLink(n.(*ast.Link), entering)
	case ast.KindImage:
		return r.handleImage(n.(*ast.Image), entering)
	case ast.KindList:
		return r.handleList(n.(*ast.List), entering)
	case ast.KindListItem:
		return r.handleListItem(n.(*ast.ListItem), entering)
	case ast.KindThematicBreak:
		if entering {
			r.pdf.Ln(2)
			r.pdf.Line(15, r.pdf.GetY(), 195, r.pdf.GetY())
			r.pdf.Ln(2)
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Ln(6)
		size := 14.0
		switch n.Level {
		case 1:
			size = 14
		case 2:
			size = 12
		case 3:
			size = 11
		default:
			size = 10
		}
		r.pdf.SetFont(r.font, "B", size)
	} else {
		r.pdf.Ln(6)
		r.updateFont()
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleParagraph(n *ast.Paragraph, entering bool) (ast.WalkStatus, error) {
	if !entering {
		r.pdf.Ln(7)
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleText(n *ast.Text, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.write(string(n.Text(r.source)))
		if n.SoftLineBreak() || n.HardLineBreak() {
			r.pdf.Ln(lineHeight)
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleEmphasis(n *ast.Emphasis, entering bool) (ast.WalkStatus, error) {
	if n.Level == 2 {
		r.bold = entering
	} else {
		r.italic = entering
	}
	r.updateFont()
	return ast.WalkContinue, nil
}

// handleLink renders the anchor text through the normal walk, then
// appends the destination so it survives on paper.
func (r *pdfRenderer) handleLink(n *ast.Link, entering bool) (ast.WalkStatus, error) {
	if !entering {
		if dest := string(n.Destination); dest != "" {
			r.write(" (" + dest + ")")
		}
	}
	return ast.WalkContinue, nil
}

// handleImage writes the alt text and URL. Remote note images are not
// fetched, the CDN rejects requests outside a browser session anyway.
func (r *pdfRenderer) handleImage(n *ast.Image, entering bool) (ast.WalkStatus, error) {
	if entering {
		label := string(n.Text(r.source))
		if label == "" {
			label = "image"
		}
		r.write(label + ": " + string(n.Destination))
		r.pdf.Ln(lineHeight)
	}
	return ast.WalkSkipChildren, nil
}

func (r *pdfRenderer) handleList(n *ast.List, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.listLevel++
	} else {
		r.listLevel--
		if r.listLevel == 0 {
			r.pdf.Ln(2)
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleListItem(n *ast.ListItem, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Ln(lineHeight)
		indent := float64(r.listLevel) * 5.0
		r.pdf.SetX(15 + indent)
		r.write("- ")
	}
	return ast.WalkContinue, nil
}
