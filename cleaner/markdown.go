package cleaner

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// Markdown renders job description HTML as Markdown. The underlying
// converter is built once and is safe for concurrent use.
type Markdown struct {
	conv *converter.Converter
}

// NewMarkdown creates a Markdown renderer configured for job descriptions:
//
//   - base plugin: strips script, style, iframe, noscript and comments.
//   - commonmark plugin: headings, bullet lists and emphasis, which is
//     how most boards structure "Responsibilities" and "Requirements".
//   - table plugin: benefits tables, with minimal cell padding.
func NewMarkdown() *Markdown {
	return &Markdown{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// Convert renders htmlContent as Markdown. domain resolves relative links
// (for example "/jobs/view/123") into absolute URLs.
func (m *Markdown) Convert(htmlContent, domain string) (string, error) {
	return m.conv.ConvertString(htmlContent, converter.WithDomain(domain))
}
