package output

import (
	"io"

	md "github.com/nao1215/markdown"
)

// MarkdownFormatter outputs markdown reports.
type MarkdownFormatter struct{}

// Format writes data as markdown. Tables get a heading each; anything else
// is written as a YAML code block.
func (f *MarkdownFormatter) Format(w io.Writer, data any) error {
	doc := md.NewMarkdown(w)
	switch v := data.(type) {
	case Data:
		writeTable(doc, v)
	case Tabler:
		if r, ok := data.(Titled); ok {
			doc.H1(r.Title())
		}
		for _, t := range v.Tables() {
			writeTable(doc, t)
		}
	default:
		yamlData, err := marshalYAML(data)
		if err != nil {
			return err
		}
		doc.CodeBlocks(md.SyntaxHighlight("yaml"), string(yamlData))
	}
	return doc.Build()
}

// Titled is implemented by reports with a document title.
type Titled interface {
	Title() string
}

func writeTable(doc *md.Markdown, t Data) {
	if t.Title != "" {
		doc.H2(t.Title)
	}
	if len(t.Rows) == 0 {
		doc.PlainText(md.Italic("none")).LF()
		return
	}
	doc.Table(md.TableSet{
		Header: t.Headers,
		Rows:   t.Rows,
	})
}
