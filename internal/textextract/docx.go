package textextract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// extractDOCX emits body paragraphs, one per line, then every table row as
// tab-terminated cells followed by a newline.
func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	var doc wordDocument
	if err := xml.Unmarshal([]byte(r.Editable().GetContent()), &doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	var sb strings.Builder
	for _, p := range doc.Body.Paragraphs {
		sb.WriteString(p.Text)
		sb.WriteString("\n")
	}
	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			for _, cell := range row.Cells {
				sb.WriteString(cell.Text())
				sb.WriteString("\t")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

type wordDocument struct {
	Body struct {
		Paragraphs []wordParagraph `xml:"p"`
		Tables     []wordTable     `xml:"tbl"`
	} `xml:"body"`
}

type wordTable struct {
	Rows []struct {
		Cells []wordCell `xml:"tc"`
	} `xml:"tr"`
}

type wordCell struct {
	Paragraphs []wordParagraph `xml:"p"`
}

func (c wordCell) Text() string {
	parts := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

// wordParagraph collects run text in document order. Tabs and breaks count
// only inside runs; w:tab in paragraph properties is a tab stop.
type wordParagraph struct {
	Text string
}

func (p *wordParagraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	depth, inRun := 0, 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" && inRun > 0 {
				var s string
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				sb.WriteString(s)
				continue
			}
			depth++
			switch t.Name.Local {
			case "r":
				inRun++
			case "tab":
				if inRun > 0 {
					sb.WriteByte('\t')
				}
			case "br", "cr":
				if inRun > 0 {
					sb.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if depth == 0 {
				p.Text = sb.String()
				return nil
			}
			depth--
			if t.Name.Local == "r" && inRun > 0 {
				inRun--
			}
		}
	}
}
