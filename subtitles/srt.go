package subtitles

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/asticode/go-astisub"
	"golang.org/x/net/html"
)

// Read parses SRT data into cues in file order. Inline markup (<i>, <b>,
// <u> and <font color>) is kept in the cue text.
func Read(r io.Reader) ([]Cue, error) {
	subs, err := astisub.ReadFromSRT(r)
	if err != nil {
		return nil, fmt.Errorf("parsing srt: %w", err)
	}

	cues := make([]Cue, 0, len(subs.Items))
	for _, item := range subs.Items {
		cues = append(cues, Cue{
			Start: item.StartAt,
			End:   item.EndAt,
			Text:  itemText(item),
		})
	}
	return cues, nil
}

// ReadFile parses the SRT file at path.
func ReadFile(path string) ([]Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cues, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cues, nil
}

// Write renders cues as plain UTF-8 SRT: a 1-based sequence number, the
// timing line, the trimmed text and a blank separator line per cue.
func Write(w io.Writer, cues []Cue) error {
	// astisub refuses to write an empty document.
	if len(cues) == 0 {
		return nil
	}

	subs := astisub.NewSubtitles()
	for i, c := range cues {
		item := &astisub.Item{
			Index:   i + 1,
			StartAt: c.Start,
			EndAt:   c.End,
		}
		for _, line := range strings.Split(strings.TrimSpace(c.Text), "\n") {
			items := lineItems(strings.TrimRight(line, "\r"))
			if len(items) == 0 {
				continue
			}
			item.Lines = append(item.Lines, astisub.Line{Items: items})
		}
		subs.Items = append(subs.Items, item)
	}

	var buf bytes.Buffer
	if err := subs.WriteToSRT(&buf); err != nil {
		return fmt.Errorf("writing srt: %w", err)
	}

	// astisub prefixes a BOM and drops the separator after the last cue.
	out := bytes.TrimPrefix(buf.Bytes(), astisub.BytesBOM)
	out = append(out, '\n')
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("writing srt: %w", err)
	}
	return nil
}

// WriteFile writes cues to path, replacing any existing file.
func WriteFile(path string, cues []Cue) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(f, cues); err != nil {
		f.Close() // nolint: errcheck
		return err
	}
	return f.Close()
}

func itemText(item *astisub.Item) string {
	lines := make([]string, 0, len(item.Lines))
	for _, l := range item.Lines {
		parts := make([]string, 0, len(l.Items))
		for _, li := range l.Items {
			if li.Text == "" {
				continue
			}
			parts = append(parts, styledText(li))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\r\n")
}

// styledText wraps the item text in the tags astisub parsed into its
// inline style, in the order astisub writes them back.
func styledText(li astisub.LineItem) string {
	sa := li.InlineStyle
	if sa == nil {
		return li.Text
	}
	color := ""
	if sa.SRTColor != nil {
		color = *sa.SRTColor
	}

	var b strings.Builder
	if color != "" {
		b.WriteString(`<font color="` + color + `">`)
	}
	if sa.SRTBold {
		b.WriteString("<b>")
	}
	if sa.SRTItalics {
		b.WriteString("<i>")
	}
	if sa.SRTUnderline {
		b.WriteString("<u>")
	}
	b.WriteString(li.Text)
	if sa.SRTUnderline {
		b.WriteString("</u>")
	}
	if sa.SRTItalics {
		b.WriteString("</i>")
	}
	if sa.SRTBold {
		b.WriteString("</b>")
	}
	if color != "" {
		b.WriteString("</font>")
	}
	return b.String()
}

// lineItems splits one line of cue text into astisub line items, turning
// the SRT tags back into inline styles.
func lineItems(line string) []astisub.LineItem {
	var (
		items []astisub.LineItem
		style astisub.StyleAttributes
	)

	z := html.NewTokenizer(strings.NewReader(line))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := string(z.Raw())
		tok := z.Token()

		switch tt {
		case html.StartTagToken, html.EndTagToken:
			open := tt == html.StartTagToken
			switch tok.Data {
			case "b":
				style.SRTBold = open
			case "i":
				style.SRTItalics = open
			case "u":
				style.SRTUnderline = open
			case "font":
				style.SRTColor = nil
				for _, a := range tok.Attr {
					if open && a.Key == "color" {
						color := a.Val
						style.SRTColor = &color
					}
				}
			}
		case html.TextToken:
			text := strings.TrimSpace(raw)
			if text == "" {
				continue
			}
			li := astisub.LineItem{Text: text}
			if style.SRTBold || style.SRTItalics || style.SRTUnderline || style.SRTColor != nil {
				sa := style
				li.InlineStyle = &sa
			}
			items = append(items, li)
		}
	}
	return items
}
