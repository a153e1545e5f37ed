package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// highlighter colors printed lines through chroma when a language was
// configured and the terminal can render ANSI sequences.
type highlighter struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

func newHighlighter(lang string) *highlighter {
	if lang == "" {
		return nil
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return nil
	}
	if termenv.ColorProfile() == termenv.Ascii {
		return nil
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	style := styles.Get("native")
	if style == nil {
		style = styles.Fallback
	}
	return &highlighter{
		lexer:     chroma.Coalesce(lexer),
		formatter: formatter,
		style:     style,
	}
}

func (h *highlighter) render(line string) string {
	it, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var sb strings.Builder
	if err := h.formatter.Format(&sb, h.style, it); err != nil {
		return line
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

const (
	escapes  = "\a\b\f\n\r\t\v"
	escchars = "abfnrtv"
)

// printLine renders one line under the print flags: plain, enumerated
// ('n') and/or list form ('l') with non-printable characters escaped and
// long lines folded at the window width.
func (ed *Editor) printLine(p []byte, pflags int) {
	var sb strings.Builder
	if pflags&pfEnum != 0 {
		fmt.Fprintf(&sb, "%d\t", ed.current)
	}
	if pflags&pfList == 0 {
		if ed.hl != nil {
			sb.WriteString(ed.hl.render(string(p)))
		} else {
			sb.Write(p)
		}
	} else {
		col := 0
		if pflags&pfEnum != 0 {
			col = 8
		}
		for _, ch := range p {
			if col++; col > windowColumns() {
				col = 1
				sb.WriteString("\\\n")
			}
			switch {
			case ch >= 32 && ch <= 126:
				if ch == '$' || ch == '\\' {
					col++
					sb.WriteByte('\\')
				}
				sb.WriteByte(ch)
			default:
				sb.WriteByte('\\')
				if i := strings.IndexByte(escapes, ch); ch != 0 && i >= 0 {
					sb.WriteByte(escchars[i])
				} else {
					col += 2
					sb.WriteByte(((ch >> 6) & 7) + '0')
					sb.WriteByte(((ch >> 3) & 7) + '0')
					sb.WriteByte((ch & 7) + '0')
				}
			}
		}
		if !ed.tradition {
			sb.WriteByte('$')
		}
	}
	sb.WriteByte('\n')
	fmt.Fprint(ed.stdout, sb.String())
}

// printLines prints a range of lines, moving the current address along.
func (ed *Editor) printLines(from, to, pflags int) error {
	if from == 0 {
		return ErrInvalidAddress
	}
	ep := ed.node(ed.incAddr(to))
	for bp := ed.node(from); bp != ep; bp = bp.forw {
		s, err := ed.sf.getLine(bp)
		if err != nil {
			ed.showStrerror("", err)
			ed.setError(ErrCannotReadScratch)
			return ErrCannotReadScratch
		}
		ed.current = from
		from++
		ed.printLine(s, pflags)
	}
	return nil
}
