package main

import (
	"regexp"
	"strings"
)

// compiledRegexp is one entry of the regex cache: the compiled matcher
// plus the flags it was compiled with. The editor keeps two owning slots,
// the last search RE and the last substitution RE; compilation always
// builds a fresh matcher and swaps it in, so a failed compile never tears
// either cached RE.
type compiledRegexp struct {
	re *regexp.Regexp
}

func (cr *compiledRegexp) matchString(s string) bool { return cr.re.MatchString(s) }
func (cr *compiledRegexp) match(b []byte) bool       { return cr.re.Match(b) }

// translateRE converts a POSIX basic or extended regular expression to the
// syntax of the regexp package, which acts as the external matcher behind
// this facade. Constructs the package cannot express (back-references in
// the pattern) are rejected.
func translateRE(pat string, extended bool) (string, error) {
	var sb strings.Builder
	inClass := false
	classStart := -1
	for i := 0; i < len(pat); i++ {
		c := pat[i]
		if inClass {
			sb.WriteByte(c)
			if c == '[' && i+1 < len(pat) &&
				(pat[i+1] == ':' || pat[i+1] == '.' || pat[i+1] == '=') {
				// embedded [: :] [. .] [= =] element
				d := pat[i+1]
				sb.WriteByte(d)
				i += 2
				for i+1 < len(pat) && !(pat[i] == d && pat[i+1] == ']') {
					sb.WriteByte(pat[i])
					i++
				}
				if i+1 >= len(pat) {
					return "", ErrUnbalancedBrackets
				}
				sb.WriteByte(pat[i])
				sb.WriteByte(pat[i+1])
				i++
				continue
			}
			if c == ']' && i > classStart+1 && !(i == classStart+2 && pat[classStart+1] == '^') {
				inClass = false
			}
			continue
		}
		switch c {
		case '[':
			inClass = true
			classStart = i
			sb.WriteByte(c)
		case '\\':
			if i+1 >= len(pat) {
				return "", ErrTrailingBackslash
			}
			i++
			d := pat[i]
			switch {
			case d >= '1' && d <= '9':
				return "", ErrBackrefUnsupported
			case d == '<' || d == '>':
				sb.WriteString(`\b`)
			case !extended && (d == '(' || d == ')' || d == '{' || d == '}' || d == '|' || d == '+' || d == '?'):
				// BRE escape selects the operator
				sb.WriteByte(d)
			case extended && (d == '(' || d == ')' || d == '{' || d == '}' || d == '|' || d == '+' || d == '?'):
				// ERE escape makes it literal
				sb.WriteByte('\\')
				sb.WriteByte(d)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(d)
			}
		case '(', ')', '{', '}', '|', '+', '?':
			if extended {
				sb.WriteByte(c)
			} else {
				// literal in a basic RE
				sb.WriteByte('\\')
				sb.WriteByte(c)
			}
		case '*':
			// a star at the start of a basic RE is literal
			if !extended && startOfExpr(sb.String()) {
				sb.WriteString(`\*`)
			} else {
				sb.WriteByte(c)
			}
		case '^':
			if extended || startOfExpr(sb.String()) {
				sb.WriteByte(c)
			} else {
				sb.WriteString(`\^`)
			}
		case '$':
			if extended || i == len(pat)-1 || strings.HasPrefix(pat[i+1:], `\)`) || strings.HasPrefix(pat[i+1:], `\|`) {
				sb.WriteByte(c)
			} else {
				sb.WriteString(`\$`)
			}
		default:
			sb.WriteByte(c)
		}
	}
	if inClass {
		return "", ErrUnbalancedBrackets
	}
	return sb.String(), nil
}

// startOfExpr reports whether the translated prefix ends at a position
// where a basic RE treats '*' and '^' as anchors/operators start.
func startOfExpr(prefix string) bool {
	return prefix == "" || strings.HasSuffix(prefix, "(") || strings.HasSuffix(prefix, "|")
}

// compileRegex compiles a pattern and makes it the last search RE.
func (ed *Editor) compileRegex(pat string, ignoreCase bool) (*compiledRegexp, error) {
	goPat, err := translateRE(pat, ed.extended)
	if err != nil {
		ed.setError(err)
		return nil, err
	}
	if ignoreCase {
		goPat = "(?i)" + goPat
	}
	re, err := regexp.Compile(goPat)
	if err != nil {
		ed.setError(err)
		return nil, err
	}
	cr := &compiledRegexp{re: re}
	ed.searchRE = cr
	return cr, nil
}

// extractPattern copies a pattern from the command buffer up to the
// closing delimiter or end of line, honoring bracket expressions.
func (ed *Editor) extractPattern(delimiter rune) (string, error) {
	var sb strings.Builder
	for ed.token() != delimiter && ed.token() != '\n' {
		if ed.token() == '[' {
			class, err := ed.scanCharClass()
			if err != nil {
				return "", err
			}
			sb.WriteString(class)
			continue
		}
		if ed.token() == '\\' {
			sb.WriteRune('\\')
			ed.consume()
			if ed.token() == '\n' {
				return "", ErrTrailingBackslash
			}
		}
		sb.WriteRune(ed.token())
		ed.consume()
	}
	return sb.String(), nil
}

// scanCharClass consumes a bracket expression, including embedded
// [: :], [. .] and [= =] elements.
func (ed *Editor) scanCharClass() (string, error) {
	var sb strings.Builder
	sb.WriteRune(ed.token()) // '['
	ed.consume()
	if ed.token() == '^' {
		sb.WriteRune('^')
		ed.consume()
	}
	if ed.token() == ']' {
		sb.WriteRune(']')
		ed.consume()
	}
	for ed.token() != ']' {
		if ed.token() == '\n' || ed.token() == EOF {
			return "", ErrUnbalancedBrackets
		}
		if ed.token() == '[' {
			sb.WriteRune('[')
			ed.consume()
			d := ed.token()
			if d == '.' || d == ':' || d == '=' {
				sb.WriteRune(d)
				ed.consume()
				for {
					c := ed.token()
					if c == '\n' || c == EOF {
						return "", ErrUnbalancedBrackets
					}
					sb.WriteRune(c)
					ed.consume()
					if c == d && ed.token() == ']' {
						sb.WriteRune(']')
						ed.consume()
						break
					}
				}
			}
			continue
		}
		sb.WriteRune(ed.token())
		ed.consume()
	}
	sb.WriteRune(']')
	ed.consume()
	return sb.String(), nil
}

// getCompiledRegex parses a delimited pattern at the input cursor and
// compiles it, or reuses the last search RE when the pattern is empty.
func (ed *Editor) getCompiledRegex() (*compiledRegexp, error) {
	delimiter := ed.token()
	if delimiter == ' ' || delimiter == '\n' {
		return nil, ErrInvalidPatternDelim
	}
	ed.consume()
	if ed.token() == delimiter || ed.token() == '\n' {
		// empty RE: reuse the previous pattern
		if ed.searchRE == nil {
			return nil, ErrNoPrevPattern
		}
		if ed.token() == delimiter {
			ed.consume()
			if ed.token() == 'I' {
				return nil, ErrIgnoreCaseEmptyRE
			}
		}
		return ed.searchRE, nil
	}
	pat, err := ed.extractPattern(delimiter)
	if err != nil {
		return nil, err
	}
	var ignoreCase bool
	if ed.token() == delimiter {
		ed.consume()
		if ed.token() == 'I' {
			ignoreCase = true
			ed.consume()
		}
	}
	return ed.compileRegex(pat, ignoreCase)
}

// getPatternForS extracts the pattern of an s command; the cursor is left
// at the closing delimiter. An empty pattern reuses the last search RE.
func (ed *Editor) getPatternForS() (string, error) {
	delimiter := ed.token()
	if delimiter == ' ' || delimiter == '\n' {
		return "", ErrInvalidPatternDelim
	}
	ed.consume()
	if ed.token() == delimiter {
		if ed.searchRE == nil {
			return "", ErrNoPrevPattern
		}
		return "", nil
	}
	pat, err := ed.extractPattern(delimiter)
	if err != nil {
		return "", err
	}
	if ed.token() != delimiter {
		return "", ErrMissingPatternDelim
	}
	return pat, nil
}

// setSubstRegex compiles pat as the substitution RE; an empty pat reuses
// the last search RE.
func (ed *Editor) setSubstRegex(pat string, ignoreCase bool) error {
	if pat == "" && ignoreCase {
		return ErrIgnoreCaseEmptyRE
	}
	ed.guard.disable()
	defer ed.guard.enable()
	if pat == "" {
		ed.substRE = ed.searchRE
		return nil
	}
	cr, err := ed.compileRegex(pat, ignoreCase)
	if err != nil {
		return err
	}
	ed.substRE = cr
	return nil
}

// replaceSubstReBySearchRe adopts the last search RE for substitution
// (the s command's 'r' suffix).
func (ed *Editor) replaceSubstReBySearchRe() error {
	if ed.searchRE == nil {
		return ErrNoPrevPattern
	}
	ed.guard.disable()
	ed.substRE = ed.searchRE
	ed.guard.enable()
	return nil
}

// buildActiveList selects the lines in first..second whose text matches
// (or does not match, per sense) the pattern at the input cursor.
func (ed *Editor) buildActiveList(first, second int, match bool) error {
	cr, err := ed.getCompiledRegex()
	if err != nil {
		return err
	}
	ed.active.clear(ed.guard)
	lp := ed.node(first)
	for addr := first; addr <= second; addr, lp = addr+1, lp.forw {
		s, err := ed.sf.getLine(lp)
		if err != nil {
			ed.showStrerror("", err)
			ed.setError(ErrCannotReadScratch)
			return ErrCannotReadScratch
		}
		if cr.match(s) == match {
			if err := ed.active.set(lp, ed.guard); err != nil {
				ed.setError(err)
				return err
			}
		}
	}
	return nil
}

// nextMatchingNodeAddr returns the address of the next line matching the
// pattern at the cursor, scanning forward for '/' and backward for '?',
// wrapping around the buffer.
func (ed *Editor) nextMatchingNodeAddr() (int, error) {
	forward := ed.token() == '/'
	cr, err := ed.getCompiledRegex()
	if err != nil {
		return -1, err
	}
	addr := ed.current
	for {
		if forward {
			addr = ed.incAddr(addr)
		} else {
			addr = ed.decAddr(addr)
		}
		if addr > 0 {
			lp := ed.node(addr)
			s, err := ed.sf.getLine(lp)
			if err != nil {
				ed.showStrerror("", err)
				ed.setError(ErrCannotReadScratch)
				return -1, ErrCannotReadScratch
			}
			if cr.match(s) {
				return addr, nil
			}
		}
		if addr == ed.current {
			break
		}
	}
	return -1, ErrNoMatch
}

// extractReplacement parses the substitution template at the cursor into
// the remembered replacement. In a global command list newlines are
// already unescaped; otherwise an escaped newline continues on the next
// input line.
func (ed *Editor) extractReplacement(isGlobal bool) error {
	delimiter := ed.token()
	if delimiter == '\n' {
		return ErrMissingPatternDelim
	}
	ed.consume()
	if ed.token() == '%' {
		r := ed.peek()
		if r == delimiter || (r == '\n' && (!isGlobal || ed.peekIsLast())) {
			// the replacement is a single '%': reuse the previous one
			ed.consume()
			if !ed.haveReplacement {
				return ErrNoPrevSubst
			}
			return nil
		}
	}
	var buf []byte
	for ed.token() != delimiter {
		if ed.token() == '\n' && (!isGlobal || ed.atLastNewline()) {
			break
		}
		r := ed.token()
		buf = appendRune(buf, r)
		ed.consume()
		if r == '\\' {
			r = ed.token()
			buf = appendRune(buf, r)
			ed.consume()
			if r == '\n' && !isGlobal {
				// replacement continues on the next input line
				line, err := ed.getStdinLine()
				if err != nil {
					return ErrUnexpectedEOF
				}
				ed.set(line)
			}
		}
	}
	ed.guard.disable()
	ed.replacement = buf
	ed.haveReplacement = true
	ed.guard.enable()
	return nil
}

// expandReplacement produces the replacement text for one match: '&' and
// the escapes of the template are expanded against the match groups.
func expandReplacement(template []byte, txt []byte, m []int) []byte {
	var out []byte
	groups := len(m)/2 - 1
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == '&' {
			out = append(out, txt[m[0]:m[1]]...)
			continue
		}
		if c != '\\' || i+1 >= len(template) {
			out = append(out, c)
			continue
		}
		i++
		d := template[i]
		switch {
		case d >= '1' && d <= '9' && int(d-'0') <= groups:
			n := int(d - '0')
			if m[2*n] >= 0 {
				out = append(out, txt[m[2*n]:m[2*n+1]]...)
			}
		case d == '&' || d == '\\' || d == '\n':
			out = append(out, d)
		default:
			// unrecognized escape keeps the backslash
			out = append(out, '\\', d)
		}
	}
	return out
}

// lineReplace produces the new text of one line with one or all matches
// replaced. The result ends in a newline and may contain embedded
// newlines. It returns nil when nothing matched.
func (ed *Editor) lineReplace(lp *lineNode, snum int) ([]byte, error) {
	txt, err := ed.sf.getLine(lp)
	if err != nil {
		ed.showStrerror("", err)
		ed.setError(ErrCannotReadScratch)
		return nil, ErrCannotReadScratch
	}
	matches := ed.substRE.re.FindAllSubmatchIndex(txt, -1)
	if matches == nil {
		return nil, nil
	}
	global := snum <= 0
	var (
		out     []byte
		prev    int
		changed bool
		emptyAt = -2
	)
	for matchno, m := range matches {
		if m[0] == m[1] {
			if m[0] == emptyAt {
				ed.setError(ErrInfiniteSubstLoop)
				return nil, ErrInfiniteSubstLoop
			}
			emptyAt = m[0]
		}
		if !global && matchno+1 != snum {
			continue
		}
		out = append(out, txt[prev:m[0]]...)
		out = append(out, expandReplacement(ed.replacement, txt, m)...)
		prev = m[1]
		changed = true
		if !global {
			break
		}
	}
	if !changed {
		return nil, nil
	}
	out = append(out, txt[prev:]...)
	out = append(out, '\n')
	return out, nil
}

// searchAndReplace rewrites every line in first..second that the
// substitution RE matches, splitting on embedded newlines in the
// replacement.
func (ed *Editor) searchAndReplace(first, second, snum int, isGlobal bool) error {
	matchFound := false
	addr := first
	for lc := 0; lc <= second-first; lc, addr = lc+1, addr+1 {
		lp := ed.node(addr)
		txt, err := ed.lineReplace(lp, snum)
		if err != nil {
			return err
		}
		if txt == nil {
			continue
		}
		ed.guard.disable()
		if err := ed.deleteLines(addr, addr, isGlobal); err != nil {
			ed.guard.enable()
			return err
		}
		ed.current = addr - 1
		var up *undoAtom
		for len(txt) > 0 {
			lp, err := ed.putScratchLine(txt)
			if err != nil {
				ed.guard.enable()
				return err
			}
			txt = txt[lp.len+1:]
			if up != nil {
				up.tail = ed.node(ed.current)
			} else {
				if up, err = ed.pushUndo(uAdd, ed.current, ed.current); err != nil {
					ed.guard.enable()
					return err
				}
			}
		}
		ed.guard.enable()
		addr = ed.current
		matchFound = true
	}
	if !matchFound && !isGlobal {
		return ErrNoMatch
	}
	return nil
}
