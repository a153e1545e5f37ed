package main

import (
	"io"
	"math"
)

const markCount = 'z' - 'a' + 1

// buffer is the editor buffer: a doubly linked ring of line nodes with a
// sentinel head, addressed 1..last. Address 0 is "before the first line".
// The yank ring holds independently allocated duplicates whose nodes share
// scratch offsets with the originals.
type buffer struct {
	head     lineNode // sentinel of the line ring
	yankHead lineNode // sentinel of the yank ring
	sf       *scratchFile

	current  int // current address ("dot")
	last     int // address of the last line
	modified bool
	binary   bool // a NUL byte was read into the buffer

	cachedNode *lineNode // locator cache for node()
	cachedAddr int

	marks  [markCount]*lineNode
	markno int

	unterminated *lineNode // last line read without a trailing newline
}

func linkNodes(prev, next *lineNode) {
	prev.forw = next
	next.back = prev
}

// insertNode splices lp into a ring after prev.
func insertNode(lp, prev *lineNode) {
	linkNodes(lp, prev.forw)
	linkNodes(prev, lp)
}

func dupNode(lp *lineNode) *lineNode {
	return &lineNode{pos: lp.pos, len: lp.len}
}

func (b *buffer) init(sf *scratchFile) {
	b.sf = sf
	linkNodes(&b.head, &b.head)
	linkNodes(&b.yankHead, &b.yankHead)
	b.current = 0
	b.last = 0
	b.modified = false
	b.binary = false
	b.unterminated = nil
	b.cachedNode = &b.head
	b.cachedAddr = 0
}

func (b *buffer) incAddr(addr int) int {
	if addr++; addr > b.last {
		addr = 0
	}
	return addr
}

func (b *buffer) decAddr(addr int) int {
	if addr--; addr < 0 {
		addr = b.last
	}
	return addr
}

// node returns the line node at the given address, walking from the cached
// locator, the head, or the tail, whichever is nearest. The cache must be
// dropped (dropCache) after any structural change.
func (b *buffer) node(addr int) *lineNode {
	lp, o := b.cachedNode, b.cachedAddr
	if o < addr {
		if o+b.last >= 2*addr {
			for o < addr {
				o++
				lp = lp.forw
			}
		} else {
			lp, o = b.head.back, b.last
			for o > addr {
				o--
				lp = lp.back
			}
		}
	} else if o <= 2*addr {
		for o > addr {
			o--
			lp = lp.back
		}
	} else {
		lp, o = &b.head, 0
		for o < addr {
			o++
			lp = lp.forw
		}
	}
	b.cachedNode, b.cachedAddr = lp, o
	return lp
}

func (b *buffer) dropCache() {
	b.cachedNode = &b.head
	b.cachedAddr = 0
}

// nodeAddr returns the address of a line node by linear walk, or -1 if the
// node is not linked into the ring.
func (b *buffer) nodeAddr(lp *lineNode) int {
	p := &b.head
	addr := 0
	for p != lp {
		p = p.forw
		if p == &b.head {
			break
		}
		addr++
	}
	if addr > 0 && p == &b.head {
		return -1
	}
	return addr
}

// addNode links lp into the ring after the current address and advances
// current and last.
func (b *buffer) addNode(lp *lineNode) {
	prev := b.node(b.current)
	insertNode(lp, prev)
	b.cachedNode, b.cachedAddr = lp, b.current+1
	b.current++
	b.last++
}

func (b *buffer) full() bool { return b.last >= math.MaxInt32-1 }

func (b *buffer) clearYank() {
	lp := b.yankHead.forw
	for lp != &b.yankHead {
		p := lp.forw
		linkNodes(lp.back, lp.forw)
		lp = p
	}
}

// markLine sets mark c to the given node. c must be a lowercase letter.
func (b *buffer) markLine(lp *lineNode, c rune) error {
	if c < 'a' || c > 'z' {
		return ErrInvalidMark
	}
	if b.marks[c-'a'] == nil {
		b.markno++
	}
	b.marks[c-'a'] = lp
	return nil
}

// unmarkNode clears every mark referencing lp. Called when a node is
// dropped from the undo stack and therefore freed.
func (b *buffer) unmarkNode(lp *lineNode) {
	for i := 0; b.markno > 0 && i < markCount; i++ {
		if b.marks[i] == lp {
			b.marks[i] = nil
			b.markno--
		}
	}
}

// markedAddr returns the current address of the line marked with c.
func (b *buffer) markedAddr(c rune) (int, error) {
	if c < 'a' || c > 'z' {
		return -1, ErrInvalidMark
	}
	lp := b.marks[c-'a']
	if lp == nil {
		return -1, ErrInvalidAddress
	}
	addr := b.nodeAddr(lp)
	if addr < 0 {
		return -1, ErrInvalidAddress
	}
	return addr, nil
}

func (b *buffer) unmarkUnterminated(lp *lineNode) {
	if b.unterminated == lp {
		b.unterminated = nil
	}
}

// unterminatedLastLine reports whether the last line of the buffer was
// read without a trailing newline.
func (b *buffer) unterminatedLastLine() bool {
	return b.unterminated != nil && b.unterminated == b.node(b.last)
}

// putScratchLine writes one newline-terminated line to the scratch file
// and links its node into the ring after the current address.
func (ed *Editor) putScratchLine(buf []byte) (*lineNode, error) {
	if ed.buffer.full() {
		ed.setError(ErrTooManyLines)
		return nil, ErrTooManyLines
	}
	lp, err := ed.sf.putLine(buf)
	if err != nil {
		if err != ErrUnterminatedLine {
			ed.showStrerror("", err)
			err = ErrCannotWriteScratch
		}
		ed.setError(err)
		return nil, err
	}
	ed.addNode(lp)
	return lp, nil
}

// appendLines inserts lines read from stdin (or from the remainder of the
// command buffer under a global command) after the given address, until a
// line holding a single period or end of input. insert shifts the
// insertion point so the lines appear before the addressed line.
func (ed *Editor) appendLines(addr int, insert, isGlobal bool) error {
	var up *undoAtom
	ed.current = addr
	for {
		var line string
		if !isGlobal {
			var err error
			line, err = ed.getStdinLine()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
		} else {
			if ed.input.eof() {
				return nil
			}
			line = ed.restLine()
		}
		if line == ".\n" {
			return nil
		}
		ed.guard.disable()
		if insert {
			insert = false
			if ed.current > 0 {
				ed.current--
			}
		}
		lp, err := ed.putScratchLine([]byte(line))
		if err != nil {
			ed.guard.enable()
			return err
		}
		if up != nil {
			up.tail = lp
		} else {
			if up, err = ed.pushUndo(uAdd, ed.current, ed.current); err != nil {
				ed.guard.enable()
				return err
			}
		}
		ed.modified = true
		ed.guard.enable()
	}
}

// deleteLines yanks and unlinks a range of lines. The nodes are retained:
// the undo stack owns them through the uDel atom.
func (ed *Editor) deleteLines(from, to int, isGlobal bool) error {
	if err := ed.yankLines(from, to); err != nil {
		return err
	}
	ed.guard.disable()
	defer ed.guard.enable()
	if _, err := ed.pushUndo(uDel, from, to); err != nil {
		return err
	}
	n := ed.node(ed.incAddr(to))
	p := ed.node(from - 1) // this node lookup last: it leaves the cache valid
	if isGlobal {
		ed.active.unset(p.forw, n)
	}
	linkNodes(p, n)
	ed.last -= to - from + 1
	ed.current = min(from, ed.last)
	ed.modified = true
	return nil
}

// copyLines duplicates a range of lines after addr. When addr splits the
// range, the duplication runs in two passes so the freshly inserted copies
// are not copied again.
func (ed *Editor) copyLines(first, second, addr int) error {
	np := ed.node(first)
	var up *undoAtom
	n := second - first + 1
	m := 0
	ed.current = addr
	if addr >= first && addr < second {
		n = addr - first + 1
		m = second - addr
	}
	for n > 0 {
		for ; n > 0; n, np = n-1, np.forw {
			if ed.buffer.full() {
				ed.setError(ErrTooManyLines)
				return ErrTooManyLines
			}
			ed.guard.disable()
			lp := dupNode(np)
			ed.addNode(lp)
			if up != nil {
				up.tail = lp
			} else {
				var err error
				if up, err = ed.pushUndo(uAdd, ed.current, ed.current); err != nil {
					ed.guard.enable()
					return err
				}
			}
			ed.modified = true
			ed.guard.enable()
		}
		n, m = m, 0
		if n > 0 {
			np = ed.node(ed.current + 1)
		}
	}
	return nil
}

// moveLines splices a range of lines to after addr. Moving a range onto
// itself is structurally a no-op but still sets the current address.
func (ed *Editor) moveLines(first, second, addr int, isGlobal bool) error {
	n := ed.incAddr(second)
	p := first - 1
	ed.guard.disable()
	defer ed.guard.enable()
	var b2, a2 *lineNode
	if addr == first-1 || addr == second {
		a2 = ed.node(n)
		b2 = ed.node(p)
		ed.current = second
	} else {
		if _, err := ed.pushUndo(uMov, p, n); err != nil {
			return err
		}
		if _, err := ed.pushUndo(uMov, addr, ed.incAddr(addr)); err != nil {
			return err
		}
		a1 := ed.node(n)
		var b1 *lineNode
		if addr < first {
			b1 = ed.node(p)
			b2 = ed.node(addr) // this node lookup last
		} else {
			b2 = ed.node(addr)
			b1 = ed.node(p) // this node lookup last
		}
		a2 = b2.forw
		linkNodes(b2, b1.forw)
		linkNodes(a1.back, a2)
		linkNodes(b1, a1)
		if addr < first {
			ed.current = addr + (second - first + 1)
		} else {
			ed.current = addr
		}
	}
	if isGlobal {
		ed.active.unset(b2.forw, a2)
	}
	ed.modified = true
	return nil
}

// joinLines replaces a range of lines with their concatenation.
func (ed *Editor) joinLines(from, to int, isGlobal bool) error {
	ep := ed.node(ed.incAddr(to))
	var buf []byte
	for bp := ed.node(from); bp != ep; bp = bp.forw {
		s, err := ed.sf.getLine(bp)
		if err != nil {
			ed.showStrerror("", err)
			ed.setError(ErrCannotReadScratch)
			return ErrCannotReadScratch
		}
		buf = append(buf, s...)
	}
	buf = append(buf, '\n')
	if err := ed.deleteLines(from, to, isGlobal); err != nil {
		return err
	}
	ed.current = from - 1
	ed.guard.disable()
	defer ed.guard.enable()
	if _, err := ed.putScratchLine(buf); err != nil {
		return err
	}
	if _, err := ed.pushUndo(uAdd, ed.current, ed.current); err != nil {
		return err
	}
	ed.modified = true
	return nil
}

// yankLines copies a range of lines into the yank buffer, replacing its
// previous contents. The duplicates share scratch offsets with the
// originals.
func (ed *Editor) yankLines(from, to int) error {
	ep := ed.node(ed.incAddr(to))
	bp := ed.node(from)
	ed.guard.disable()
	defer ed.guard.enable()
	ed.clearYank()
	lp := &ed.yankHead
	for bp != ep {
		p := dupNode(bp)
		insertNode(p, lp)
		bp = bp.forw
		lp = p
	}
	return nil
}

// putLines appends duplicates of the yank buffer after addr.
func (ed *Editor) putLines(addr int) error {
	lp := ed.yankHead.forw
	if lp == &ed.yankHead {
		ed.setError(ErrNothingToPut)
		return ErrNothingToPut
	}
	var up *undoAtom
	ed.current = addr
	for lp != &ed.yankHead {
		if ed.buffer.full() {
			ed.setError(ErrTooManyLines)
			return ErrTooManyLines
		}
		ed.guard.disable()
		p := dupNode(lp)
		ed.addNode(p)
		if up != nil {
			up.tail = p
		} else {
			var err error
			if up, err = ed.pushUndo(uAdd, ed.current, ed.current); err != nil {
				ed.guard.enable()
				return err
			}
		}
		ed.modified = true
		lp = lp.forw
		ed.guard.enable()
	}
	return nil
}
