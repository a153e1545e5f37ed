package main

// undoType tags an undo atom. uAdd marks newly linked nodes (undo =
// unlink), uDel marks unlinked but retained nodes (undo = relink). uMov
// and uVmov always occur in pairs describing the source and destination
// ranges of a move; undoing one consumes both.
type undoType int

const (
	uAdd undoType = iota
	uDel
	uMov
	uVmov
)

type undoAtom struct {
	typ        undoType
	head, tail *lineNode
}

const undoStackLimit = 1 << 26

// undoStack records the structural edits of the last buffer-modifying
// command together with a snapshot of (current, last, modified) taken when
// the stack was last cleared. Undo reverses the atoms in LIFO order, flips
// each atom's type and reverses the atom order in place, so a second undo
// redoes.
type undoStack struct {
	atoms []undoAtom

	current  int // snapshot; < 0 disables undo
	last     int
	modified bool
}

// push records an atom covering the nodes now at addresses from..to.
func (ed *Editor) pushUndo(typ undoType, from, to int) (*undoAtom, error) {
	u := &ed.undo
	ed.guard.disable()
	defer ed.guard.enable()
	if len(u.atoms) >= undoStackLimit {
		u.atoms = nil
		u.current, u.last = -1, -1
		return nil, ErrUndoStackTooLong
	}
	u.atoms = append(u.atoms, undoAtom{
		typ:  typ,
		tail: ed.node(to),
		head: ed.node(from),
	})
	return &u.atoms[len(u.atoms)-1], nil
}

// clearUndoStack empties the stack and takes a fresh snapshot. Nodes
// referenced by uDel atoms are owned by the stack; dropping them frees
// them, so marks and the unterminated-line reference pointing at them are
// cleared first.
func (ed *Editor) clearUndoStack() {
	u := &ed.undo
	for i := len(u.atoms) - 1; i >= 0; i-- {
		if u.atoms[i].typ != uDel {
			continue
		}
		ep := u.atoms[i].tail.forw
		for bp := u.atoms[i].head; bp != ep; bp = bp.forw {
			ed.unmarkNode(bp)
			ed.unmarkUnterminated(bp)
		}
	}
	u.atoms = u.atoms[:0]
	u.current = ed.current
	u.last = ed.last
	u.modified = ed.modified
}

// resetUndoState clears the stack and disables undo until the next
// buffer-modifying command; used when the whole buffer is replaced.
func (ed *Editor) resetUndoState() {
	ed.clearUndoStack()
	ed.undo.current, ed.undo.last = -1, -1
	ed.undo.modified = false
}

// undoLastCommand reverses the recorded atoms and swaps the snapshot, so
// undo is an involution over a single frame.
func (ed *Editor) undoLastCommand(isGlobal bool) error {
	u := &ed.undo
	oCurrent, oLast, oModified := ed.current, ed.last, ed.modified

	if len(u.atoms) == 0 || u.current < 0 || u.last < 0 {
		return ErrNothingToUndo
	}
	ed.dropCache()
	ed.guard.disable()
	defer ed.guard.enable()
	for n := len(u.atoms) - 1; n >= 0; n-- {
		a := &u.atoms[n]
		switch a.typ {
		case uAdd:
			linkNodes(a.head.back, a.tail.forw)
		case uDel:
			linkNodes(a.head.back, a.head)
			linkNodes(a.tail, a.tail.forw)
		case uMov, uVmov:
			// moves consume two stack slots
			b := &u.atoms[n-1]
			linkNodes(b.head, a.head.forw)
			linkNodes(a.tail.back, b.tail)
			linkNodes(a.head, a.tail)
			n--
		}
		u.atoms[n].typ ^= 1
	}
	// reverse the atom order so the next undo redoes
	for i, j := 0, len(u.atoms)-1; i < j; i, j = i+1, j-1 {
		u.atoms[i], u.atoms[j] = u.atoms[j], u.atoms[i]
	}
	if isGlobal {
		ed.active.clear(ed.guard)
	}
	ed.current, u.current = u.current, oCurrent
	ed.last, u.last = u.last, oLast
	ed.modified, u.modified = u.modified, oModified
	return nil
}
