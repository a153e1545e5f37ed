package main

import (
	"io"
	"math"
)

// activeList is the ordered set of line nodes selected by a global
// command. It is traversed by a non-decreasing cursor; entries are nulled
// out when the referenced line is deleted or moved while the command list
// runs.
type activeList struct {
	nodes []*lineNode
	idx   int // traversal index, non-decreasing
	idxm  int // scan index for unset, modulo len(nodes)
}

func (a *activeList) clear(g *interruptGuard) {
	g.disable()
	a.nodes = nil
	a.idx = 0
	a.idxm = 0
	g.enable()
}

// next returns the next remaining active node, or nil when the traversal
// is done.
func (a *activeList) next() *lineNode {
	for a.idx < len(a.nodes) && a.nodes[a.idx] == nil {
		a.idx++
	}
	if a.idx >= len(a.nodes) {
		return nil
	}
	lp := a.nodes[a.idx]
	a.idx++
	return lp
}

func (a *activeList) set(lp *lineNode, g *interruptGuard) error {
	if len(a.nodes) >= math.MaxInt32-1 {
		return ErrTooManyMatching
	}
	g.disable()
	a.nodes = append(a.nodes, lp)
	g.enable()
	return nil
}

// unset nulls out the entries for the nodes bp up to (not including) ep.
// The scan resumes where the previous one left off, so clearing a range
// that was just visited stays close to O(range).
func (a *activeList) unset(bp, ep *lineNode) {
	for ; bp != ep; bp = bp.forw {
		for i := 0; i < len(a.nodes); i++ {
			if a.idxm++; a.idxm >= len(a.nodes) {
				a.idxm = 0
			}
			if a.nodes[a.idxm] == bp {
				a.nodes[a.idxm] = nil
				break
			}
		}
	}
}

// execGlobal applies the command list that follows on the input to every
// active line. For the interactive forms the current line is printed and a
// command is read per line; '&' repeats the previous one.
func (ed *Editor) execGlobal(pflags int, interactive bool) error {
	var cmd string
	if !interactive {
		if ed.tradition && ed.rest() == "\n" {
			cmd = "p\n" // null command list
		} else {
			if err := ed.extendedLine(false); err != nil {
				return err
			}
			cmd = ed.rest()
		}
	}
	ed.clearUndoStack()
	for {
		lp := ed.active.next()
		if lp == nil {
			break
		}
		addr := ed.nodeAddr(lp)
		if addr < 0 {
			return ErrInvalidAddress
		}
		ed.current = addr
		if interactive {
			if err := ed.printLines(addr, addr, pflags); err != nil {
				return err
			}
			line, err := ed.getStdinLine()
			if err == io.EOF {
				return ErrUnexpectedEOF
			}
			if err != nil {
				return err
			}
			switch line {
			case "\n":
				continue
			case "&\n":
				if cmd == "" {
					return ErrNoPrevCmd
				}
			default:
				ed.set(line)
				if err := ed.extendedLine(false); err != nil {
					return err
				}
				cmd = ed.rest()
			}
		}
		ed.set(cmd)
		for !ed.input.eof() {
			if err := ed.execCommand(nil, true); err != nil {
				return err
			}
		}
	}
	return nil
}
