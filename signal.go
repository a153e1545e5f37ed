package main

import (
	"os"
	"path/filepath"
	"sync/atomic"

	homedir "github.com/mitchellh/go-homedir"
)

// interruptGuard defers asynchronous hang-up and interrupt delivery around
// critical sections. Every structural mutation of the line ring, yank
// buffer, undo stack or active list runs between disable() and enable();
// pending signals are replayed on the outermost enable().
type interruptGuard struct {
	depth         atomic.Int32
	sigintPending atomic.Bool
	sighupPending atomic.Bool
	interrupted   atomic.Bool
	onHangup      func()
}

func (g *interruptGuard) disable() { g.depth.Add(1) }

func (g *interruptGuard) enable() {
	if g.depth.Add(-1) > 0 {
		return
	}
	g.depth.Store(0)
	if g.sighupPending.CompareAndSwap(true, false) && g.onHangup != nil {
		g.onHangup()
	}
	if g.sigintPending.CompareAndSwap(true, false) {
		g.interrupted.Store(true)
	}
}

func (g *interruptGuard) interrupt() {
	if g.depth.Load() > 0 {
		g.sigintPending.Store(true)
	} else {
		g.interrupted.Store(true)
	}
}

func (g *interruptGuard) hangup() {
	if g.depth.Load() > 0 {
		g.sighupPending.Store(true)
	} else if g.onHangup != nil {
		g.onHangup()
	}
}

// pending reports (and clears) a delivered interrupt. Checked at I/O
// boundaries and at the top of the command loop.
func (g *interruptGuard) pending() bool {
	return g.interrupted.CompareAndSwap(true, false)
}

// window geometry, updated by SIGWINCH
var (
	windowLines_   atomic.Int32
	windowColumns_ atomic.Int32
)

func init() {
	windowLines_.Store(22)
	windowColumns_.Store(72)
}

func windowLines() int         { return int(windowLines_.Load()) }
func windowColumns() int       { return int(windowColumns_.Load()) }
func setWindowLines(lines int) { windowLines_.Store(int32(lines)) }

const hangupFile = "ed.hup"

// hangupDump writes a modified buffer to ed.hup in the current directory,
// falling back to $HOME/ed.hup, then exits: 0 if the buffer was saved (or
// did not need saving), 1 otherwise.
func (ed *Editor) hangupDump() {
	if ed.last <= 0 || !ed.modified {
		os.Exit(0)
	}
	if _, err := ed.writeFile(hangupFile, false, 1, ed.last); err == nil {
		os.Exit(0)
	}
	home, err := homedir.Dir()
	if err != nil || home == "" {
		os.Exit(1)
	}
	if _, err := ed.writeFile(filepath.Join(home, hangupFile), false, 1, ed.last); err == nil {
		os.Exit(0)
	}
	os.Exit(1)
}
