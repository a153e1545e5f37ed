//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package main

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

func (ed *Editor) handleSignals(winch bool) {
	sigs := []os.Signal{syscall.SIGINT, syscall.SIGHUP, syscall.SIGQUIT}
	if winch {
		updateWindowSize()
		sigs = append(sigs, syscall.SIGWINCH)
	}
	signal.Notify(ed.sigch, sigs...)
	for sig := range ed.sigch {
		switch sig {
		case syscall.SIGINT:
			ed.guard.interrupt()
		case syscall.SIGHUP:
			ed.guard.hangup()
		case syscall.SIGWINCH:
			updateWindowSize()
		case syscall.SIGQUIT:
			// ignore
		}
	}
}

// updateWindowSize reads the terminal size and updates the scroll window.
// Out-of-range values are ignored.
func updateWindowSize() {
	ws, err := unix.IoctlGetWinsize(0, unix.TIOCGWINSZ)
	if err != nil {
		return
	}
	if ws.Row > 2 && ws.Row < 600 {
		windowLines_.Store(int32(ws.Row) - 2)
	}
	if ws.Col > 8 && ws.Col < 1800 {
		windowColumns_.Store(int32(ws.Col) - 8)
	}
}
