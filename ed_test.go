package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	base := []Option{
		WithStdin(strings.NewReader("")),
		WithStdout(io.Discard),
		WithStderr(io.Discard),
		WithScripted(true),
	}
	ed, err := NewEditor(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { ed.sf.close() })
	return ed
}

// loadLines seeds the buffer the way a fresh file read would.
func loadLines(t *testing.T, ed *Editor, lines ...string) {
	t.Helper()
	for _, ln := range lines {
		_, err := ed.putScratchLine([]byte(ln + "\n"))
		require.NoError(t, err)
	}
	ed.clearUndoStack()
	ed.modified = false
}

func bufferLines(t *testing.T, ed *Editor) []string {
	t.Helper()
	var out []string
	for lp := ed.head.forw; lp != &ed.head; lp = lp.forw {
		s, err := ed.sf.getLine(lp)
		require.NoError(t, err)
		out = append(out, string(s))
	}
	return out
}

// run feeds one command line through the dispatcher.
func run(ed *Editor, cmd string) error {
	ed.set(cmd)
	err := ed.execCommand(ed.status, false)
	ed.status = err
	return err
}

func TestAppendAndPrint(t *testing.T) {
	var out bytes.Buffer
	ed, err := NewEditor(
		WithStdin(strings.NewReader("a\nhello\nworld\n.\n,p\nQ\n")),
		WithStdout(&out),
		WithStderr(io.Discard),
		WithScripted(true),
	)
	require.NoError(t, err)
	defer ed.sf.close()
	require.Equal(t, 0, ed.Run())
	require.Equal(t, "hello\nworld\n", out.String())
	require.Equal(t, 2, ed.last)
	require.Equal(t, 2, ed.current)
}

func TestSubstituteBackref(t *testing.T) {
	ed := newTestEditor(t)
	loadLines(t, ed, "foo bar foo")
	require.NoError(t, run(ed, "s/\\(foo\\)/<\\1>/g\n"))
	require.Equal(t, []string{"<foo> bar <foo>"}, bufferLines(t, ed))
	require.True(t, ed.modified)
}

func TestGlobalDeleteAll(t *testing.T) {
	ed := newTestEditor(t)
	loadLines(t, ed, "a", "b", "c")
	require.NoError(t, run(ed, "g/./d\n"))
	require.Equal(t, 0, ed.last)
	require.Equal(t, 0, ed.current)
}

func TestMoveRejectsDestinationInsideRange(t *testing.T) {
	ed := newTestEditor(t)
	loadLines(t, ed, "1", "2", "3", "4", "5")
	err := run(ed, "2,4m3\n")
	require.ErrorIs(t, err, ErrInvalidDestination)
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, bufferLines(t, ed))
}

func TestUndoReversesDelete(t *testing.T) {
	ed := newTestEditor(t)
	loadLines(t, ed, "x", "y", "z")
	require.NoError(t, run(ed, "2d\n"))
	require.Equal(t, []string{"x", "z"}, bufferLines(t, ed))
	require.NoError(t, run(ed, "u\n"))
	require.Equal(t, []string{"x", "y", "z"}, bufferLines(t, ed))
	require.False(t, ed.modified)
}

func TestUndoIsInvolution(t *testing.T) {
	ed := newTestEditor(t)
	loadLines(t, ed, "x", "y", "z")
	require.NoError(t, run(ed, "1,2t3\n"))
	after := bufferLines(t, ed)
	afterCurrent := ed.current
	require.NoError(t, run(ed, "u\n"))
	require.Equal(t, []string{"x", "y", "z"}, bufferLines(t, ed))
	require.NoError(t, run(ed, "u\n"))
	require.Equal(t, after, bufferLines(t, ed))
	require.Equal(t, afterCurrent, ed.current)
}

// interruptReader delivers bytes one at a time and raises an interrupt
// after a fixed number of them, like a SIGINT in the middle of input.
type interruptReader struct {
	r     io.Reader
	g     *interruptGuard
	after int
	n     int
}

func (ir *interruptReader) Read(p []byte) (int, error) {
	ir.n++
	if ir.n > ir.after {
		return 0, io.EOF
	}
	if ir.n == ir.after {
		ir.g.interrupt()
	}
	return ir.r.Read(p[:1])
}

func TestInterruptDuringAppend(t *testing.T) {
	ed := newTestEditor(t)
	var data strings.Builder
	for i := 0; i < 200; i++ {
		data.WriteString("abc\n")
	}
	// interrupt after 100 complete lines
	ed.stdin = &interruptReader{r: strings.NewReader(data.String()), g: ed.guard, after: 400}
	err := run(ed, "a\n")
	require.ErrorIs(t, err, ErrInterrupt)
	require.Equal(t, 100, ed.last)
	// the ring is intact and undo reverts to the pre-append state
	require.Len(t, bufferLines(t, ed), 100)
	require.NoError(t, run(ed, "u\n"))
	require.Equal(t, 0, ed.last)
}

func TestEmptyBufferAddressing(t *testing.T) {
	ed := newTestEditor(t)
	for _, cmd := range []string{",p\n", "1d\n", "1,$s/a/b/\n", "1m0\n"} {
		require.Error(t, run(ed, cmd), "command %q", cmd)
	}
	require.NoError(t, run(ed, "=\n"))
	require.NoError(t, run(ed, "#comment\n"))
}

func TestModifiedQuitRefusedOnce(t *testing.T) {
	ed := newTestEditor(t)
	loadLines(t, ed, "a")
	require.NoError(t, run(ed, "s/a/b/\n"))
	err := run(ed, "q\n")
	require.ErrorIs(t, err, ErrWarnBufferModified)
	err = run(ed, "q\n")
	require.ErrorIs(t, err, errQuit)
}
