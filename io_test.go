package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	data := "one\ntwo\nthree\n"
	require.NoError(t, os.WriteFile(src, []byte(data), 0644))

	ed := newTestEditor(t)
	n, err := ed.readFile(src, 0)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.False(t, ed.binary)

	_, err = ed.writeFile(dst, false, 1, ed.last)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, string(got))
}

func TestBinaryRoundTripKeepsUnterminatedLastLine(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	data := "bin\x00ary\nno newline at end"
	require.NoError(t, os.WriteFile(src, []byte(data), 0644))

	ed := newTestEditor(t)
	_, err := ed.readFile(src, 0)
	require.NoError(t, err)
	require.True(t, ed.binary)
	require.True(t, ed.unterminatedLastLine())

	_, err = ed.writeFile(dst, false, 1, ed.last)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, string(got))
}

func TestNewlineAppendedDiagnostic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("text without newline"), 0644))

	var out bytes.Buffer
	ed := newTestEditor(t, WithStdout(&out))
	_, err := ed.readFile(src, 0)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Newline appended\n")
	assert.Equal(t, []string{"text without newline"}, bufferLines(t, ed))
}

func TestStripTrailingCR(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("dos\r\nunix\nmid\rdle\r\n"), 0644))

	ed := newTestEditor(t, WithStripCR(true))
	_, err := ed.readFile(src, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"dos", "unix", "mid\rdle"}, bufferLines(t, ed))
}

func TestWriteRangeAppend(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst")
	ed := newTestEditor(t)
	loadLines(t, ed, "a", "b", "c")
	_, err := ed.writeFile(dst, false, 1, 2)
	require.NoError(t, err)
	_, err = ed.writeFile(dst, true, 3, 3)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(got))
}

func TestWriteResetsModified(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst")
	ed := newTestEditor(t)
	loadLines(t, ed, "a", "b")
	require.NoError(t, run(ed, "1s/a/x/\n"))
	require.True(t, ed.modified)
	require.NoError(t, run(ed, "w "+dst+"\n"))
	require.False(t, ed.modified)
	require.Equal(t, dst, ed.path)

	// a partial write keeps the buffer modified
	require.NoError(t, run(ed, "2s/b/y/\n"))
	require.NoError(t, run(ed, "1w "+dst+"\n"))
	require.True(t, ed.modified)
}

func TestReadCommandOutput(t *testing.T) {
	ed := newTestEditor(t)
	_, err := ed.readFile("!printf 'a\\nb\\n'", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, bufferLines(t, ed))
}

func TestEditCommandReplacesBuffer(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("new\ncontent\n"), 0644))

	ed := newTestEditor(t)
	loadLines(t, ed, "old")
	require.NoError(t, run(ed, "2ka\n")) // out of range mark rejected
	require.Error(t, ed.status)
	require.NoError(t, run(ed, "E "+src+"\n"))
	assert.Equal(t, []string{"new", "content"}, bufferLines(t, ed))
	assert.Equal(t, src, ed.path)
	assert.False(t, ed.modified)
	require.ErrorIs(t, run(ed, "u\n"), ErrNothingToUndo)
}

func TestEditRefusedWhenModified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("x\n"), 0644))

	ed := newTestEditor(t)
	loadLines(t, ed, "a")
	ed.modified = true
	require.ErrorIs(t, run(ed, "e "+src+"\n"), ErrWarnBufferModified)
	// repeating the command overrides the refusal
	require.NoError(t, run(ed, "e "+src+"\n"))
	assert.Equal(t, []string{"x"}, bufferLines(t, ed))
}

func TestFilenameCommand(t *testing.T) {
	var out bytes.Buffer
	ed := newTestEditor(t, WithStdout(&out))
	loadLines(t, ed, "a")
	ed.path = "orig"
	require.NoError(t, run(ed, "f\n"))
	assert.Equal(t, "orig\n", out.String())
	require.NoError(t, run(ed, "f other\n"))
	assert.Equal(t, "other", ed.path)
	require.ErrorIs(t, run(ed, "f !date\n"), ErrInvalidRedirection)
}

func TestRestrictedMode(t *testing.T) {
	ed := newTestEditor(t, WithRestricted(true))
	loadLines(t, ed, "a")
	require.ErrorIs(t, run(ed, "!date\n"), ErrShellRestricted)
	require.ErrorIs(t, run(ed, "w /tmp/x\n"), ErrDirRestricted)
	require.ErrorIs(t, run(ed, "r ..\n"), ErrDirRestricted)
	require.ErrorIs(t, run(ed, "w !cat\n"), ErrShellRestricted)
}

func TestShellCommandFilenameExpansion(t *testing.T) {
	var out bytes.Buffer
	ed := newTestEditor(t, WithStdout(&out))
	ed.path = "file.txt"
	ed.set("echo %\n")
	cmd, err := ed.getShellCommand()
	require.NoError(t, err)
	assert.Equal(t, "!echo file.txt", cmd)
	// the expanded command is echoed back
	assert.Equal(t, "echo file.txt\n", out.String())

	// '\%' stays a literal per cent and does not echo
	out.Reset()
	ed.set("echo \\%\n")
	cmd, err = ed.getShellCommand()
	require.NoError(t, err)
	assert.Equal(t, "!echo %", cmd)
	assert.Empty(t, out.String())

	// a lone '!' replays the previous command
	ed.set("!\n")
	cmd, err = ed.getShellCommand()
	require.NoError(t, err)
	assert.Equal(t, "!echo %", cmd)
}

func TestScriptLineNumberTracksInput(t *testing.T) {
	ed := newTestEditor(t)
	ed.stdin = strings.NewReader("one\ntwo\n")
	_, err := ed.getStdinLine()
	require.NoError(t, err)
	_, err = ed.getStdinLine()
	require.NoError(t, err)
	assert.Equal(t, 2, ed.lineno)
}
