package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	isatty "github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

const (
	programName = "ed"
	programYear = "2024"
	version     = "1.18"
)

func showHelp(w *os.File) {
	fmt.Fprintf(w, `%s is a line-oriented text editor. It is used to create, display,
modify and otherwise manipulate text files, both interactively and via
shell scripts. A restricted version, red, can only edit files in the
current directory and cannot execute shell commands.

Usage: %s [options] [file]

Options:
  -h, --help                 display this help and exit
  -H, --highlight=LANG       set language for syntax highlighting
  -V, --version              output version information and exit
  -E, --extended-regexp      use extended regular expressions
  -G, --traditional          run in compatibility mode
  -l, --loose-exit-status    exit with 0 status even if a command fails
  -p, --prompt=STRING        use STRING as an interactive prompt
  -r, --restricted           run in restricted mode
  -s, --quiet, --silent      suppress diagnostics, byte counts and '!' prompt
  -v, --verbose              be verbose; equivalent to the 'H' command
      --strip-trailing-cr    strip carriage returns at end of text lines

Start edit by reading in 'file' if given.
If 'file' begins with a '!', read output of shell command.

Exit status: 0 for a normal exit, 1 for environmental problems (file not
found, invalid flags, I/O errors, etc), 2 to indicate a corrupt or
invalid input file, 3 for an internal consistency error (e.g., bug).
`, programName, os.Args[0])
}

func showVersion() {
	fmt.Printf("%s %s (%s)\n", programName, version, programYear)
}

func main() {
	fs := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	fs.SortFlags = false
	var (
		extended    = fs.BoolP("extended-regexp", "E", false, "use extended regular expressions")
		traditional = fs.BoolP("traditional", "G", false, "run in compatibility mode")
		help        = fs.BoolP("help", "h", false, "display this help and exit")
		hlLang      = fs.StringP("highlight", "H", "", "set language for syntax highlighting")
		loose       = fs.BoolP("loose-exit-status", "l", false, "exit with 0 status even if a command fails")
		prompt      = fs.StringP("prompt", "p", "", "use STRING as an interactive prompt")
		restricted  = fs.BoolP("restricted", "r", false, "run in restricted mode")
		quiet       = fs.BoolP("quiet", "s", false, "suppress diagnostics, byte counts and '!' prompt")
		silent      = fs.Bool("silent", false, "suppress diagnostics, byte counts and '!' prompt")
		verbose     = fs.BoolP("verbose", "v", false, "be verbose; equivalent to the 'H' command")
		showVer     = fs.BoolP("version", "V", false, "output version information and exit")
		stripCR     = fs.Bool("strip-trailing-cr", false, "strip carriage returns at end of text lines")
	)
	fs.Usage = func() { showHelp(os.Stderr) }
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", programName, err)
		fmt.Fprintf(os.Stderr, "Try '%s --help' for more information.\n", os.Args[0])
		os.Exit(1)
	}
	if *help {
		showHelp(os.Stdout)
		os.Exit(0)
	}
	if *showVer {
		showVersion()
		os.Exit(0)
	}

	scripted := *quiet || *silent
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	scriptFile := false
	if fi, err := os.Stdin.Stat(); err == nil {
		scriptFile = fi.Mode().IsRegular()
	}
	// invoking the editor as "red" also selects restricted mode
	if filepath.Base(os.Args[0]) == "red" {
		*restricted = true
	}

	args := fs.Args()
	for len(args) > 0 && args[0] == "-" {
		scripted = true
		args = args[1:]
	}

	opts := []Option{
		WithScripted(scripted),
		WithScriptFile(scriptFile),
		WithRestricted(*restricted),
		WithTraditional(*traditional),
		WithExtendedRegexp(*extended),
		WithStripCR(*stripCR),
		WithLooseExitStatus(*loose),
		WithVerbose(*verbose),
	}
	if fs.Changed("prompt") {
		opts = append(opts, WithPrompt(*prompt))
	}
	if *hlLang != "" {
		opts = append(opts, WithHighlightLanguage(*hlLang))
	}
	ed, err := NewEditor(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", programName, err)
		os.Exit(1)
	}
	go ed.handleSignals(interactive)

	initialError := false
	if len(args) > 0 {
		arg := args[0]
		if err := ed.mayAccessFilename(arg); err != nil {
			if scriptFile {
				os.Exit(2)
			}
			ed.setError(err)
			initialError = true
		} else {
			if _, err := ed.readFile(arg, 0); err != nil {
				if scriptFile {
					os.Exit(2)
				}
				initialError = true
			}
			if !strings.HasPrefix(arg, "!") {
				ed.path = arg
			}
		}
	}
	if initialError {
		fmt.Println("?")
		ed.status = ErrDefault
		if !*loose {
			ed.errStatus = 1
		}
	}
	os.Exit(ed.Run())
}
