package main

import "fmt"

// execCommand decodes and executes the next command in the command
// buffer. prev is the status of the previous command ('e', 'q' and 'wq'
// override a buffer-modified refusal when repeated); isGlobal marks
// execution under a global command list.
func (ed *Editor) execCommand(prev error, isGlobal bool) error {
	if err := ed.extractAddresses(); err != nil {
		ed.setError(err)
		return err
	}
	ed.skipBlanks()
	c := ed.token()
	ed.consume()
	var pflags int
	err := func() error {
		switch c {
		case 'a':
			var err error
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			if !isGlobal {
				ed.clearUndoStack()
			}
			return ed.appendLines(ed.second, false, isGlobal)
		case 'c':
			var err error
			if err = ed.checkCurrentRange(); err != nil {
				return err
			}
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			if !isGlobal {
				ed.clearUndoStack()
			}
			first := ed.first
			if err := ed.deleteLines(ed.first, ed.second, isGlobal); err != nil {
				return err
			}
			return ed.appendLines(ed.current, ed.current >= first, isGlobal)
		case 'd':
			var err error
			if err = ed.checkCurrentRange(); err != nil {
				return err
			}
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			if !isGlobal {
				ed.clearUndoStack()
			}
			return ed.deleteLines(ed.first, ed.second, isGlobal)
		case 'e', 'E':
			if c == 'e' && ed.modified && prev != ErrWarnBufferModified {
				return ErrWarnBufferModified
			}
			if err := ed.unexpectedAddress(); err != nil {
				return err
			}
			if err := ed.unexpectedCmdSuffix(); err != nil {
				return err
			}
			fnp, err := ed.getFilename(false)
			if err != nil {
				return err
			}
			if ed.last > 0 {
				if err := ed.deleteLines(1, ed.last, isGlobal); err != nil {
					return err
				}
			}
			if err := ed.reopenScratch(); err != nil {
				return err
			}
			ed.buffer.init(ed.sf)
			if fnp != "" && fnp[0] != '!' {
				ed.path = fnp
			}
			name := fnp
			if name == "" {
				name = ed.path
			}
			if _, err := ed.readFile(name, 0); err != nil {
				return err
			}
			ed.resetUndoState()
			ed.modified = false
			return nil
		case 'f':
			if err := ed.unexpectedAddress(); err != nil {
				return err
			}
			if err := ed.unexpectedCmdSuffix(); err != nil {
				return err
			}
			fnp, err := ed.getFilename(ed.tradition)
			if err != nil {
				return err
			}
			if fnp != "" && fnp[0] == '!' {
				return ErrInvalidRedirection
			}
			if fnp != "" {
				ed.path = fnp
			}
			fmt.Fprintln(ed.stdout, stripEscapes(ed.path))
			return nil
		case 'g', 'v', 'G', 'V':
			if isGlobal {
				return ErrCannotNestGlobal
			}
			if err := ed.checkAddrRange(1, ed.last); err != nil {
				return err
			}
			if err := ed.buildActiveList(ed.first, ed.second, c == 'g' || c == 'G'); err != nil {
				return err
			}
			interactive := c == 'G' || c == 'V'
			if interactive {
				var err error
				if pflags, err = ed.getCommandSuffix(); err != nil {
					return err
				}
			}
			return ed.execGlobal(pflags, interactive)
		case 'h', 'H':
			var err error
			if err = ed.unexpectedAddress(); err != nil {
				return err
			}
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			if c == 'H' {
				ed.verbose = !ed.verbose
			}
			if (c == 'h' || ed.verbose) && ed.lastError != nil {
				fmt.Fprintln(ed.stdout, ed.lastError)
			}
			return nil
		case 'i':
			var err error
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			if !isGlobal {
				ed.clearUndoStack()
			}
			return ed.appendLines(ed.second, true, isGlobal)
		case 'j':
			var err error
			if err = ed.checkAddrRange(ed.current, ed.current+1); err != nil {
				return err
			}
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			if !isGlobal {
				ed.clearUndoStack()
			}
			if ed.first < ed.second {
				return ed.joinLines(ed.first, ed.second, isGlobal)
			}
			return nil
		case 'k':
			n := ed.token()
			ed.consume()
			if n == '\n' || n == EOF {
				return ErrInvalidMark
			}
			if ed.second == 0 {
				return ErrInvalidAddress
			}
			var err error
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			return ed.markLine(ed.node(ed.second), n)
		case 'l', 'n', 'p':
			var n int
			switch c {
			case 'l':
				n = pfList
			case 'n':
				n = pfEnum
			case 'p':
				n = pfPrint
			}
			var err error
			if err = ed.checkCurrentRange(); err != nil {
				return err
			}
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			if err := ed.printLines(ed.first, ed.second, pflags|n); err != nil {
				return err
			}
			pflags = 0
			return nil
		case 'm':
			if err := ed.checkCurrentRange(); err != nil {
				return err
			}
			addr, err := ed.getThirdAddr()
			if err != nil {
				return err
			}
			if addr >= ed.first && addr < ed.second {
				return ErrInvalidDestination
			}
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			if !isGlobal {
				ed.clearUndoStack()
			}
			return ed.moveLines(ed.first, ed.second, addr, isGlobal)
		case 'P', 'q', 'Q':
			var err error
			if err = ed.unexpectedAddress(); err != nil {
				return err
			}
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			switch {
			case c == 'P':
				ed.promptOn = !ed.promptOn
			case c == 'q' && ed.modified && prev != ErrWarnBufferModified:
				return ErrWarnBufferModified
			default:
				return errQuit
			}
			return nil
		case 'r':
			if err := ed.unexpectedCmdSuffix(); err != nil {
				return err
			}
			if ed.addrc == 0 {
				ed.second = ed.last
			}
			fnp, err := ed.getFilename(false)
			if err != nil {
				return err
			}
			if ed.path == "" && fnp != "" && fnp[0] != '!' {
				ed.path = fnp
			}
			if !isGlobal {
				ed.clearUndoStack()
			}
			name := fnp
			if name == "" {
				name = ed.path
			}
			lines, err := ed.readFile(name, ed.second)
			if err != nil {
				return err
			}
			if lines > 0 {
				ed.modified = true
			}
			return nil
		case 's':
			var err error
			pflags, err = ed.commandS(isGlobal)
			return err
		case 't':
			if err := ed.checkCurrentRange(); err != nil {
				return err
			}
			addr, err := ed.getThirdAddr()
			if err != nil {
				return err
			}
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			if !isGlobal {
				ed.clearUndoStack()
			}
			return ed.copyLines(ed.first, ed.second, addr)
		case 'u':
			var err error
			if err = ed.unexpectedAddress(); err != nil {
				return err
			}
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			return ed.undoLastCommand(isGlobal)
		case 'w', 'W':
			n := ed.token()
			if n == 'q' || n == 'Q' {
				ed.consume()
			}
			if err := ed.unexpectedCmdSuffix(); err != nil {
				return err
			}
			fnp, err := ed.getFilename(false)
			if err != nil {
				return err
			}
			if ed.addrc == 0 && ed.last == 0 {
				ed.first, ed.second = 0, 0
			} else if err := ed.checkAddrRange(1, ed.last); err != nil {
				return err
			}
			if ed.path == "" && fnp != "" && fnp[0] != '!' {
				ed.path = fnp
			}
			name := fnp
			if name == "" {
				name = ed.path
			}
			lines, err := ed.writeFile(name, c == 'W', ed.first, ed.second)
			if err != nil {
				return err
			}
			if lines == ed.last && (fnp == "" || fnp[0] != '!') {
				ed.modified = false
			} else if n == 'q' && ed.modified && prev != ErrWarnBufferModified {
				return ErrWarnBufferModified
			}
			if n == 'q' || n == 'Q' {
				return errQuit
			}
			return nil
		case 'x':
			if ed.second < 0 || ed.second > ed.last {
				return ErrInvalidAddress
			}
			var err error
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			if !isGlobal {
				ed.clearUndoStack()
			}
			return ed.putLines(ed.second)
		case 'y':
			var err error
			if err = ed.checkCurrentRange(); err != nil {
				return err
			}
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			return ed.yankLines(ed.first, ed.second)
		case 'z':
			addr := ed.current
			if !isGlobal {
				addr++
			}
			if err := ed.checkSecondAddr(addr); err != nil {
				return err
			}
			if ed.token() > '0' && ed.token() <= '9' {
				n, err := ed.scanNumber()
				if err != nil {
					return err
				}
				setWindowLines(n)
			}
			var err error
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			if err := ed.printLines(ed.second,
				min(ed.last, ed.second+windowLines()-1), pflags); err != nil {
				return err
			}
			pflags = 0
			return nil
		case '=':
			var err error
			if pflags, err = ed.getCommandSuffix(); err != nil {
				return err
			}
			n := ed.last
			if ed.addrc > 0 {
				n = ed.second
			}
			fmt.Fprintln(ed.stdout, n)
			return nil
		case '!':
			if err := ed.unexpectedAddress(); err != nil {
				return err
			}
			fnp, err := ed.getShellCommand()
			if err != nil {
				return err
			}
			if err := ed.runShell(fnp[1:]); err != nil {
				return err
			}
			if !ed.scripted {
				fmt.Fprintln(ed.stdout, "!")
			}
			return nil
		case '\n':
			addr := ed.current
			if ed.tradition || !isGlobal {
				addr++
			}
			if err := ed.checkSecondAddr(addr); err != nil {
				return err
			}
			return ed.printLines(ed.second, ed.second, 0)
		case '#':
			for ed.token() != '\n' {
				ed.consume()
			}
			ed.consume()
			return nil
		default:
			return ErrUnknownCmd
		}
	}()
	if err != nil {
		if err != errQuit && err != ErrWarnBufferModified && err != errFatal {
			ed.setError(err)
		}
		return err
	}
	if pflags != 0 {
		if err := ed.printLines(ed.current, ed.current, pflags); err != nil {
			ed.setError(err)
			return err
		}
	}
	return nil
}

// commandS parses and runs the s command, including its repeat forms.
// It returns the print suffixes to apply afterwards.
func (ed *Editor) commandS(isGlobal bool) (int, error) {
	const (
		sfG = 1 << iota // complement the previous global suffix
		sfP             // complement the previous print suffix
		sfR             // use the RE of the last search
		sfNone          // repeat with no flag at all
	)
	if err := ed.checkCurrentRange(); err != nil {
		return 0, err
	}
	var sflags int
	for {
		bad := false
		r := ed.token()
		switch {
		case r >= '1' && r <= '9':
			if sflags&sfG != 0 {
				bad = true
				break
			}
			n, err := ed.scanNumber()
			if err != nil || n <= 0 {
				bad = true
				break
			}
			sflags |= sfG
			ed.sSnum = n
		case r == '\n':
			sflags |= sfNone
		case r == 'g':
			if sflags&sfG != 0 {
				bad = true
			} else {
				sflags |= sfG
				if ed.sSnum != 0 {
					ed.sSnum = 0
				} else {
					ed.sSnum = 1
				}
				ed.consume()
			}
		case r == 'p':
			if sflags&sfP != 0 {
				bad = true
			} else {
				sflags |= sfP
				ed.consume()
			}
		case r == 'r':
			if sflags&sfR != 0 {
				bad = true
			} else {
				sflags |= sfR
				ed.consume()
			}
		default:
			if sflags != 0 {
				bad = true
			}
		}
		if bad {
			return 0, ErrInvalidCmdSuffix
		}
		if sflags == 0 || ed.token() == '\n' {
			break
		}
	}
	if sflags != 0 {
		// repeat the last substitution
		if ed.substRE == nil {
			return 0, ErrNoPrevSubst
		}
		if sflags&sfR != 0 {
			if err := ed.replaceSubstReBySearchRe(); err != nil {
				return 0, err
			}
		}
		if sflags&sfP != 0 {
			ed.sPflags ^= ed.sPmask
		}
		ed.consume() // trailing newline
	} else {
		// don't compile the RE until a possible suffix 'I' is parsed
		pat, err := ed.getPatternForS()
		if err != nil {
			return 0, err
		}
		delimiter := ed.token()
		if err := ed.extractReplacement(isGlobal); err != nil {
			return 0, err
		}
		ed.sPflags = 0
		ed.sSnum = 1
		var ignoreCase bool
		if ed.token() == '\n' {
			ed.sPflags = pfPrint // omitted last delimiter
			ed.consume()
		} else {
			if ed.token() == delimiter {
				ed.consume()
			}
			if err := ed.getCommandSSuffix(&ignoreCase); err != nil {
				return 0, err
			}
		}
		ed.sPmask = ed.sPflags & (pfList | pfEnum | pfPrint)
		if ed.sPmask == 0 {
			ed.sPmask = pfPrint
		}
		if err := ed.setSubstRegex(pat, ignoreCase); err != nil {
			return 0, err
		}
	}
	if !isGlobal {
		ed.clearUndoStack()
	}
	if err := ed.searchAndReplace(ed.first, ed.second, ed.sSnum, isGlobal); err != nil {
		return 0, err
	}
	return ed.sPflags, nil
}

// getCommandSSuffix parses the suffixes of a fresh s command: an Nth-match
// count or 'g', 'i'/'I' for case folding, and the print flags.
func (ed *Editor) getCommandSSuffix(ignoreCase *bool) error {
	rep := false
	for {
		r := ed.token()
		switch {
		case r >= '1' && r <= '9':
			if rep {
				return ErrInvalidCmdSuffix
			}
			n, err := ed.scanNumber()
			if err != nil || n <= 0 {
				return ErrInvalidCmdSuffix
			}
			rep = true
			ed.sSnum = n
			continue
		case r == 'g':
			if rep {
				goto done
			}
			rep = true
			ed.sSnum = 0
		case r == 'i' || r == 'I':
			if *ignoreCase {
				goto done
			}
			*ignoreCase = true
		case r == 'l':
			if ed.sPflags&pfList != 0 {
				goto done
			}
			ed.sPflags |= pfList
		case r == 'n':
			if ed.sPflags&pfEnum != 0 {
				goto done
			}
			ed.sPflags |= pfEnum
		case r == 'p':
			if ed.sPflags&pfPrint != 0 {
				goto done
			}
			ed.sPflags |= pfPrint
		default:
			goto done
		}
		ed.consume()
	}
done:
	if ed.token() != '\n' {
		return ErrInvalidCmdSuffix
	}
	ed.consume()
	return nil
}
