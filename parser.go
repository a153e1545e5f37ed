package main

import (
	"math"
	"strconv"
	"unicode"
)

// scanNumber consumes a run of digits and converts it, guarding against
// results a signed int cannot hold.
func (ed *Editor) scanNumber() (int, error) {
	var s []byte
	for unicode.IsDigit(ed.token()) {
		s = append(s, byte(ed.token()))
		ed.consume()
	}
	n, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil || n > math.MaxInt32 {
		ed.setError(ErrInvalidNumber)
		return 0, ErrInvalidNumber
	}
	return int(n), nil
}

// extractAddresses parses line addresses from the command buffer until a
// non-address token is seen. With no addresses both are set to the current
// address; with one, both are set to it. The cursor for ';' separators is
// moved as the addresses are parsed.
func (ed *Editor) extractAddresses() error {
	first := true // true == expecting an address, false == an offset
	ed.first, ed.second = -1, -1
	ed.skipBlanks()
	for {
		ch := ed.token()
		switch {
		case unicode.IsDigit(ch):
			n, err := ed.scanNumber()
			if err != nil {
				return err
			}
			if first {
				first = false
				ed.second = n
			} else {
				ed.second += n
			}
		case ch == ' ' || ch == '\t':
			ed.skipBlanks()
		case ch == '+' || ch == '-':
			if first {
				first = false
				ed.second = ed.current
			}
			if unicode.IsDigit(ed.peek()) {
				ed.consume()
				n, err := ed.scanNumber()
				if err != nil {
					return err
				}
				if ch == '+' {
					ed.second += n
				} else {
					ed.second -= n
				}
			} else {
				ed.consume()
				if ch == '+' {
					ed.second++
				} else {
					ed.second--
				}
			}
		case ch == '.' || ch == '$':
			if !first {
				return ErrInvalidAddress
			}
			first = false
			ed.consume()
			if ch == '.' {
				ed.second = ed.current
			} else {
				ed.second = ed.last
			}
		case ch == '/' || ch == '?':
			if !first {
				return ErrInvalidAddress
			}
			addr, err := ed.nextMatchingNodeAddr()
			if err != nil {
				return err
			}
			ed.second = addr
			first = false
		case ch == '\'':
			if !first {
				return ErrInvalidAddress
			}
			first = false
			ed.consume()
			addr, err := ed.markedAddr(ed.token())
			if err != nil {
				return err
			}
			ed.consume()
			ed.second = addr
		case ch == '%' || ch == ',' || ch == ';':
			if first {
				if ed.first < 0 {
					if ch == ';' {
						ed.first = ed.current
					} else {
						ed.first = 1
					}
					ed.second = ed.last
				} else {
					ed.first = ed.second
				}
			} else {
				if ed.second < 0 || ed.second > ed.last {
					return ErrInvalidAddress
				}
				if ch == ';' {
					ed.current = ed.second
				}
				ed.first = ed.second
				first = true
			}
			ed.consume()
		default:
			if !first && (ed.second < 0 || ed.second > ed.last) {
				return ErrInvalidAddress
			}
			ed.addrc = 0
			if ed.second >= 0 {
				ed.addrc = 1
				if ed.first >= 0 {
					ed.addrc = 2
				}
			}
			if ed.addrc <= 0 {
				ed.second = ed.current
			}
			if ed.addrc <= 1 {
				ed.first = ed.second
			}
			return nil
		}
	}
}

// getThirdAddr parses the destination address of the m and t commands.
func (ed *Editor) getThirdAddr() (int, error) {
	old1, old2 := ed.first, ed.second
	oldc := ed.addrc
	if err := ed.extractAddresses(); err != nil {
		return -1, err
	}
	if ed.tradition && ed.addrc == 0 {
		return -1, ErrDestinationExpected
	}
	if ed.second < 0 || ed.second > ed.last {
		return -1, ErrInvalidAddress
	}
	addr := ed.second
	ed.first, ed.second, ed.addrc = old1, old2, oldc
	return addr, nil
}
