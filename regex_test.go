package main

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateRE(t *testing.T) {
	tests := []struct {
		pat      string
		extended bool
		want     string
		wantErr  error
	}{
		{pat: `\(foo\)`, want: `(foo)`},
		{pat: `(foo)`, want: `\(foo\)`},
		{pat: `a\{2,3\}`, want: `a{2,3}`},
		{pat: `a{2}`, want: `a\{2\}`},
		{pat: `a\|b`, want: `a|b`},
		{pat: `a|b`, want: `a\|b`},
		{pat: `*abc`, want: `\*abc`},
		{pat: `ab*c`, want: `ab*c`},
		{pat: `^abc$`, want: `^abc$`},
		{pat: `a^b`, want: `a\^b`},
		{pat: `a$b`, want: `a\$b`},
		{pat: `[a-z]+x`, want: `[a-z]\+x`},
		{pat: `[[:alpha:]]`, want: `[[:alpha:]]`},
		{pat: `[]a]`, want: `[]a]`},
		{pat: `\<word\>`, want: `\bword\b`},
		{pat: `\(a\)\1`, wantErr: ErrBackrefUnsupported},
		{pat: `a\`, wantErr: ErrTrailingBackslash},
		{pat: `[abc`, wantErr: ErrUnbalancedBrackets},
		{pat: `(a|b)+`, extended: true, want: `(a|b)+`},
		{pat: `\(a\)`, extended: true, want: `\(a\)`},
		{pat: `a{1,2}`, extended: true, want: `a{1,2}`},
	}
	for _, tt := range tests {
		t.Run(tt.pat, func(t *testing.T) {
			got, err := translateRE(tt.pat, tt.extended)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstituteForms(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		cmds  []string
		want  []string
	}{
		{
			name:  "first match only",
			lines: []string{"aaa"},
			cmds:  []string{"s/a/b/\n"},
			want:  []string{"baa"},
		},
		{
			name:  "nth match",
			lines: []string{"aaa"},
			cmds:  []string{"s/a/b/3\n"},
			want:  []string{"aab"},
		},
		{
			name:  "all matches",
			lines: []string{"aaa"},
			cmds:  []string{"s/a/b/g\n"},
			want:  []string{"bbb"},
		},
		{
			name:  "whole match reference",
			lines: []string{"abc"},
			cmds:  []string{"s/b/[&]/\n"},
			want:  []string{"a[b]c"},
		},
		{
			name:  "escaped ampersand is literal",
			lines: []string{"abc"},
			cmds:  []string{"s/b/\\&/\n"},
			want:  []string{"a&c"},
		},
		{
			name:  "repeat last substitution",
			lines: []string{"aa", "aa"},
			cmds:  []string{"1s/a/b/\n", "2s\n"},
			want:  []string{"ba", "ba"},
		},
		{
			name:  "repeat with toggled global",
			lines: []string{"aa", "aa"},
			cmds:  []string{"1s/a/b/\n", "2sg\n"},
			want:  []string{"ba", "bb"},
		},
		{
			name:  "previous replacement via %",
			lines: []string{"aa", "bb"},
			cmds:  []string{"1s/a/X/\n", "2s/b/%/\n"},
			want:  []string{"Xa", "Xb"},
		},
		{
			name:  "case folding suffix",
			lines: []string{"FOO foo"},
			cmds:  []string{"s/foo/bar/gi\n"},
			want:  []string{"bar bar"},
		},
		{
			name:  "empty anchored match",
			lines: []string{"abc"},
			cmds:  []string{"s/^/#/\n"},
			want:  []string{"#abc"},
		},
		{
			name:  "ignore case on pattern address",
			lines: []string{"zzz"},
			cmds:  []string{"s/Z/y/Ig\n"},
			want:  []string{"yyy"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newTestEditor(t)
			loadLines(t, ed, tt.lines...)
			for _, cmd := range tt.cmds {
				require.NoError(t, run(ed, cmd))
			}
			assert.Equal(t, tt.want, bufferLines(t, ed))
		})
	}
}

func TestSubstituteErrors(t *testing.T) {
	ed := newTestEditor(t)
	loadLines(t, ed, "abc")
	require.ErrorIs(t, run(ed, "s\n"), ErrNoPrevSubst)
	require.ErrorIs(t, run(ed, "s abc\n"), ErrInvalidPatternDelim)
	require.ErrorIs(t, run(ed, "s/abc\n"), ErrMissingPatternDelim)
	require.ErrorIs(t, run(ed, "s/x/y/\n"), ErrNoMatch)
}

func TestSubstituteSplitsOnEscapedNewline(t *testing.T) {
	ed := newTestEditor(t)
	loadLines(t, ed, "one two")
	// the replacement continues on the next input line
	ed.stdin = strings.NewReader("two/\n")
	require.NoError(t, run(ed, "s/ /-\\\n"))
	require.Equal(t, []string{"one-", "twotwo"}, bufferLines(t, ed))
	require.Equal(t, 2, ed.last)
}

func TestExpandReplacement(t *testing.T) {
	re := regexp.MustCompile(`(a+)(b*)`)
	txt := []byte("xaabby")
	m := re.FindSubmatchIndex(txt)
	require.NotNil(t, m)
	assert.Equal(t, "aabb", string(expandReplacement([]byte("&"), txt, m)))
	assert.Equal(t, "aa-bb", string(expandReplacement([]byte(`\1-\2`), txt, m)))
	assert.Equal(t, `\7`, string(expandReplacement([]byte(`\7`), txt, m)))
	assert.Equal(t, `\`, string(expandReplacement([]byte(`\\`), txt, m)))
}

func TestSearchRESurvivesFailedCompile(t *testing.T) {
	ed := newTestEditor(t)
	loadLines(t, ed, "abc")
	_, err := ed.compileRegex("abc", false)
	require.NoError(t, err)
	prev := ed.searchRE
	_, err = ed.compileRegex(`a\`, false)
	require.Error(t, err)
	require.Same(t, prev, ed.searchRE)
}
