package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplaceForbiddenChars(t *testing.T) {
	t.Parallel()

	t.Run("maps every forbidden character", func(t *testing.T) {
		cases := map[string]string{
			"a?b":   "a b",
			"a*b":   "a b",
			"a:b":   "a-b",
			"a|b":   "a-b",
			`a"b`:   "a'b",
			"a<b":   "ab",
			"a>b":   "ab",
			"a/b":   "ab",
			`a\b`:   "ab",
			"plain": "plain",
		}
		for input, want := range cases {
			require.Equal(t, want, ReplaceForbiddenChars(input), input)
		}
	})

	t.Run("replaces repeated occurrences", func(t *testing.T) {
		require.Equal(t, "Q1 - Q2 - Q3", ReplaceForbiddenChars("Q1 | Q2 | Q3"))
		require.Equal(t, "what  ", ReplaceForbiddenChars("what??"))
	})

	t.Run("is idempotent", func(t *testing.T) {
		inputs := []string{`<<a>>:"b"|c*?\d/`, "My:File*Name?.docx", "clean.txt"}
		for _, input := range inputs {
			once := ReplaceForbiddenChars(input)
			require.False(t, ContainsForbiddenChars(once), once)
			require.Equal(t, once, ReplaceForbiddenChars(once))
		}
	})
}

func TestForbiddenCharsIn(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{":", "*", "?"}, ForbiddenCharsIn("My:File*Name?*.docx"))
	require.Empty(t, ForbiddenCharsIn("report.pdf"))
}

func TestReservedToken(t *testing.T) {
	t.Parallel()

	require.True(t, ContainsReservedToken("_vti_archive"))
	require.False(t, ContainsReservedToken("_VTI_archive"))
	require.Equal(t, "vti-removed-in-migrationa vti-removed-in-migration", ReplaceReservedToken("_vti_a _vti_"))
}

func TestReplaceLeadingTilde(t *testing.T) {
	t.Parallel()

	require.Equal(t, "migrated-Old Team", ReplaceLeadingTilde("~Old Team"))
	require.Equal(t, "migrated-~x", ReplaceLeadingTilde("~~x"))
	require.Equal(t, "Team~", ReplaceLeadingTilde("Team~"))
	require.False(t, strings.HasPrefix(ReplaceLeadingTilde("~a"), "~"))
}

func TestFirstNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  float64
		ok    bool
	}{
		{input: "16.2 GB", want: 16.2, ok: true},
		{input: "14.9 GB", want: 14.9, ok: true},
		{input: "-3 GB", want: -3, ok: true},
		{input: ".5 GB", want: 0.5, ok: true},
		{input: "GB", ok: false},
		{input: "", ok: false},
	}

	for _, tc := range cases {
		got, ok := FirstNumber(tc.input)
		require.Equal(t, tc.ok, ok, tc.input)
		require.InDelta(t, tc.want, got, 1e-9, tc.input)
	}
}
