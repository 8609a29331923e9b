package ailink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSuggestions(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"mixed decoration", "1. apple\n- apple\n2) banana\n\ncherry\ndate", []string{"apple", "banana", "cherry"}},
		{"empty", "", []string{}},
		{"whitespace only", " \n\t\n", []string{}},
		{"first three", "one\ntwo\nthree\nfour\nfive", []string{"one", "two", "three"}},
		{"crlf", "中国\r\n中国語\r\n", []string{"中国", "中国語"}},
		{"bare cr", "夏休み\r夏", []string{"夏休み", "夏"}},
		{"parenthesized numbers", "(1) alpha\n(2) beta", []string{"alpha", "beta"}},
		{"bullets", "* foo\n  *  bar  ", []string{"foo", "bar"}},
		{"decoration only lines", "1.\n- \n**\nreal", []string{"real"}},
		{"digits are stripped", "2024 plans", []string{"plans"}},
		{"inner punctuation kept", "- e.g. apple-pie", []string{"e.g. apple-pie"}},
		{"case sensitive dedupe", "Apple\napple", []string{"Apple", "apple"}},
		{"vertical tab", "apple\vbanana", []string{"apple", "banana"}},
		{"form feed", "apple\fbanana", []string{"apple", "banana"}},
		{"ascii separators", "a\x1cb\x1dc\x1ed", []string{"a", "b", "c"}},
		{"next line", "りんご\u0085みかん", []string{"りんご", "みかん"}},
		{"unicode separators", "苹果\u2028香蕉\u2029樱桃", []string{"苹果", "香蕉", "樱桃"}},
		{"full width digits", "１．りんご", []string{"．りんご"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseSuggestions(tc.raw)
			require.NotNil(t, got)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseSuggestionsBounded(t *testing.T) {
	got := ParseSuggestions("a\nb\nc\nd\ne\nf")
	require.Len(t, got, MaxSuggestions)
}
