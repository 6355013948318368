package feature

import (
	"strings"
	"unicode"
)

// Tokenize 小写化后切分出由字母、数字、下划线组成且长度 >= 2 的词。
func Tokenize(text string) []string {
	var (
		tokens []string
		cur    strings.Builder
		n      int
	)
	flush := func() {
		if n >= 2 {
			tokens = append(tokens, cur.String())
		}
		cur.Reset()
		n = 0
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			cur.WriteRune(r)
			n++
			continue
		}
		flush()
	}
	flush()
	return tokens
}
