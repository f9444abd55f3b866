package util

import (
	"regexp"
	"strconv"
	"strings"
)

var titleTokens = regexp.MustCompile(`(\d+|\D+)`)

// leadingArticles are dropped before comparing titles so "The Hobbit"
// files under H.
var leadingArticles = []string{"the ", "a ", "an "}

type titleToken struct {
	text  string
	num   int
	isNum bool
}

func splitTitle(s string) []titleToken {
	parts := titleTokens.FindAllString(s, -1)
	tokens := make([]titleToken, len(parts))
	for i, p := range parts {
		if n, err := strconv.Atoi(p); err == nil {
			tokens[i] = titleToken{num: n, isNum: true}
		} else {
			tokens[i] = titleToken{text: p}
		}
	}
	return tokens
}

// SortKey lowercases and trims a title and removes a leading article.
func SortKey(title string) string {
	key := strings.ToLower(strings.TrimSpace(title))
	for _, article := range leadingArticles {
		if rest, ok := strings.CutPrefix(key, article); ok && strings.TrimSpace(rest) != "" {
			return strings.TrimSpace(rest)
		}
	}
	return key
}

// TitleLess orders titles naturally: embedded numbers compare by value,
// so "Book 2" sorts before "Book 10", and leading articles are ignored.
func TitleLess(a, b string) bool {
	t1 := splitTitle(SortKey(a))
	t2 := splitTitle(SortKey(b))

	for i := 0; i < min(len(t1), len(t2)); i++ {
		x, y := t1[i], t2[i]
		if x.isNum != y.isNum {
			return x.isNum
		}
		if x.isNum {
			if x.num != y.num {
				return x.num < y.num
			}
			continue
		}
		if x.text != y.text {
			return x.text < y.text
		}
	}
	return len(t1) < len(t2)
}
