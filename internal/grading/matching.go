package grading

import (
	"strings"
	"unicode/utf8"
)

// parseMatches parses pairs written as "1-A, 2-B, 3-C" into zero-based
// left index -> right index. Left positions are 1-based numbers, right
// positions are letters with A as 0. Pairs that cannot be parsed are skipped,
// a repeated left position keeps its last pair. Any right rune at or after 'A'
// is kept, even one past the last item, so it counts as a wrong pair.
func parseMatches(s string) map[int]int {
	matches := make(map[int]int)

	for _, pair := range strings.Split(s, ",") {
		left, right, ok := strings.Cut(trim(pair), "-")
		if !ok {
			continue
		}

		left, right = trim(left), trim(right)
		if left == "" || right == "" {
			continue
		}

		n, ok := leadingInt(left)
		if !ok || n < 1 {
			continue
		}

		r, size := utf8.DecodeRuneInString(right)
		if r == utf8.RuneError && size == 1 {
			continue
		}

		ri := int(r - 'A')
		if ri < 0 {
			continue
		}

		matches[n-1] = ri
	}

	return matches
}

// maxPosition caps parsed left positions. It is far beyond any real item count
// and small enough that n*10+9 never overflows.
const maxPosition = 1 << 30

// leadingInt parses the optional sign and decimal digits at the start of s,
// ignoring whatever follows them, so "2)" reads as 2. Magnitudes past
// maxPosition saturate to it.
func leadingInt(s string) (int, bool) {
	i, neg := 0, false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	start, n := i, 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = min(n*10+int(s[i]-'0'), maxPosition)
	}

	if i == start {
		return 0, false
	}

	if neg {
		n = -n
	}
	return n, true
}
