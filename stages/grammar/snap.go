package grammar

import (
	"strings"
	"unicode"

	"github.com/vaanihq/vaani/domain/entities"
)

// snapper pulls out-of-vocabulary tokens onto their nearest domain word.
// A token snaps when it is within the edit-distance budget of a vocabulary
// word, or when the two sound alike and the spelling is close. The distance
// budget shrinks with word length so short words never absorb unrelated
// tokens ("world" stays "world" even with "gold" in the vocabulary).
type snapper struct {
	words           []vocabWord
	maxEditDistance int
}

type vocabWord struct {
	lower     string
	canonical string
	key       string
}

// minSnapLength keeps one- and two-letter tokens out of snapping; they are
// almost never recognizer artifacts.
const minSnapLength = 3

func newSnapper(v *entities.DomainVocabulary, maxEditDistance int) *snapper {
	s := &snapper{maxEditDistance: maxEditDistance}
	seen := make(map[string]struct{})
	add := func(entry string) {
		for _, w := range strings.Fields(entry) {
			lower := strings.ToLower(w)
			if len([]rune(lower)) < minSnapLength {
				continue
			}
			if _, ok := seen[lower]; ok {
				continue
			}
			seen[lower] = struct{}{}
			s.words = append(s.words, vocabWord{lower: lower, canonical: w, key: phoneticKey(lower)})
		}
	}
	for _, t := range v.Terms {
		add(t)
	}
	for _, p := range v.Phrases {
		add(p)
	}
	return s
}

// snap returns the canonical vocabulary word the token should become, or
// false when nothing is close enough.
func (s *snapper) snap(token string) (string, bool) {
	lower := strings.ToLower(token)
	n := len([]rune(lower))
	if n < minSnapLength || strings.ContainsFunc(lower, unicode.IsDigit) {
		return "", false
	}
	key := phoneticKey(lower)

	best := ""
	bestDistance := s.maxEditDistance + 1
	for _, w := range s.words {
		m := len([]rune(w.lower))
		maxLen := n
		if m > maxLen {
			maxLen = m
		}
		// Cheap reject before computing the distance.
		if abs(n-m) > s.maxEditDistance {
			continue
		}
		d := levenshtein(lower, w.lower)
		if d == 0 {
			return w.canonical, true
		}
		budget := maxLen / 3
		if budget > s.maxEditDistance {
			budget = s.maxEditDistance
		}
		if d > budget && !(key == w.key && d <= s.maxEditDistance) {
			continue
		}
		if d < bestDistance {
			bestDistance = d
			best = w.canonical
		}
	}
	return best, best != ""
}

// levenshtein is the two-row edit distance over runes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// phoneticKey reduces a word to a short consonant skeleton so that
// sound-alike recognizer mistakes ("lone" for "loan") compare equal. Vowels
// only survive in the leading position, where they collapse to 'A'; the
// consonants map onto a reduced set in the style of a metaphone encoding.
func phoneticKey(word string) string {
	runes := []rune(strings.ToLower(word))
	var b strings.Builder
	for i := 0; i < len(runes) && b.Len() < 4; i++ {
		r := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			if i == 0 {
				b.WriteByte('A')
			}
		case 'b':
			b.WriteByte('P')
		case 'c':
			switch {
			case next == 'h':
				b.WriteByte('X')
			case next == 'i' || next == 'e' || next == 'y':
				b.WriteByte('S')
			default:
				b.WriteByte('K')
			}
		case 'd':
			b.WriteByte('T')
		case 'f', 'v':
			b.WriteByte('F')
		case 'g':
			switch {
			case next == 'h':
				// silent gh
			case next == 'i' || next == 'e' || next == 'y':
				b.WriteByte('J')
			default:
				b.WriteByte('K')
			}
		case 'j':
			b.WriteByte('J')
		case 'k', 'q':
			b.WriteByte('K')
		case 'l':
			b.WriteByte('L')
		case 'm':
			b.WriteByte('M')
		case 'n':
			b.WriteByte('N')
		case 'p':
			if next == 'h' {
				b.WriteByte('F')
			} else {
				b.WriteByte('P')
			}
		case 'r':
			b.WriteByte('R')
		case 's':
			if next == 'h' {
				b.WriteByte('X')
			} else {
				b.WriteByte('S')
			}
		case 't':
			b.WriteByte('T')
		case 'x':
			b.WriteByte('K')
			if b.Len() < 4 {
				b.WriteByte('S')
			}
		case 'z':
			b.WriteByte('S')
		case 'h', 'w', 'y':
			// silent outside the leading position
		default:
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
			}
		}
	}
	return b.String()
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
