package sharedcontext

// splitSentences divides text into pieces at a sentence boundary: a '.' or
// '?' immediately followed by one whitespace character, unless that
// whitespace is preceded by what looks like an abbreviation.
//
// The source rule is expressed in Python as a regex with lookbehind
// assertions — (?<!\w\.\w.)(?<![A-Z][a-z]\.)(?<=\.|\?)\s — which Go's
// RE2-based regexp package cannot evaluate (no lookbehind support). This is
// an explicit left-to-right scan reproducing the same accept/reject
// decision at each candidate boundary.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	n := len(text)
	for i := 0; i < n-1; i++ {
		c := text[i]
		if c != '.' && c != '?' {
			continue
		}
		if !isSentenceWhitespace(text[i+1]) {
			continue
		}
		if looksLikeAbbreviation(text, i) {
			continue
		}
		sentences = append(sentences, text[start:i+1])
		start = i + 2
	}
	sentences = append(sentences, text[start:])
	return sentences
}

// looksLikeAbbreviation reproduces the two negative lookbehinds, each
// anchored at the candidate ender position i.
func looksLikeAbbreviation(text string, i int) bool {
	// (?<!\w\.\w.) — four characters ending at i: word, '.', word, anything
	// (the fourth position is always i itself, which is already known to be
	// '.' or '?', so it always satisfies "anything").
	if i >= 3 && isWordByte(text[i-3]) && text[i-2] == '.' && isWordByte(text[i-1]) {
		return true
	}
	// (?<![A-Z][a-z]\.) — three characters ending at i, only meaningful
	// when the ender itself is a literal '.'.
	if text[i] == '.' && i >= 2 && isUpperByte(text[i-2]) && isLowerByte(text[i-1]) {
		return true
	}
	return false
}

func isSentenceWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	default:
		return false
	}
}

func isWordByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '_':
		return true
	default:
		return false
	}
}

func isUpperByte(b byte) bool { return b >= 'A' && b <= 'Z' }
func isLowerByte(b byte) bool { return b >= 'a' && b <= 'z' }
