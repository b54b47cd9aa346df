// Package postprocess derives the filler-free and corrected variants of a
// raw transcript.
package postprocess

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/yoockh/voicememo/internal/utils"
)

// maxPasses bounds the fixed-point loop over the rule set.
const maxPasses = 32

// FillerRules are hesitation words in application order.
type FillerRules []string

// DefaultFillers in application order. Comma-attached forms come before their bare
// forms, and longer forms before their prefixes, so a bare rule never leaves
// an orphaned comma behind.
var DefaultFillers = FillerRules{
	"えーとですね、", "えーっと、", "えーと、", "ええと、", "えっと、", "えー、", "ええ、",
	"あのー、", "あの、", "そのー、", "その、", "まあ、", "まぁ、",
	"うーん、", "うーむ、", "なんか、", "なんていうか、", "うん、", "ああ、", "あー、",
	"えーとですね", "えーっと", "えーと", "ええと", "えっと", "えー",
	"あのー", "そのー", "うーん", "うーむ", "なんていうか", "あー",
}

var (
	spaceRun   = regexp.MustCompile(`[\s\x{3000}]+`)
	commaRun   = regexp.MustCompile(`[、,](\s*[、,])+`)
	periodRun  = regexp.MustCompile(`[。.](\s*[。.])+`)
	commaStop  = regexp.MustCompile(`[、,]\s*([。.])`)
	stopComma  = regexp.MustCompile(`([。.])\s*[、,]`)
	afterStop  = regexp.MustCompile(`(。)\s+`)
	leadingCut = regexp.MustCompile(`^[\s\x{3000}、。,.]+`)
)

// StripFillers applies DefaultFillers.
func StripFillers(text string) (string, error) {
	return DefaultFillers.Strip(text)
}

// Strip removes hesitation words and tidies the punctuation they leave
// behind. It is idempotent. Empty input, or input made only of fillers,
// returns DEGENERATE_INPUT.
func (rules FillerRules) Strip(text string) (string, error) {
	const op = "postprocess.StripFillers"

	if strings.TrimSpace(text) == "" {
		return "", utils.E(utils.CodeDegenerateInput, op, "text is empty", nil)
	}

	out := norm.NFC.String(text)
	for i := 0; i < maxPasses; i++ {
		next := norm.NFC.String(tidy(rules.remove(out)))
		if next == out {
			break
		}
		out = next
	}

	if out == "" {
		return "", utils.E(utils.CodeDegenerateInput, op, "text contains only fillers", nil)
	}
	return out, nil
}

// remove drops fillers that start a word: at the beginning of s, or after
// whitespace or punctuation. At each such position the first matching rule
// wins, so "ねえー、" keeps its "えー、" and "えーえーと" loses both.
func (rules FillerRules) remove(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if wordStart(b.String()) {
			if f := rules.match(s[i:]); f != "" {
				i += len(f)
				continue
			}
		}
		_, n := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+n])
		i += n
	}
	return b.String()
}

func (rules FillerRules) match(s string) string {
	for _, f := range rules {
		if f != "" && strings.HasPrefix(s, f) {
			return f
		}
	}
	return ""
}

func wordStart(before string) bool {
	if before == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(before)
	return unicode.IsSpace(r) || unicode.IsPunct(r)
}

func tidy(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	s = commaStop.ReplaceAllString(s, "$1")
	s = stopComma.ReplaceAllString(s, "$1")
	s = commaRun.ReplaceAllStringFunc(s, firstRune)
	s = periodRun.ReplaceAllStringFunc(s, firstRune)
	s = afterStop.ReplaceAllString(s, "$1")
	s = leadingCut.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return s
}
