package command

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/rbright/trustpay/internal/fields"
	"github.com/rbright/trustpay/internal/transcript"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
	minPhoneticTokenLength   = 3
)

// AliasOption configures an AliasMatcher.
type AliasOption func(*AliasMatcher)

// WithPhoneticThreshold sets the Jaro-Winkler floor for aliases that share a
// Double Metaphone code with the spoken text.
func WithPhoneticThreshold(threshold float64) AliasOption {
	return func(m *AliasMatcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the Jaro-Winkler floor when no phonetic code
// overlaps.
func WithFuzzyThreshold(threshold float64) AliasOption {
	return func(m *AliasMatcher) {
		m.fuzzyThreshold = threshold
	}
}

type aliasEntry struct {
	field  fields.ID
	folded string
	tokens []string
	codes  map[string]struct{}
}

// AliasMatcher resolves misrecognized field names ("emeio", "validad") to
// catalog fields. It is read-only after construction.
type AliasMatcher struct {
	entries           []aliasEntry
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewAliasMatcher indexes every alias in catalog.
func NewAliasMatcher(catalog *fields.Catalog, opts ...AliasOption) *AliasMatcher {
	m := &AliasMatcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, spec := range catalog.Specs() {
		for _, alias := range spec.Aliases {
			tokens := transcript.Tokens(alias)
			if len(tokens) == 0 {
				continue
			}
			m.entries = append(m.entries, aliasEntry{
				field:  spec.ID,
				folded: strings.Join(tokens, " "),
				tokens: tokens,
				codes:  phoneticCodes(tokens),
			})
		}
	}
	return m
}

// Match returns the best field for text, or false when nothing clears the
// thresholds.
func (m *AliasMatcher) Match(text string) (fields.ID, bool) {
	tokens := transcript.Tokens(text)
	if len(tokens) == 0 {
		return "", false
	}
	folded := strings.Join(tokens, " ")
	codes := phoneticCodes(tokens)

	var (
		best         fields.ID
		bestScore    float64
		bestPhonetic bool
	)
	for _, entry := range m.entries {
		score := similarity(tokens, entry.tokens, folded, entry.folded)
		if overlaps(codes, entry.codes) {
			if score >= m.phoneticThreshold && (!bestPhonetic || score > bestScore) {
				best, bestScore, bestPhonetic = entry.field, score, true
			}
			continue
		}
		if !bestPhonetic && score >= m.fuzzyThreshold && score > bestScore {
			best, bestScore = entry.field, score
		}
	}
	return best, best != ""
}

// phoneticCodes collects Double Metaphone codes for tokens long enough to
// carry a stable code.
func phoneticCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, token := range tokens {
		if len(token) < minPhoneticTokenLength {
			continue
		}
		primary, secondary := matchr.DoubleMetaphone(token)
		if primary != "" {
			codes[primary] = struct{}{}
		}
		if secondary != "" {
			codes[secondary] = struct{}{}
		}
	}
	return codes
}

func overlaps(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// similarity compares the full phrases and their space-stripped forms.
func similarity(inputTokens, aliasTokens []string, input, alias string) float64 {
	score := matchr.JaroWinkler(input, alias, false)
	if len(inputTokens) > 1 || len(aliasTokens) > 1 {
		joinedInput := strings.Join(inputTokens, "")
		joinedAlias := strings.Join(aliasTokens, "")
		if s := matchr.JaroWinkler(joinedInput, joinedAlias, false); s > score {
			score = s
		}
	}
	return score
}
