package fields

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rbright/trustpay/internal/transcript"
)

var spokenDigits = map[string]string{
	"zero":   "0",
	"one":    "1",
	"two":    "2",
	"three":  "3",
	"four":   "4",
	"five":   "5",
	"six":    "6",
	"seven":  "7",
	"eight":  "8",
	"nine":   "9",
	"um":     "1",
	"uma":    "1",
	"dois":   "2",
	"duas":   "2",
	"tres":   "3",
	"quatro": "4",
	"cinco":  "5",
	"seis":   "6",
	"meia":   "6",
	"sete":   "7",
	"oito":   "8",
	"nove":   "9",
}

var emailSymbols = map[string]string{
	"at":         "@",
	"arroba":     "@",
	"dot":        ".",
	"ponto":      ".",
	"dash":       "-",
	"hyphen":     "-",
	"hifen":      "-",
	"traco":      "-",
	"underscore": "_",
	"underline":  "_",
}

// NormalizeName strips digits and title-cases each word.
func NormalizeName(raw string) string {
	return cases.Title(language.BrazilianPortuguese).String(nameLetters(raw))
}

// NormalizeHolder strips digits and uppercases each word.
func NormalizeHolder(raw string) string {
	return cases.Upper(language.BrazilianPortuguese).String(nameLetters(raw))
}

func nameLetters(raw string) string {
	kept := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), r == '\'', r == '-':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, raw)
	return strings.Join(strings.Fields(kept), " ")
}

// NormalizeEmail maps spoken symbols to punctuation, lowercases, and removes
// whitespace. Without an at-sign the last two words become the domain.
func NormalizeEmail(raw string) string {
	words := strings.Fields(strings.ToLower(transcript.StripDiacritics(transcript.Clean(raw))))

	mapped := make([]string, 0, len(words))
	hasAt := false
	for _, word := range words {
		word = strings.Trim(word, ",;:")
		if symbol, ok := emailSymbols[word]; ok {
			word = symbol
		}
		if word == "" {
			continue
		}
		if strings.Contains(word, "@") {
			hasAt = true
		}
		mapped = append(mapped, word)
	}

	if hasAt {
		return strings.Join(mapped, "")
	}

	parts := make([]string, 0, len(mapped))
	for _, word := range mapped {
		if word != "." {
			parts = append(parts, word)
		}
	}
	if len(parts) < 3 {
		return strings.Join(parts, "")
	}
	n := len(parts)
	return strings.Join(parts[:n-2], "") + "@" + parts[n-2] + "." + parts[n-1]
}

// NormalizeCPF returns the bare digits of a spoken tax ID.
func NormalizeCPF(raw string) string {
	return digitsOf(raw)
}

// NormalizeCardNumber returns the spoken digits grouped in runs of four.
func NormalizeCardNumber(raw string) string {
	return groupDigits(digitsOf(raw), 4)
}

// NormalizeExpiry resolves a spoken month and year to MM/YY when the digit
// count allows it, otherwise it returns the bare digits. Numbers may be said
// as numerals, digit by digit, or as words ("doze vinte e sete").
func NormalizeExpiry(raw string) string {
	d := spokenNumbers(raw)
	switch len(d) {
	case 3:
		return "0" + d[:1] + "/" + d[1:]
	case 4:
		return d[:2] + "/" + d[2:]
	case 5:
		return "0" + d[:1] + "/" + d[3:]
	case 6:
		return d[:2] + "/" + d[4:]
	default:
		return d
	}
}

// NormalizeCVV returns the bare digits of a spoken security code.
func NormalizeCVV(raw string) string {
	return digitsOf(raw)
}

// digitsOf collects numerals and spoken digit words in order.
func digitsOf(raw string) string {
	var b strings.Builder
	for _, token := range transcript.Tokens(raw) {
		if digit, ok := spokenDigits[token]; ok {
			b.WriteString(digit)
			continue
		}
		for _, r := range token {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func groupDigits(digits string, size int) string {
	if digits == "" {
		return ""
	}
	groups := make([]string, 0, len(digits)/size+1)
	for len(digits) > size {
		groups = append(groups, digits[:size])
		digits = digits[size:]
	}
	groups = append(groups, digits)
	return strings.Join(groups, " ")
}

func lastDigits(s string, n int) string {
	d := onlyDigits(s)
	if len(d) <= n {
		return d
	}
	return d[len(d)-n:]
}

// spellDigits renders digits one by one so the synthesizer does not read
// them as a single large number. Separators become pauses.
func spellDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), ", ") {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), ", "):
			b.WriteString(", ")
		}
	}
	return strings.TrimSuffix(b.String(), ", ")
}

func spokenEmail(value string) string {
	r := strings.NewReplacer("@", " arroba ", ".", " ponto ", "_", " underline ", "-", " traço ")
	return strings.Join(strings.Fields(r.Replace(value)), " ")
}

func spokenExpiry(value string) string {
	month, year, ok := strings.Cut(value, "/")
	if !ok {
		return value
	}
	return "mês " + month + ", ano " + year
}
