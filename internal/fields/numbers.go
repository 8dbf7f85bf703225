package fields

import (
	"strconv"
	"strings"

	"github.com/rbright/trustpay/internal/transcript"
)

var spokenTeens = map[string]int{
	"dez": 10, "onze": 11, "doze": 12, "treze": 13, "catorze": 14, "quatorze": 14,
	"quinze": 15, "dezesseis": 16, "dezasseis": 16, "dezessete": 17, "dezoito": 18, "dezenove": 19,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var spokenTens = map[string]int{
	"vinte": 20, "trinta": 30, "quarenta": 40, "cinquenta": 50,
	"sessenta": 60, "setenta": 70, "oitenta": 80, "noventa": 90,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

var spokenThousand = map[string]struct{}{"mil": {}, "thousand": {}}

// Joiners inside one spoken number: "vinte e sete", "two thousand and ten".
var numberJoiners = map[string]struct{}{"e": {}, "and": {}}

var monthNames = map[string]string{
	"janeiro": "01", "fevereiro": "02", "marco": "03", "abril": "04",
	"maio": "05", "junho": "06", "julho": "07", "agosto": "08",
	"setembro": "09", "outubro": "10", "novembro": "11", "dezembro": "12",
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
}

// spokenNumber accumulates one number said as words.
type spokenNumber struct {
	value int
	set   bool
}

// open reports whether a smaller part may still be added: a bare thousand
// ("dois mil") takes tens or units, a bare ten ("vinte") takes a unit.
func (n spokenNumber) open(part int) bool {
	if !n.set {
		return false
	}
	if n.value >= 1000 && n.value%100 == 0 {
		return part < 100
	}
	rem := n.value % 100
	return part < 10 && rem >= 20 && rem%10 == 0
}

// spokenNumbers renders the numbers in raw as decimal text, in order. Digit
// words, teens, tens, thousands, and month names are composed; numerals are
// kept as written. "doze de dois mil e vinte e sete" gives "122027".
func spokenNumbers(raw string) string {
	var b strings.Builder
	var cur spokenNumber
	flush := func() {
		if cur.set {
			b.WriteString(strconv.Itoa(cur.value))
		}
		cur = spokenNumber{}
	}
	add := func(part int) {
		if cur.open(part) {
			cur.value += part
			return
		}
		flush()
		cur = spokenNumber{value: part, set: true}
	}

	for _, token := range transcript.Tokens(raw) {
		if digit, ok := spokenDigits[token]; ok {
			add(int(digit[0] - '0'))
			continue
		}
		if n, ok := spokenTeens[token]; ok {
			add(n)
			continue
		}
		if n, ok := spokenTens[token]; ok {
			add(n)
			continue
		}
		if _, ok := spokenThousand[token]; ok {
			switch {
			case !cur.set:
				cur = spokenNumber{value: 1000, set: true}
			case cur.value < 1000:
				cur.value *= 1000
			default:
				flush()
				cur = spokenNumber{value: 1000, set: true}
			}
			continue
		}
		if _, ok := numberJoiners[token]; ok {
			continue
		}

		flush()
		if month, ok := monthNames[token]; ok {
			b.WriteString(month)
			continue
		}
		for _, r := range token {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
	}
	flush()
	return b.String()
}
