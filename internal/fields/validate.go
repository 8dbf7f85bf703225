package fields

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	maxNameLength   = 100
	maxHolderLength = 50
	minHolderLength = 3
	minCardDigits   = 12
	maxCardDigits   = 19
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Rejection is a validation failure with a reason meant to be spoken.
type Rejection struct {
	Field  ID
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s rejected: %s", r.Field, r.Reason)
}

func reject(field ID, reason string) error {
	return &Rejection{Field: field, Reason: reason}
}

// ValidateName requires at least two words and no digits.
func ValidateName(candidate string) (string, error) {
	value := strings.TrimSpace(candidate)
	switch {
	case value == "":
		return "", reject(Name, "Não consegui entender o nome.")
	case hasDigit(value):
		return "", reject(Name, "O nome não pode conter números.")
	case len(strings.Fields(value)) < 2:
		return "", reject(Name, "Preciso do nome e do sobrenome.")
	case utf8.RuneCountInString(value) > maxNameLength:
		return "", reject(Name, "O nome é longo demais.")
	}
	return value, nil
}

// ValidateHolder requires at least three characters and no digits.
func ValidateHolder(candidate string) (string, error) {
	value := strings.TrimSpace(candidate)
	switch {
	case hasDigit(value):
		return "", reject(CardHolder, "O nome no cartão não pode conter números.")
	case utf8.RuneCountInString(value) < minHolderLength:
		return "", reject(CardHolder, "O nome no cartão precisa ter pelo menos três letras.")
	case utf8.RuneCountInString(value) > maxHolderLength:
		return "", reject(CardHolder, "O nome no cartão é longo demais.")
	}
	return value, nil
}

// ValidateEmail accepts a local@domain.tld shape.
func ValidateEmail(candidate string) (string, error) {
	if !emailPattern.MatchString(candidate) {
		return "", reject(Email, "Esse e-mail não parece válido. Diga, por exemplo, joão arroba gmail ponto com.")
	}
	return candidate, nil
}

// ValidateCPF checks both CPF verification digits and returns the value
// formatted as XXX.XXX.XXX-XX.
func ValidateCPF(candidate string) (string, error) {
	digits := onlyDigits(candidate)
	if len(digits) != 11 || strings.ContainsFunc(candidate, notCPFRune) {
		return "", reject(CPF, "O CPF precisa ter onze dígitos.")
	}
	if strings.Count(digits, digits[:1]) == len(digits) {
		return "", reject(CPF, "Esse CPF não é válido.")
	}
	if cpfCheckDigit(digits[:9], 10) != digits[9] || cpfCheckDigit(digits[:10], 11) != digits[10] {
		return "", reject(CPF, "Esse CPF não é válido. Confira os dígitos.")
	}
	return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:], nil
}

// cpfCheckDigit computes one verification digit over prefix with weights
// starting at firstWeight and descending to 2.
func cpfCheckDigit(prefix string, firstWeight int) byte {
	sum := 0
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * (firstWeight - i)
	}
	check := 11 - sum%11
	if check >= 10 {
		check = 0
	}
	return byte('0' + check)
}

// ValidateCardNumber accepts 12 to 19 digits, optionally requiring a valid
// Luhn checksum, and returns the digits grouped in runs of four.
func ValidateCardNumber(candidate string, requireLuhn bool) (string, error) {
	digits := onlyDigits(candidate)
	if len(digits) < minCardDigits || len(digits) > maxCardDigits {
		return "", reject(CardNumber, "O número do cartão precisa ter entre doze e dezenove dígitos.")
	}
	if requireLuhn && !Luhn(digits) {
		return "", reject(CardNumber, "Esse número de cartão não é válido. Confira os dígitos.")
	}
	return groupDigits(digits, 4), nil
}

// Luhn reports whether digits pass the mod-10 card checksum.
func Luhn(digits string) bool {
	if digits == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidateExpiry accepts MM/YY that is not earlier than the month of now.
func ValidateExpiry(candidate string, now time.Time) (string, error) {
	monthText, yearText, ok := strings.Cut(candidate, "/")
	if !ok || len(monthText) != 2 || len(yearText) != 2 {
		return "", reject(Expiry, "Diga a validade como mês e ano, por exemplo doze vinte e sete.")
	}
	month, err := strconv.Atoi(monthText)
	if err != nil || month < 1 || month > 12 {
		return "", reject(Expiry, "O mês da validade precisa estar entre um e doze.")
	}
	yy, err := strconv.Atoi(yearText)
	if err != nil {
		return "", reject(Expiry, "Não entendi o ano da validade.")
	}

	// Two-digit years fall in a window from fifty years back to forty-nine
	// ahead, so late in a century "00" means the next one.
	year := now.Year() - now.Year()%100 + yy
	if year < now.Year()-50 {
		year += 100
	}
	if year < now.Year() || (year == now.Year() && time.Month(month) < now.Month()) {
		return "", reject(Expiry, "Esse cartão está vencido.")
	}
	return candidate, nil
}

// ValidateCVV accepts three or four digits.
func ValidateCVV(candidate string) (string, error) {
	digits := onlyDigits(candidate)
	if digits != candidate || len(digits) < 3 || len(digits) > 4 {
		return "", reject(CVV, "O código de segurança tem três ou quatro dígitos.")
	}
	return digits, nil
}

func notCPFRune(r rune) bool {
	return (r < '0' || r > '9') && r != '.' && r != '-'
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
