// Package fields defines the ordered checkout field catalog together with the
// per-field normalizers, validators, and spoken phrases.
package fields

import (
	"fmt"
	"time"

	"github.com/rbright/trustpay/internal/transcript"
)

// ID identifies one collectible checkout value.
type ID string

const (
	Name       ID = "name"
	Email      ID = "email"
	CPF        ID = "cpf"
	CardNumber ID = "card_number"
	CardHolder ID = "card_holder"
	Expiry     ID = "expiry"
	CVV        ID = "cvv"
)

const (
	// ReviewStep is the virtual step that reads back every collected value.
	ReviewStep = 3
	// TotalSteps counts the customer, card, and review steps.
	TotalSteps = 3
)

var stepNames = map[int]string{
	1: "Dados do Cliente",
	2: "Dados do Cartão",
	3: "Confirmação",
}

// Spec is the static definition of one field.
type Spec struct {
	ID      ID
	Label   string
	Step    int
	Prompt  string
	Aliases []string

	// Format turns a raw utterance into a best-effort candidate. It never fails.
	Format func(raw string) string
	// Validate accepts a candidate and returns its canonical value, or a
	// *Rejection carrying the spoken reason.
	Validate func(candidate string, now time.Time) (string, error)
	// Confirm renders the yes/no question for a staged value.
	Confirm func(value string) string
	// Summary renders the review line for a committed value.
	Summary func(value string) string
}

// Options toggles optional validation rules.
type Options struct {
	RequireLuhn bool
}

// Catalog is the immutable ordered field sequence.
type Catalog struct {
	specs []Spec
	index map[ID]int
}

// NewCatalog builds the checkout catalog.
func NewCatalog(opts Options) *Catalog {
	specs := []Spec{
		{
			ID:       Name,
			Label:    "Nome completo",
			Step:     1,
			Prompt:   "Diga seu nome completo.",
			Aliases:  []string{"nome", "nome completo", "name", "full name"},
			Format:   NormalizeName,
			Validate: func(c string, _ time.Time) (string, error) { return ValidateName(c) },
			Confirm:  func(v string) string { return fmt.Sprintf("Entendi %s. Está correto?", v) },
			Summary:  func(v string) string { return "Nome: " + v },
		},
		{
			ID:       Email,
			Label:    "E-mail",
			Step:     1,
			Prompt:   "Diga seu e-mail. Por exemplo: joão arroba gmail ponto com.",
			Aliases:  []string{"email", "e-mail", "correio"},
			Format:   NormalizeEmail,
			Validate: func(c string, _ time.Time) (string, error) { return ValidateEmail(c) },
			Confirm:  func(v string) string { return fmt.Sprintf("Seu e-mail é %s. Está correto?", spokenEmail(v)) },
			Summary:  func(v string) string { return "E-mail: " + spokenEmail(v) },
		},
		{
			ID:       CPF,
			Label:    "CPF",
			Step:     1,
			Prompt:   "Diga os onze dígitos do seu CPF.",
			Aliases:  []string{"cpf", "documento", "tax id"},
			Format:   NormalizeCPF,
			Validate: func(c string, _ time.Time) (string, error) { return ValidateCPF(c) },
			Confirm:  func(v string) string { return fmt.Sprintf("CPF %s. Está correto?", spellDigits(v)) },
			Summary:  func(v string) string { return "CPF: " + spellDigits(v) },
		},
		{
			ID:      CardNumber,
			Label:   "Número do cartão",
			Step:    2,
			Prompt:  "Diga o número do cartão.",
			Aliases: []string{"numero do cartao", "cartao", "numero", "card number", "card"},
			Format:  NormalizeCardNumber,
			Validate: func(c string, _ time.Time) (string, error) {
				return ValidateCardNumber(c, opts.RequireLuhn)
			},
			Confirm: func(v string) string { return fmt.Sprintf("Número do cartão %s. Está correto?", spellDigits(v)) },
			Summary: func(v string) string { return "Cartão com final " + spellDigits(lastDigits(v, 4)) },
		},
		{
			ID:       CardHolder,
			Label:    "Nome no cartão",
			Step:     2,
			Prompt:   "Diga o nome impresso no cartão.",
			Aliases:  []string{"nome no cartao", "nome impresso", "titular", "card holder", "holder"},
			Format:   NormalizeHolder,
			Validate: func(c string, _ time.Time) (string, error) { return ValidateHolder(c) },
			Confirm:  func(v string) string { return fmt.Sprintf("Nome no cartão %s. Está correto?", v) },
			Summary:  func(v string) string { return "Titular: " + v },
		},
		{
			ID:       Expiry,
			Label:    "Validade",
			Step:     2,
			Prompt:   "Diga a validade do cartão, mês e ano.",
			Aliases:  []string{"validade", "data de validade", "vencimento", "expiry", "expiration"},
			Format:   NormalizeExpiry,
			Validate: ValidateExpiry,
			Confirm:  func(v string) string { return fmt.Sprintf("Validade %s. Está correto?", spokenExpiry(v)) },
			Summary:  func(v string) string { return "Validade: " + spokenExpiry(v) },
		},
		{
			ID:       CVV,
			Label:    "CVV",
			Step:     2,
			Prompt:   "Diga o código de segurança de três ou quatro dígitos.",
			Aliases:  []string{"cvv", "cvc", "codigo de seguranca", "codigo", "security code"},
			Format:   NormalizeCVV,
			Validate: func(c string, _ time.Time) (string, error) { return ValidateCVV(c) },
			Confirm:  func(v string) string { return fmt.Sprintf("Código de segurança %s. Está correto?", spellDigits(v)) },
			Summary:  func(string) string { return "Código de segurança informado" },
		},
	}

	index := make(map[ID]int, len(specs))
	for i, spec := range specs {
		index[spec.ID] = i
	}
	return &Catalog{specs: specs, index: index}
}

// Len returns the number of collectible fields.
func (c *Catalog) Len() int {
	return len(c.specs)
}

// At returns the spec at position i. It panics when i is out of range.
func (c *Catalog) At(i int) Spec {
	return c.specs[i]
}

// Index returns the position of id, or -1.
func (c *Catalog) Index(id ID) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// Lookup returns the spec for id.
func (c *Catalog) Lookup(id ID) (Spec, bool) {
	i, ok := c.index[id]
	if !ok {
		return Spec{}, false
	}
	return c.specs[i], true
}

// Specs returns a copy of the ordered specs.
func (c *Catalog) Specs() []Spec {
	out := make([]Spec, len(c.specs))
	copy(out, c.specs)
	return out
}

// StepName returns the display name for a form step.
func StepName(step int) string {
	return stepNames[step]
}

// ResolveAlias finds the field whose alias phrase appears in text. The
// longest matching alias wins so "nome no cartão" selects the card holder
// rather than the customer name.
func (c *Catalog) ResolveAlias(text string) (ID, bool) {
	tokens := transcript.Tokens(text)
	if len(tokens) == 0 {
		return "", false
	}

	var (
		best    ID
		bestLen int
	)
	for _, spec := range c.specs {
		for _, alias := range spec.Aliases {
			if transcript.IndexPhrase(tokens, alias) < 0 {
				continue
			}
			if n := len(transcript.Tokens(alias)); n > bestLen {
				best, bestLen = spec.ID, n
			}
		}
	}
	return best, bestLen > 0
}
