package command

import (
	"strings"

	"github.com/rbright/trustpay/internal/fields"
	"github.com/rbright/trustpay/internal/transcript"
)

// Scope says where in the utterance a rule's phrases must appear.
type Scope int

const (
	// Anywhere matches a whole-word phrase at any position.
	Anywhere Scope = iota
	// Leading matches only when the utterance starts with the phrase.
	Leading
)

// Rule is one row of the precedence table.
type Rule struct {
	Kind    Kind
	Scope   Scope
	Phrases []string
}

// precedence is evaluated top to bottom and the first matching rule wins.
// Global commands come first, then the leading review commands. Yes/no words
// are resolved after the table, and anything left is field content.
var precedence = []Rule{
	{Kind: KindHelp, Scope: Anywhere, Phrases: []string{"help", "ajuda", "socorro"}},
	{Kind: KindBack, Scope: Anywhere, Phrases: []string{"go back", "back", "voltar", "volta"}},
	{Kind: KindRestart, Scope: Anywhere, Phrases: []string{"new purchase", "nova compra", "restart", "recomecar", "reiniciar", "cancel", "cancelar"}},
	{Kind: KindFinish, Scope: Anywhere, Phrases: []string{"finish", "exit", "quit", "sair", "encerrar"}},
	{Kind: KindConfirm, Scope: Leading, Phrases: []string{"confirm", "confirmar", "confirmo", "finalizar"}},
	{Kind: KindCorrect, Scope: Leading, Phrases: []string{"correct", "corrigir", "corrige", "change", "alterar", "mudar"}},
	{Kind: KindRepeat, Scope: Leading, Phrases: []string{"repeat", "repetir", "repete", "de novo"}},
}

var (
	yesWords = map[string]struct{}{
		"yes": {}, "yeah": {}, "yep": {}, "sure": {}, "right": {}, "ok": {}, "okay": {},
		"sim": {}, "isso": {}, "certo": {}, "correto": {}, "exato": {}, "exatamente": {}, "claro": {}, "pode": {},
	}
	noWords = map[string]struct{}{
		"no": {}, "nope": {}, "not": {}, "wrong": {},
		"nao": {}, "errado": {}, "incorreto": {}, "negativo": {},
	}
)

// Precedence returns a copy of the classification table in evaluation order.
func Precedence() []Rule {
	out := make([]Rule, len(precedence))
	copy(out, precedence)
	return out
}

// Classifier turns utterances into commands using the precedence table and
// the field catalog for correction targets.
type Classifier struct {
	catalog *fields.Catalog
	aliases *AliasMatcher
}

// NewClassifier builds a classifier over catalog.
func NewClassifier(catalog *fields.Catalog, opts ...AliasOption) *Classifier {
	return &Classifier{
		catalog: catalog,
		aliases: NewAliasMatcher(catalog, opts...),
	}
}

// Classify returns the highest-precedence command found in text.
func (c *Classifier) Classify(text string) Command {
	cleaned := transcript.Clean(text)
	tokens := transcript.Tokens(cleaned)

	for _, rule := range precedence {
		phrase, ok := rule.match(tokens)
		if !ok {
			continue
		}
		cmd := Of(rule.Kind, cleaned)
		if rule.Kind == KindCorrect {
			rest := strings.Join(tokens[len(transcript.Tokens(phrase)):], " ")
			cmd.TargetText = rest
			if id, ok := c.ResolveTarget(rest); ok {
				cmd.Target = id
			}
		}
		return cmd
	}

	if kind, ok := yesNo(tokens); ok {
		return Of(kind, cleaned)
	}

	cmd := Content(cleaned)
	if id, ok := c.ResolveTarget(cleaned); ok {
		cmd.Target = id
	}
	return cmd
}

// ResolveTarget maps a spoken field name to a field, trying exact aliases
// before phonetic matching.
func (c *Classifier) ResolveTarget(text string) (fields.ID, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if id, ok := c.catalog.ResolveAlias(text); ok {
		return id, true
	}
	return c.aliases.Match(text)
}

func (r Rule) match(tokens []string) (string, bool) {
	for _, phrase := range r.Phrases {
		switch r.Scope {
		case Leading:
			if transcript.HasPrefixPhrase(tokens, phrase) {
				return phrase, true
			}
		default:
			if transcript.IndexPhrase(tokens, phrase) >= 0 {
				return phrase, true
			}
		}
	}
	return "", false
}

// yesNo resolves confirmation words across the whole utterance. A negation
// anywhere wins, so "sim, quer dizer, não" is a refusal.
func yesNo(tokens []string) (Kind, bool) {
	affirmed := false
	for _, token := range tokens {
		if _, ok := noWords[token]; ok {
			return KindNo, true
		}
		if _, ok := yesWords[token]; ok {
			affirmed = true
		}
	}
	if affirmed {
		return KindYes, true
	}
	return KindContent, false
}
