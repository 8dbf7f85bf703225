package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldStripsDiacriticsAndPunctuation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "Cartão de Crédito", want: "cartao de credito"},
		{in: "  Ajuda!  ", want: "ajuda"},
		{in: "joao@gmail.com", want: "joao@gmail.com"},
		{in: "É joao.back@gmail.com.", want: "e joao.back@gmail.com"},
		{in: "(ana.help@uol.com.br)", want: "ana.help@uol.com.br"},
		{in: "joao @ gmail", want: "joao @ gmail"},
		{in: "Corrigir, e-mail", want: "corrigir e mail"},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, Fold(tc.in))
		})
	}
}

func TestStripDiacriticsKeepsBaseLetters(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Joao Conceicao", StripDiacritics("João Conceição"))
}

func TestIndexPhrase(t *testing.T) {
	t.Parallel()

	tokens := Tokens("quero uma nova compra agora")
	require.Equal(t, 2, IndexPhrase(tokens, "Nova Compra"))
	require.Equal(t, -1, IndexPhrase(tokens, "compra nova"))
	require.Equal(t, -1, IndexPhrase(tokens, ""))
	require.Equal(t, -1, IndexPhrase(Tokens("nova"), "nova compra"))
}

func TestHasPrefixPhrase(t *testing.T) {
	t.Parallel()

	tokens := Tokens("Correct e-mail please")
	require.True(t, HasPrefixPhrase(tokens, "correct"))
	require.False(t, HasPrefixPhrase(tokens, "mail"))
}
