package fields

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{name: "name title case", fn: NormalizeName, in: "joão da silva", want: "João Da Silva"},
		{name: "name strips digits", fn: NormalizeName, in: "maria 2 souza.", want: "Maria Souza"},
		{name: "holder uppercase", fn: NormalizeHolder, in: "joão da silva", want: "JOÃO DA SILVA"},
		{name: "email spoken symbols", fn: NormalizeEmail, in: "joao at gmail dot com", want: "joao@gmail.com"},
		{name: "email portuguese symbols", fn: NormalizeEmail, in: "Maria ponto Souza arroba Hotmail ponto com ponto br", want: "maria.souza@hotmail.com.br"},
		{name: "email literal", fn: NormalizeEmail, in: "joao@gmail.com", want: "joao@gmail.com"},
		{name: "email without at", fn: NormalizeEmail, in: "joao silva gmail com", want: "joaosilva@gmail.com"},
		{name: "email without at drops dots", fn: NormalizeEmail, in: "joao gmail dot com", want: "joao@gmail.com"},
		{name: "email folds accents", fn: NormalizeEmail, in: "joão arroba uol ponto com", want: "joao@uol.com"},
		{name: "email underscore", fn: NormalizeEmail, in: "ana underline b at x dot io", want: "ana_b@x.io"},
		{name: "cpf separators", fn: NormalizeCPF, in: "111 ponto 444 ponto 777 traço 35", want: "11144477735"},
		{name: "cpf digit words", fn: NormalizeCPF, in: "um um um quatro quatro quatro sete sete sete três cinco", want: "11144477735"},
		{name: "card groups", fn: NormalizeCardNumber, in: "4111111111111111", want: "4111 1111 1111 1111"},
		{name: "card spoken groups", fn: NormalizeCardNumber, in: "4111 1111 1111 1111", want: "4111 1111 1111 1111"},
		{name: "card not truncated", fn: NormalizeCardNumber, in: "41111111111111111111", want: "4111 1111 1111 1111 1111"},
		{name: "expiry four digits", fn: NormalizeExpiry, in: "1227", want: "12/27"},
		{name: "expiry slash", fn: NormalizeExpiry, in: "12/27", want: "12/27"},
		{name: "expiry four digit year", fn: NormalizeExpiry, in: "12 2027", want: "12/27"},
		{name: "expiry short month", fn: NormalizeExpiry, in: "3/27", want: "03/27"},
		{name: "expiry short month long year", fn: NormalizeExpiry, in: "3 de 2027", want: "03/27"},
		{name: "expiry unresolved", fn: NormalizeExpiry, in: "12", want: "12"},
		{name: "expiry spoken teen and tens", fn: NormalizeExpiry, in: "doze vinte e sete", want: "12/27"},
		{name: "expiry spoken long year", fn: NormalizeExpiry, in: "doze de dois mil e vinte e sete", want: "12/27"},
		{name: "expiry spoken english", fn: NormalizeExpiry, in: "twelve twenty seven", want: "12/27"},
		{name: "expiry spoken english long year", fn: NormalizeExpiry, in: "march two thousand and thirty", want: "03/30"},
		{name: "expiry spoken single digit month", fn: NormalizeExpiry, in: "sete de vinte e oito", want: "07/28"},
		{name: "expiry spoken zero month", fn: NormalizeExpiry, in: "zero três vinte e nove", want: "03/29"},
		{name: "expiry digit by digit", fn: NormalizeExpiry, in: "um dois dois sete", want: "12/27"},
		{name: "expiry month name", fn: NormalizeExpiry, in: "dezembro de dois mil e trinta", want: "12/30"},
		{name: "expiry thirty one", fn: NormalizeExpiry, in: "onze trinta e um", want: "11/31"},
		{name: "expiry thousand and unit", fn: NormalizeExpiry, in: "maio de dois mil e sete", want: "05/07"},
		{name: "cvv", fn: NormalizeCVV, in: "um dois 3", want: "123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.fn(tc.in))
		})
	}
}

func TestNormalizersNeverPanicOnEmptyInput(t *testing.T) {
	t.Parallel()

	for _, spec := range NewCatalog(Options{}).Specs() {
		require.NotPanics(t, func() { _ = spec.Format("") }, spec.ID)
		require.NotPanics(t, func() { _ = spec.Format("   ...  ") }, spec.ID)
	}
}

func TestSpellDigits(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1 1 1, 4 4 4, 7 7 7, 3 5", spellDigits("111.444.777-35"))
	require.Equal(t, "4 1 1 1, 1 1 1 1", spellDigits("4111 1111"))
	require.Equal(t, "1 2 3", spellDigits("123"))
	require.Empty(t, spellDigits(""))
}

func TestSpokenEmail(t *testing.T) {
	t.Parallel()

	require.Equal(t, "joao ponto silva arroba gmail ponto com", spokenEmail("joao.silva@gmail.com"))
}
