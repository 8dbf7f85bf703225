package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localePortuguese locale = "pt"
	localeEnglish    locale = "en"
)

type messages struct {
	status    string
	announce  string
	filled    string
	cleared   string
	errorText string
}

// resolveLocale maps a dialogue locale tag to a message table, falling back
// to LANG and then Portuguese.
func resolveLocale(tag string) locale {
	raw := strings.ToLower(strings.TrimSpace(tag))
	if raw == "" {
		raw = strings.ToLower(strings.TrimSpace(os.Getenv("LANG")))
	}
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localePortuguese
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		return messages{
			status:    "Status",
			announce:  "Notice",
			filled:    "filled",
			cleared:   "cleared",
			errorText: "Voice checkout error",
		}
	default:
		return messages{
			status:    "Estado",
			announce:  "Aviso",
			filled:    "preenchido",
			cleared:   "limpo",
			errorText: "Erro no checkout por voz",
		}
	}
}
