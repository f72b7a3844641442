package core

import (
	"strings"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/pt_BR"
)

// NewLocale returns the locale named name (pt_BR by default), used to format report labels.
func NewLocale(name string) locales.Translator {
	switch strings.ToLower(strings.ReplaceAll(CleanString(name), "-", "_")) {
	case "en", "en_us":
		return en.New()
	default:
		return pt_BR.New()
	}
}
