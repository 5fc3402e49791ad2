// Package i18n loads per-language UI strings and applies them to rendered
// HTML.
//
// A translation map is a flat key → display string mapping for one language.
// Selecting a language replaces the current map wholesale; keys missing from
// the new map leave the affected elements showing whatever the template
// rendered.
package i18n

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage is used when nothing has been persisted yet.
const DefaultLanguage = "en"

var (
	ErrInvalidLanguage     = errors.New("invalid language code")
	ErrLanguageUnavailable = errors.New("language unavailable")
	ErrSuperseded          = errors.New("language selection superseded")
)

// Translations maps UI keys to display strings.
type Translations map[string]string

// Lookup returns the value for key when it is present and non-empty.
func (t Translations) Lookup(key string) (string, bool) {
	v, ok := t[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (t Translations) clone() Translations {
	out := make(Translations, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// NormalizeCode validates a language code and returns its canonical BCP 47
// form, which is also the locale file name.
func NormalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrInvalidLanguage
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidLanguage, code, err)
	}
	return tag.String(), nil
}

// Label returns the language's name in that language, e.g. "Deutsch".
func Label(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}

// decode reads a JSON object of string values.
func decode(r io.Reader) (Translations, error) {
	var tr Translations
	if err := json.NewDecoder(r).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode translations: %w", err)
	}
	if tr == nil {
		return nil, errors.New("decode translations: null document")
	}
	return tr, nil
}
