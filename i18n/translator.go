// Package i18n provides the messages produced by the built-in validators in
// package rules.
package i18n

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Message codes used by package rules.
const (
	CodeRequired     = "required"
	CodeTooShort     = "too_short"
	CodeTooLong      = "too_long"
	CodePattern      = "pattern"
	CodeInvalidEmail = "invalid_email"
	CodeInvalidEnum  = "invalid_enum"
	CodeMustAccept   = "must_accept"
)

// Translator retrieves localized messages for message codes. data carries
// named parameters that the message may embed as {name} (for example "label"
// or "min").
type Translator interface {
	Message(code string, data map[string]string) string
}

var _catalog = map[language.Tag]map[string]string{
	language.English: {
		CodeRequired:     "{label} is required",
		CodeTooShort:     "{label} must be at least {min} characters",
		CodeTooLong:      "{label} must be at most {max} characters",
		CodePattern:      "{label} has an invalid format",
		CodeInvalidEmail: "{label} must be a valid email address",
		CodeInvalidEnum:  "{label} must be one of {allowed}",
		CodeMustAccept:   "{label} must be accepted",
	},
	language.Japanese: {
		CodeRequired:     "{label}は必須です",
		CodeTooShort:     "{label}は{min}文字以上で入力してください",
		CodeTooLong:      "{label}は{max}文字以内で入力してください",
		CodePattern:      "{label}の形式が正しくありません",
		CodeInvalidEmail: "{label}には有効なメールアドレスを入力してください",
		CodeInvalidEnum:  "{label}は{allowed}のいずれかを指定してください",
		CodeMustAccept:   "{label}に同意してください",
	},
}

var _matcher = language.NewMatcher([]language.Tag{language.English, language.Japanese})

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang language.Tag }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := _catalog[t.lang][code]
	if !ok {
		msg, ok = _catalog[language.English][code]
	}
	if !ok {
		return code
	}
	return expand(msg, data)
}

// expand replaces {key} placeholders. Keys are applied in sorted order so the
// result does not depend on map iteration.
func expand(msg string, data map[string]string) string {
	if len(data) == 0 {
		return strings.ReplaceAll(msg, "{label} ", "")
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	_mu               sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: language.English}
)

// SetLanguage switches the built-in Translator to the best match for lang
// (a BCP 47 tag or an Accept-Language value). Unsupported languages fall
// back to English.
func SetLanguage(lang string) {
	tr := ForLanguage(lang)
	_mu.Lock()
	currentTranslator = tr
	_mu.Unlock()
}

// ForLanguage returns the built-in Translator for the best match of lang
// without touching the process-wide one.
func ForLanguage(lang string) Translator {
	tag, _ := language.MatchStrings(_matcher, lang)
	base, _ := tag.Base()
	if jb, _ := language.Japanese.Base(); base == jb {
		return dictTranslator{lang: language.Japanese}
	}
	return dictTranslator{lang: language.English}
}

// SetTranslator replaces the Translator implementation; nil restores the
// English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: language.English}
	}
	_mu.Lock()
	currentTranslator = tr
	_mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	_mu.RLock()
	tr := currentTranslator
	_mu.RUnlock()
	return tr.Message(code, data)
}
