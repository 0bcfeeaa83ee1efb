// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n provides the UI translations (English and Turkish).
//
// Each locale is a flat JSON object mapping message keys to text, embedded
// from locales/<lang>.json. Text may carry fmt verbs filled by T.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localesFS embed.FS

// DefaultLanguage is used when nothing better matches. Its locale must hold every key.
const DefaultLanguage = "en"

// SupportedLanguages lists the UI languages, default first.
var SupportedLanguages = []string{DefaultLanguage, "tr"}

// catalog is immutable once built.
type catalog struct {
	messages map[string]map[string]string // lang -> key -> text
	tags     []language.Tag
	matcher  language.Matcher
}

var current atomic.Pointer[catalog]

// Init loads the embedded locales. Until it succeeds T returns keys unchanged.
func Init(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	c := &catalog{messages: make(map[string]map[string]string, len(SupportedLanguages))}
	for _, lang := range SupportedLanguages {
		msgs, err := readLocale(lang)
		if err != nil {
			return err
		}
		c.messages[lang] = msgs
		c.tags = append(c.tags, language.Make(lang))
		logger.Debug("loaded translations", "language", lang, "count", len(msgs))
	}
	c.matcher = language.NewMatcher(c.tags)

	current.Store(c)
	return nil
}

func readLocale(lang string) (map[string]string, error) {
	name := "locales/" + lang + ".json"
	data, err := localesFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	var msgs map[string]string
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return msgs, nil
}

// T returns the text for key in lang, falling back to DefaultLanguage and
// then to key itself. With args the text is used as a fmt format.
func T(lang, key string, args ...any) string {
	c := current.Load()
	if c == nil {
		return key
	}

	text, ok := c.messages[lang][key]
	if !ok {
		if text, ok = c.messages[DefaultLanguage][key]; !ok {
			return key
		}
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

// MatchLanguage picks the supported language closest to an Accept-Language
// header or a bare language code.
func MatchLanguage(accept string) string {
	c := current.Load()
	if c == nil || accept == "" {
		return DefaultLanguage
	}

	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	return SupportedLanguages[idx]
}

// TranslationCount returns the number of messages loaded for lang.
func TranslationCount(lang string) int {
	if c := current.Load(); c != nil {
		return len(c.messages[lang])
	}
	return 0
}
