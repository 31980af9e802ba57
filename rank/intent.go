// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rank

import (
	"regexp"
	"strings"

	"github.com/poiesic/retrievit/core"
)

// intentRule pairs a compiled pattern with the intent it signals.
// Rules are evaluated in slice order; the first match wins.
type intentRule struct {
	pattern *regexp.Regexp
	intent  core.QueryIntent
}

// wordPattern builds a pattern matching any of the words as whole tokens.
// Boundaries are expressed with \p{L} so they hold for Cyrillic as well as
// ASCII, which Go's \b does not.
func wordPattern(words ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}])(?:` + strings.Join(words, "|") + `)(?:$|[^\p{L}])`)
}

// stemPattern builds a pattern matching any of the stems at a token start,
// allowing suffixes ("технолог" matches "технологический").
func stemPattern(stems ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}])(?:` + strings.Join(stems, "|") + `)`)
}

// The rule cascade mirrors the observed production query mix: specific
// page lookups first, then instructions, then fact lookups (any of three
// independent cue groups), then explicit exploratory phrasing. Order is
// load-bearing: "где найти инструкцию" is navigational, not howto.
var intentRules = []intentRule{
	{
		pattern: wordPattern(
			"где", "найди", "покажи", "страница", "документ", "url", "ссылка",
			"where", "find", "show", "page", "document", "link",
		),
		intent: core.IntentNavigational,
	},
	{
		pattern: wordPattern(
			"как", "инструкция", "настроить", "установить", "запустить", "сделать",
			"how", "instruction", "configure", "install", "run", "setup",
		),
		intent: core.IntentHowTo,
	},
	// Factual interrogatives
	{
		pattern: wordPattern(
			"какой", "какая", "какие", "что", "когда", "кто", "сколько",
			"what", "which", "who", "when",
		),
		intent: core.IntentFactual,
	},
	// Factual technical nouns (stems, suffixes allowed)
	{
		pattern: stemPattern(
			"стек", "технолог", "архитектур", "компонент", "верси", "конфигурац", "структур",
			"stack", "technolog", "architectur", "component", "version", "config", "structur",
		),
		intent: core.IntentFactual,
	},
	// Factual system nouns
	{
		pattern: stemPattern(
			"api", "сервис", "модул", "база данн", "бд", "интеграц",
			"service", "module", "database", "integration",
		),
		intent: core.IntentFactual,
	},
	{
		pattern: stemPattern(
			"перечень", "перечисли", "подготовь", "составь", "список", "сравни",
			"все", "уточняющ", "вопрос",
			"list", "prepare", "compile", "enumerate", "all", "compare", "overview",
		),
		intent: core.IntentExploratory,
	},
}

// ClassifyIntent labels a query with the coarse category that drives
// downstream threshold and weight selection. Pure function of the
// lower-cased query text; unmatched input is exploratory.
func ClassifyIntent(query string) core.QueryIntent {
	lower := strings.ToLower(query)
	for _, rule := range intentRules {
		if rule.pattern.MatchString(lower) {
			return rule.intent
		}
	}
	return core.IntentExploratory
}
