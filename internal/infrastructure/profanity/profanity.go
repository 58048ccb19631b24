package profanity

import (
	"embed"
	"encoding/json"
	"log"
	"regexp"
	"strings"
	"sync"
)

var (
	// Global instance for reuse (thread-safe)
	defaultFilter *Filter
	once          sync.Once
)

//go:embed words.json
var jsonData embed.FS

func loadBannedWords() []string {
	data, err := jsonData.ReadFile("words.json")
	if err != nil {
		log.Fatalf("Failed to read embedded file: %s", err)
	}

	var bannedWords []string
	if err := json.Unmarshal(data, &bannedWords); err != nil {
		log.Fatalf("Failed to unmarshal JSON: %s", err)
	}
	return bannedWords
}

type Filter struct {
	regex *regexp.Regexp
}

func NewFilter() *Filter {
	once.Do(func() {
		defaultFilter = &Filter{
			regex: buildMasterRegex(),
		}
	})

	return defaultFilter
}

func (f *Filter) IsClean(text string) bool {
	return !f.ContainsProfanity(text)
}

func (f *Filter) ContainsProfanity(text string) bool {
	if text == "" {
		return false
	}
	return f.regex.MatchString(normalizeText(text))
}

func buildMasterRegex() *regexp.Regexp {
	words := loadBannedWords()

	escaped := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		escaped = append(escaped, regexp.QuoteMeta(strings.ToLower(w)))
	}

	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

func normalizeText(text string) string {
	// Common replacements to defeat obfuscation
	s := strings.ToLower(text)
	s = strings.Map(func(r rune) rune {
		switch r {
		case 'á', 'à', 'â', 'ä', 'ã', 'å':
			return 'a'
		case 'é', 'è', 'ê', 'ë':
			return 'e'
		case 'í', 'ì', 'î', 'ï':
			return 'i'
		case 'ó', 'ò', 'ô', 'ö', 'õ':
			return 'o'
		case 'ú', 'ù', 'û', 'ü':
			return 'u'
		case 'ñ':
			return 'n'
		case 'ç':
			return 'c'
		default:
			return r
		}
	}, s)

	replacer := strings.NewReplacer(
		"0", "o",
		"1", "i",
		"3", "e",
		"4", "a",
		"5", "s",
		"7", "t",
		"@", "a",
		"$", "s",
		"!", "i",
	)
	return replacer.Replace(s)
}
