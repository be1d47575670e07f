package sources

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var namer = display.English.Tags()

// LanguageName returns the English display name for a caption code,
// or the code itself when it is not a recognisable BCP 47 tag.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := namer.Name(tag); name != "" {
		return name
	}
	return code
}

// MergeLanguages drops duplicate codes, keeping first-seen order. A manual
// track wins over an auto one for the same code. Missing names are filled in.
func MergeLanguages(langs []Language) []Language {
	index := make(map[string]int, len(langs))
	out := make([]Language, 0, len(langs))

	for _, l := range langs {
		l.Code = strings.TrimSpace(l.Code)
		if l.Code == "" {
			continue
		}
		if l.Kind == "" {
			l.Kind = KindManual
		}
		if l.Name == "" {
			l.Name = LanguageName(l.Code)
		}

		if i, ok := index[l.Code]; ok {
			if out[i].Kind == KindAuto && l.Kind == KindManual {
				out[i].Kind = KindManual
			}
			continue
		}
		index[l.Code] = len(out)
		out = append(out, l)
	}

	return out
}

// baseLanguage strips a region or variant suffix: en-US -> en.
func baseLanguage(code string) string {
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return code[:i]
	}
	return code
}
