package identifier

import (
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Heuristically determine the language of a file given its metadata and content
func GetLanguage(filename string, content []byte) Language {
	if strings.HasSuffix(filename, ".c") || strings.HasSuffix(filename, ".h") {
		return LanguageC
	} else if strings.HasSuffix(filename, ".java") {
		return LanguageJava
	}

	candidates := enry.GetLanguages(filename, content)
	for _, candidate := range candidates {
		mapping := languageMapping[candidate]
		if mapping != LanguageInvalid {
			return mapping
		}
	}

	return LanguageInvalid
}

// Matches reports whether the detected language of `content` agrees with the
// declared one. Detection is best effort; an unidentifiable file never counts
// as a mismatch.
func Matches(declared string, filename string, content []byte) bool {
	detected := GetLanguage(filename, content)
	if detected == LanguageInvalid {
		return true
	}

	// C headers pass for C++ and vice versa
	if detected == LanguageC && Language(declared) == LanguageCPP {
		return true
	}

	return detected == Language(declared)
}
