package identifier

import "fmt"

type Language string

const (
	LanguageC      Language = "c"
	LanguageCPP    Language = "cpp"
	LanguageJava   Language = "java"
	LanguagePython Language = "python"
	LanguageGo     Language = "go"
	// Returned when the content does not look like any supported language
	LanguageInvalid Language = ""
)

func (l Language) String() string {
	return string(l)
}

// Declared is true when `lang` names a language submissions may declare.
func Declared(lang string) bool {
	switch Language(lang) {
	case LanguageC, LanguageCPP, LanguageJava, LanguagePython, LanguageGo:
		return true
	default:
		return false
	}
}

// Allow use as a cobra flag

func (l *Language) Set(v string) error {
	vLanguage := Language(v)
	if !Declared(v) {
		return fmt.Errorf("must be one of %q, %q, %q, %q or %q",
			LanguageC, LanguageCPP, LanguageJava, LanguagePython, LanguageGo)
	}

	*l = vLanguage
	return nil
}

func (*Language) Type() string {
	return "Language"
}

// go-enry to useful language mappings
var languageMapping = map[string]Language{
	"C":      LanguageC,
	"C++":    LanguageCPP,
	"Java":   LanguageJava,
	"Python": LanguagePython,
	"Go":     LanguageGo,
}
