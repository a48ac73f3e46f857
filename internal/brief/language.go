package brief

import (
	"sync"

	"github.com/pemistahl/lingua-go"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectLanguage classifies the brief context as Spanish or English and
// returns the ISO 639-1 code. The product is Spanish-first, so anything the
// detector cannot classify defaults to "es".
func DetectLanguage(text string) string {
	if text == "" {
		return "es"
	}
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.Spanish, lingua.English).
			Build()
	})

	lang, ok := detector.DetectLanguageOf(text)
	if !ok {
		return "es"
	}
	if lang == lingua.English {
		return "en"
	}
	return "es"
}
