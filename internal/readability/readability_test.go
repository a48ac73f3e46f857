package readability

import (
	"strings"
	"testing"
)

func TestTransform_EmptyInput(t *testing.T) {
	if got := Transform(""); got != "" {
		t.Errorf("empty input should pass through, got %q", got)
	}
}

func TestTransform_SplitsLongSentence(t *testing.T) {
	words := make([]string, 24)
	for i := range words {
		words[i] = "palabra"
	}
	input := "<p>" + strings.Join(words, " ") + ".</p>"

	got := Transform(input)

	inner := strings.TrimSuffix(strings.TrimPrefix(got, "<p>"), "</p>")
	sentences := strings.Split(inner, ". ")
	if len(sentences) < 2 {
		t.Fatalf("expected the 24-word sentence to be split, got %q", got)
	}
	for _, s := range sentences {
		if n := len(strings.Fields(s)); n > 24 {
			t.Errorf("split sentence longer than original: %d words", n)
		}
	}
}

func TestTransform_SplitsLongParagraph(t *testing.T) {
	input := "<p>Uno dos tres. Cuatro cinco seis. Siete ocho nueve. Diez once doce. Trece catorce quince.</p>"

	got := Transform(input)

	if n := strings.Count(got, "<p>"); n != 2 {
		t.Fatalf("expected 5-sentence paragraph split into 2, got %d paragraphs: %q", n, got)
	}
	if !strings.HasSuffix(got, ".</p>") {
		t.Errorf("tail paragraph should end with a period: %q", got)
	}
}

func TestTransform_KeepsShortParagraph(t *testing.T) {
	input := "<p>Una frase corta. Otra frase corta.</p>"
	if got := Transform(input); got != input {
		t.Errorf("conforming paragraph should be untouched, got %q", got)
	}
}

func TestTransform_SimplifiesConnectors(t *testing.T) {
	input := "<p>El precio bajó, sin embargo, la demanda subió.</p>"

	got := Transform(input)

	if strings.Contains(got, "sin embargo") {
		t.Errorf("connector should be rewritten, got %q", got)
	}
	if !strings.Contains(got, ". Pero la demanda subió") {
		t.Errorf("expected period-separated simpler form, got %q", got)
	}
}

func TestTransform_SimplifiesVocabulary(t *testing.T) {
	got := Transform("<p>Es importante utilizar buenas herramientas.</p>")
	if !strings.Contains(got, "usar buenas herramientas") {
		t.Errorf("vocabulary substitution missing, got %q", got)
	}
	if strings.Contains(got, "utilizar") {
		t.Errorf("original word should be replaced, got %q", got)
	}
}

func TestTransform_WholeWordOnly(t *testing.T) {
	// "utilizarlo" must not match the "utilizar" table entry.
	got := Transform("<p>Puedes utilizarlo sin problema.</p>")
	if !strings.Contains(got, "utilizarlo") {
		t.Errorf("substring match should not fire, got %q", got)
	}
}

func TestTransform_CleansPunctuation(t *testing.T) {
	got := Transform("<p>Primera  frase..  Segunda frase.</p>")
	if strings.Contains(got, "..") {
		t.Errorf("repeated periods should collapse, got %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("repeated whitespace should collapse, got %q", got)
	}
}

func TestTransform_Idempotent(t *testing.T) {
	input := "<p>El precio bajó mucho este año, sin embargo, la demanda de estos productos subió bastante en todos los mercados principales de la región.</p>" +
		"<p>Una frase corta. Otra frase corta.</p>"

	once := Transform(input)
	twice := Transform(once)

	if once != twice {
		t.Errorf("transform is not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}
