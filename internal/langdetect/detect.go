// Package langdetect guesses the language of a text locally. Providers
// without their own source detection use it to report the detected
// source language.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

const (
	// minLetters is the shortest sample worth detecting
	minLetters = 6
	// maxRunes bounds the sample taken from long selections
	maxRunes = 2000
)

// sourceLanguages are the DeepL source languages lingua can tell apart
var sourceLanguages = []lingua.Language{
	lingua.Arabic, lingua.Bokmal, lingua.Bulgarian, lingua.Chinese,
	lingua.Czech, lingua.Danish, lingua.Dutch, lingua.English,
	lingua.Estonian, lingua.Finnish, lingua.French, lingua.German,
	lingua.Greek, lingua.Hungarian, lingua.Indonesian, lingua.Italian,
	lingua.Japanese, lingua.Korean, lingua.Latvian, lingua.Lithuanian,
	lingua.Polish, lingua.Portuguese, lingua.Romanian, lingua.Russian,
	lingua.Slovak, lingua.Slovene, lingua.Spanish, lingua.Swedish,
	lingua.Turkish, lingua.Ukrainian,
}

var (
	once     sync.Once
	detector lingua.LanguageDetector
)

// Detect returns the DeepL source code (upper-case ISO 639-1) of the
// language of text, or "" when it cannot be determined.
func Detect(text string) string {
	sample, ok := sampleOf(text)
	if !ok {
		return ""
	}

	once.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(sourceLanguages...).
			WithLowAccuracyMode().
			Build()
	})
	detected, ok := detector.DetectLanguageOf(sample)
	if !ok {
		return ""
	}
	return strings.ToUpper(detected.IsoCode639_1().String())
}

// sampleOf trims text to at most maxRunes runes and reports whether it
// holds enough letters to detect
func sampleOf(text string) (string, bool) {
	text = strings.TrimSpace(text)
	letters, n := 0, 0
	for i, r := range text {
		if n == maxRunes {
			text = text[:i]
			break
		}
		n++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return text, letters >= minLetters
}
