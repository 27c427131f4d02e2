package provider

import (
	"strings"
	"testing"
)

func TestInstruction(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		opts   Options
		want   []string
	}{
		{"detect", "", "DE", Options{}, []string{"to German.", "Hallo"}},
		{"with source", "EN", "FR", Options{}, []string{"from English to French."}},
		{"regional", "", "EN-GB", Options{}, []string{"to English (GB)."}},
		{"formal", "", "DE", Options{Formality: "more"}, []string{"formal register"}},
		{"html", "", "DE", Options{TagHandling: "html"}, []string{"HTML; keep all tags"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Instruction("Hallo", tt.source, tt.target, tt.opts)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("Expected instruction to contain %q, got %q", want, got)
				}
			}
		})
	}
}

func TestCommonLanguagesIsCopy(t *testing.T) {
	languages := CommonLanguages()
	languages[0].Name = "changed"
	if CommonLanguages()[0].Name == "changed" {
		t.Error("Expected CommonLanguages to return a copy")
	}
}
