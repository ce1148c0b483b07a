package relevance

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Venta de Tractores", "venta de tractores"},
		{"maquinaria agrícola", "maquinaria agricola"},
		{"  COSECHADORA  ", "cosechadora"},
		{"Pulverización Autopropulsada", "pulverizacion autopropulsada"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFilterMatchesAccentAndCaseInsensitive(t *testing.T) {
	f := NewFilter([]string{"venta de tractores", "maquinaria agrícola"})

	if !f.Matches("Venta de Tractores crece 20%", "") {
		t.Error("expected title with case differences to match")
	}
	if !f.Matches("Nueva maquinaria agricola presentada", "") {
		t.Error("expected accent-stripped title to match accented keyword")
	}
	if !f.Matches("Resumen semanal", "el mercado de venta de tractores se recupera") {
		t.Error("expected teaser-only match")
	}
	if f.Matches("Resultados de la bolsa", "acciones tecnológicas en alza") {
		t.Error("expected unrelated item to be rejected")
	}
}

func TestFilterEmptyKeywordsRejectsAll(t *testing.T) {
	f := NewFilter(nil)
	if f.Matches("venta de tractores", "cualquier cosa") {
		t.Error("filter without keywords must reject every item")
	}
}

func TestNewFilterDropsEmptyKeywords(t *testing.T) {
	f := NewFilter([]string{"", "  ", "tractor"})
	if got := len(f.Keywords()); got != 1 {
		t.Fatalf("expected 1 keyword, got %d", got)
	}
	if f.Keywords()[0] != "tractor" {
		t.Errorf("unexpected keyword %q", f.Keywords()[0])
	}
}
