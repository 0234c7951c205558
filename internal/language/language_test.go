package language

import "testing"

func TestToISO3(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"en", "eng", true},
		{"EN", "eng", true},
		{"eng", "eng", true},
		{"de", "deu", true},
		{"ger", "deu", true},
		{"fre", "fra", true},
		{"English", "eng", true},
		{" ja ", "jpn", true},
		{"", "und", true},
		{"und", "und", true},
		{"zz-not-a-language", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ToISO3(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("ToISO3(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMustISO3FallsBackToUndetermined(t *testing.T) {
	if got := MustISO3("zz-not-a-language"); got != Undetermined {
		t.Fatalf("expected und, got %q", got)
	}
	if got := MustISO3("es"); got != "spa" {
		t.Fatalf("expected spa, got %q", got)
	}
}

func TestEqual(t *testing.T) {
	if !Equal("en", "English") {
		t.Fatal("expected en and English to match")
	}
	if !Equal("ger", "de") {
		t.Fatal("expected ger and de to match")
	}
	if Equal("en", "fr") {
		t.Fatal("expected en and fr to differ")
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("eng"); got != "English" {
		t.Fatalf("DisplayName(eng) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName(\"\") = %q", got)
	}
}
