package graph

import "testing"

func TestTypeName(t *testing.T) {
	tests := map[string]string{
		"PERSON":      "PERSON",
		"works for":   "WORKS_FOR",
		"WORKS_FOR":   "WORKS_FOR",
		"Lugar-Geo":   "LUGAR_GEO",
		"Año":         "ANO",
		"3rd party":   "T_3RD_PARTY",
		"":            "T_",
		"!!!":         "T_",
		"  org  ":     "ORG",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got := TypeName(in)
			if got != want {
				t.Fatalf("TypeName(%q) = %q, want %q", in, got, want)
			}
			if !labelPattern.MatchString(got) {
				t.Fatalf("TypeName(%q) = %q is not a valid label", in, got)
			}
		})
	}
}
