package schema

import "testing"

func TestResolve(t *testing.T) {
	record := map[string]string{
		" Zone ":             "NORTH",
		"Vehicle Number\r":   "MH12AB1234",
		"stoppage location":  "Depot",
		"Stoppage location":  "Main Depot",
		"Route Deviation Km": "2.5",
	}

	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"padded key", []string{"Zone"}, "NORTH"},
		{"carriage return on key", []string{"Vehicle Number"}, "MH12AB1234"},
		{"carriage return on candidate", []string{"Zone\r"}, "NORTH"},
		{"first candidate wins", []string{"Missing", "Zone", "Vehicle Number"}, "NORTH"},
		{"exact beats case-folded", []string{"Stoppage location"}, "Main Depot"},
		{"case-folded fallback", []string{"ROUTE DEVIATION KM"}, "2.5"},
		{"exact on later candidate beats folded on earlier", []string{"ZONE NAME", "stoppage location"}, "Depot"},
		{"none match", []string{"Trip Name"}, ""},
		{"no candidates", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(record, tt.candidates...); got != tt.want {
				t.Errorf("Resolve(%v) = %q, want %q", tt.candidates, got, tt.want)
			}
		})
	}
}

func TestResolvePresentButEmpty(t *testing.T) {
	record := map[string]string{"Route No": "", "Trip Name": "T-9"}
	if got := Resolve(record, "Route No", "Trip Name"); got != "" {
		t.Errorf("first present candidate should win even when empty, got %q", got)
	}
}

func TestCatalogueWith(t *testing.T) {
	cat, err := DefaultCatalogue().With(map[string][]string{
		"zone": {"Region ", "Zone"},
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	got := cat.Candidates(FieldZone)
	want := []string{"Region", "Zone", "Zone Name"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidates[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Original is untouched
	if DefaultCatalogue().Candidates(FieldZone)[0] != "Zone" {
		t.Error("DefaultCatalogue should not be mutated by With")
	}

	if got := cat.Resolve(map[string]string{"Region": "WEST"}, FieldZone); got != "WEST" {
		t.Errorf("Resolve via override = %q, want WEST", got)
	}
}

func TestCatalogueWithUnknownField(t *testing.T) {
	if _, err := DefaultCatalogue().With(map[string][]string{"colour": {"Colour"}}); err == nil {
		t.Error("expected error for unknown field")
	}
}
