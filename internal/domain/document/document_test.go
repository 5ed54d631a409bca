package document

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	eff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	doc, err := New(Params{
		ID:            "chicago_permits_1",
		Title:         "  Building Permit - RENOVATION ",
		Content:       "Work Description: kitchen",
		DocumentType:  "permit",
		Category:      "Construction",
		Authority:     "Chicago Department of Buildings",
		EffectiveDate: &eff,
		Metadata:      Metadata{"zip_code": StringValue("60614")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "chicago_permits_1" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.Title() != "Building Permit - RENOVATION" {
		t.Errorf("Title() = %q", doc.Title())
	}
	if doc.Category() != Construction {
		t.Errorf("Category() = %q", doc.Category())
	}
	got, ok := doc.EffectiveDate()
	if !ok || !got.Equal(eff) {
		t.Errorf("EffectiveDate() = %v, %v", got, ok)
	}
	if s, _ := doc.Metadata().String("zip_code"); s != "60614" {
		t.Errorf("Metadata zip_code = %q", s)
	}
}

func TestNew_EmptyID(t *testing.T) {
	if _, err := New(Params{ID: "   "}); err == nil {
		t.Fatal("expected error for empty ID")
	}
}

func TestNew_IDTooLong(t *testing.T) {
	_, err := New(Params{ID: strings.Repeat("a", MaxIDLength+1)})
	if err == nil {
		t.Fatal("expected error for ID too long")
	}
	if !strings.Contains(err.Error(), "too long") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_UnknownCategoryFallsBackToGeneral(t *testing.T) {
	for _, c := range []string{"", "zoning", "PARKING"} {
		doc := MustNew(Params{ID: "x", Category: c})
		if doc.Category() != General {
			t.Errorf("category %q -> %q, want general", c, doc.Category())
		}
	}
}

func TestNew_MissingEffectiveDate(t *testing.T) {
	doc := MustNew(Params{ID: "x"})
	if _, ok := doc.EffectiveDate(); ok {
		t.Error("expected unknown effective date")
	}

	zero := time.Time{}
	doc = MustNew(Params{ID: "y", EffectiveDate: &zero})
	if _, ok := doc.EffectiveDate(); ok {
		t.Error("zero time should be treated as unknown")
	}
}

func TestNew_EmptyContentStaysEmpty(t *testing.T) {
	doc := MustNew(Params{ID: "x"})
	if doc.Content() != "" {
		t.Errorf("Content() = %q, want empty", doc.Content())
	}
}

func TestNew_ClonesInputs(t *testing.T) {
	eff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	meta := Metadata{"status": StringValue("Passed")}

	doc := MustNew(Params{ID: "x", EffectiveDate: &eff, Metadata: meta})

	eff = eff.AddDate(1, 0, 0)
	meta["status"] = StringValue("Failed")

	if got, _ := doc.EffectiveDate(); got.Year() != 2024 {
		t.Error("EffectiveDate mutation leaked into document")
	}
	if s, _ := doc.Metadata().String("status"); s != "Passed" {
		t.Error("Metadata mutation leaked into document")
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"construction", Construction, true},
		{" Business ", Business, true},
		{"PUBLIC_SAFETY", PublicSafety, true},
		{"zoning", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseCategory(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseCategory(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMetadata_TypedAccessors(t *testing.T) {
	ts := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	m := Metadata{
		"sponsor": StringValue("Ald. Smith"),
		"fees":    NumberValue(125.5),
		"filed":   TimeValue(ts),
	}

	if s, ok := m.String("sponsor"); !ok || s != "Ald. Smith" {
		t.Errorf("String(sponsor) = %q, %v", s, ok)
	}
	if _, ok := m.Number("sponsor"); ok {
		t.Error("Number(sponsor) should fail on a string value")
	}
	if n, ok := m.Number("fees"); !ok || n != 125.5 {
		t.Errorf("Number(fees) = %v, %v", n, ok)
	}
	if got, ok := m.Time("filed"); !ok || !got.Equal(ts) {
		t.Errorf("Time(filed) = %v, %v", got, ok)
	}
	if m.Text("fees", "N/A") != "125.5" {
		t.Errorf("Text(fees) = %q", m.Text("fees", "N/A"))
	}
	if m.Text("missing", "N/A") != "N/A" {
		t.Errorf("Text(missing) = %q", m.Text("missing", "N/A"))
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	ts := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	m := Metadata{
		"s": StringValue("a"),
		"n": NumberValue(2),
		"t": TimeValue(ts),
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"n":2,"s":"a","t":"2023-06-01T12:00:00Z"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
