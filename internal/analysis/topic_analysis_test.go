package analysis

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse_Variants(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantType  string
		wantNames []string
	}{
		{
			name:      "legacy array",
			raw:       `[{"topic":"Cells","description":"d","difficulty":"EASY"},{"topic":"Mitosis","description":"d","difficulty":"HARD"}]`,
			wantType:  "legacy",
			wantNames: []string{"Cells", "Mitosis"},
		},
		{
			name:      "wrapped with graph",
			raw:       `  {"topics":[{"topic":"B","description":"","difficulty":"MEDIUM"},{"topic":"A","description":"","difficulty":"EASY"}],"conceptGraph":{"edges":[{"from":"A","to":"B","relation":"prerequisite"}]}}`,
			wantType:  "wrapped",
			wantNames: []string{"B", "A"},
		},
		{
			name:      "wrapped without graph",
			raw:       `{"topics":[{"topic":"Only","description":"","difficulty":"EASY"}]}`,
			wantType:  "wrapped",
			wantNames: []string{"Only"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Parse([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			switch a.(type) {
			case Legacy:
				if tt.wantType != "legacy" {
					t.Fatalf("got Legacy, want %s", tt.wantType)
				}
			case Wrapped:
				if tt.wantType != "wrapped" {
					t.Fatalf("got Wrapped, want %s", tt.wantType)
				}
			}
			if got := TopicNames(a); !reflect.DeepEqual(got, tt.wantNames) {
				t.Fatalf("TopicNames = %v, want %v", got, tt.wantNames)
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, raw := range []string{"", "   ", `"text"`, `42`} {
		if _, err := Parse([]byte(raw)); !errors.Is(err, ErrUnknownShape) {
			t.Errorf("Parse(%q) error = %v, want ErrUnknownShape", raw, err)
		}
	}
	if _, err := Parse([]byte(`[{"topic":`)); err == nil {
		t.Error("expected error for truncated array")
	}
}

func TestRoundTrip_PreservesOrderAndShape(t *testing.T) {
	inputs := []TopicAnalysis{
		Legacy{Items: []Topic{{Topic: "z"}, {Topic: "a"}, {Topic: "m"}}},
		Wrapped{
			Items:        []Topic{{Topic: "z"}, {Topic: "a"}, {Topic: "m"}},
			ConceptGraph: []byte(`{"edges":[{"from":"a","to":"z","relation":"related"}]}`),
		},
	}
	for _, in := range inputs {
		raw, err := Marshal(in)
		if err != nil {
			t.Fatalf("Marshal(%T): %v", in, err)
		}
		out, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%s): %v", raw, err)
		}
		if reflect.TypeOf(out) != reflect.TypeOf(in) {
			t.Fatalf("variant changed: %T -> %T", in, out)
		}
		if got := TopicNames(out); !reflect.DeepEqual(got, []string{"z", "a", "m"}) {
			t.Fatalf("order lost: %v", got)
		}
		again, err := Marshal(out)
		if err != nil {
			t.Fatalf("re-marshal: %v", err)
		}
		if string(again) != string(raw) {
			t.Fatalf("second encoding differs:\n%s\n%s", raw, again)
		}
	}
}

func TestMarshal_EmptyTopicsEncodeAsArray(t *testing.T) {
	raw, err := Marshal(Legacy{})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "[]" {
		t.Fatalf("Marshal(Legacy{}) = %s", raw)
	}
	raw, err = Marshal(Wrapped{})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"topics":[]}` {
		t.Fatalf("Marshal(Wrapped{}) = %s", raw)
	}
}

func TestNamesFrom(t *testing.T) {
	if got := NamesFrom([]byte(`[{"topic":"a"},{"topic":"b"}]`)); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("legacy: %v", got)
	}
	if got := NamesFrom([]byte(`{"topics":[{"topic":"c"}]}`)); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("wrapped: %v", got)
	}
	if got := NamesFrom(nil); got != nil {
		t.Errorf("empty: %v", got)
	}
}
