package output

import (
	"testing"
	"time"
)

func TestDeterministicEncode(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		wantJSON string
	}{
		{
			name: "struct fields sorted",
			input: struct {
				Path  string `json:"path"`
				Depth int    `json:"depth"`
				Via   string `json:"via,omitempty"`
			}{Path: "src/A.java", Depth: 0},
			wantJSON: `{"depth":0,"path":"src/A.java"}`,
		},
		{
			name: "floats rounded",
			input: struct {
				Ratio float64 `json:"ratio"`
			}{Ratio: 0.123456789},
			wantJSON: `{"ratio":0.123457}`,
		},
		{
			name:     "map keys sorted",
			input:    map[string]int{"zebra": 3, "alpha": 1, "beta": 2},
			wantJSON: `{"alpha":1,"beta":2,"zebra":3}`,
		},
		{
			name: "nil pointer omitted",
			input: struct {
				Name  string `json:"name"`
				Inner *struct {
					X int `json:"x"`
				} `json:"inner"`
			}{Name: "n"},
			wantJSON: `{"name":"n"}`,
		},
		{
			name: "empty slice kept unless omitempty",
			input: struct {
				Edges   []string `json:"edges"`
				Skipped []string `json:"skipped,omitempty"`
			}{Edges: []string{}, Skipped: []string{}},
			wantJSON: `{"edges":[]}`,
		},
		{
			name:     "html not escaped",
			input:    []string{"<a>&"},
			wantJSON: `["<a>&"]`,
		},
		{
			name: "time uses its own marshaler",
			input: struct {
				At time.Time `json:"at"`
			}{At: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
			wantJSON: `{"at":"2026-01-02T03:04:05Z"}`,
		},
		{
			name:     "nil",
			input:    nil,
			wantJSON: `null`,
		},
		{
			name: "json dash skipped",
			input: struct {
				Keep   int `json:"keep"`
				Hidden int `json:"-"`
			}{Keep: 1, Hidden: 2},
			wantJSON: `{"keep":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeterministicEncode(tt.input)
			if err != nil {
				t.Fatalf("DeterministicEncode() error = %v", err)
			}
			if string(got) != tt.wantJSON {
				t.Errorf("DeterministicEncode() = %s, want %s", got, tt.wantJSON)
			}
		})
	}
}

func TestDeterministicEncode_Stable(t *testing.T) {
	input := map[string]any{"b": []int{1, 2}, "a": map[string]string{"y": "1", "x": "2"}, "c": 1.5}
	first, err := DeterministicEncode(input)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := DeterministicEncode(input)
		if err != nil {
			t.Fatal(err)
		}
		if string(again) != string(first) {
			t.Fatalf("encoding changed: %s vs %s", again, first)
		}
	}
}

func TestDeterministicEncodeIndented(t *testing.T) {
	got, err := DeterministicEncodeIndented(map[string]int{"b": 2, "a": 1}, "  ")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"a\": 1,\n  \"b\": 2\n}\n"
	if string(got) != want {
		t.Errorf("DeterministicEncodeIndented() = %q, want %q", got, want)
	}
}

func TestRoundFloat(t *testing.T) {
	tests := map[float64]float64{
		1.0:         1.0,
		0.1234564:   0.123456,
		-2.00000049: -2.0,
	}
	for in, want := range tests {
		if got := RoundFloat(in); got != want {
			t.Errorf("RoundFloat(%v) = %v, want %v", in, got, want)
		}
	}
}
