package extract

import (
	"reflect"
	"testing"
)

func TestPreflightEmpty(t *testing.T) {
	cases := []struct {
		name string
		pf   Preflight
		want bool
	}{
		{"no text at all", Preflight{TotalPages: 4, SampledChars: 0, Threshold: 300}, true},
		{"short but real document", Preflight{TotalPages: 1, SampledChars: 200, Threshold: 300, HasText: false}, false},
		{"dense document", Preflight{TotalPages: 10, SampledChars: 900, Threshold: 300, HasText: true}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.pf.Empty(); got != c.want {
				t.Errorf("Empty() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestSampleIndices(t *testing.T) {
	cases := []struct {
		total int
		want  []int
	}{
		{1, []int{0}},
		{3, []int{0, 1, 2}},
		{5, []int{0, 1, 2, 3, 4}},
		{8, []int{0, 2, 4, 6, 7}},
		{100, []int{0, 25, 50, 75, 99}},
	}
	for _, c := range cases {
		got := sampleIndices(c.total)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("sampleIndices(%d) = %v, want %v", c.total, got, c.want)
		}
	}

	// Deterministic: repeated calls sample the same pages.
	if !reflect.DeepEqual(sampleIndices(42), sampleIndices(42)) {
		t.Error("sampling must be deterministic")
	}
}
