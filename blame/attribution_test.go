package blame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rec(line int, name, email string) Record {
	return Record{CommitHash: hashA, AuthorName: name, AuthorEmail: email, Line: line}
}

func lineSet(lines ...int) ChangedLines {
	s := make(ChangedLines)
	for _, l := range lines {
		s[l] = struct{}{}
	}
	return s
}

func TestAttribute(t *testing.T) {
	records := []Record{
		rec(1, "Bob", "b@x.com"),
		rec(2, "Alice", "a@x.com"),
		rec(3, "Alice", "a@x.com"),
		rec(4, "Bob", "b@x.com"),
		rec(5, "Carol", "c@x.com"),
	}

	got := Attribute(records, lineSet(2, 3, 4, 99))
	assert.Equal(t, []AuthorAttribution{
		{Author: "Bob <b@x.com>", Count: 1, Lines: []int{4}},
		{Author: "Alice <a@x.com>", Count: 2, Lines: []int{2, 3}},
	}, got)

	assert.Empty(t, Attribute(records, lineSet()))
}

func TestAttribute_CountMatchesChangedPositions(t *testing.T) {
	records := make([]Record, 0, 30)
	for i := 1; i <= 30; i++ {
		name := "Alice"
		if i%3 == 0 {
			name = "Bob"
		}
		records = append(records, rec(i, name, name+"@x.com"))
	}
	changed := lineSet(1, 3, 6, 7, 9, 12, 28, 31)

	var total int
	for _, a := range Attribute(records, changed) {
		total += a.Count
		for _, l := range a.Lines {
			assert.True(t, changed.Contains(l))
		}
	}
	assert.Equal(t, 7, total)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    []AuthorAttribution
		expected string
	}{
		{
			name:     "empty",
			input:    nil,
			expected: "No changes detected.",
		},
		{
			name:     "singular",
			input:    []AuthorAttribution{{Author: "Bob <b@x.com>", Count: 1, Lines: []int{7}}},
			expected: "Bob <b@x.com> modified 1 line (7)",
		},
		{
			name: "sorted by count, ties keep order",
			input: []AuthorAttribution{
				{Author: "Bob <b@x.com>", Count: 1, Lines: []int{4}},
				{Author: "Alice <a@x.com>", Count: 2, Lines: []int{10, 11}},
				{Author: "Carol <c@x.com>", Count: 1, Lines: []int{20}},
			},
			expected: "Alice <a@x.com> modified 2 lines (10, 11)\n" +
				"Bob <b@x.com> modified 1 line (4)\n" +
				"Carol <c@x.com> modified 1 line (20)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.input))
		})
	}
}
