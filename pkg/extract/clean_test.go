package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"John Doe John Doe":         "John Doe",
		"  Ana  Maria  Ana Maria ": "Ana Maria",
		"Mary Mary":                 "Mary Mary",
		"John Doe Jane Doe":         "John Doe Jane Doe",
		"":                          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanName(in), "input %q", in)
	}
}

func TestStripName(t *testing.T) {
	assert.Equal(t, "Staff Engineer", StripName("JANE DOE Staff Engineer", "Jane Doe"))
	assert.Equal(t, "CTO (a.b)", StripName("CTO (a.b)", "a.c"))
	assert.Equal(t, "Founder", StripName("Founder", ""))
	assert.Equal(t, "", StripName("  ", "Jane"))
}

func TestDegree(t *testing.T) {
	assert.Equal(t, "2nd", Degree("· 2nd"))
	assert.Equal(t, "1st", Degree("• 1st degree connection"))
	assert.Equal(t, "3rd+", Degree("3rd+"))
	assert.Equal(t, "Out", Degree("· Out"))

	assert.Equal(t, "2nd", DegreeMarker("Engineer • 2nd"))
	assert.Equal(t, "3rd+", DegreeMarker("Founder · 3rd+ · 1w"))
	assert.Equal(t, "", DegreeMarker("Engineer 2nd floor"))
}
