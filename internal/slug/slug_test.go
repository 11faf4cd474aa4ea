package slug

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"Jane", "Doe"}, "jane-doe"},
		{[]string{"  Mary Ann ", "Smith-Jones"}, "mary-ann-smith-jones"},
		{[]string{"José", "O'Brien"}, "jose-obrien"},
		{[]string{"Oil & Gas"}, "oil-gas"},
		{[]string{"!!!"}, ""},
		{[]string{"District 9"}, "district-9"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Make(tt.in...), tt.in)
	}
}

func TestWithSuffix(t *testing.T) {
	pattern := regexp.MustCompile(`^jane-doe-[a-z0-9]{6}$`)

	a, err := WithSuffix("jane-doe")
	require.NoError(t, err)
	b, err := WithSuffix("jane-doe")
	require.NoError(t, err)

	assert.Regexp(t, pattern, a)
	assert.Regexp(t, pattern, b)
	assert.NotEqual(t, a, b)
}

func TestResolve(t *testing.T) {
	known := []string{"Oil & Gas", "Health Care", "San Antonio"}

	assert.Equal(t, "Oil & Gas", Resolve("oil-gas", known))
	assert.Equal(t, "San Antonio", Resolve("San-Antonio", known))
	assert.Equal(t, "Corpus Christi", Resolve("corpus-christi", known))
	assert.Equal(t, "", Resolve("  ", known))
}
