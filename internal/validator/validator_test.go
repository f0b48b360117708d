package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckKeepsFirstError(t *testing.T) {
	v := New()
	assert.True(t, v.Valid())

	v.Check(false, "name", "must be provided")
	v.Check(false, "name", "must be shorter")
	v.Check(true, "email", "never recorded")

	assert.False(t, v.Valid())
	assert.Equal(t, map[string]string{"name": "must be provided"}, v.Errors)
}

func TestHelpers(t *testing.T) {
	assert.True(t, In("graduate", "primary", "graduate"))
	assert.False(t, In("kindergarten", "primary", "graduate"))

	assert.True(t, Matches("reader@example.com", EmailRX))
	assert.False(t, Matches("not-an-email", EmailRX))

	assert.True(t, Between(1, 1, 10))
	assert.True(t, Between(10, 1, 10))
	assert.False(t, Between(11, 1, 10))

	assert.True(t, Unique([]string{"a", "b"}))
	assert.False(t, Unique([]string{"a", "a"}))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"calendar date", "2024-01-15", true},
		{"rfc3339", "2024-01-15T10:00:00Z", true},
		{"slashes", "2024/01/15", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.ok, IsDate(tt.input))
		})
	}
}
