package application

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	for _, s := range []string{"kim@example.com", "a.b+c@sub.domain.io"} {
		require.True(t, validEmail(s), "expected %q to be valid", s)
	}
	for _, s := range []string{"", "plain", "@example.com", "kim@", "Kim Dev <kim@example.com>"} {
		require.False(t, validEmail(s), "expected %q to be invalid", s)
	}
}

func TestValidPassword(t *testing.T) {
	require.False(t, validPassword("1234567"))
	require.True(t, validPassword("12345678"))
	require.True(t, validPassword(strings.Repeat("a", 50)))
	require.False(t, validPassword(strings.Repeat("a", 51)))

	// Limits are counted in runes, not bytes.
	require.True(t, validPassword(strings.Repeat("가", 8)))
}

func TestValidateProfileLimits(t *testing.T) {
	v := validateProfile(ProfileForm{
		Bio:        strings.Repeat("b", 36),
		URL:        strings.Repeat("u", 51),
		Occupation: strings.Repeat("o", 51),
		Location:   strings.Repeat("l", 51),
	})
	require.True(t, v.Has("bio"))
	require.True(t, v.Has("url"))
	require.True(t, v.Has("occupation"))
	require.True(t, v.Has("location"))

	require.Empty(t, validateProfile(ProfileForm{
		Bio:        strings.Repeat("가", 35),
		URL:        "https://kim.dev",
		Occupation: "backend",
		Location:   "Seoul",
	}))
}

func TestViolationsHas(t *testing.T) {
	var v Violations
	require.False(t, v.Has("email"))
	v.add("email", CodeEmailTaken)
	require.True(t, v.Has("email"))
	require.False(t, v.Has("nickname"))
}
