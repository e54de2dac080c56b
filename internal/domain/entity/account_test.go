package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidNickname(t *testing.T) {
	valid := []string{"abc", "study_user", "dev-kim", "홍길동", "ㄱㄴㄷ", "user123", "aaaaaaaaaaaaaaaaaaaa"}
	for _, s := range valid {
		require.True(t, ValidNickname(s), "expected %q to be valid", s)
	}

	invalid := []string{"", "ab", "UpperCase", "has space", "email@host", "aaaaaaaaaaaaaaaaaaaaa", "emoji🙂"}
	for _, s := range invalid {
		require.False(t, ValidNickname(s), "expected %q to be invalid", s)
	}
}

func TestNewAccountDefaults(t *testing.T) {
	a := NewAccount("kim@example.com", "kimdev", "hash")

	require.False(t, a.EmailVerified)
	require.Nil(t, a.JoinedAt)
	require.Empty(t, a.EmailCheckToken)

	require.True(t, a.StudyCreatedByWeb)
	require.True(t, a.StudyUpdatedByWeb)
	require.True(t, a.EnrollmentResultByWeb)
	require.False(t, a.StudyCreatedByEmail)
	require.False(t, a.StudyUpdatedByEmail)
	require.False(t, a.EnrollmentResultByEmail)
}

func TestGenerateEmailCheckTokenReplacesPrevious(t *testing.T) {
	a := NewAccount("kim@example.com", "kimdev", "hash")

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, a.GenerateEmailCheckToken(t1))
	first := a.EmailCheckToken
	require.NotEmpty(t, first)
	require.Equal(t, t1, a.EmailCheckTokenGeneratedAt)

	t2 := t1.Add(2 * time.Hour)
	require.NoError(t, a.GenerateEmailCheckToken(t2))
	require.NotEmpty(t, a.EmailCheckToken)
	require.NotEqual(t, first, a.EmailCheckToken)
	require.Equal(t, t2, a.EmailCheckTokenGeneratedAt)

	// Only the latest token verifies.
	require.False(t, a.IsValidToken(first))
	require.True(t, a.IsValidToken(a.EmailCheckToken))
}

func TestIsValidTokenEmpty(t *testing.T) {
	a := NewAccount("kim@example.com", "kimdev", "hash")
	require.False(t, a.IsValidToken(""))
	require.False(t, a.IsValidToken("anything"))
}

func TestCompleteSignUpStampsJoinedAtOnce(t *testing.T) {
	a := NewAccount("kim@example.com", "kimdev", "hash")

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a.CompleteSignUp(t1)
	require.True(t, a.EmailVerified)
	require.NotNil(t, a.JoinedAt)
	require.Equal(t, t1, *a.JoinedAt)

	// A second verification never moves the join date.
	a.CompleteSignUp(t1.Add(48 * time.Hour))
	require.Equal(t, t1, *a.JoinedAt)
}

func TestCanResendVerification(t *testing.T) {
	a := NewAccount("kim@example.com", "kimdev", "hash")
	sent := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, a.GenerateEmailCheckToken(sent))

	cooldown := time.Hour
	require.False(t, a.CanResendVerification(sent.Add(30*time.Minute), cooldown))
	require.False(t, a.CanResendVerification(sent.Add(time.Hour), cooldown))
	require.True(t, a.CanResendVerification(sent.Add(time.Hour+time.Second), cooldown))
}

func TestZoneString(t *testing.T) {
	z := Zone{City: "Seoul", LocalName: "서울특별시", Province: "none"}
	require.Equal(t, "Seoul(서울특별시)/none", z.String())
}
