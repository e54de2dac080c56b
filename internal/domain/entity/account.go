package entity

import (
	"regexp"
	"time"

	"github.com/studyhub-kr/studyhub-api/pkg/helpers"
)

// NicknameRe is the allowed nickname shape: 3-20 characters of lowercase
// latin letters, Hangul (jamo and syllables), digits, underscore and dash.
var NicknameRe = regexp.MustCompile(`^[ㄱ-ㅎ가-힣a-z0-9_-]{3,20}$`)

// ValidNickname reports whether s is an acceptable nickname.
func ValidNickname(s string) bool {
	return NicknameRe.MatchString(s)
}

// Account is the aggregate root for user identity.
// PasswordHash holds a bcrypt hash; the plaintext never lives on the struct.
// Tag and zone membership is kept in join tables and loaded on demand, so
// accounts carry no object references back to shared entities.
type Account struct {
	ID           string
	Email        string
	Nickname     string
	PasswordHash string

	EmailVerified              bool
	EmailCheckToken            string
	EmailCheckTokenGeneratedAt time.Time
	JoinedAt                   *time.Time // set exactly once, at verification

	// Profile
	Bio          string
	URL          string
	Occupation   string
	Location     string
	ProfileImage string

	// Notification preferences: three event kinds, two channels each.
	// Web defaults on, email defaults off.
	StudyCreatedByWeb       bool
	StudyCreatedByEmail     bool
	StudyUpdatedByWeb       bool
	StudyUpdatedByEmail     bool
	EnrollmentResultByWeb   bool
	EnrollmentResultByEmail bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount builds an unverified account with default notification flags.
func NewAccount(email, nickname, passwordHash string) *Account {
	return &Account{
		Email:                 email,
		Nickname:              nickname,
		PasswordHash:          passwordHash,
		StudyCreatedByWeb:     true,
		StudyUpdatedByWeb:     true,
		EnrollmentResultByWeb: true,
	}
}

// GenerateEmailCheckToken replaces the verification token with a fresh
// opaque value and stamps the generation time. Called before every
// verification or login-link mail.
func (a *Account) GenerateEmailCheckToken(now time.Time) error {
	tok, err := helpers.GenerateToken(32)
	if err != nil {
		return err
	}
	a.EmailCheckToken = tok
	a.EmailCheckTokenGeneratedAt = now
	return nil
}

// IsValidToken reports whether the supplied token matches the stored one.
func (a *Account) IsValidToken(token string) bool {
	return a.EmailCheckToken != "" && a.EmailCheckToken == token
}

// CompleteSignUp flips the account to verified. JoinedAt is written only on
// the first successful verification.
func (a *Account) CompleteSignUp(now time.Time) {
	a.EmailVerified = true
	if a.JoinedAt == nil {
		a.JoinedAt = &now
	}
}

// CanResendVerification reports whether the cooldown window since the last
// token generation has passed. Whether this gate is applied is up to the
// caller; the predicate itself has no side effects.
func (a *Account) CanResendVerification(now time.Time, cooldown time.Duration) bool {
	return a.EmailCheckTokenGeneratedAt.Add(cooldown).Before(now)
}
