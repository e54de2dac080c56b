package application

import (
	"context"
	"net/mail"
	"unicode/utf8"

	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
)

// Profile field limits, in characters.
const (
	maxBioLen        = 35
	maxURLLen        = 50
	maxOccupationLen = 50
	maxLocationLen   = 50

	minPasswordLen = 8
	maxPasswordLen = 50
)

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func validPassword(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= minPasswordLen && n <= maxPasswordLen
}

// validateSignUp checks static field constraints and email/nickname
// uniqueness. Absence in the store is the success case; the unique indexes
// remain the final arbiter under concurrent registration.
func (s *AccountService) validateSignUp(ctx context.Context, f SignUpForm) (Violations, error) {
	var v Violations
	if !validEmail(f.Email) {
		v.add("email", CodeInvalidEmail)
	}
	if !entity.ValidNickname(f.Nickname) {
		v.add("nickname", CodeInvalidNickname)
	}
	if !validPassword(f.Password) {
		v.add("password", CodeInvalidPassword)
	}
	if len(v) > 0 {
		return v, nil
	}

	taken, err := s.Accounts.ExistsByEmail(ctx, f.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		v.add("email", CodeEmailTaken)
	}
	taken, err = s.Accounts.ExistsByNickname(ctx, f.Nickname)
	if err != nil {
		return nil, err
	}
	if taken {
		v.add("nickname", CodeNicknameTaken)
	}
	return v, nil
}

func (s *AccountService) validateNickname(ctx context.Context, nickname string) (Violations, error) {
	var v Violations
	if !entity.ValidNickname(nickname) {
		v.add("nickname", CodeInvalidNickname)
		return v, nil
	}
	taken, err := s.Accounts.ExistsByNickname(ctx, nickname)
	if err != nil {
		return nil, err
	}
	if taken {
		v.add("nickname", CodeNicknameTaken)
	}
	return v, nil
}

func validateProfile(f ProfileForm) Violations {
	var v Violations
	if utf8.RuneCountInString(f.Bio) > maxBioLen {
		v.add("bio", CodeTooLong)
	}
	if utf8.RuneCountInString(f.URL) > maxURLLen {
		v.add("url", CodeTooLong)
	}
	if utf8.RuneCountInString(f.Occupation) > maxOccupationLen {
		v.add("occupation", CodeTooLong)
	}
	if utf8.RuneCountInString(f.Location) > maxLocationLen {
		v.add("location", CodeTooLong)
	}
	return v
}
