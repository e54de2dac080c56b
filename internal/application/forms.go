package application

// Violation is a field-scoped validation failure returned to the caller for
// re-display. It is data, not an error: the request itself succeeded.
type Violation struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

type Violations []Violation

func (v *Violations) add(field, code string) {
	*v = append(*v, Violation{Field: field, Code: code})
}

// Has reports whether any violation targets the given field.
func (v Violations) Has(field string) bool {
	for _, viol := range v {
		if viol.Field == field {
			return true
		}
	}
	return false
}

// Violation codes
const (
	CodeEmailTaken      = "email-taken"
	CodeNicknameTaken   = "nickname-taken"
	CodeInvalidEmail    = "invalid-email"
	CodeInvalidNickname = "invalid-nickname"
	CodeInvalidPassword = "invalid-password"
	CodeTooLong         = "too-long"
)

// SignUpForm is the registration candidate.
type SignUpForm struct {
	Nickname string
	Email    string
	Password string
}

// ProfileForm overwrites the account's profile attributes.
type ProfileForm struct {
	Bio          string
	URL          string
	Occupation   string
	Location     string
	ProfileImage string
}

// NotificationsForm overwrites all six notification flags at once.
type NotificationsForm struct {
	StudyCreatedByWeb       bool
	StudyCreatedByEmail     bool
	StudyUpdatedByWeb       bool
	StudyUpdatedByEmail     bool
	EnrollmentResultByWeb   bool
	EnrollmentResultByEmail bool
}
