package application

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sirupsen/logrus"

	"github.com/studyhub-kr/studyhub-api/config"
	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
	"github.com/studyhub-kr/studyhub-api/internal/domain/repository"
	"github.com/studyhub-kr/studyhub-api/pkg/helpers"
	"github.com/studyhub-kr/studyhub-api/pkg/mailer"
	"github.com/studyhub-kr/studyhub-api/pkg/mailer/templates"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
)

// Publisher enqueues a JSON payload for the mail worker.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// AccountService orchestrates the account lifecycle: registration, email
// verification, session establishment and settings mutation.
type AccountService struct {
	Accounts  repository.AccountRepository
	Tags      repository.TagRepository
	Zones     repository.ZoneRepository
	Sessions  *SessionManager
	Pub       Publisher
	Logger    *logrus.Logger
	Cfg       *config.Config
	ES        *elasticsearch.Client
	ESIndex   string
	GCS       *storage.Client
	GCSBucket string
}

func NewAccountService(
	accounts repository.AccountRepository,
	tags repository.TagRepository,
	zones repository.ZoneRepository,
	sessions *SessionManager,
	pub Publisher,
	logger *logrus.Logger,
	cfg *config.Config,
	es *elasticsearch.Client,
	esIndex string,
	gcs *storage.Client,
	gcsBucket string,
) *AccountService {
	return &AccountService{
		Accounts:  accounts,
		Tags:      tags,
		Zones:     zones,
		Sessions:  sessions,
		Pub:       pub,
		Logger:    logger,
		Cfg:       cfg,
		ES:        es,
		ESIndex:   esIndex,
		GCS:       gcs,
		GCSBucket: gcsBucket,
	}
}

// RegisterResult is the outcome of a successful registration.
type RegisterResult struct {
	Account  *entity.Account
	Identity Identity
	Tokens   TokenPair
}

// Register validates the candidate, persists a new unverified account,
// enqueues the verification mail after the write has committed, and
// establishes a session. Login before verification is deliberate: "has an
// account" and "is email-verified" are separate states, and callers that
// need the latter check EmailVerified themselves.
func (s *AccountService) Register(ctx context.Context, form SignUpForm) (*RegisterResult, Violations, error) {
	v, err := s.validateSignUp(ctx, form)
	if err != nil {
		return nil, nil, err
	}
	if len(v) > 0 {
		return nil, v, nil
	}

	hash, err := helpers.HashPassword(form.Password)
	if err != nil {
		return nil, nil, err
	}
	a := entity.NewAccount(form.Email, form.Nickname, hash)

	if err := s.Accounts.Save(ctx, a); err != nil {
		// The pre-check can lose a race; the unique index is authoritative.
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			return nil, Violations{{Field: conflict.Field, Code: conflict.Field + "-taken"}}, nil
		}
		return nil, nil, err
	}

	if err := s.SendVerificationMail(ctx, a); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("account_id", a.ID).Warn("verification mail failed after sign-up")
	}

	ident, pair, err := s.Sessions.Establish(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	s.indexAccount(ctx, a)

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"account_id": a.ID, "nickname": a.Nickname}).Info("account registered")
	}
	return &RegisterResult{Account: a, Identity: ident, Tokens: pair}, nil, nil
}

// SendVerificationMail replaces the verification token, persists the account
// and enqueues the confirmation link. Used at registration and on resend; a
// dispatch failure never undoes the token write, since the mail can always
// be resent.
func (s *AccountService) SendVerificationMail(ctx context.Context, a *entity.Account) error {
	if err := a.GenerateEmailCheckToken(time.Now()); err != nil {
		return err
	}
	if err := s.Accounts.Update(ctx, a); err != nil {
		return err
	}
	s.enqueueLinkMail(ctx, a, templates.ConfirmSignup, templates.LinkMailData{
		Nickname: a.Nickname,
		Link:     s.Cfg.CheckEmailURL(a.EmailCheckToken, a.Email),
		LinkName: "Verify your email",
		Message:  "Click the link to finish signing up for StudyHub.",
		Host:     s.Cfg.Host,
	})
	return nil
}

// SendLoginLink issues a fresh token and enqueues a passwordless login link.
func (s *AccountService) SendLoginLink(ctx context.Context, a *entity.Account) error {
	if err := a.GenerateEmailCheckToken(time.Now()); err != nil {
		return err
	}
	if err := s.Accounts.Update(ctx, a); err != nil {
		return err
	}
	s.enqueueLinkMail(ctx, a, templates.LoginLink, templates.LinkMailData{
		Nickname: a.Nickname,
		Link:     s.Cfg.LoginLinkURL(a.EmailCheckToken, a.Email),
		LinkName: "Sign in to StudyHub",
		Message:  "Click the link to sign in.",
		Host:     s.Cfg.Host,
	})
	return nil
}

// enqueueLinkMail publishes the mail job. Publishing happens strictly after
// the account write committed, so a queued message always refers to a
// persisted token.
func (s *AccountService) enqueueLinkMail(ctx context.Context, a *entity.Account, template string, data templates.LinkMailData) {
	if s.Pub == nil || (s.Cfg != nil && !s.Cfg.MailSendEnabled) {
		return
	}
	job := mailer.EmailJob{To: a.Email, Template: template, Data: templates.ToMap(data)}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"account_id": a.ID,
			"template":   template,
		}).Warn("mail dispatch failed")
	}
}

// VerificationStatus is the outcome kind of a token check. Failures are
// informational, not errors.
type VerificationStatus string

const (
	StatusVerified   VerificationStatus = "verified"
	StatusWrongEmail VerificationStatus = "wrong-email"
	StatusWrongToken VerificationStatus = "wrong-token"
)

// VerificationResult carries the outcome of VerifyEmail. Nickname and
// TotalUsers are display payload for the success case.
type VerificationResult struct {
	Status     VerificationStatus
	Nickname   string
	TotalUsers int64
	Identity   Identity
	Tokens     TokenPair
}

// VerifyEmail checks the supplied token against the stored one. On the
// first success it flips EmailVerified, stamps JoinedAt and establishes a
// session; failures leave the account untouched.
func (s *AccountService) VerifyEmail(ctx context.Context, email, token string) (VerificationResult, error) {
	a, err := s.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return VerificationResult{Status: StatusWrongEmail}, nil
		}
		return VerificationResult{}, err
	}
	if !a.IsValidToken(token) {
		return VerificationResult{Status: StatusWrongToken}, nil
	}

	a.CompleteSignUp(time.Now())
	if err := s.Accounts.Update(ctx, a); err != nil {
		return VerificationResult{}, err
	}

	total, err := s.Accounts.Count(ctx)
	if err != nil {
		return VerificationResult{}, err
	}
	ident, pair, err := s.Sessions.Establish(ctx, a)
	if err != nil {
		return VerificationResult{}, err
	}
	s.indexAccount(ctx, a)

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"account_id": a.ID, "total_users": total}).Info("email verified")
	}
	return VerificationResult{
		Status:     StatusVerified,
		Nickname:   a.Nickname,
		TotalUsers: total,
		Identity:   ident,
		Tokens:     pair,
	}, nil
}

// ErrInvalidLoginLink reports a login link whose email or token did not
// match a live account/token pair.
var ErrInvalidLoginLink = errors.New("invalid login link")

// LoginByLink signs the account in via an emailed one-time link. It does
// not flip the verification state; only VerifyEmail does that.
func (s *AccountService) LoginByLink(ctx context.Context, email, token string) (*entity.Account, Identity, TokenPair, error) {
	a, err := s.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Identity{}, TokenPair{}, ErrInvalidLoginLink
		}
		return nil, Identity{}, TokenPair{}, err
	}
	if !a.IsValidToken(token) {
		return nil, Identity{}, TokenPair{}, ErrInvalidLoginLink
	}
	ident, pair, err := s.Sessions.Establish(ctx, a)
	if err != nil {
		return nil, Identity{}, TokenPair{}, err
	}
	return a, ident, pair, nil
}

// GetAccount loads an account by id.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*entity.Account, error) {
	a, err := s.Accounts.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return a, err
}

// Resolve returns the account matching an email or nickname identifier.
func (s *AccountService) Resolve(ctx context.Context, emailOrNickname string) (*entity.Account, error) {
	a, err := s.Accounts.FindByEmail(ctx, emailOrNickname)
	if errors.Is(err, repository.ErrNotFound) {
		a, err = s.Accounts.FindByNickname(ctx, emailOrNickname)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

// Authenticate validates credentials without establishing a session.
func (s *AccountService) Authenticate(ctx context.Context, emailOrNickname, password string) (*entity.Account, error) {
	a, err := s.Resolve(ctx, emailOrNickname)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// Login authenticates and establishes a session.
func (s *AccountService) Login(ctx context.Context, emailOrNickname, password string) (*entity.Account, Identity, TokenPair, error) {
	a, err := s.Authenticate(ctx, emailOrNickname, password)
	if err != nil {
		return nil, Identity{}, TokenPair{}, err
	}
	ident, pair, err := s.Sessions.Establish(ctx, a)
	if err != nil {
		return nil, Identity{}, TokenPair{}, err
	}
	return a, ident, pair, nil
}

// Refresh rotates the token pair when the refresh token matches the live
// session.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (Identity, TokenPair, error) {
	claims, err := s.Sessions.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return Identity{}, TokenPair{}, ErrInvalidCredentials
	}
	a, err := s.Accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		return Identity{}, TokenPair{}, ErrInvalidCredentials
	}
	if sid := s.Sessions.SessionID(ctx, a.ID); sid != "" && sid != claims.SessionID {
		return Identity{}, TokenPair{}, ErrInvalidCredentials
	}
	return s.Sessions.Establish(ctx, a)
}

// UpdateProfile overwrites the profile attributes after length validation.
func (s *AccountService) UpdateProfile(ctx context.Context, a *entity.Account, f ProfileForm) (Violations, error) {
	if v := validateProfile(f); len(v) > 0 {
		return v, nil
	}
	a.Bio = f.Bio
	a.URL = f.URL
	a.Occupation = f.Occupation
	a.Location = f.Location
	a.ProfileImage = f.ProfileImage
	if err := s.Accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	s.indexAccount(ctx, a)
	return nil, nil
}

// UpdatePassword hashes and overwrites the password. Confirm-password
// matching is the caller's responsibility.
func (s *AccountService) UpdatePassword(ctx context.Context, a *entity.Account, newPlaintext string) (Violations, error) {
	if !validPassword(newPlaintext) {
		return Violations{{Field: "password", Code: CodeInvalidPassword}}, nil
	}
	hash, err := helpers.HashPassword(newPlaintext)
	if err != nil {
		return nil, err
	}
	a.PasswordHash = hash
	if err := s.Accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return nil, nil
}

// UpdateNotifications overwrites all six notification flags.
func (s *AccountService) UpdateNotifications(ctx context.Context, a *entity.Account, f NotificationsForm) error {
	a.StudyCreatedByWeb = f.StudyCreatedByWeb
	a.StudyCreatedByEmail = f.StudyCreatedByEmail
	a.StudyUpdatedByWeb = f.StudyUpdatedByWeb
	a.StudyUpdatedByEmail = f.StudyUpdatedByEmail
	a.EnrollmentResultByWeb = f.EnrollmentResultByWeb
	a.EnrollmentResultByEmail = f.EnrollmentResultByEmail
	return s.Accounts.Update(ctx, a)
}

// UpdateNickname validates and overwrites the nickname, then re-establishes
// the session: the identity carries the display name, so the active
// identity must be rebuilt from the updated record.
func (s *AccountService) UpdateNickname(ctx context.Context, a *entity.Account, nickname string) (Identity, TokenPair, Violations, error) {
	v, err := s.validateNickname(ctx, nickname)
	if err != nil {
		return Identity{}, TokenPair{}, nil, err
	}
	if len(v) > 0 {
		return Identity{}, TokenPair{}, v, nil
	}

	a.Nickname = nickname
	if err := s.Accounts.Update(ctx, a); err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			return Identity{}, TokenPair{}, Violations{{Field: "nickname", Code: CodeNicknameTaken}}, nil
		}
		return Identity{}, TokenPair{}, nil, err
	}

	ident, pair, err := s.Sessions.Establish(ctx, a)
	if err != nil {
		return Identity{}, TokenPair{}, nil, err
	}
	s.indexAccount(ctx, a)
	return ident, pair, nil, nil
}

// refetch loads the current row for the account id so set mutations target
// an attached, up-to-date record.
func (s *AccountService) refetch(ctx context.Context, a *entity.Account) (*entity.Account, error) {
	cur, err := s.Accounts.FindByID(ctx, a.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return cur, err
}

// AddTag associates the tag with the account. Adding a present tag is a
// no-op.
func (s *AccountService) AddTag(ctx context.Context, a *entity.Account, tag *entity.Tag) error {
	cur, err := s.refetch(ctx, a)
	if err != nil {
		return err
	}
	return s.Accounts.AddTag(ctx, cur.ID, tag.ID)
}

// RemoveTag drops the association; removing an absent tag is a no-op and
// never deletes the tag itself.
func (s *AccountService) RemoveTag(ctx context.Context, a *entity.Account, tag *entity.Tag) error {
	cur, err := s.refetch(ctx, a)
	if err != nil {
		return err
	}
	return s.Accounts.RemoveTag(ctx, cur.ID, tag.ID)
}

// GetTags returns the current tag snapshot for the account.
func (s *AccountService) GetTags(ctx context.Context, a *entity.Account) ([]entity.Tag, error) {
	cur, err := s.refetch(ctx, a)
	if err != nil {
		return nil, err
	}
	return s.Accounts.ListTags(ctx, cur.ID)
}

func (s *AccountService) AddZone(ctx context.Context, a *entity.Account, zone *entity.Zone) error {
	cur, err := s.refetch(ctx, a)
	if err != nil {
		return err
	}
	return s.Accounts.AddZone(ctx, cur.ID, zone.ID)
}

func (s *AccountService) RemoveZone(ctx context.Context, a *entity.Account, zone *entity.Zone) error {
	cur, err := s.refetch(ctx, a)
	if err != nil {
		return err
	}
	return s.Accounts.RemoveZone(ctx, cur.ID, zone.ID)
}

func (s *AccountService) GetZones(ctx context.Context, a *entity.Account) ([]entity.Zone, error) {
	cur, err := s.refetch(ctx, a)
	if err != nil {
		return nil, err
	}
	return s.Accounts.ListZones(ctx, cur.ID)
}
