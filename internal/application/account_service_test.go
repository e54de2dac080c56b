package application

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/studyhub-kr/studyhub-api/config"
	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
	"github.com/studyhub-kr/studyhub-api/internal/domain/repository"
	"github.com/studyhub-kr/studyhub-api/pkg/helpers"
	"github.com/studyhub-kr/studyhub-api/pkg/mailer"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:               "https://studyhub.example",
		CheckEmailPath:     "/check-email-token",
		LoginLinkPath:      "/login-by-email",
		MailSendEnabled:    true,
		MailResendCooldown: time.Hour,
	}
}

func newTestService(t *testing.T) (*AccountService, *memAccountRepo, *capturePublisher) {
	t.Helper()

	repo := newMemAccountRepo()
	pub := &capturePublisher{}
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := NewAccountService(
		repo,
		&memTagRepo{accounts: repo},
		&memZoneRepo{accounts: repo},
		NewSessionManager(jwt, nil, logger),
		pub,
		logger,
		testConfig(),
		nil, "",
		nil, "",
	)
	return svc, repo, pub
}

func signUp(t *testing.T, svc *AccountService) *entity.Account {
	t.Helper()
	res, v, err := svc.Register(context.Background(), SignUpForm{
		Nickname: "kimdev",
		Email:    "kim@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.Empty(t, v)
	return res.Account
}

func TestRegister(t *testing.T) {
	svc, repo, pub := newTestService(t)

	res, v, err := svc.Register(context.Background(), SignUpForm{
		Nickname: "kimdev",
		Email:    "kim@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.Empty(t, v)
	require.NotEmpty(t, res.Account.ID)

	// Password is stored hashed only.
	require.NotEqual(t, "correct horse battery", res.Account.PasswordHash)
	require.True(t, helpers.CompareHashAndPassword(res.Account.PasswordHash, "correct horse battery"))

	// Unverified but signed in.
	require.False(t, res.Account.EmailVerified)
	require.Nil(t, res.Account.JoinedAt)
	require.Equal(t, res.Account.ID, res.Identity.AccountID)
	require.Equal(t, "kimdev", res.Identity.Nickname)
	require.Equal(t, AuthorityUser, res.Identity.Authority)
	require.NotEmpty(t, res.Tokens.AccessToken)
	require.NotEmpty(t, res.Tokens.RefreshToken)

	// A verification token was persisted and exactly one mail enqueued.
	stored, err := repo.FindByID(context.Background(), res.Account.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.EmailCheckToken)
	require.Equal(t, 1, pub.count())

	job, ok := pub.jobs[0].(mailer.EmailJob)
	require.True(t, ok)
	require.Equal(t, "kim@example.com", job.To)
	require.Contains(t, job.Data["Link"], stored.EmailCheckToken)
}

func TestRegisterRejectsInvalidFields(t *testing.T) {
	svc, repo, pub := newTestService(t)

	_, v, err := svc.Register(context.Background(), SignUpForm{
		Nickname: "Bad Nick!",
		Email:    "not-an-email",
		Password: "short",
	})
	require.NoError(t, err)
	require.True(t, v.Has("nickname"))
	require.True(t, v.Has("email"))
	require.True(t, v.Has("password"))

	// Nothing was written and nothing was sent.
	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, pub.count())
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, _ := newTestService(t)
	signUp(t, svc)

	_, v, err := svc.Register(context.Background(), SignUpForm{
		Nickname: "kimdev",
		Email:    "kim@example.com",
		Password: "another password",
	})
	require.NoError(t, err)
	require.True(t, v.Has("email"))
	require.True(t, v.Has("nickname"))
}

func TestRegisterMapsCommitTimeConflict(t *testing.T) {
	svc, repo, _ := newTestService(t)
	// Simulate losing the race after the pre-check: the unique index
	// fires at insert time.
	repo.saveErr = &repository.ConflictError{Field: "email"}

	_, v, err := svc.Register(context.Background(), SignUpForm{
		Nickname: "kimdev",
		Email:    "kim@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.True(t, v.Has("email"))
}

func TestVerifyEmail(t *testing.T) {
	svc, repo, _ := newTestService(t)
	a := signUp(t, svc)

	stored, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)

	res, err := svc.VerifyEmail(context.Background(), stored.Email, stored.EmailCheckToken)
	require.NoError(t, err)
	require.Equal(t, StatusVerified, res.Status)
	require.Equal(t, "kimdev", res.Nickname)
	require.Equal(t, int64(1), res.TotalUsers)
	require.NotEmpty(t, res.Tokens.AccessToken)

	verified, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.True(t, verified.EmailVerified)
	require.NotNil(t, verified.JoinedAt)
}

func TestVerifyEmailFailures(t *testing.T) {
	svc, repo, _ := newTestService(t)
	a := signUp(t, svc)

	res, err := svc.VerifyEmail(context.Background(), "nobody@example.com", "whatever")
	require.NoError(t, err)
	require.Equal(t, StatusWrongEmail, res.Status)

	res, err = svc.VerifyEmail(context.Background(), a.Email, "wrong-token")
	require.NoError(t, err)
	require.Equal(t, StatusWrongToken, res.Status)

	// A failed check leaves the account untouched.
	stored, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.False(t, stored.EmailVerified)
	require.Nil(t, stored.JoinedAt)
}

func TestVerifyEmailRejectsStaleToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	a := signUp(t, svc)

	stored, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	oldToken := stored.EmailCheckToken

	// Resending replaces the token; the first link dies.
	require.NoError(t, svc.SendVerificationMail(context.Background(), stored))

	res, err := svc.VerifyEmail(context.Background(), a.Email, oldToken)
	require.NoError(t, err)
	require.Equal(t, StatusWrongToken, res.Status)

	res, err = svc.VerifyEmail(context.Background(), a.Email, stored.EmailCheckToken)
	require.NoError(t, err)
	require.Equal(t, StatusVerified, res.Status)
}

func TestLoginByLink(t *testing.T) {
	svc, repo, pub := newTestService(t)
	a := signUp(t, svc)

	stored, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.NoError(t, svc.SendLoginLink(context.Background(), stored))
	require.Equal(t, 2, pub.count()) // sign-up mail + login link

	got, ident, pair, err := svc.LoginByLink(context.Background(), stored.Email, stored.EmailCheckToken)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.Equal(t, a.ID, ident.AccountID)
	require.NotEmpty(t, pair.AccessToken)

	// The link signs in but never verifies.
	after, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.False(t, after.EmailVerified)

	_, _, _, err = svc.LoginByLink(context.Background(), stored.Email, "bogus")
	require.ErrorIs(t, err, ErrInvalidLoginLink)
}

func TestLoginWithEmailOrNickname(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := signUp(t, svc)

	for _, id := range []string{"kim@example.com", "kimdev"} {
		got, ident, pair, err := svc.Login(context.Background(), id, "correct horse battery")
		require.NoError(t, err)
		require.Equal(t, a.ID, got.ID)
		require.Equal(t, "kimdev", ident.Nickname)
		require.NotEmpty(t, pair.AccessToken)
	}

	_, _, _, err := svc.Login(context.Background(), "kimdev", "wrong password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = svc.Login(context.Background(), "nobody", "correct horse battery")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := signUp(t, svc)

	_, _, pair, err := svc.Login(context.Background(), a.Email, "correct horse battery")
	require.NoError(t, err)

	ident, next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, a.ID, ident.AccountID)
	require.NotEmpty(t, next.AccessToken)

	_, _, err = svc.Refresh(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	svc, repo, _ := newTestService(t)
	a := signUp(t, svc)

	v, err := svc.UpdateProfile(context.Background(), a, ProfileForm{
		Bio:        "Gopher in Seoul",
		URL:        "https://kim.dev",
		Occupation: "backend",
		Location:   "Seoul",
	})
	require.NoError(t, err)
	require.Empty(t, v)

	stored, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, "Gopher in Seoul", stored.Bio)
	require.Equal(t, "https://kim.dev", stored.URL)

	// Over-limit bio is refused as a violation, not an error.
	long := make([]rune, 36)
	for i := range long {
		long[i] = '가'
	}
	v, err = svc.UpdateProfile(context.Background(), a, ProfileForm{Bio: string(long)})
	require.NoError(t, err)
	require.True(t, v.Has("bio"))
}

func TestUpdatePassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	a := signUp(t, svc)

	v, err := svc.UpdatePassword(context.Background(), a, "a whole new passphrase")
	require.NoError(t, err)
	require.Empty(t, v)

	stored, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.True(t, helpers.CompareHashAndPassword(stored.PasswordHash, "a whole new passphrase"))
	require.False(t, helpers.CompareHashAndPassword(stored.PasswordHash, "correct horse battery"))

	v, err = svc.UpdatePassword(context.Background(), a, "short")
	require.NoError(t, err)
	require.True(t, v.Has("password"))
}

func TestUpdateNotifications(t *testing.T) {
	svc, repo, _ := newTestService(t)
	a := signUp(t, svc)

	err := svc.UpdateNotifications(context.Background(), a, NotificationsForm{
		StudyCreatedByEmail:     true,
		StudyUpdatedByEmail:     true,
		EnrollmentResultByEmail: true,
	})
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.True(t, stored.StudyCreatedByEmail)
	require.False(t, stored.StudyCreatedByWeb)
	require.True(t, stored.EnrollmentResultByEmail)
}

func TestUpdateNickname(t *testing.T) {
	svc, repo, _ := newTestService(t)
	a := signUp(t, svc)

	ident, pair, v, err := svc.UpdateNickname(context.Background(), a, "new-kim")
	require.NoError(t, err)
	require.Empty(t, v)
	require.Equal(t, "new-kim", ident.Nickname)
	require.NotEmpty(t, pair.AccessToken)

	stored, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, "new-kim", stored.Nickname)

	// Malformed and taken nicknames come back as violations.
	_, _, v, err = svc.UpdateNickname(context.Background(), a, "NO")
	require.NoError(t, err)
	require.True(t, v.Has("nickname"))

	other, _, err2 := svc.Register(context.Background(), SignUpForm{
		Nickname: "parkdev",
		Email:    "park@example.com",
		Password: "another passphrase",
	})
	require.NoError(t, err2)
	_, _, v, err = svc.UpdateNickname(context.Background(), other.Account, "new-kim")
	require.NoError(t, err)
	require.True(t, v.Has("nickname"))
}

func TestTagMembership(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := signUp(t, svc)
	ctx := context.Background()

	tag, err := svc.Tags.FindOrCreate(ctx, "golang")
	require.NoError(t, err)

	require.NoError(t, svc.AddTag(ctx, a, tag))
	// Adding twice stays a single membership.
	require.NoError(t, svc.AddTag(ctx, a, tag))

	tags, err := svc.GetTags(ctx, a)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	require.Equal(t, "golang", tags[0].Title)

	require.NoError(t, svc.RemoveTag(ctx, a, tag))
	// Removing an absent tag is a no-op.
	require.NoError(t, svc.RemoveTag(ctx, a, tag))

	tags, err = svc.GetTags(ctx, a)
	require.NoError(t, err)
	require.Empty(t, tags)

	// The shared tag survives the dropped association.
	kept, err := svc.Tags.FindByTitle(ctx, "golang")
	require.NoError(t, err)
	require.Equal(t, tag.ID, kept.ID)
}

func TestZoneMembership(t *testing.T) {
	svc, repo, _ := newTestService(t)
	zones := &memZoneRepo{accounts: repo}
	svc.Zones = zones
	zones.seed(entity.Zone{City: "Seoul", LocalName: "서울특별시", Province: ""})

	a := signUp(t, svc)
	ctx := context.Background()

	zone, err := svc.Zones.FindByCityAndProvince(ctx, "Seoul", "")
	require.NoError(t, err)

	require.NoError(t, svc.AddZone(ctx, a, zone))
	require.NoError(t, svc.AddZone(ctx, a, zone))

	got, err := svc.GetZones(ctx, a)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Seoul", got[0].City)

	require.NoError(t, svc.RemoveZone(ctx, a, zone))
	got, err = svc.GetZones(ctx, a)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMailDisabledSkipsPublish(t *testing.T) {
	svc, _, pub := newTestService(t)
	svc.Cfg.MailSendEnabled = false

	signUp(t, svc)
	require.Zero(t, pub.count())
}
