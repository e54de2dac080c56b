package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
	"github.com/studyhub-kr/studyhub-api/pkg/helpers"
)

// AuthorityUser is the single authority carried by every authenticated
// identity. There is no role hierarchy.
const AuthorityUser = "user"

const sessionTTL = 24 * time.Hour

// Identity is the authenticated principal for one request. It is an
// explicit value returned to the caller, never a process-wide singleton.
type Identity struct {
	AccountID string `json:"account_id"`
	Nickname  string `json:"nickname"`
	Authority string `json:"authority"`
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// SessionKey is the redis hash key holding the active session for an account.
func SessionKey(accountID string) string {
	return "account:session:" + accountID
}

// SessionManager builds authenticated identities from persisted accounts and
// records them as redis session hashes alongside a JWT cookie pair.
type SessionManager struct {
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
}

func NewSessionManager(jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *SessionManager {
	return &SessionManager{JWT: jwt, Redis: rdb, Logger: logger}
}

// Establish installs a fresh session for the account and returns the
// identity plus the token pair. Callable regardless of verification status:
// having an account and being email-verified are distinct states.
func (m *SessionManager) Establish(ctx context.Context, a *entity.Account) (Identity, TokenPair, error) {
	ident := Identity{AccountID: a.ID, Nickname: a.Nickname, Authority: AuthorityUser}

	sid := uuid.NewString()
	access, aexp, err := m.JWT.GenerateAccessToken(a.ID, sid)
	if err != nil {
		return Identity{}, TokenPair{}, err
	}
	refresh, rexp, err := m.JWT.GenerateRefreshToken(a.ID, sid)
	if err != nil {
		return Identity{}, TokenPair{}, err
	}

	if m.Redis != nil {
		key := SessionKey(a.ID)
		pipe := m.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"account_id": a.ID,
			"email":      a.Email,
			"nickname":   a.Nickname,
			"authority":  ident.Authority,
			"verified":   a.EmailVerified,
			"sid":        sid,
			"created_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
		pipe.Expire(ctx, key, sessionTTL)
		if _, err := pipe.Exec(ctx); err != nil && m.Logger != nil {
			m.Logger.WithError(err).WithField("key", key).Warn("redis session write failed")
		}
	}

	return ident, TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
	}, nil
}

// SessionID returns the sid stored for the account, or "" when no session
// exists (or redis is not configured).
func (m *SessionManager) SessionID(ctx context.Context, accountID string) string {
	if m.Redis == nil {
		return ""
	}
	sid, err := m.Redis.HGet(ctx, SessionKey(accountID), "sid").Result()
	if err != nil {
		return ""
	}
	return sid
}

// Drop removes the account's session hash.
func (m *SessionManager) Drop(ctx context.Context, accountID string) {
	if m.Redis == nil {
		return
	}
	if err := m.Redis.Del(ctx, SessionKey(accountID)).Err(); err != nil && m.Logger != nil {
		m.Logger.WithError(err).WithField("account_id", accountID).Warn("redis session delete failed")
	}
}
