package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
	"github.com/studyhub-kr/studyhub-api/pkg/helpers"
)

// UploadProfileImage stores the image in GCS and points the account's
// profile image at the resulting public URL.
func (s *AccountService) UploadProfileImage(ctx context.Context, a *entity.Account, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("profiles", a.ID, uuid.NewString()+ext))

	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	a.ProfileImage = url
	if err := s.Accounts.Update(ctx, a); err != nil {
		return "", err
	}
	s.indexAccount(ctx, a)
	return url, nil
}
