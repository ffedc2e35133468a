package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/models"
	"github.com/noah-isme/gradlink-api/internal/repository"
)

func TestUserServiceProfileHidesEmail(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewUserService(repository.NewUserRepository(db), nil, testValidator(), testLogger())
	user := createUser(t, db, "Grace Hopper", models.RoleGraduate)

	me, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "grace.hopper@example.com", me.Email)

	profile, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	require.Empty(t, profile.Email)
	require.Equal(t, "Grace Hopper", profile.Name)

	_, err = svc.Profile(context.Background(), 999)
	require.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)
	_, err = svc.Profile(context.Background(), user.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserServiceUpdateMe(t *testing.T) {
	db := setupServiceDB(t)
	users := repository.NewUserRepository(db)
	svc := NewUserService(users, nil, testValidator(), testLogger())
	user := createUser(t, db, "Grace Hopper", models.RoleGraduate)

	bio := "Building <script>x</script>water tech"
	university := "MIT"
	resp, err := svc.UpdateMe(context.Background(), user.ID, dto.UserUpdateRequest{
		Bio:         &bio,
		University:  &university,
		SocialLinks: map[string]string{"LinkedIn": "https://linkedin.com/in/grace"},
	})
	require.NoError(t, err)
	require.Equal(t, "Building water tech", resp.Bio)
	require.Equal(t, "MIT", resp.University)
	require.Equal(t, "https://linkedin.com/in/grace", resp.SocialLinks["linkedin"])

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "Grace Hopper", stored.Name)
	require.Equal(t, "https://linkedin.com/in/grace", stored.SocialLinks["linkedin"])

	_, err = svc.UpdateMe(context.Background(), user.ID, dto.UserUpdateRequest{SocialLinks: map[string]string{"site": "not a url"}})
	require.Error(t, err)
}

func TestUserServiceUpdateAvatar(t *testing.T) {
	db := setupServiceDB(t)
	users := repository.NewUserRepository(db)
	uploads := NewUploadService(&storageStub{}, repository.NewUploadRepository(db), 5, testLogger())
	svc := NewUserService(users, uploads, testValidator(), testLogger())
	user := createUser(t, db, "Grace Hopper", models.RoleGraduate)

	resp, err := svc.UpdateAvatar(context.Background(), user.ID, buildFileHeader(t, "Me.PNG", pngHeader))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/me.png", resp.AvatarURL)

	_, err = svc.UpdateAvatar(context.Background(), user.ID, buildFileHeader(t, "cv.pdf", []byte("%PDF-1.4\n")))
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
}
