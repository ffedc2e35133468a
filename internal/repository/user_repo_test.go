package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradlink-api/internal/models"
)

func TestUserRepositoryLookups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	googleID := "g-123"
	user := models.User{Name: "Grace Hopper", Email: "Grace@Example.com", Role: models.RoleGraduate, GoogleID: &googleID}
	require.NoError(t, repo.Create(ctx, &user))

	byEmail, err := repo.GetByEmail(ctx, " grace@example.com ")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	byGoogle, err := repo.GetByGoogleID(ctx, googleID)
	require.NoError(t, err)
	require.Equal(t, user.ID, byGoogle.ID)

	byIDs, err := repo.GetByIDs(ctx, []uint{user.ID, 999})
	require.NoError(t, err)
	require.Len(t, byIDs, 1)
	require.Equal(t, "Grace Hopper", byIDs[user.ID].Name)
}

func TestUserRepositoryListAndSetActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	grace := seedUser(t, db, "Grace Hopper", models.RoleGraduate)
	seedUser(t, db, "Ivy Investor", models.RoleInvestor)
	seedUser(t, db, "Ada Admin", models.RoleAdmin)

	graduates, total, err := repo.List(ctx, UserFilter{Role: "Graduate"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, grace.ID, graduates[0].ID)

	_, total, err = repo.List(ctx, UserFilter{Search: "ivy"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	require.NoError(t, repo.SetActive(ctx, grace.ID, false))
	stored, err := repo.GetByID(ctx, grace.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)

	require.Error(t, repo.SetActive(ctx, 9999, true))
}
