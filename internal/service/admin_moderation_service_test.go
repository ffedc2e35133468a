package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/media"
	"github.com/noah-isme/gradlink-api/internal/models"
	"github.com/noah-isme/gradlink-api/internal/repository"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) {
	c.calls++
}

func newTestModerationService(t *testing.T) (AdminModerationService, *countingInvalidator, *gorm.DB) {
	t.Helper()
	db := setupServiceDB(t)
	stats := &countingInvalidator{}
	svc := NewAdminModerationService(repository.NewProjectRepository(db), repository.NewUserRepository(db), stats, testValidator(), testLogger())
	return svc, stats, db
}

func TestAdminModerationListAndUpdateStatus(t *testing.T) {
	svc, stats, db := newTestModerationService(t)
	ctx := context.Background()
	graduate := createUser(t, db, "Grace Hopper", models.RoleGraduate)
	pending := createProject(t, db, graduate.ID, "Water Filter", models.ProjectStatusPending)
	createProject(t, db, graduate.ID, "Wind Turbine", models.ProjectStatusPublished)

	queue, err := svc.ListProjects(ctx, dto.AdminProjectListQuery{Status: "under_review"})
	require.NoError(t, err)
	require.EqualValues(t, 1, queue.Pagination.TotalItems)
	require.Equal(t, pending.ID, queue.Projects[0].ID)

	all, err := svc.ListProjects(ctx, dto.AdminProjectListQuery{})
	require.NoError(t, err)
	require.Len(t, all.Projects, 2)
	require.Equal(t, 20, all.Pagination.PageSize)

	updated, err := svc.UpdateProjectStatus(ctx, pending.ID, dto.ProjectStatusRequest{Status: "active"})
	require.NoError(t, err)
	require.Equal(t, models.ProjectStatusPublished, updated.Status)
	require.Equal(t, 1, stats.calls)

	_, err = svc.UpdateProjectStatus(ctx, pending.ID, dto.ProjectStatusRequest{Status: "draft"})
	require.Error(t, err)

	_, err = svc.UpdateProjectStatus(ctx, 999, dto.ProjectStatusRequest{Status: "rejected"})
	require.ErrorIs(t, err, ErrProjectNotFound)

	require.NoError(t, svc.DeleteProject(ctx, pending.ID))
	require.ErrorIs(t, svc.DeleteProject(ctx, pending.ID), ErrProjectNotFound)
	require.Equal(t, 2, stats.calls)
}

func TestAdminModerationMediaAudit(t *testing.T) {
	svc, _, db := newTestModerationService(t)
	ctx := context.Background()
	graduate := createUser(t, db, "Grace Hopper", models.RoleGraduate)

	clean := createProject(t, db, graduate.ID, "Clean", models.ProjectStatusPublished)
	report, err := svc.MediaAudit(ctx, clean.ID)
	require.NoError(t, err)
	require.True(t, report.Clean)
	require.Empty(t, report.Rejections)

	legacy := models.Project{
		Title:         "Legacy",
		GraduateID:    graduate.ID,
		Status:        models.ProjectStatusPublished,
		ImagesJSON:    `["https://drive.google.com/ok", "https://imgur.com/bad.png"]`,
		VideosJSON:    `not json`,
		DocumentsJSON: `[]`,
	}
	require.NoError(t, db.Create(&legacy).Error)

	report, err = svc.MediaAudit(ctx, legacy.ID)
	require.NoError(t, err)
	require.False(t, report.Clean)
	require.Equal(t, []string{"https://drive.google.com/ok"}, report.Accepted.Images)
	require.Len(t, report.Rejections, 2)
	require.Equal(t, media.KindImages, report.Rejections[0].Kind)
	require.Equal(t, media.KindVideos, report.Rejections[1].Kind)
	require.Equal(t, media.ReasonMalformedJSON, report.Rejections[1].Rejections[0].Reason)

	_, err = svc.MediaAudit(ctx, 999)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestAdminModerationUsers(t *testing.T) {
	svc, _, db := newTestModerationService(t)
	ctx := context.Background()
	admin := createUser(t, db, "Root Admin", models.RoleAdmin)
	createUser(t, db, "Grace Hopper", models.RoleGraduate)
	investor := createUser(t, db, "Ivy Investor", models.RoleInvestor)

	list, err := svc.ListUsers(ctx, dto.UserListQuery{Role: "investor"})
	require.NoError(t, err)
	require.EqualValues(t, 1, list.Pagination.TotalItems)
	require.Equal(t, investor.ID, list.Users[0].ID)

	inactive := false
	resp, err := svc.SetUserActive(ctx, admin.ID, investor.ID, dto.UserActiveRequest{Active: &inactive})
	require.NoError(t, err)
	require.False(t, resp.IsActive)

	_, err = svc.SetUserActive(ctx, admin.ID, admin.ID, dto.UserActiveRequest{Active: &inactive})
	require.ErrorIs(t, err, ErrSelfDeactivation)

	_, err = svc.SetUserActive(ctx, admin.ID, 999, dto.UserActiveRequest{Active: &inactive})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.SetUserActive(ctx, admin.ID, investor.ID, dto.UserActiveRequest{})
	require.Error(t, err)
}
