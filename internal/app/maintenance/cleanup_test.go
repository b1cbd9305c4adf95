package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	testutil "github.com/buildhive/buildhive/internal/database/testutil"
	"github.com/buildhive/buildhive/internal/models"
	"github.com/buildhive/buildhive/internal/services"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestCleanupExpiredAssignments(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

	expired := models.UserRoleAssignment{
		UserID:     "user-expired",
		RoleID:     "role-a",
		AssignedAt: now.Add(-48 * time.Hour),
		ExpiresAt:  timePtr(now.Add(-time.Hour)),
	}
	active := models.UserRoleAssignment{
		UserID:     "user-active",
		RoleID:     "role-a",
		AssignedAt: now.Add(-48 * time.Hour),
		ExpiresAt:  timePtr(now.Add(time.Hour)),
	}
	permanent := models.UserRoleAssignment{
		UserID:     "user-permanent",
		RoleID:     "role-a",
		AssignedAt: now.Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&permanent).Error)

	removed, err := CleanupExpiredAssignments(context.Background(), db, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var remaining []models.UserRoleAssignment
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)
	for _, a := range remaining {
		require.NotEqual(t, "user-expired", a.UserID)
	}
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Now()

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	stale := models.AuditLog{Action: "role.assign", Result: "success"}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("id = ?", stale.ID).
		Update("created_at", now.AddDate(0, 0, -120)).Error)

	fresh := models.AuditLog{Action: "role.revoke", Result: "success"}
	require.NoError(t, db.Create(&fresh).Error)

	require.NoError(t, db.Create(&models.UserRoleAssignment{
		UserID:     "user-1",
		RoleID:     "role-1",
		AssignedAt: now.Add(-time.Hour),
		ExpiresAt:  timePtr(now.Add(-time.Minute)),
	}).Error)

	cleaner := NewCleaner(db, audit,
		WithCron(cron.New()),
		WithNow(func() time.Time { return now }),
		WithAuditRetentionDays(90),
	)

	require.NoError(t, cleaner.RunOnce(context.Background()))

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&auditCount).Error)
	require.Equal(t, int64(1), auditCount)

	var assignmentCount int64
	require.NoError(t, db.Model(&models.UserRoleAssignment{}).Count(&assignmentCount).Error)
	require.Zero(t, assignmentCount)
}
