// Package api exposes the admin HTTP surface: public submission endpoints
// that fan out through the dual-write manager, and operator endpoints for
// migration and reconciliation.
package api

import (
	"context"
	"time"

	"github.com/bayviewassociation/memberdb/internal/dualwrite"
	"github.com/bayviewassociation/memberdb/internal/model"
	"github.com/bayviewassociation/memberdb/internal/notion"
)

// Manager is the slice of the dual-write manager the handlers consume.
type Manager interface {
	CreateMemorial(ctx context.Context, sub dualwrite.MemorialSubmission) (*model.MemorialWriteResult, error)
	CreateChapelApplication(ctx context.Context, in model.ChapelApplicationInput) (*model.ChapelWriteResult, error)
	CreateChapelDetail(ctx context.Context, applicationID int, d *model.ChapelDetail) error
	RecordChapelNotionID(ctx context.Context, applicationID int, notionID string) error
	UpdateChapelApplicationStatus(ctx context.Context, applicationID int, status string) (*model.ChapelApplication, error)
	CheckAvailability(ctx context.Context, serviceDate time.Time, serviceTime string) (bool, error)
	Search(ctx context.Context, term string, opts model.ListOptions) (*model.SearchResults, error)
	MigrationProgress(ctx context.Context) (*model.MigrationProgress, error)
	ValidateConsistency(ctx context.Context) ([]model.ConsistencyIssue, error)
	PersonUnifiedView(ctx context.Context, personID int) (*model.UnifiedPersonView, error)
	MigrateMemorial(ctx context.Context, memorialID int) (*model.MigrationOutcome, error)
	BatchMigrateMemorials(ctx context.Context, limit int) (*model.BatchMigrationResult, error)
}

// WorkflowMirror is the notion mirror surface the submission handlers use.
type WorkflowMirror interface {
	MemorialMirror(ctx context.Context, sub dualwrite.MemorialSubmission, res *model.MemorialWriteResult) notion.MirrorResult
	ChapelMirror(ctx context.Context, in model.ChapelApplicationInput, detail *model.ChapelDetail, serviceType string, res *model.ChapelWriteResult) notion.MirrorResult
}
