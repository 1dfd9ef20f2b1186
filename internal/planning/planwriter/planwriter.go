// Package planwriter implements the plan writer (§4.F): the atomic,
// transactional replacement of a recalculation's output — allocations and
// issues — over the repository layer.
package planwriter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/planloom/planloom/internal/db"
	"github.com/planloom/planloom/internal/domain"
	"github.com/planloom/planloom/internal/planning/placer"
	"github.com/planloom/planloom/internal/repository"
)

// WriteTx runs the replace-previous-state procedure directly against tx,
// without managing its own transaction boundary: it clears prior PLAN
// allocations and planning issues, then inserts plan's allocations (plus a
// zero-length allocation per fulfilled milestone) and the combined
// structural + per-task issue set. Callers already inside a transaction
// (the recalculation loop, §4.G) call this directly so the read-plan-write
// cycle shares one transaction; Write below is for standalone callers.
//
// structuralIssues are the problem builder's project-level findings
// (dependency-loop, hierarchy-loop, requirement-missing, ...); plan is the
// placer's output for the generation's winning individual.
func WriteTx(ctx context.Context, tx db.DBTX, structuralIssues []domain.Issue, plan *placer.Plan) error {
	allocations := make([]domain.Allocation, 0, len(plan.Allocations)+len(plan.FulfilledMilestones))
	allocations = append(allocations, plan.Allocations...)
	for taskID, fulfilledAt := range plan.FulfilledMilestones {
		allocations = append(allocations, domain.Allocation{
			ID:             uuid.NewString(),
			TaskID:         taskID,
			Start:          fulfilledAt,
			End:            fulfilledAt,
			AllocationType: domain.AllocationPlan,
		})
	}

	issues := make([]domain.Issue, 0, len(structuralIssues)+len(plan.Issues))
	issues = append(issues, structuralIssues...)
	issues = append(issues, plan.Issues...)

	allocRepo := repository.NewSQLiteAllocationRepo(tx)
	issueRepo := repository.NewSQLiteIssueRepo(tx)

	if err := allocRepo.ReplacePlan(ctx, allocations); err != nil {
		return fmt.Errorf("replacing plan allocations: %w", err)
	}
	if err := issueRepo.ReplacePlanningIssues(ctx, issues); err != nil {
		return fmt.Errorf("replacing planning issues: %w", err)
	}
	return nil
}

// Write opens its own transaction via uow and runs WriteTx inside it, for
// callers that aren't already managing a transaction of their own.
func Write(ctx context.Context, uow db.UnitOfWork, structuralIssues []domain.Issue, plan *placer.Plan) error {
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return WriteTx(ctx, tx, structuralIssues, plan)
	})
	if err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	return nil
}
