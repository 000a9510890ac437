package budgets

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/vidrobox-backend/pkg/db"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/google/uuid"
)

const activeJobIndex = "uq_send_budget_jobs_active"

// ConvertAsync queues a conversion and returns at once. A budget with a live
// job, or a job created with the same idempotency key, gets that job back.
//
// The lookup and the insert are not atomic; the partial unique index on live
// jobs turns a lost race into a reuse of the winner.
func (s *service) ConvertAsync(ctx context.Context, id uuid.UUID, idempotencyKey string) (*JobView, error) {
	if _, err := s.load(ctx, s.repo, id); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(idempotencyKey)

	if existing, err := s.findLiveJob(ctx, id, key); err != nil || existing != nil {
		return existing, err
	}

	job := &models.SendBudgetJob{BudgetID: id, Status: enums.SendBudgetJobQueued}
	if key != "" {
		job.IdempotencyKey = &key
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		if db.IsUniqueViolation(err, activeJobIndex) {
			if existing, ferr := s.findLiveJob(ctx, id, key); ferr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create send job")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"budget_id": id.String(), "job_id": job.ID.String()}), "send job queued")
	s.jobs.Add(1)
	go s.runJob(context.WithoutCancel(ctx), job.ID, id)
	return jobView(job, false), nil
}

func (s *service) findLiveJob(ctx context.Context, budgetID uuid.UUID, key string) (*JobView, error) {
	job, err := s.repo.FindLiveJob(ctx, budgetID, key)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find send job")
	}
	s.metrics.IncJob("reused")
	return jobView(job, true), nil
}

func (s *service) runJob(ctx context.Context, jobID, budgetID uuid.UUID) {
	defer s.jobs.Done()
	ctx = s.logg.WithFields(ctx, map[string]any{"budget_id": budgetID.String(), "job_id": jobID.String()})

	var (
		result *ConvertResult
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("send job panic: %v", r)
			}
		}()

		startedAt := s.now()
		if uerr := s.repo.UpdateJob(ctx, jobID, map[string]any{"status": enums.SendBudgetJobRunning, "started_at": startedAt}); uerr != nil {
			s.logg.WarnErr(ctx, "mark send job running", uerr)
		}
		result, err = s.convert(ctx, budgetID, modeAsync)
	}()

	updates := map[string]any{"finished_at": s.now()}
	status := enums.SendBudgetJobSucceeded
	if err != nil {
		status = enums.SendBudgetJobFailed
		updates["last_error"] = pkgerrors.Reason(err)
		s.logg.Error(ctx, "send job failed", err)
	} else {
		updates["pdf_url"] = result.PDFURL
		updates["email_status"] = result.EmailStatus
		if result.EmailError != "" {
			updates["last_error"] = result.EmailError
		}
	}
	updates["status"] = status

	if uerr := s.repo.UpdateJob(ctx, jobID, updates); uerr != nil {
		s.logg.Error(ctx, "record send job outcome", uerr)
	}
	s.metrics.IncJob(strings.ToLower(string(status)))
}

func (s *service) Job(ctx context.Context, jobID uuid.UUID) (*JobView, error) {
	job, err := s.repo.FindJob(ctx, jobID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Envio não encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load send job")
	}
	return jobView(job, false), nil
}
