package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/osvaldoandrade/sqldojo/internal/dataset"
	"github.com/osvaldoandrade/sqldojo/internal/grading"
	"github.com/osvaldoandrade/sqldojo/internal/logctx"
	"github.com/osvaldoandrade/sqldojo/internal/metrics"
	"github.com/osvaldoandrade/sqldojo/pkg/catalog"
	"github.com/osvaldoandrade/sqldojo/pkg/domain"
	"github.com/osvaldoandrade/sqldojo/pkg/engine"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const internalPrefix = "Internal error: "

// GradingService checks learner submissions against the canonical answer of a task.
type GradingService interface {
	// Check grades sql for the task. Unknown tasks return domain.ErrTaskNotFound;
	// every other failure is reported inside the outcome.
	Check(ctx context.Context, taskID int, sql string) (*domain.CheckOutcome, error)
	// SelfTest grades every canonical query against itself. progress, when
	// non-nil, is called once per task in catalog order.
	SelfTest(ctx context.Context, progress func(domain.SelfTestResult)) (*domain.SelfTestReport, error)
}

type gradingService struct {
	registry    *catalog.Registry
	engine      engine.Engine
	provisioner dataset.Provisioner
	logger      *slog.Logger
	now         func() time.Time
}

func NewGradingService(registry *catalog.Registry, eng engine.Engine, provisioner dataset.Provisioner, logger *slog.Logger, now func() time.Time) GradingService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &gradingService{registry: registry, engine: eng, provisioner: provisioner, logger: logger, now: now}
}

func (s *gradingService) Check(ctx context.Context, taskID int, sql string) (*domain.CheckOutcome, error) {
	task, ok := s.registry.Find(taskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	ctx, span := otel.Tracer("sqldojo/grading").Start(ctx, "sqldojo.check",
		trace.WithAttributes(
			attribute.Int("sqldojo.task_id", task.ID),
			attribute.Bool("sqldojo.requires_order", task.RequiresOrder),
			attribute.Int("sqldojo.max_rows", task.MaxRows),
		),
	)
	defer span.End()

	start := s.now()
	out := s.grade(ctx, task, sql)
	elapsed := s.now().Sub(start)

	span.SetAttributes(
		attribute.String("sqldojo.outcome", string(out.Kind)),
		attribute.Int("sqldojo.rows.expected", out.ExpectedRowCount),
		attribute.Int("sqldojo.rows.actual", out.ActualRowCount),
	)
	if out.Internal() {
		span.SetStatus(codes.Error, out.Message)
	}

	metrics.CheckTotal.WithLabelValues(fmt.Sprint(task.ID), string(out.Kind)).Inc()
	metrics.CheckDurationSeconds.WithLabelValues(string(out.Kind)).Observe(elapsed.Seconds())

	logger := logctx.From(ctx, s.logger)
	attrs := []any{"task_id", task.ID, "kind", out.Kind, "duration_ms", elapsed.Milliseconds()}
	if out.Internal() {
		logger.Error("check failed internally", append(attrs, "message", out.Message)...)
	} else {
		logger.Info("check graded", attrs...)
	}
	return out, nil
}

func (s *gradingService) grade(ctx context.Context, task domain.Task, sql string) (out *domain.CheckOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logctx.From(ctx, s.logger).Error("check panicked", "task_id", task.ID, "panic", r)
			out = internalOutcome(task.ID, fmt.Sprintf("check aborted: %v", r))
		}
	}()

	sess, err := s.engine.Open(ctx)
	if err != nil {
		return internalOutcome(task.ID, fmt.Sprintf("failed to open engine session: %v", err))
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logctx.From(ctx, s.logger).Warn("engine session close failed", "task_id", task.ID, "err", cerr)
		}
	}()

	if err := s.provision(ctx, sess); err != nil {
		metrics.ProvisionFailuresTotal.Inc()
		return internalOutcome(task.ID, err.Error())
	}

	expected, err := s.run(ctx, sess, "canonical", task.ExpectedSQL)
	if err != nil {
		return internalOutcome(task.ID, fmt.Sprintf("failed to compute expected result: %v", err))
	}

	if strings.TrimSpace(sql) == "" {
		return queryErrorOutcome(task.ID, "the query is empty.", expected.RowCount())
	}
	actual, err := s.run(ctx, sess, "submitted", sql)
	if err != nil {
		return queryErrorOutcome(task.ID, err.Error(), expected.RowCount())
	}

	_, span := otel.Tracer("sqldojo/grading").Start(ctx, "sqldojo.check.compare")
	verdict := grading.Compare(task, expected, actual)
	span.SetAttributes(attribute.String("sqldojo.mismatch_reason", string(verdict.Reason)))
	span.End()

	out = &domain.CheckOutcome{
		TaskID:           task.ID,
		OK:               verdict.OK,
		Kind:             domain.OutcomePassed,
		Message:          verdict.Message,
		ExpectedRowCount: expected.RowCount(),
		ActualRowCount:   actual.RowCount(),
	}
	if !verdict.OK {
		out.Kind = domain.OutcomeMismatch
		metrics.MismatchTotal.WithLabelValues(string(verdict.Reason)).Inc()
	}
	return out
}

func (s *gradingService) provision(ctx context.Context, sess engine.Session) error {
	ctx, span := otel.Tracer("sqldojo/grading").Start(ctx, "sqldojo.check.provision")
	defer span.End()
	if err := s.provisioner.Provision(ctx, sess); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// run executes query and materializes its full result. Errors raised while
// streaming rows count as execution errors of the query.
func (s *gradingService) run(ctx context.Context, sess engine.Session, phase string, query string) (grading.Result, error) {
	ctx, span := otel.Tracer("sqldojo/grading").Start(ctx, "sqldojo.check."+phase)
	defer span.End()

	rows, err := sess.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return grading.Result{}, err
	}
	res, err := grading.Materialize(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return grading.Result{}, err
	}
	span.SetAttributes(attribute.Int("sqldojo.rows", res.RowCount()))
	return res, nil
}

func (s *gradingService) SelfTest(ctx context.Context, progress func(domain.SelfTestResult)) (*domain.SelfTestReport, error) {
	report := &domain.SelfTestReport{}
	for _, t := range s.registry.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := s.Check(ctx, t.ID, t.ExpectedSQL)
		if err != nil {
			return nil, fmt.Errorf("self-test task %d: %w", t.ID, err)
		}
		res := domain.SelfTestResult{TaskID: t.ID, Title: t.Title, Outcome: *out}
		if out.OK {
			report.Passed++
		} else {
			report.Failed++
			logctx.From(ctx, s.logger).Warn("self-test failed", "task_id", t.ID, "kind", out.Kind, "message", out.Message)
		}
		report.Results = append(report.Results, res)
		if progress != nil {
			progress(res)
		}
	}
	return report, nil
}

func internalOutcome(taskID int, msg string) *domain.CheckOutcome {
	return &domain.CheckOutcome{
		TaskID:  taskID,
		Kind:    domain.OutcomeInternalError,
		Message: internalPrefix + msg,
	}
}

func queryErrorOutcome(taskID int, engineMsg string, expectedRows int) *domain.CheckOutcome {
	return &domain.CheckOutcome{
		TaskID:           taskID,
		Kind:             domain.OutcomeQueryError,
		Message:          fmt.Sprintf("Your query failed to run: %s Try: sqldojo hint %d 1", engineMsg, taskID),
		ExpectedRowCount: expectedRows,
		ActualRowCount:   0,
	}
}
