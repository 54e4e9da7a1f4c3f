package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/osvaldoandrade/sqldojo/internal/dataset"
	"github.com/osvaldoandrade/sqldojo/internal/logctx"
	"github.com/osvaldoandrade/sqldojo/internal/metrics"
	"github.com/osvaldoandrade/sqldojo/pkg/catalog"
	"github.com/osvaldoandrade/sqldojo/pkg/domain"
)

// CatalogService is the read side of the task catalog.
type CatalogService interface {
	List(ctx context.Context) []domain.TaskView
	Get(ctx context.Context, id int) (domain.TaskView, error)
	Hint(ctx context.Context, id int, n int) (domain.Hint, error)
	Dataset(ctx context.Context) domain.DatasetInfo
}

type catalogService struct {
	registry *catalog.Registry
	logger   *slog.Logger
}

func NewCatalogService(registry *catalog.Registry, logger *slog.Logger) CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &catalogService{registry: registry, logger: logger}
}

func (s *catalogService) List(ctx context.Context) []domain.TaskView {
	tasks := s.registry.All()
	out := make([]domain.TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.View())
	}
	return out
}

func (s *catalogService) Get(ctx context.Context, id int) (domain.TaskView, error) {
	t, ok := s.registry.Find(id)
	if !ok {
		return domain.TaskView{}, domain.ErrTaskNotFound
	}
	return t.View(), nil
}

func (s *catalogService) Hint(ctx context.Context, id int, n int) (domain.Hint, error) {
	h, err := s.registry.Hint(id, n)
	switch {
	case err == nil:
		metrics.HintRequestsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, domain.ErrTaskNotFound):
		metrics.HintRequestsTotal.WithLabelValues("unknown_task").Inc()
	case errors.Is(err, domain.ErrHintOutOfRange):
		metrics.HintRequestsTotal.WithLabelValues("out_of_range").Inc()
	}
	if err != nil {
		logctx.From(ctx, s.logger).Debug("hint lookup rejected", "task_id", id, "n", n, "err", err)
	}
	return h, err
}

func (s *catalogService) Dataset(ctx context.Context) domain.DatasetInfo {
	return dataset.Describe()
}
