package analytics

import (
	"context"

	"crm-support/internal/common/models"
	"crm-support/internal/features/user"
)

// TechnicianSummary is TechnicianPerformance joined with the user directory
// so the chart can label bars by name.
type TechnicianSummary struct {
	TechnicianPerformance
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AnalyticsService interface {
	TicketsByStatus(ctx context.Context) ([]StatusCount, error)
	TicketsByPriority(ctx context.Context) ([]StatusCount, error)
	TechnicianSummaries(ctx context.Context) ([]TechnicianSummary, error)
}

type AnalyticsServiceImpl struct {
	AnalyticsRepo AnalyticsRepository
	UserRepo      user.UserRepository
}

func NewAnalyticsService(analyticsRepo AnalyticsRepository, userRepo user.UserRepository) AnalyticsService {
	return &AnalyticsServiceImpl{
		AnalyticsRepo: analyticsRepo,
		UserRepo:      userRepo,
	}
}

func (s *AnalyticsServiceImpl) TicketsByStatus(ctx context.Context) ([]StatusCount, error) {
	return s.AnalyticsRepo.CountByField(ctx, "status")
}

func (s *AnalyticsServiceImpl) TicketsByPriority(ctx context.Context) ([]StatusCount, error) {
	return s.AnalyticsRepo.CountByField(ctx, "priority")
}

func (s *AnalyticsServiceImpl) TechnicianSummaries(ctx context.Context) ([]TechnicianSummary, error) {
	perf, err := s.AnalyticsRepo.TechnicianPerformance(ctx)
	if err != nil {
		return nil, err
	}

	technicians, err := s.UserRepo.ListByRole(ctx, models.RoleTechnician)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.User, len(technicians))
	for _, t := range technicians {
		byID[t.ID.Hex()] = t
	}

	summaries := make([]TechnicianSummary, 0, len(perf))
	for _, p := range perf {
		summary := TechnicianSummary{TechnicianPerformance: p}
		if u, ok := byID[p.TechnicianID.Hex()]; ok {
			summary.Name = u.Name
			summary.Email = u.Email
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}
