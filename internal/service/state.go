package service

import (
	"context"
	"time"

	"mietbot/internal/domain"
	"mietbot/internal/models"

	"github.com/rs/zerolog"
)

type StateService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
}

func NewStateService(stateRepo domain.StateRepository, logger *zerolog.Logger) *StateService {
	return &StateService{
		stateRepo: stateRepo,
		logger:    logger,
	}
}

func (s *StateService) GetSession(ctx context.Context, channel, sender string) (*models.Session, error) {
	session, err := s.stateRepo.GetSession(ctx, channel, sender)
	if err != nil {
		s.logger.Error().Err(err).Str("channel", channel).Str("sender", sender).Msg("failed to get session")
		return nil, err
	}

	return session, nil
}

func (s *StateService) SetSession(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now()
	return s.stateRepo.SetSession(ctx, session)
}

func (s *StateService) ClearSession(ctx context.Context, channel, sender string) error {
	return s.stateRepo.ClearSession(ctx, channel, sender)
}

func (s *StateService) CheckRateLimit(ctx context.Context, channel, sender string, limit int, window time.Duration) (bool, error) {
	return s.stateRepo.CheckRateLimit(ctx, channel, sender, limit, window)
}
