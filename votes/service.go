package votes

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/models"
)

// Store applies a vote as one atomic conditional write: the increments happen only if identity
// is not yet in the voter set. It returns errs.ErrAlreadyVoted when the gate rejects the write.
type Store interface {
	ApplyVote(ctx context.Context, projectID, identity string, star int) (*models.Project, error)
}

// Publisher is notified after every committed vote.
type Publisher interface {
	PublishProject(p *models.Project)
}

type Service struct {
	store     Store
	publisher Publisher
	onCast    func(star int)
	logger    zerolog.Logger
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithCastHook registers a callback run after each committed vote, used for metrics.
func WithCastHook(fn func(star int)) Option {
	return func(s *Service) { s.onCast = fn }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log.With().Str("component", "votes").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cast validates locally, then performs the gated write. Store failures come back as
// errs.ErrVoteFailed and are never retried here.
func (s *Service) Cast(ctx context.Context, projectID, identity string, star int) (State, error) {
	if identity == "" {
		return State{}, errs.NewAuthRequiredError("vote")
	}
	if !ValidStar(star) {
		return State{}, errs.NewInvalidStarError()
	}

	project, err := s.store.ApplyVote(ctx, projectID, identity, star)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrAlreadyVoted):
			return State{}, errs.NewAlreadyVotedError()
		case errors.Is(err, errs.ErrNotFound):
			return State{}, errs.NewNotFoundError("project " + projectID)
		default:
			s.logger.Error().Err(err).Str("projectID", projectID).Msg("vote write failed")
			return State{}, errs.NewVoteFailedError(err)
		}
	}

	if s.onCast != nil {
		s.onCast(star)
	}
	if s.publisher != nil {
		s.publisher.PublishProject(project)
	}
	return FromModel(project.Votes), nil
}
