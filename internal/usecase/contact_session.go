package usecase

import (
	"context"
	"log/slog"
	"time"

	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/internal/repository/memory"
)

// ContactSessions keeps one ContactController per open contact form so the
// site can edit fields, submit and watch state across requests.
type ContactSessions struct {
	controllers *ControllerFactory
	store       *memory.SessionStore[*ContactController]
	log         *slog.Logger
}

func NewContactSessions(controllers *ControllerFactory, ttl time.Duration, log *slog.Logger) *ContactSessions {
	if log == nil {
		log = slog.Default()
	}
	s := &ContactSessions{controllers: controllers, log: log}
	s.store = memory.NewSessionStore(ttl, func(id string, _ *ContactController) {
		s.log.Debug("Contact session expired", "session_id", id)
	})
	return s
}

// Open creates a fresh Idle form
func (s *ContactSessions) Open() (string, *ContactController) {
	ctrl := s.controllers.New()
	id := s.store.Create(ctrl)
	return id, ctrl
}

func (s *ContactSessions) Get(id string) (*ContactController, error) {
	ctrl, ok := s.store.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return ctrl, nil
}

func (s *ContactSessions) Close(id string) error {
	if !s.store.Delete(id) {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Edit sets one field of the session's form
func (s *ContactSessions) Edit(id, field, value string) (domain.Snapshot, error) {
	ctrl, err := s.Get(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := ctrl.Edit(field, value); err != nil {
		return domain.Snapshot{}, err
	}
	return ctrl.Snapshot(), nil
}

// Submit submits the session's form; see ContactController.Submit
func (s *ContactSessions) Submit(ctx context.Context, id string) (domain.Snapshot, error) {
	ctrl, err := s.Get(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return ctrl.Submit(ctx)
}

// Run expires idle sessions until ctx is done
func (s *ContactSessions) Run(ctx context.Context, interval time.Duration) {
	s.store.Run(ctx, interval)
}
