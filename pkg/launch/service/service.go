// Package service exposes the token launch wizard and deployment
// orchestration over HTTP.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/tokenforge/launchpad-middleware/pkg/app/errors"
	"github.com/tokenforge/launchpad-middleware/pkg/launch"
	"github.com/tokenforge/launchpad-middleware/pkg/recordstore"
	"github.com/tokenforge/launchpad-middleware/pkg/token"
	"github.com/tokenforge/launchpad-middleware/pkg/wizard"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotSessionOwner = errors.New("session belongs to another creator")
)

// sessionIdleTTL bounds how long an untouched session is retained.
// Sweeping happens lazily on session creation; a session whose
// deployment is still in flight is kept regardless of age.
const sessionIdleTTL = 24 * time.Hour

// Session binds one wizard and one deployment orchestrator to a creator.
type Session struct {
	ID           string
	CreatorID    string
	Wizard       *wizard.Wizard
	Orchestrator *launch.Orchestrator
	CreatedAt    time.Time

	lastSeen time.Time // guarded by Service.mu
}

// Service manages launch sessions and owns the record store access for
// the token listing endpoints.
type Service struct {
	store    recordstore.Store
	signers  launch.SignerProvider
	deployer launch.ChainDeployer
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a launch service.
func NewService(
	store recordstore.Store,
	signers launch.SignerProvider,
	deployer launch.ChainDeployer,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:    store,
		signers:  signers,
		deployer: deployer,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// CreateSession starts a fresh wizard session for a creator.
func (s *Service) CreateSession(creatorID string) *Session {
	now := time.Now().UTC()
	session := &Session{
		ID:           uuid.New().String(),
		CreatorID:    creatorID,
		Wizard:       wizard.New(),
		Orchestrator: launch.NewOrchestrator(s.store, s.signers, s.deployer, s.logger),
		CreatedAt:    now,
		lastSeen:     now,
	}

	s.mu.Lock()
	s.sweepIdleLocked(now)
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("Launch session created",
		zap.String("session_id", session.ID),
		zap.String("creator_id", creatorID))

	return session
}

// Session returns a creator's session. Access by another creator is
// rejected before the session state is revealed.
func (s *Service) Session(creatorID, sessionID string) (*Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if ok {
		session.lastSeen = time.Now().UTC()
	}
	s.mu.Unlock()

	if !ok {
		return nil, apperrors.ResourceNotFoundError(ErrSessionNotFound, "session not found")
	}
	if session.CreatorID != creatorID {
		return nil, apperrors.ForbiddenError(ErrNotSessionOwner, "session belongs to another creator")
	}
	return session, nil
}

// DeleteSession removes a creator's session. An in-flight attempt keeps
// running to its terminal stage; its record writes are unaffected.
func (s *Service) DeleteSession(creatorID, sessionID string) error {
	session, err := s.Session(creatorID, sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, session.ID)
	s.mu.Unlock()

	s.logger.Info("Launch session deleted",
		zap.String("session_id", session.ID),
		zap.String("creator_id", creatorID))
	return nil
}

// sweepIdleLocked drops sessions idle past the TTL. Sessions with a
// deployment between preparing and verifying are spared so a slow
// confirmation cannot lose its subscriber state.
func (s *Service) sweepIdleLocked(now time.Time) {
	for id, session := range s.sessions {
		if now.Sub(session.lastSeen) < sessionIdleTTL {
			continue
		}
		if stage := session.Orchestrator.Status().Stage; stage != launch.StageNotStarted && !stage.Terminal() {
			continue
		}
		delete(s.sessions, id)
		s.logger.Info("Idle launch session swept", zap.String("session_id", id))
	}
}

// Deploy validates the session's draft and starts the deployment in the
// background. The returned status is the snapshot right after start.
func (s *Service) Deploy(creatorID, sessionID string) (launch.Status, error) {
	session, err := s.Session(creatorID, sessionID)
	if err != nil {
		return launch.Status{}, err
	}

	draft := session.Wizard.Draft()
	if fields := token.Validate(draft); len(fields) > 0 {
		return launch.Status{}, apperrors.ValidationError(fields)
	}

	if err := session.Orchestrator.Start(creatorID, draft); err != nil {
		switch {
		case errors.Is(err, launch.ErrDeploymentInProgress):
			return launch.Status{}, apperrors.ConflictError(err, "deployment already in progress")
		case errors.Is(err, launch.ErrAlreadyCompleted):
			return launch.Status{}, apperrors.ConflictError(err, "deployment already completed")
		default:
			return launch.Status{}, apperrors.GeneralError(err)
		}
	}

	return session.Orchestrator.Status(), nil
}

// ResetDeployment abandons the session's deployment attempt and returns
// the wizard to its first step with the draft intact.
func (s *Service) ResetDeployment(creatorID, sessionID string) (launch.Status, error) {
	session, err := s.Session(creatorID, sessionID)
	if err != nil {
		return launch.Status{}, err
	}

	session.Orchestrator.Reset()
	return session.Orchestrator.Status(), nil
}

// GetRecord fetches one of the creator's token records.
func (s *Service) GetRecord(ctx context.Context, creatorID, recordID string) (*token.Record, error) {
	rec, err := s.store.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, recordstore.ErrRecordNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "token not found")
		}
		return nil, apperrors.GeneralError(err)
	}
	if rec.CreatorID != creatorID {
		return nil, apperrors.ForbiddenError(nil, "token belongs to another creator")
	}
	return rec, nil
}

// ListRecords lists the creator's token records, newest first.
func (s *Service) ListRecords(ctx context.Context, creatorID string) ([]*token.Record, error) {
	recs, err := s.store.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}
	return recs, nil
}
