package cashier

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/application/uow"
	"github.com/juliohebert/loja-sub000/internal/domain/cashier"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/domain/tenant"
	"go.uber.org/zap"
)

// CashSessionService opens and closes registers and gates sales on an open session
type CashSessionService struct {
	scope          uow.TransactionScope
	settings       tenant.SettingsProvider
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCashSessionService creates a new CashSessionService
func NewCashSessionService(scope uow.TransactionScope, settings tenant.SettingsProvider, logger *zap.Logger) *CashSessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings == nil {
		settings = tenant.StaticSettingsProvider{}
	}
	return &CashSessionService{
		scope:    scope,
		settings: settings,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CashSessionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Open starts a session. Fails with SessionAlreadyOpen if the tenant already has one.
func (s *CashSessionService) Open(ctx context.Context, tenantID, openedBy uuid.UUID, req OpenCashSessionRequest) (*CashSessionResponse, error) {
	session, err := cashier.OpenCashSession(tenantID, openedBy, req.OpeningAmount)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		existing, err := repos.CashSessions().FindOpen(ctx, tenantID)
		if err == nil {
			return shared.ErrSessionAlreadyOpen.WithDetail("session_id", existing.ID.String())
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return repos.CashSessions().Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cash session opened",
		zap.String("tenant_id", tenantID.String()),
		zap.String("session_id", session.ID.String()),
		zap.String("opened_by", openedBy.String()),
	)
	s.publish(ctx, session)
	response := ToCashSessionResponse(session)
	return &response, nil
}

// Close ends a session. Closing twice fails with InvalidTransition.
func (s *CashSessionService) Close(ctx context.Context, tenantID, sessionID, closedBy uuid.UUID, req CloseCashSessionRequest) (*CashSessionResponse, error) {
	var session *cashier.CashSession
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		session, err = repos.CashSessions().FindByID(ctx, tenantID, sessionID)
		if err != nil {
			return err
		}
		if err := session.Close(closedBy, req.ClosingAmount); err != nil {
			return err
		}
		return repos.CashSessions().SaveWithLock(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cash session closed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("session_id", sessionID.String()),
	)
	s.publish(ctx, session)
	response := ToCashSessionResponse(session)
	return &response, nil
}

// Current returns the tenant's open session
func (s *CashSessionService) Current(ctx context.Context, tenantID uuid.UUID) (*CashSessionResponse, error) {
	session, err := s.scope.Repositories().CashSessions().FindOpen(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	response := ToCashSessionResponse(session)
	return &response, nil
}

// RequireOpenSession is the sale gate. It returns the open session id, nil when
// none is open and the tenant does not require one, or NoOpenSession.
func (s *CashSessionService) RequireOpenSession(ctx context.Context, tenantID uuid.UUID) (*uuid.UUID, error) {
	settings, err := s.settings.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ResolveOpenSession(ctx, s.scope.Repositories().CashSessions(), tenantID, settings.RequireOpenCashSession)
}

// ResolveOpenSession looks up the open session and applies the tenant requirement
func ResolveOpenSession(ctx context.Context, sessions cashier.CashSessionRepository, tenantID uuid.UUID, required bool) (*uuid.UUID, error) {
	session, err := sessions.FindOpen(ctx, tenantID)
	if err == nil {
		id := session.ID
		return &id, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if required {
		return nil, shared.ErrNoOpenSession
	}
	return nil, nil
}

func (s *CashSessionService) publish(ctx context.Context, session *cashier.CashSession) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, shared.CollectEvents(session)...); err != nil {
		s.logger.Warn("failed to publish cash session events", zap.Error(err))
	}
}
