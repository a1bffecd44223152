package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/entitlement"
	"github.com/Dhoini/Entitlement-service/internal/metrics"
	"github.com/Dhoini/Entitlement-service/internal/repository"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/google/uuid"
)

// EntitlementService отвечает на вопрос "есть ли у аккаунта доступ сейчас".
// Само вычисление чистое; единственный побочный эффект сервиса -
// ленивое проставление trial_start при первой проверке.
type EntitlementService struct {
	accountRepo repository.AccountRepository
	metrics     metrics.EntitlementMetrics
	trialDays   int
	log         *logger.Logger
	now         func() time.Time
}

// NewEntitlementService конструктор сервиса проверки доступа
func NewEntitlementService(
	accountRepo repository.AccountRepository,
	m metrics.EntitlementMetrics,
	trialDays int,
	log *logger.Logger,
) *EntitlementService {
	if trialDays <= 0 {
		trialDays = domain.TrialDays
	}
	return &EntitlementService{
		accountRepo: accountRepo,
		metrics:     m,
		trialDays:   trialDays,
		log:         log,
		now:         time.Now,
	}
}

// Check возвращает решение о доступе для аккаунта.
// Если триальный аккаунт проверяется впервые, trial_start проставляется
// текущим моментом; ошибка проставления только логируется, проверка при
// этом все равно отвечает (следующая проверка повторит запись).
func (s *EntitlementService) Check(ctx context.Context, accountID uuid.UUID) (domain.Entitlement, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Entitlement{}, domain.NewNotFoundError("account", accountID.String())
		}
		return domain.Entitlement{}, domain.NewPersistenceError("account", "get", err)
	}

	now := s.now()

	if acc.SubscriptionStatus == domain.SubscriptionStatusTrialing && acc.TrialStart == nil {
		if err := s.accountRepo.SetTrialStart(ctx, acc.ID, now); err != nil {
			s.log.Errorw("Failed to stamp trial start", "accountID", acc.ID, "error", err)
		} else {
			s.log.Infow("Trial started", "accountID", acc.ID)
		}
		start := now
		acc.TrialStart = &start
	}

	ent := entitlement.Calculate(*acc, now, s.trialDays)
	s.metrics.IncEntitlementCheck(ent.HasActiveAccess)
	return ent, nil
}
