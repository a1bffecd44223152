package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/metrics"
	"github.com/Dhoini/Entitlement-service/internal/repository"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/google/uuid"
)

// GiftService управляет жизненным циклом подарочных подписок.
// Запись подарка создает обработчик вебхуков; здесь выполняется активация.
type GiftService struct {
	giftRepo    repository.GiftRepository
	accountRepo repository.AccountRepository
	publisher   EventPublisher
	metrics     metrics.EntitlementMetrics
	log         *logger.Logger
	now         func() time.Time
}

// NewGiftService конструктор сервиса подарочных подписок
func NewGiftService(
	giftRepo repository.GiftRepository,
	accountRepo repository.AccountRepository,
	publisher EventPublisher,
	m metrics.EntitlementMetrics,
	log *logger.Logger,
) *GiftService {
	return &GiftService{
		giftRepo:    giftRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

// Redeem активирует подарок для аккаунта. email это подтвержденный адрес
// активирующего, переданный вызывающей стороной.
// Проверки идут по лестнице: существование подарка, статус pending,
// совпадение email получателя (без учета регистра). Переход статуса
// выполняется условным обновлением до записи гранта, поэтому два
// конкурентных вызова дают ровно один успех.
func (s *GiftService) Redeem(ctx context.Context, giftID, accountID uuid.UUID, email string) (*domain.GiftSubscription, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFoundError("account", accountID.String())
		}
		return nil, domain.NewPersistenceError("account", "get", err)
	}

	gift, err := s.giftRepo.GetByID(ctx, giftID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.IncGiftRedemption("not_found")
			return nil, domain.NewNotFoundError("gift", giftID.String())
		}
		return nil, domain.NewPersistenceError("gift", "get", err)
	}

	if gift.Status != domain.GiftStatusPending {
		s.metrics.IncGiftRedemption("already_redeemed")
		return nil, domain.ErrAlreadyRedeemed
	}

	if !strings.EqualFold(gift.RecipientEmail, email) {
		s.log.Warnw("Gift redemption email mismatch", "giftID", gift.ID, "accountID", acc.ID)
		s.metrics.IncGiftRedemption("email_mismatch")
		return nil, domain.ErrEmailMismatch
	}

	redeemedAt := s.now()
	if err := s.giftRepo.MarkRedeemed(ctx, gift.ID, acc.ID, redeemedAt); err != nil {
		if errors.Is(err, repository.ErrAlreadyRedeemed) {
			// Конкурентная активация успела раньше
			s.metrics.IncGiftRedemption("already_redeemed")
			return nil, domain.ErrAlreadyRedeemed
		}
		return nil, domain.NewPersistenceError("gift", "mark redeemed", err)
	}

	// Грант пишется только после успешного перехода pending -> redeemed.
	// Подарок перекрывает текущее состояние аккаунта независимо от него.
	expiry := redeemedAt.Add(gift.GrantDuration())
	tier := gift.Tier
	upd := domain.BillingUpdate{
		Status:           domain.SubscriptionStatusActive,
		Tier:             &tier,
		CurrentPeriodEnd: &expiry,
	}
	if err := s.accountRepo.UpdateBilling(ctx, acc.ID, upd); err != nil {
		return nil, domain.NewPersistenceError("account", "update billing", err)
	}

	gift.Status = domain.GiftStatusRedeemed
	gift.RedeemedAt = &redeemedAt
	gift.RedeemedByAccountID = &acc.ID
	gift.UpdatedAt = redeemedAt

	s.log.Infow("Gift redeemed", "giftID", gift.ID, "accountID", acc.ID, "tier", gift.Tier, "expiresAt", expiry)
	s.metrics.IncGiftRedemption("redeemed")

	if s.publisher != nil {
		if err := s.publisher.PublishGiftRedeemed(ctx, gift.ID.String(), acc.ID.String(), gift.Tier); err != nil {
			s.log.Errorw("Failed to publish gift redeemed event", "giftID", gift.ID, "error", err)
		}
	}

	return gift, nil
}
