package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/repository"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/google/uuid"
)

// BillingService создает исходящие сессии платежного шлюза.
// Сам по себе ничего в биллинговых полях не меняет: результат checkout
// приходит обратно асинхронно через вебхук.
type BillingService struct {
	gateway        PaymentGateway
	accountRepo    repository.AccountRepository
	monthlyPriceID string
	annualPriceID  string
	log            *logger.Logger
}

// NewBillingService конструктор биллингового сервиса
func NewBillingService(
	gateway PaymentGateway,
	accountRepo repository.AccountRepository,
	monthlyPriceID, annualPriceID string,
	log *logger.Logger,
) *BillingService {
	return &BillingService{
		gateway:        gateway,
		accountRepo:    accountRepo,
		monthlyPriceID: monthlyPriceID,
		annualPriceID:  annualPriceID,
		log:            log,
	}
}

// CreateCheckout создает checkout-сессию подписки и возвращает ее URL
func (s *BillingService) CreateCheckout(ctx context.Context, accountID uuid.UUID, tier domain.SubscriptionTier) (string, error) {
	acc, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if acc.IsManagedChild {
		return "", domain.NewValidationError("account", "managed child cannot purchase a subscription")
	}

	priceID := s.monthlyPriceID
	if tier == domain.SubscriptionTierAnnual {
		priceID = s.annualPriceID
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, acc.ID.String(), acc.Email, priceID)
	if err != nil {
		s.log.Errorw("Failed to create checkout session", "accountID", acc.ID, "error", err)
		return "", err
	}

	s.log.Infow("Checkout session created", "accountID", acc.ID, "tier", tier)
	return url, nil
}

// CreateGiftCheckout создает разовую checkout-сессию подарка.
// Получатель задается email-ом и может еще не иметь аккаунта.
func (s *BillingService) CreateGiftCheckout(ctx context.Context, purchaserID uuid.UUID, recipientEmail string, tier domain.SubscriptionTier) (string, error) {
	recipientEmail = strings.TrimSpace(recipientEmail)
	if recipientEmail == "" || !strings.Contains(recipientEmail, "@") {
		return "", domain.NewValidationError("recipientEmail", "must be a valid email address")
	}

	purchaser, err := s.loadAccount(ctx, purchaserID)
	if err != nil {
		return "", err
	}

	url, err := s.gateway.CreateGiftCheckoutSession(ctx, purchaser.ID.String(), recipientEmail, tier)
	if err != nil {
		s.log.Errorw("Failed to create gift checkout session", "purchaserID", purchaser.ID, "error", err)
		return "", err
	}

	s.log.Infow("Gift checkout session created", "purchaserID", purchaser.ID, "tier", tier)
	return url, nil
}

// CreatePortal создает сессию портала самообслуживания биллинга.
// Доступен только аккаунтам, уже имеющим клиента в платежном шлюзе.
func (s *BillingService) CreatePortal(ctx context.Context, accountID uuid.UUID) (string, error) {
	acc, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if acc.PaymentCustomerRef == "" {
		return "", domain.NewValidationError("account", "no billing customer attached")
	}

	url, err := s.gateway.CreatePortalSession(ctx, acc.PaymentCustomerRef)
	if err != nil {
		s.log.Errorw("Failed to create portal session", "accountID", acc.ID, "error", err)
		return "", err
	}

	return url, nil
}

func (s *BillingService) loadAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFoundError("account", id.String())
		}
		return nil, domain.NewPersistenceError("account", "get", err)
	}
	return acc, nil
}
