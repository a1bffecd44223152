package handlers

import (
	"context"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/metrics"
	"github.com/Dhoini/Entitlement-service/internal/repository"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Фейки хранилищ и коллабораторов для HTTP-тестов

type memAccountRepo struct {
	accounts map[uuid.UUID]*domain.Account
	updates  []domain.BillingUpdate
}

func newMemAccountRepo(accounts ...*domain.Account) *memAccountRepo {
	r := &memAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
	for _, acc := range accounts {
		r.accounts[acc.ID] = acc
	}
	return r
}

func (r *memAccountRepo) Create(_ context.Context, acc *domain.Account) error {
	r.accounts[acc.ID] = acc
	return nil
}

func (r *memAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r *memAccountRepo) UpdateBilling(_ context.Context, _ uuid.UUID, upd domain.BillingUpdate) error {
	r.updates = append(r.updates, upd)
	return nil
}

func (r *memAccountRepo) AttachPaymentRefs(_ context.Context, _ uuid.UUID, _, _ string) error {
	return nil
}

func (r *memAccountRepo) SetTrialStart(_ context.Context, id uuid.UUID, start time.Time) error {
	if acc, ok := r.accounts[id]; ok && acc.TrialStart == nil {
		acc.TrialStart = &start
	}
	return nil
}

func (r *memAccountRepo) CountManagedChildren(_ context.Context, _ uuid.UUID) (int, error) {
	return 0, nil
}

func (r *memAccountRepo) SlugExists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

type memGiftRepo struct {
	gifts map[uuid.UUID]*domain.GiftSubscription
}

func newMemGiftRepo(gifts ...*domain.GiftSubscription) *memGiftRepo {
	r := &memGiftRepo{gifts: make(map[uuid.UUID]*domain.GiftSubscription)}
	for _, g := range gifts {
		r.gifts[g.ID] = g
	}
	return r
}

func (r *memGiftRepo) Create(_ context.Context, gift *domain.GiftSubscription) error {
	r.gifts[gift.ID] = gift
	return nil
}

func (r *memGiftRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.GiftSubscription, error) {
	g, ok := r.gifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *memGiftRepo) MarkRedeemed(_ context.Context, id uuid.UUID, redeemedBy uuid.UUID, redeemedAt time.Time) error {
	g, ok := r.gifts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if g.Status != domain.GiftStatusPending {
		return repository.ErrAlreadyRedeemed
	}
	g.Status = domain.GiftStatusRedeemed
	g.RedeemedByAccountID = &redeemedBy
	g.RedeemedAt = &redeemedAt
	return nil
}

type stubVerifier struct {
	event domain.BillingEvent
	err   error
}

func (v *stubVerifier) VerifyAndParse(_ []byte, _ string) (domain.BillingEvent, error) {
	return v.event, v.err
}

type stubGateway struct {
	sub domain.GatewaySubscription
	err error
}

func (g *stubGateway) GetSubscription(_ context.Context, _ string) (domain.GatewaySubscription, error) {
	return g.sub, g.err
}

func (g *stubGateway) CreateCheckoutSession(_ context.Context, _, _, _ string) (string, error) {
	return "https://checkout.example/cs_1", nil
}

func (g *stubGateway) CreateGiftCheckoutSession(_ context.Context, _, _ string, _ domain.SubscriptionTier) (string, error) {
	return "https://checkout.example/cs_gift", nil
}

func (g *stubGateway) CreatePortalSession(_ context.Context, _ string) (string, error) {
	return "https://portal.example/ps_1", nil
}

func testMetrics() metrics.EntitlementMetrics {
	return metrics.NewEntitlementMetrics(prometheus.NewRegistry(), logger.NewNop())
}
