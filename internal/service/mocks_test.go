package service

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

// Ручные фейки коллабораторов. Поведение настраивается полями,
// вызовы записываются для проверок.

type fakeAccountRepo struct {
	accounts map[uuid.UUID]*domain.Account

	billingUpdates []domain.BillingUpdate
	billingTargets []uuid.UUID
	attachedRefs   map[uuid.UUID][2]string
	trialStarts    map[uuid.UUID]time.Time
	created        []*domain.Account

	childCount int
	usedSlugs  map[string]bool

	getErr        error
	updateErr     error
	createErr     error
	setTrialErr   error
	slugExistsErr error
	countErr      error
	attachRefsErr error
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{
		accounts:     make(map[uuid.UUID]*domain.Account),
		attachedRefs: make(map[uuid.UUID][2]string),
		trialStarts:  make(map[uuid.UUID]time.Time),
		usedSlugs:    make(map[string]bool),
	}
	for _, acc := range accounts {
		r.accounts[acc.ID] = acc
	}
	return r
}

func (r *fakeAccountRepo) Create(_ context.Context, acc *domain.Account) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, acc)
	r.accounts[acc.ID] = acc
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	acc, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r *fakeAccountRepo) UpdateBilling(_ context.Context, id uuid.UUID, upd domain.BillingUpdate) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.billingTargets = append(r.billingTargets, id)
	r.billingUpdates = append(r.billingUpdates, upd)
	return nil
}

func (r *fakeAccountRepo) AttachPaymentRefs(_ context.Context, id uuid.UUID, customerRef, subscriptionRef string) error {
	if r.attachRefsErr != nil {
		return r.attachRefsErr
	}
	r.attachedRefs[id] = [2]string{customerRef, subscriptionRef}
	return nil
}

func (r *fakeAccountRepo) SetTrialStart(_ context.Context, id uuid.UUID, start time.Time) error {
	if r.setTrialErr != nil {
		return r.setTrialErr
	}
	r.trialStarts[id] = start
	return nil
}

func (r *fakeAccountRepo) CountManagedChildren(_ context.Context, _ uuid.UUID) (int, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.childCount, nil
}

func (r *fakeAccountRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	if r.slugExistsErr != nil {
		return false, r.slugExistsErr
	}
	return r.usedSlugs[slug], nil
}

type fakeGiftRepo struct {
	gifts map[uuid.UUID]*domain.GiftSubscription

	created []*domain.GiftSubscription

	createErr error
	getErr    error
	markErr   error
}

func newFakeGiftRepo(gifts ...*domain.GiftSubscription) *fakeGiftRepo {
	r := &fakeGiftRepo{gifts: make(map[uuid.UUID]*domain.GiftSubscription)}
	for _, g := range gifts {
		r.gifts[g.ID] = g
	}
	return r
}

func (r *fakeGiftRepo) Create(_ context.Context, gift *domain.GiftSubscription) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, gift)
	r.gifts[gift.ID] = gift
	return nil
}

func (r *fakeGiftRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.GiftSubscription, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	g, ok := r.gifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGiftRepo) MarkRedeemed(_ context.Context, id uuid.UUID, redeemedBy uuid.UUID, redeemedAt time.Time) error {
	if r.markErr != nil {
		return r.markErr
	}
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

type fakeGateway struct {
	subs map[string]domain.GatewaySubscription

	getErr      error
	checkoutURL string
	checkoutErr error
	portalURL   string
	portalErr   error

	checkoutCalls     int
	giftCheckoutCalls int
}

func (g *fakeGateway) GetSubscription(_ context.Context, ref string) (domain.GatewaySubscription, error) {
	if g.getErr != nil {
		return domain.GatewaySubscription{}, g.getErr
	}
	sub, ok := g.subs[ref]
	if !ok {
		return domain.GatewaySubscription{}, domain.NewUpstreamError("stripe", "get subscription", domain.ErrNotFound)
	}
	return sub, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, _, _, _ string) (string, error) {
	g.checkoutCalls++
	return g.checkoutURL, g.checkoutErr
}

func (g *fakeGateway) CreateGiftCheckoutSession(_ context.Context, _, _ string, _ domain.SubscriptionTier) (string, error) {
	g.giftCheckoutCalls++
	return g.checkoutURL, g.checkoutErr
}

func (g *fakeGateway) CreatePortalSession(_ context.Context, _ string) (string, error) {
	return g.portalURL, g.portalErr
}

type fakeVerifier struct {
	event domain.BillingEvent
	err   error
}

func (v *fakeVerifier) VerifyAndParse(_ []byte, _ string) (domain.BillingEvent, error) {
	return v.event, v.err
}

type publishedChange struct {
	accountID string
	status    domain.SubscriptionStatus
	tier      domain.SubscriptionTier
}

type fakePublisher struct {
	changes  []publishedChange
	gifts    []string
	children []string
	err      error
}

func (p *fakePublisher) PublishSubscriptionChanged(_ context.Context, accountID string, status domain.SubscriptionStatus, tier domain.SubscriptionTier) error {
	p.changes = append(p.changes, publishedChange{accountID: accountID, status: status, tier: tier})
	return p.err
}

func (p *fakePublisher) PublishGiftRedeemed(_ context.Context, giftID, _ string, _ domain.SubscriptionTier) error {
	p.gifts = append(p.gifts, giftID)
	return p.err
}

func (p *fakePublisher) PublishChildProvisioned(_ context.Context, _, childID string) error {
	p.children = append(p.children, childID)
	return p.err
}

type fakeIdentity struct {
	credentialID string
	createdAddrs []string
	deletedIDs   []string
	createErr    error
	deleteErr    error
}

func (i *fakeIdentity) CreateCredential(_ context.Context, address, _ string) (string, error) {
	if i.createErr != nil {
		return "", i.createErr
	}
	i.createdAddrs = append(i.createdAddrs, address)
	return i.credentialID, nil
}

func (i *fakeIdentity) DeleteCredential(_ context.Context, credentialID string) error {
	i.deletedIDs = append(i.deletedIDs, credentialID)
	return i.deleteErr
}

func testMetrics() metrics.EntitlementMetrics {
	return metrics.NewEntitlementMetrics(prometheus.NewRegistry(), logger.NewNop())
}
