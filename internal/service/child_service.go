package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/metrics"
	"github.com/Dhoini/Entitlement-service/internal/repository"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/Dhoini/Entitlement-service/pkg/slug"

	"github.com/google/uuid"
)

// slugAttempts число попыток подбора свободного slug-а
const slugAttempts = 5

// pinPattern PIN состоит ровно из четырех цифр
var pinPattern = regexp.MustCompile(`^\d{4}$`)

// ChildService создает управляемые детские аккаунты.
// Детский аккаунт логинится не по email, а по синтетическому адресу из
// slug-а, и наследует право доступа от родителя, поэтому всегда active.
type ChildService struct {
	accountRepo repository.AccountRepository
	identity    IdentityProvider
	publisher   EventPublisher
	metrics     metrics.EntitlementMetrics
	maxChildren int
	emailDomain string
	newSlug     func(name string) string
	log         *logger.Logger
	now         func() time.Time
}

// NewChildService конструктор сервиса детских аккаунтов
func NewChildService(
	accountRepo repository.AccountRepository,
	identity IdentityProvider,
	publisher EventPublisher,
	m metrics.EntitlementMetrics,
	maxChildren int,
	emailDomain string,
	log *logger.Logger,
) *ChildService {
	return &ChildService{
		accountRepo: accountRepo,
		identity:    identity,
		publisher:   publisher,
		metrics:     m,
		maxChildren: maxChildren,
		emailDomain: emailDomain,
		newSlug:     slug.Make,
		log:         log,
		now:         time.Now,
	}
}

// CreateChild создает управляемый детский аккаунт под родителем.
// Порядок шагов: валидация, лимит, подбор slug-а, учетные данные во
// внешнем identity-провайдере, локальная запись. Если локальная запись
// не удалась, учетные данные удаляются компенсирующим вызовом.
func (s *ChildService) CreateChild(ctx context.Context, parentID uuid.UUID, name, pin string) (*domain.ChildAccount, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}
	if !pinPattern.MatchString(pin) {
		return nil, domain.NewValidationError("pin", "must be exactly 4 digits")
	}

	parent, err := s.accountRepo.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFoundError("account", parentID.String())
		}
		return nil, domain.NewPersistenceError("account", "get", err)
	}
	if parent.IsManagedChild {
		return nil, domain.NewValidationError("parent", "managed child cannot create children")
	}

	count, err := s.accountRepo.CountManagedChildren(ctx, parent.ID)
	if err != nil {
		return nil, domain.NewPersistenceError("account", "count managed children", err)
	}
	if count >= s.maxChildren {
		return nil, domain.ErrChildLimitReached
	}

	childSlug, err := s.pickSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	// Синтетический логин ребенка; PIN удваивается до минимальной длины
	// пароля identity-провайдера
	address := childSlug + "@" + s.emailDomain
	credentialID, err := s.identity.CreateCredential(ctx, address, pin+pin)
	if err != nil {
		s.log.Errorw("Failed to create child credential", "parentID", parent.ID, "error", err)
		return nil, err
	}

	childID, err := uuid.Parse(credentialID)
	if err != nil {
		childID = uuid.New()
	}

	nowTs := s.now()
	child := &domain.Account{
		ID:                 childID,
		Email:              address,
		SubscriptionStatus: domain.SubscriptionStatusActive,
		IsManagedChild:     true,
		ManagedByAccountID: &parent.ID,
		FamilyID:           parent.FamilyID,
		FamilyRole:         domain.FamilyRoleMember,
		Slug:               childSlug,
		CreatedAt:          nowTs,
		UpdatedAt:          nowTs,
	}

	if err := s.accountRepo.Create(ctx, child); err != nil {
		// Компенсация: учетные данные без локального аккаунта бесполезны
		if delErr := s.identity.DeleteCredential(ctx, credentialID); delErr != nil {
			s.log.Errorw("Failed to compensate child credential", "credentialID", credentialID, "error", delErr)
		}
		return nil, domain.NewPersistenceError("account", "create child", err)
	}

	s.log.Infow("Managed child account created", "parentID", parent.ID, "childID", child.ID, "slug", childSlug)
	s.metrics.IncChildProvisioned()

	if s.publisher != nil {
		if err := s.publisher.PublishChildProvisioned(ctx, parent.ID.String(), child.ID.String()); err != nil {
			s.log.Errorw("Failed to publish child provisioned event", "childID", child.ID, "error", err)
		}
	}

	return &domain.ChildAccount{
		AccountID: child.ID,
		Name:      name,
		Slug:      childSlug,
	}, nil
}

// pickSlug подбирает свободный slug за ограниченное число попыток.
// Случайный суффикс делает коллизии редкими, поэтому исчерпание попыток
// говорит о проблеме с данными, а не о невезении.
func (s *ChildService) pickSlug(ctx context.Context, name string) (string, error) {
	for i := 0; i < slugAttempts; i++ {
		candidate := s.newSlug(name)
		exists, err := s.accountRepo.SlugExists(ctx, candidate)
		if err != nil {
			return "", domain.NewPersistenceError("account", "check slug", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", domain.ErrSlugExhausted
}
