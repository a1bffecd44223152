package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/kafka"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"
)

// publishMaxRetries число повторов публикации при сбое брокера
const publishMaxRetries = 3

// SubscriptionChangedEvent событие изменения подписки аккаунта
type SubscriptionChangedEvent struct {
	AccountID string                    `json:"account_id"`
	Status    domain.SubscriptionStatus `json:"status"`
	Tier      domain.SubscriptionTier   `json:"tier,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
}

// GiftRedeemedEvent событие активации подарочной подписки
type GiftRedeemedEvent struct {
	GiftID    string                  `json:"gift_id"`
	AccountID string                  `json:"account_id"`
	Tier      domain.SubscriptionTier `json:"tier"`
	Timestamp time.Time               `json:"timestamp"`
}

// ChildProvisionedEvent событие создания управляемого детского аккаунта
type ChildProvisionedEvent struct {
	ParentID  string    `json:"parent_id"`
	ChildID   string    `json:"child_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EntitlementProducer интерфейс для отправки событий entitlement
type EntitlementProducer interface {
	PublishSubscriptionChanged(ctx context.Context, accountID string, status domain.SubscriptionStatus, tier domain.SubscriptionTier) error
	PublishGiftRedeemed(ctx context.Context, giftID, accountID string, tier domain.SubscriptionTier) error
	PublishChildProvisioned(ctx context.Context, parentID, childID string) error
	Close() error
}

type kafkaEntitlementProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaEntitlementProducer создает новый продюсер событий entitlement
func NewKafkaEntitlementProducer(producer sarama.SyncProducer, log *logger.Logger) EntitlementProducer {
	return &kafkaEntitlementProducer{
		producer: producer,
		log:      log,
	}
}

// PublishSubscriptionChanged публикует событие изменения подписки.
// Ключ сообщения - ID аккаунта: все события одного аккаунта попадают
// в одну партицию и сохраняют порядок.
func (p *kafkaEntitlementProducer) PublishSubscriptionChanged(ctx context.Context, accountID string, status domain.SubscriptionStatus, tier domain.SubscriptionTier) error {
	event := SubscriptionChangedEvent{
		AccountID: accountID,
		Status:    status,
		Tier:      tier,
		Timestamp: time.Now(),
	}
	return p.publishEvent(ctx, kafka.TopicSubscriptionChanged, accountID, event)
}

// PublishGiftRedeemed публикует событие активации подарка
func (p *kafkaEntitlementProducer) PublishGiftRedeemed(ctx context.Context, giftID, accountID string, tier domain.SubscriptionTier) error {
	event := GiftRedeemedEvent{
		GiftID:    giftID,
		AccountID: accountID,
		Tier:      tier,
		Timestamp: time.Now(),
	}
	return p.publishEvent(ctx, kafka.TopicGiftRedeemed, accountID, event)
}

// PublishChildProvisioned публикует событие создания детского аккаунта
func (p *kafkaEntitlementProducer) PublishChildProvisioned(ctx context.Context, parentID, childID string) error {
	event := ChildProvisionedEvent{
		ParentID:  parentID,
		ChildID:   childID,
		Timestamp: time.Now(),
	}
	return p.publishEvent(ctx, kafka.TopicChildProvisioned, parentID, event)
}

// publishEvent сериализует событие и отправляет его с повторами.
// Повторяются только сбои брокера; ошибка сериализации терминальна.
func (p *kafkaEntitlementProducer) publishEvent(ctx context.Context, topic, key string, event any) error {
	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal entitlement event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
		Timestamp: time.Now(),
	}

	operation := func() error {
		partition, offset, sendErr := p.producer.SendMessage(message)
		if sendErr != nil {
			p.log.Warnw("Failed to publish entitlement event, will retry", "topic", topic, "error", sendErr)
			return sendErr
		}
		p.log.Debugw("Published entitlement event", "topic", topic, "partition", partition, "offset", offset)
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), publishMaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("failed to publish entitlement event to %s: %w", topic, err)
	}

	return nil
}

// Close закрывает продюсер
func (p *kafkaEntitlementProducer) Close() error {
	return p.producer.Close()
}
