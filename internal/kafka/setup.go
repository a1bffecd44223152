package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Dhoini/Entitlement-service/pkg/logger"
	kafkaGo "github.com/segmentio/kafka-go"
)

// EnsureKafkaTopics проверяет и создает топики событий entitlement.
// Вызывается один раз при старте; отсутствие уже существующего топика
// в ответе на создание не считается ошибкой.
func EnsureKafkaTopics(brokers []string, log *logger.Logger) error {
	requiredTopics := map[string]kafkaGo.TopicConfig{
		TopicSubscriptionChanged: {
			Topic:             TopicSubscriptionChanged,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
		TopicGiftRedeemed: {
			Topic:             TopicGiftRedeemed,
			NumPartitions:     1,
			ReplicationFactor: 1,
		},
		TopicChildProvisioned: {
			Topic:             TopicChildProvisioned,
			NumPartitions:     1,
			ReplicationFactor: 1,
		},
	}

	if len(brokers) == 0 || brokers[0] == "" {
		log.Errorw("Kafka broker address is empty")
		return errors.New("kafka broker address is empty")
	}

	_, portStr, err := net.SplitHostPort(strings.TrimSpace(brokers[0]))
	if err != nil {
		log.Errorw("Invalid Kafka broker address format", "broker", brokers[0], "error", err)
		return fmt.Errorf("invalid broker address %s: %w", brokers[0], err)
	}
	if _, err = strconv.Atoi(portStr); err != nil {
		log.Errorw("Invalid Kafka broker port", "broker", brokers[0], "error", err)
		return fmt.Errorf("invalid broker port %s: %w", brokers[0], err)
	}

	connCtx, cancelConn := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelConn()

	conn, err := kafkaGo.DialLeader(connCtx, "tcp", brokers[0], "", 0)
	if err != nil {
		log.Errorw("Failed to connect to Kafka broker for topic creation", "broker", brokers[0], "error", err)
		return fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		log.Errorw("Failed to read partitions from Kafka", "error", err)
		return fmt.Errorf("kafka read partitions failed: %w", err)
	}

	existingTopics := make(map[string]bool)
	for _, p := range partitions {
		existingTopics[p.Topic] = true
	}

	var topicsToCreate []kafkaGo.TopicConfig
	for topicName, config := range requiredTopics {
		if !existingTopics[topicName] {
			topicsToCreate = append(topicsToCreate, config)
		}
	}

	if len(topicsToCreate) == 0 {
		log.Infow("All required Kafka topics already exist")
		return nil
	}

	if err := conn.CreateTopics(topicsToCreate...); err != nil {
		if errors.Is(err, kafkaGo.TopicAlreadyExists) {
			log.Warnw("One or more topics already existed during creation attempt")
			return nil
		}
		log.Errorw("Failed to create Kafka topics", "error", err)
		return fmt.Errorf("kafka create topics failed: %w", err)
	}

	names := make([]string, 0, len(topicsToCreate))
	for _, tc := range topicsToCreate {
		names = append(names, tc.Topic)
	}
	log.Infow("Created Kafka topics", "topics", names)

	return nil
}
