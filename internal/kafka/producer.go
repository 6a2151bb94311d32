package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"printshop/internal/config"
	"printshop/internal/logger"
	"printshop/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer публикует доменные события в Kafka
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает нового продюсера Kafka
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info("Successfully connected to Kafka")

	return &Producer{
		producer: producer,
		log:      log,
		topics:   &cfg.Topics,
	}, nil
}

// Close закрывает продюсер
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// publishEvent сериализует событие и отправляет его в топик
func (p *Producer) publishEvent(topic string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.ID.String()),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}

	p.log.WithFields(map[string]interface{}{
		"topic":     topic,
		"type":      event.Type,
		"partition": partition,
		"offset":    offset,
	}).Debug("Event published to Kafka")

	return nil
}

func newEvent(eventType models.EventType, payload interface{}) (models.Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return models.Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// PublishOrderCreated публикует событие создания заказа
func (p *Producer) PublishOrderCreated(order *models.Order) error {
	event, err := newEvent(models.EventTypeOrderCreated, order)
	if err != nil {
		return err
	}
	return p.publishEvent(p.topics.Orders, event)
}

// PublishOrderStatusChanged публикует событие смены статуса заказа
func (p *Producer) PublishOrderStatusChanged(orderID uuid.UUID, oldStatus, newStatus models.OrderStatus) error {
	event, err := newEvent(models.EventTypeOrderStatusChanged, models.OrderStatusChangedData{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
	if err != nil {
		return err
	}
	return p.publishEvent(p.topics.Orders, event)
}

// PublishOrderDeleted публикует событие удаления заказа
func (p *Producer) PublishOrderDeleted(orderID uuid.UUID) error {
	event, err := newEvent(models.EventTypeOrderDeleted, map[string]interface{}{
		"order_id": orderID,
	})
	if err != nil {
		return err
	}
	return p.publishEvent(p.topics.Orders, event)
}

// PublishDiscountCreated публикует событие создания кода скидки
func (p *Producer) PublishDiscountCreated(code *models.DiscountCode) error {
	event, err := newEvent(models.EventTypeDiscountCreated, code)
	if err != nil {
		return err
	}
	return p.publishEvent(p.topics.Discounts, event)
}

// PublishDiscountDeleted публикует событие удаления кода скидки
func (p *Producer) PublishDiscountDeleted(codeID uuid.UUID, code string) error {
	event, err := newEvent(models.EventTypeDiscountDeleted, map[string]interface{}{
		"discount_id": codeID,
		"code":        code,
	})
	if err != nil {
		return err
	}
	return p.publishEvent(p.topics.Discounts, event)
}

// PublishUserDeleted публикует событие удаления пользователя
func (p *Producer) PublishUserDeleted(userID uuid.UUID) error {
	event, err := newEvent(models.EventTypeUserDeleted, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		return err
	}
	return p.publishEvent(p.topics.Users, event)
}
