package kafka

import (
	"testing"

	"printshop/internal/config"
	"printshop/internal/logger"
	"printshop/internal/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
)

func TestPublishEvent(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	mp.ExpectSendMessageAndSucceed()

	event := models.Event{ID: uuid.New(), Type: models.EventTypeOrderCreated}
	p := &Producer{
		producer: mp,
		log:      logger.New(&config.LoggerConfig{Level: "error", Format: "json"}),
		topics:   &config.Topics{Orders: "orders"},
	}
	if err := p.publishEvent("orders", event); err != nil {
		t.Fatalf("expected publish success, got %v", err)
	}

	if err := mp.Close(); err != nil {
		t.Fatalf("failed to close mock producer: %v", err)
	}
}

func TestProducer_WrapperMethods(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	for i := 0; i < 6; i++ {
		mp.ExpectSendMessageAndSucceed()
	}

	p := &Producer{
		producer: mp,
		log:      logger.New(&config.LoggerConfig{Level: "error", Format: "json"}),
		topics:   &config.Topics{Orders: "orders", Discounts: "discounts", Users: "users"},
	}

	orderID := uuid.New()
	userID := uuid.New()
	order := &models.Order{ID: orderID, UserID: userID, ModelName: "bracket", Material: "pla", WeightGrams: 120, Amount: 10}
	code := &models.DiscountCode{ID: uuid.New(), Code: "SAVE10", DiscountType: models.DiscountTypePercent, DiscountValue: 10}

	if err := p.PublishOrderCreated(order); err != nil {
		t.Fatalf("PublishOrderCreated failed: %v", err)
	}
	if err := p.PublishOrderStatusChanged(orderID, models.OrderStatusPending, models.OrderStatusConfirmed); err != nil {
		t.Fatalf("PublishOrderStatusChanged failed: %v", err)
	}
	if err := p.PublishOrderDeleted(orderID); err != nil {
		t.Fatalf("PublishOrderDeleted failed: %v", err)
	}
	if err := p.PublishDiscountCreated(code); err != nil {
		t.Fatalf("PublishDiscountCreated failed: %v", err)
	}
	if err := p.PublishDiscountDeleted(code.ID, code.Code); err != nil {
		t.Fatalf("PublishDiscountDeleted failed: %v", err)
	}
	if err := p.PublishUserDeleted(userID); err != nil {
		t.Fatalf("PublishUserDeleted failed: %v", err)
	}
}

func TestProducer_PublishEvent_Failure(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := &Producer{
		producer: mp,
		log:      logger.New(&config.LoggerConfig{Level: "error", Format: "json"}),
		topics:   &config.Topics{Orders: "orders"},
	}

	ev := models.Event{ID: uuid.New(), Type: models.EventTypeOrderCreated}
	err := p.publishEvent("orders", ev)
	if err == nil {
		t.Fatalf("expected error on send failure")
	}
	_ = p.Close()
}

func TestNewProducer_Error(t *testing.T) {
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.KafkaConfig{Brokers: []string{"localhost:0"}}
	if _, err := NewProducer(cfg, log); err == nil {
		t.Fatalf("expected error creating producer")
	}
}

func TestProducer_CloseNil(t *testing.T) {
	var p *Producer
	if err := p.Close(); err != nil {
		t.Fatalf("expected nil error on nil producer")
	}
	p = &Producer{}
	if err := p.Close(); err != nil {
		t.Fatalf("expected nil error on empty producer, got %v", err)
	}
}
