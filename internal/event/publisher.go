package event

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"board-champions/internal/models"

	"github.com/rabbitmq/amqp091-go"
)

type Publisher interface {
	PublishCandidateEvent(event *models.CandidateEvent) error
	PublishCreditEvent(event *models.CreditEvent) error
	Close() error
}

type EventPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
}

func NewEventPublisher(rabbitURI string) (*EventPublisher, error) {
	if rabbitURI == "" {
		log.Println("Warning: RabbitMQ URI is empty, event publishing is disabled")
		return &EventPublisher{
			exchange: "candidate.events",
			enabled:  false,
		}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	exchange := "candidate.events"
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Printf("Event publisher initialized with exchange: %s", exchange)

	return &EventPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		enabled:  true,
	}, nil
}

func (p *EventPublisher) PublishCandidateEvent(event *models.CandidateEvent) error {
	if !p.enabled {
		log.Printf("Event publishing disabled, skipping event: %s", event.EventType)
		return nil
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.publish(string(event.EventType), eventData, amqp091.Table{
		"event_type": string(event.EventType),
		"profile_id": event.ProfileID,
		"user_id":    event.UserID,
	})
}

func (p *EventPublisher) PublishCreditEvent(event *models.CreditEvent) error {
	if !p.enabled {
		log.Printf("Event publishing disabled, skipping event: %s", event.EventType)
		return nil
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.publish(string(event.EventType), eventData, amqp091.Table{
		"event_type": string(event.EventType),
		"user_id":    event.UserID,
	})
}

func (p *EventPublisher) publish(routingKey string, body []byte, headers amqp091.Table) error {
	err := p.channel.Publish(
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			Headers:      headers,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Printf("Published event with routing key: %s", routingKey)
	return nil
}

func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.Printf("Error closing RabbitMQ channel: %v", err)
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}

	return nil
}

type MockPublisher struct {
	CandidateEvents []models.CandidateEvent
	CreditEvents    []models.CreditEvent
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		CandidateEvents: make([]models.CandidateEvent, 0),
		CreditEvents:    make([]models.CreditEvent, 0),
	}
}

func (m *MockPublisher) PublishCandidateEvent(event *models.CandidateEvent) error {
	m.CandidateEvents = append(m.CandidateEvents, *event)
	return nil
}

func (m *MockPublisher) PublishCreditEvent(event *models.CreditEvent) error {
	m.CreditEvents = append(m.CreditEvents, *event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}
