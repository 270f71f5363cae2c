package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/config"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

const (
	contentTypeJSON = "application/json"
	source          = "cevicheria-pos"
)

// ServiceBusPublisher publishes domain events to an Azure Service Bus queue
type ServiceBusPublisher struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
}

// NewServiceBusPublisher creates a new Azure Service Bus publisher
func NewServiceBusPublisher(cfg config.ServiceBusConfig) (*ServiceBusPublisher, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("azure service bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		_ = client.Close(context.Background())
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &ServiceBusPublisher{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
	}, nil
}

// NewMessage builds the Service Bus message of an event
func NewMessage(evt *model.Event) (*azservicebus.Message, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	contentType := contentTypeJSON
	subject := evt.Type
	msg := &azservicebus.Message{
		Body:        data,
		ContentType: &contentType,
		Subject:     &subject,
		ApplicationProperties: map[string]interface{}{
			"source":        source,
			"business_date": evt.BusinessDate.String(),
			"time":          evt.OccurredAt.UTC().Format(time.RFC3339),
		},
	}
	if evt.OrderID != "" {
		id := evt.Type + ":" + evt.OrderID
		msg.MessageID = &id
	}
	return msg, nil
}

// PublishEvent sends an event to the queue
func (p *ServiceBusPublisher) PublishEvent(ctx context.Context, evt *model.Event) error {
	msg, err := NewMessage(evt)
	if err != nil {
		return err
	}
	if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", evt.Type, p.queueName, err)
	}
	return nil
}

// Close closes the sender and the client
func (p *ServiceBusPublisher) Close(ctx context.Context) error {
	if p.sender != nil {
		if err := p.sender.Close(ctx); err != nil {
			return err
		}
	}
	if p.client != nil {
		return p.client.Close(ctx)
	}
	return nil
}
