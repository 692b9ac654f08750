package events

import (
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/streadway/amqp"
)

// orderNotification is the part of an order event the consumer reads.
type orderNotification struct {
	OrderNumber   string `json:"order_number"`
	OwnerID       string `json:"owner_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	TotalAmount   string `json:"total_amount"`
}

// HandleOrderMessage logs an order event delivered by RabbitMQ. Malformed
// payloads are reported as errors so the message is rejected.
func HandleOrderMessage(msg amqp.Delivery) error {
	var n orderNotification
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		return fmt.Errorf("invalid order event payload: %w", err)
	}
	if n.OrderNumber == "" {
		return fmt.Errorf("order event %s has no order number", msg.MessageId)
	}
	log.Printf("Received %s for order %s (owner %s): status=%s payment=%s total=%s",
		msg.RoutingKey, n.OrderNumber, n.OwnerID, n.Status, n.PaymentStatus, n.TotalAmount)
	return nil
}
