package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartDecisionConsumer connects to RabbitMQ, declares the
// application.processed queue (durable), and starts consuming messages.
// Each decision is appended to logs/decisions.log in a single-line,
// human-friendly format so operators have an audit trail of admin actions
// outside the primary database. The function runs a reconnect loop and
// keeps running on processing errors, rejecting the offending message so
// the server continues operating.
func StartDecisionConsumer() {
	url := brokerURL("")

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("decision-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeDecisions(conn); err != nil {
			log.Printf("decision-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeDecisions(conn *amqp.Connection) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(ProcessedQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	deliveries, err := ch.Consume(ProcessedQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for d := range deliveries {
		var ev ApplicationProcessedEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Printf("decision-consumer: bad message: %v", err)
			_ = d.Reject(false)
			continue
		}
		if err := appendDecisionLog(ev); err != nil {
			log.Printf("decision-consumer: write log: %v", err)
			// the message is requeued; pause so a broken log sink does
			// not turn into a hot redeliver loop
			time.Sleep(time.Second)
			_ = d.Reject(true)
			continue
		}
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}

func appendDecisionLog(ev ApplicationProcessedEvent) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join("logs", "decisions.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf("%s application=%d user=%d status=%s admin=%d",
		ev.ProcessedAt, ev.ApplicationID, ev.UserID, ev.Status, ev.AdminID)
	if ev.RejectionReason != "" {
		line += " reason=" + ev.RejectionReason
	}
	_, err = fmt.Fprintln(f, line)
	return err
}
