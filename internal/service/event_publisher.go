// Package service publishes auth audit events to RabbitMQ.  Publishing is
// best effort: errors are logged and returned so callers can ignore them
// without interrupting the request.
package service

import (
    "context"
    "encoding/json"
    "time"

    "github.com/labstack/echo/v4"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/project-hub/internal/queue"
)

// EventPublisher sends auth events somewhere.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.AuthEvent) error
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.AuthEvent) error { return nil }

// AMQPPublisher dials the broker per publish, declares the durable queue
// and sends a persistent JSON message.
type AMQPPublisher struct {
    URL    string
    Logger echo.Logger
}

// NewPublisher returns an AMQPPublisher for url, or NopPublisher when url
// is empty.
func NewPublisher(url string, logger echo.Logger) EventPublisher {
    if url == "" {
        return NopPublisher{}
    }
    return &AMQPPublisher{URL: url, Logger: logger}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.AuthEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Logger.Warnf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Logger.Warnf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so events survive broker restarts.
    if _, err := ch.QueueDeclare(queue.QueueName, true, false, false, false, nil); err != nil {
        p.Logger.Warnf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queue.QueueName, false, false, pub); err != nil {
        p.Logger.Warnf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}

// PublishAsync publishes ev in the background with a bounded timeout so a
// slow or absent broker never delays the response.
func PublishAsync(p EventPublisher, ev queue.AuthEvent) {
    if p == nil {
        return
    }
    if ev.At.IsZero() {
        ev.At = time.Now().UTC()
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = p.Publish(ctx, ev)
    }()
}
