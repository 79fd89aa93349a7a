package queue

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

const ticketQueueName = "ticket.events"

// Publisher sends TicketEvents to the ticket.events queue.  A nil
// Publisher (or one constructed with an empty URL) silently drops every
// event, so callers never need to branch on whether the broker is
// configured.
type Publisher struct {
    url string
}

// NewPublisher returns a Publisher for the given AMQP URL, or nil when
// the URL is empty.
func NewPublisher(url string) *Publisher {
    if url == "" {
        return nil
    }
    return &Publisher{url: url}
}

// Publish delivers one event to the broker.  The function never panics;
// any error is logged and returned so the caller can choose to ignore
// it.  Messages are marked persistent so they survive broker restarts.
func (p *Publisher) Publish(ctx context.Context, event TicketEvent) error {
    if p == nil {
        return nil
    }
    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent).  Durable so messages survive
    // broker restarts.
    if _, err := ch.QueueDeclare(
        ticketQueueName, // name
        true,            // durable
        false,           // autoDelete
        false,           // exclusive
        false,           // noWait
        nil,             // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",              // default exchange
        ticketQueueName, // routing key = queue name
        false,           // mandatory
        false,           // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }

    return nil
}
