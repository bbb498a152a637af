// Package pubsub publica los eventos del núcleo (movimientos del libro, cambios de estado
// de pedidos, conteos contabilizados) hacia Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/pkg/config"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

// Publisher envía cada evento al tópico de su tipo, con la clave del evento como ordering key
// para que los movimientos de un mismo artículo lleguen en orden de secuencia.
type Publisher struct {
	client  *gpubsub.Client
	topics  map[entity.EventType]*gpubsub.Topic
	timeout time.Duration
	log     *logger.Logger
}

// NewClient crea el cliente con credenciales JSON explícitas o con las credenciales por defecto.
func NewClient(ctx context.Context, cfg config.PubSubConfig) (*gpubsub.Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID no definido")
	}
	if cfg.CredentialsJSON != "" {
		return gpubsub.NewClient(ctx, cfg.ProjectID, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	return gpubsub.NewClient(ctx, cfg.ProjectID)
}

// NewPublisher asocia los tópicos configurados a cada tipo de evento.
func NewPublisher(client *gpubsub.Client, cfg config.PubSubConfig, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	movements := client.Topic(cfg.MovementsTopic)
	movements.EnableMessageOrdering = true
	orders := client.Topic(cfg.OrdersTopic)
	orders.EnableMessageOrdering = true

	return &Publisher{
		client: client,
		topics: map[entity.EventType]*gpubsub.Topic{
			entity.EventMovementPosted:     movements,
			entity.EventCountPosted:        movements,
			entity.EventOrderStatusChanged: orders,
		},
		timeout: 10 * time.Second,
		log:     log.Component("pubsub"),
	}
}

// Publish publica todos los eventos y espera la confirmación de cada uno.
// Devuelve el primer error; los demás se registran.
func (p *Publisher) Publish(ctx context.Context, events ...entity.Event) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	results := make([]*gpubsub.PublishResult, 0, len(events))
	for _, ev := range events {
		topic, ok := p.topics[ev.EventType()]
		if !ok {
			return fmt.Errorf("sin tópico para evento %s", ev.EventType())
		}
		msg, err := Encode(ev)
		if err != nil {
			return err
		}
		results = append(results, topic.Publish(ctx, msg))
	}

	var first error
	for i, r := range results {
		id, err := r.Get(ctx)
		if err != nil {
			p.log.Error().Err(err).Str("event", string(events[i].EventType())).Str("key", events[i].Key()).
				Msg("pubsub: publicación fallida")
			if first == nil {
				first = err
			}
			continue
		}
		p.log.Debug().Str("message_id", id).Str("event", string(events[i].EventType())).Msg("pubsub: evento publicado")
	}
	return first
}

// Close detiene los tópicos y cierra el cliente.
func (p *Publisher) Close() error {
	stopped := make(map[*gpubsub.Topic]struct{})
	for _, t := range p.topics {
		if _, ok := stopped[t]; ok {
			continue
		}
		t.Stop()
		stopped[t] = struct{}{}
	}
	return p.client.Close()
}

// Encode serializa el evento como mensaje Pub/Sub con atributos de tipo y clave.
func Encode(ev entity.Event) (*gpubsub.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("serializar evento %s: %w", ev.EventType(), err)
	}
	return &gpubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": string(ev.EventType()),
			"key":        ev.Key(),
		},
		OrderingKey: ev.Key(),
	}, nil
}
