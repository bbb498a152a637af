package pubsub

import (
	"context"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

// LogPublisher escribe los eventos en el log. Se usa cuando no hay proyecto de Pub/Sub configurado.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher crea el publicador de log.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPublisher{log: log.Component("events")}
}

// Publish registra cada evento con su tipo y clave.
func (p *LogPublisher) Publish(_ context.Context, events ...entity.Event) error {
	for _, ev := range events {
		e := p.log.Info().Str("event", string(ev.EventType())).Str("key", ev.Key())
		switch v := ev.(type) {
		case entity.MovementPosted:
			e = e.Int64("seq", v.Seq).Str("type", string(v.Type)).Str("quantity", v.Quantity.String()).
				Str("total_cost", v.TotalCost.String())
		case entity.OrderStatusChanged:
			e = e.Str("from", string(v.From)).Str("to", string(v.To))
		case entity.CountPosted:
			e = e.Int("corrections", v.Corrections)
		}
		e.Msg("evento")
	}
	return nil
}
