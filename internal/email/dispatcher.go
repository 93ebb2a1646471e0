package email

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"specflow/internal/metrics"
)

const defaultSendTimeout = 30 * time.Second

// Dispatcher envia correos en segundo plano. El resultado nunca afecta a la peticion que lo origino.
type Dispatcher struct {
	sender  Sender
	logger  *zap.Logger
	metrics metrics.Recorder
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, logger *zap.Logger, recorder metrics.Recorder) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Dispatcher{
		sender:  sender,
		logger:  logger,
		metrics: recorder,
		timeout: defaultSendTimeout,
	}
}

// Dispatch lanza el envio con su propio contexto y vuelve de inmediato.
func (d *Dispatcher) Dispatch(kind string, msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.sender.Send(ctx, msg); err != nil {
			d.metrics.RecordMail(kind, "failed")
			d.logger.Warn("mail delivery failed",
				zap.String("kind", kind),
				zap.String("to", msg.To),
				zap.Error(err),
			)
			return
		}
		d.metrics.RecordMail(kind, "sent")
		d.logger.Info("mail sent", zap.String("kind", kind), zap.String("to", msg.To))
	}()
}

// Wait bloquea hasta que terminan los envios en curso.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
