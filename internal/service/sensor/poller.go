package sensor

import (
	"context"
	"fmt"
	"log"
	"time"

	"ColdPull/internal/domain/models"
	drepo "ColdPull/internal/domain/repository"
	xhttp "ColdPull/pkg/http"
)

// Poller implements a SensorStream by polling a hardware HTTP endpoint
// (ESP-style firmware serving the current sample as JSON).
type Poller struct {
	endpoint string
	product  string
	interval time.Duration
	client   *xhttp.Client

	connected bool
}

// NewPoller creates an HTTP polling sensor stream.
func NewPoller(endpoint, defaultProduct string, interval, timeout time.Duration) drepo.SensorStream {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Poller{
		endpoint: endpoint,
		product:  defaultProduct,
		interval: interval,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// Connect verifies the endpoint answers.
func (p *Poller) Connect(ctx context.Context) error {
	var probe models.Reading
	if err := p.fetch(ctx, &probe); err != nil {
		return fmt.Errorf("sensor poll connect: %w", err)
	}
	p.connected = true
	log.Printf("sensor poller: connected endpoint=%s", p.endpoint)
	return nil
}

// Subscribe is a no-op for a polled endpoint.
func (p *Poller) Subscribe(_ context.Context) error {
	if !p.connected {
		return fmt.Errorf("sensor poller not connected")
	}
	return nil
}

// Read polls the endpoint on the configured interval.
func (p *Poller) Read(ctx context.Context) (<-chan *models.Reading, <-chan error) {
	readings := make(chan *models.Reading, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(readings)
		defer close(errs)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var r models.Reading
				if err := p.fetch(ctx, &r); err != nil {
					select {
					case errs <- fmt.Errorf("sensor poll: %w", err):
					default:
					}
					continue
				}
				normalize(&r, p.product)
				select {
				case readings <- &r:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return readings, errs
}

func (p *Poller) fetch(ctx context.Context, dest *models.Reading) error {
	return p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.endpoint,
	}, dest)
}

// Reconnect re-probes the endpoint.
func (p *Poller) Reconnect(ctx context.Context) error {
	p.connected = false
	return p.Connect(ctx)
}

// Close marks the stream disconnected.
func (p *Poller) Close() error {
	p.connected = false
	return nil
}

// IsConnected indicates status.
func (p *Poller) IsConnected() bool { return p.connected }

// normalize stamps missing fields the device does not send.
func normalize(r *models.Reading, defaultProduct string) {
	if r.Product == "" {
		r.Product = defaultProduct
	}
	if r.TS == nil {
		now := float64(time.Now().UnixNano()) / 1e9
		r.TS = &now
	}
}
