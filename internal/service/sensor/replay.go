package sensor

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"ColdPull/internal/domain/models"
	drepo "ColdPull/internal/domain/repository"
	"ColdPull/pkg/util"
)

// Replayer implements a SensorStream that replays a recorded CSV trace,
// one row per pace interval. Useful for backtesting profiles against
// captured excursions.
type Replayer struct {
	path    string
	product string
	pace    time.Duration

	file      *os.File
	reader    *csv.Reader
	cols      map[string]int
	connected bool
}

// NewReplayer creates a CSV replay stream.
func NewReplayer(path, defaultProduct string, pace time.Duration) drepo.SensorStream {
	if pace <= 0 {
		pace = time.Second
	}
	return &Replayer{path: path, product: defaultProduct, pace: pace}
}

// Connect opens the trace and reads the header row.
func (r *Replayer) Connect(_ context.Context) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("replay open: %w", err)
	}
	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("replay header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"temp_inside_c", "temp_outside_c", "humidity_pct", "door_open"} {
		if _, ok := cols[required]; !ok {
			_ = f.Close()
			return fmt.Errorf("replay header: missing column %q", required)
		}
	}

	r.file = f
	r.reader = reader
	r.cols = cols
	r.connected = true
	log.Printf("sensor replay: opened trace=%s pace=%s", r.path, r.pace)
	return nil
}

// Subscribe is a no-op for file replay.
func (r *Replayer) Subscribe(_ context.Context) error {
	if !r.connected {
		return fmt.Errorf("replay not connected")
	}
	return nil
}

// Read streams rows at the configured pace and stops at EOF.
func (r *Replayer) Read(ctx context.Context) (<-chan *models.Reading, <-chan error) {
	readings := make(chan *models.Reading, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(readings)
		defer close(errs)

		ticker := time.NewTicker(r.pace)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				row, err := r.reader.Read()
				if err == io.EOF {
					log.Printf("sensor replay: trace finished")
					r.connected = false
					return
				}
				if err != nil {
					// Exit so a Reconnect can swap the reader safely.
					r.connected = false
					select {
					case errs <- fmt.Errorf("replay read: %w", err):
					default:
					}
					return
				}
				reading := r.parseRow(row)
				select {
				case readings <- reading:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return readings, errs
}

func (r *Replayer) parseRow(row []string) *models.Reading {
	field := func(name string) string {
		if i, ok := r.cols[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	reading := &models.Reading{
		Product:      field("product"),
		TempInsideC:  util.ParseFloatDefault(field("temp_inside_c"), 0),
		TempOutsideC: util.ParseFloatDefault(field("temp_outside_c"), 0),
		HumidityPct:  util.ParseFloatDefault(field("humidity_pct"), 0),
		DoorOpen:     util.ParseBoolFlag(field("door_open"), 0),
		GasPPM:       util.ParseFloatDefault(field("gas_ppm"), 0),
	}
	if s := field("ts"); s != "" {
		ts := util.ParseFloatDefault(s, 0)
		if ts > 0 {
			reading.TS = &ts
		}
	}
	normalize(reading, r.product)
	return reading
}

// Reconnect rewinds the trace to the beginning.
func (r *Replayer) Reconnect(ctx context.Context) error {
	_ = r.Close()
	return r.Connect(ctx)
}

// Close closes the trace file.
func (r *Replayer) Close() error {
	r.connected = false
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// IsConnected indicates whether the trace still has rows to replay.
func (r *Replayer) IsConnected() bool { return r.connected }
