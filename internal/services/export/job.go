package export

import (
	"context"
	"fmt"
	"time"

	"ColdPull/pkg/logger"
	"ColdPull/pkg/queue"
	"ColdPull/pkg/util"
)

// JobTypeHistoryExport is the queue message type for export requests.
const JobTypeHistoryExport = "history_export"

// JobPayload describes one export request. From and To accept the
// formats util.ParseTime understands; empty From means the epoch and
// empty To means now.
type JobPayload struct {
	Product string `json:"product"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Format  string `json:"format,omitempty"`
}

// Job runs queued exports in the background.
type Job struct {
	exporter *Exporter
	timeout  time.Duration
	logger   *logger.Logger
}

// NewJob creates the export queue job.
func NewJob(exporter *Exporter, timeout time.Duration, lgr *logger.Logger) *Job {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Job{exporter: exporter, timeout: timeout, logger: lgr}
}

func (j *Job) Name() string { return "history-export" }

func (j *Job) Type() string { return JobTypeHistoryExport }

// Handle writes the requested history export to disk.
func (j *Job) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[JobPayload](payload)
	if err != nil {
		return fmt.Errorf("export payload: %w", err)
	}
	if req.Product == "" {
		return fmt.Errorf("export payload: product required")
	}

	from := util.ParseTimeDefault(req.From, time.Unix(0, 0))
	to := util.ParseTimeDefault(req.To, time.Now())
	format := req.Format
	if format == "" {
		format = "xlsx"
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	path, err := j.exporter.Export(ctx, req.Product, from, to, format)
	if err != nil {
		return err
	}
	j.logger.Info("export job finished",
		logger.String("product", req.Product),
		logger.String("path", path))
	return nil
}

var _ queue.Job = (*Job)(nil)
