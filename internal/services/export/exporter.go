package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ColdPull/internal/domain/models"
	drepo "ColdPull/internal/domain/repository"
	"ColdPull/pkg/logger"

	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

var exportHeader = []string{
	"ts", "product", "instant_spoilage_pct", "cumulative_spoilage_pct", "risk_level",
	"zscore_anomaly", "ewma_anomaly",
	"contrib_temp", "contrib_humidity", "contrib_door", "contrib_gas",
	"contrib_interaction", "contrib_outside", "notes",
}

// Exporter writes stored scoring history to xlsx or csv files on disk.
type Exporter struct {
	storage drepo.Storage
	dir     string
	logger  *logger.Logger
}

// NewExporter creates a history exporter writing into dir.
func NewExporter(storage drepo.Storage, dir string, lgr *logger.Logger) *Exporter {
	if dir == "" {
		dir = "exports"
	}
	return &Exporter{storage: storage, dir: dir, logger: lgr}
}

// Export fetches history for a product and writes it in the requested
// format. Returns the path of the written file.
func (e *Exporter) Export(ctx context.Context, product string, from, to time.Time, format string) (string, error) {
	results, err := e.storage.History(ctx, product, from, to, 0)
	if err != nil {
		return "", fmt.Errorf("export history: %w", err)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("export dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.%s", sanitize(product), time.Now().Format("20060102_150405"), format)
	path := filepath.Join(e.dir, name)

	switch format {
	case "csv":
		err = writeCSV(path, results)
	default:
		err = writeXLSX(path, results)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("export written",
		logger.String("product", product),
		logger.String("path", path),
		logger.Int("rows", len(results)))
	return path, nil
}

func writeCSV(path string, results []*models.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, res := range results {
		record := make([]string, 0, len(exportHeader))
		for _, v := range rowValues(res) {
			record = append(record, toString(v))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path string, results []*models.Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(resultsSheet)
	if err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(resultsSheet, cell, title); err != nil {
			return err
		}
		if err := f.SetCellStyle(resultsSheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for row, res := range results {
		for col, v := range rowValues(res) {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(resultsSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func rowValues(res *models.Result) []interface{} {
	var ts interface{}
	if res.TS != nil {
		ts = time.Unix(0, int64(*res.TS*1e9)).UTC().Format(time.RFC3339)
	} else {
		ts = ""
	}
	return []interface{}{
		ts,
		res.Product,
		res.InstantSpoilagePct,
		res.CumulativeSpoilagePct,
		string(res.RiskLevel),
		res.Anomalies.ZScore,
		res.Anomalies.EWMA,
		res.Contributions.Temp,
		res.Contributions.Humidity,
		res.Contributions.Door,
		res.Contributions.Gas,
		res.Contributions.Interaction,
		res.Contributions.Outside,
		strings.Join(res.Notes, "; "),
	}
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
