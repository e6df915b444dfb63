package usecase

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"BrentCast/internal/domain/models"
	"BrentCast/pkg/util"
)

// CSVHeader is the header row of an exported forecast.
var CSVHeader = []string{"Data", "Preço Previsto (USD)"}

// ExportCSV writes one row per forecast point: the date as dd/mm/yyyy and the
// price rounded to cents. Non-finite prices are written as NaN, +Inf or -Inf.
func ExportCSV(w io.Writer, r *models.ForecastResult) error {
	if r == nil {
		return fmt.Errorf("export csv: nil forecast")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	for _, p := range r.Points {
		row := []string{util.FormatBR(p.Date), FormatPrice(p.Price)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatPrice renders a price rounded to cents.
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

// ExportFilename is the suggested download name for a forecast CSV.
func ExportFilename(r *models.ForecastResult) string {
	return fmt.Sprintf("previsao_%s_%s.csv", r.Model, r.GeneratedAt.UTC().Format("20060102"))
}
