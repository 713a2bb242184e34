// internal/export/export.go
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"launchpad/internal/storage/models"
)

// Format selects the trade export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Filename names the download for a token's trade history.
func Filename(tokenID string, format Format) string {
	return fmt.Sprintf("trades-%s-%s.%s", tokenID, time.Now().UTC().Format("20060102-150405"), format)
}

// WriteTrades streams the trade records in the requested format.
func WriteTrades(w io.Writer, trades []*models.Trade, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, trades)
	case FormatJSON:
		return json.NewEncoder(w).Encode(trades)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func writeCSV(w io.Writer, trades []*models.Trade) error {
	cw := csv.NewWriter(w)

	header := []string{"executed_at", "kind", "trader", "sol_amount", "token_amount", "unit_price", "trade_id"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, t := range trades {
		record := []string{
			t.ExecutedAt.UTC().Format(time.RFC3339),
			t.Kind,
			t.Trader,
			strconv.FormatFloat(t.SolAmount, 'f', -1, 64),
			strconv.FormatFloat(t.TokenAmount, 'f', -1, 64),
			strconv.FormatFloat(t.UnitPrice, 'f', -1, 64),
			t.ID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
