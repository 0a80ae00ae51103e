package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/GregMSThompson/expense-backend/internal/models"
)

const (
	CSVHeader     = "Date,Type,Category,Amount,Note,Payment Method"
	csvDateLayout = "Jan 2, 2006"
)

// ToCSV renders transactions in input order below a fixed header. Every row
// field is double-quoted with embedded quotes doubled, line breaks inside a
// field become spaces, and lines are joined with "\n" without a trailing
// newline, so N transactions give N+1 lines.
func ToCSV(txs []models.Transaction, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	b.WriteString(CSVHeader)
	for _, tx := range txs {
		b.WriteByte('\n')
		writeRow(&b,
			tx.Date.In(loc).Format(csvDateLayout),
			string(tx.Type),
			tx.CategoryName,
			strconv.FormatFloat(tx.Amount, 'f', -1, 64),
			tx.Note,
			tx.PaymentMethod,
		)
	}
	return b.String()
}

var csvEscaper = strings.NewReplacer(`"`, `""`, "\r\n", " ", "\r", " ", "\n", " ")

func writeRow(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(csvEscaper.Replace(f))
		b.WriteByte('"')
	}
}
