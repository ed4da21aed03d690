package compiler

import (
	"time"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// TimestampLayout is the layout structured creation times are rendered in.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders a creation time for the codec. Literal strings
// pass through verbatim; structured times are formatted in local time. A
// nil or zero value renders now.
func FormatTimestamp(ct *models.CreateTime, now time.Time) string {
	if ct.IsZero() {
		return now.Local().Format(TimestampLayout)
	}
	if ct.IsLiteral() {
		return ct.Literal
	}
	return ct.Time.Local().Format(TimestampLayout)
}
