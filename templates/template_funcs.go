package templates

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"survivor-pool-go/models"
)

// GetTemplateFuncs returns the template function map for HTML templates
func GetTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },

		"lower": strings.ToLower,
		"upper": strings.ToUpper,

		// formatTime renders a timestamp for display, local to the
		// league's timezone being irrelevant here we show UTC
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "TBD"
			}
			return t.UTC().Format("Mon 2 Jan 15:04 MST")
		},
		"formatTimePtr": func(t *time.Time) string {
			if t == nil {
				return "TBD"
			}
			return t.UTC().Format("Mon 2 Jan 15:04 MST")
		},

		// formatPct renders a 0-1 probability as a percentage
		"formatPct": func(v *float64) string {
			if v == nil {
				return "—"
			}
			return fmt.Sprintf("%.1f%%", *v*100)
		},

		// formatPrice renders a decimal price
		"formatPrice": func(v *float64) string {
			if v == nil {
				return "—"
			}
			return fmt.Sprintf("%.2f", *v)
		},

		// formatMoney renders a money amount in pounds
		"formatMoney": func(v *decimal.Decimal) string {
			if v == nil {
				return "—"
			}
			return "£" + v.StringFixed(2)
		},

		"statusLabel": func(status models.MemberStatus) string {
			if status == models.MemberStatusEliminated {
				return "ELIMINATED"
			}
			return "ALIVE"
		},

		"roleLabel": models.FormatRole,

		// lives renders hearts for the remaining lives
		"lives": func(remaining, total int) string {
			if total < remaining {
				total = remaining
			}
			return strings.Repeat("♥", remaining) + strings.Repeat("♡", total-remaining)
		},
	}
}
