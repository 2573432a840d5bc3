package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicer/invoicer/internal/invoices"
	"github.com/invoicer/invoicer/internal/shared"
)

// DaysOverdue is the whole number of calendar days between due and today.
// Negative means not yet due; a missing due date counts as zero.
func DaysOverdue(due *time.Time, today time.Time) int {
	if due == nil {
		return 0
	}
	return int(truncateDay(today).Sub(truncateDay(*due)).Hours() / 24)
}

type agingAcc struct {
	count  int
	amount decimal.Decimal
}

func (a agingAcc) bucket() AgingBucket {
	return AgingBucket{Count: a.count, Amount: shared.MoneyFloat(a.amount)}
}

// Aging buckets every SENT invoice exactly once. The reporting period does
// not apply.
func Aging(list []Invoice, now time.Time) InvoiceAging {
	var current, d31, d61, over agingAcc
	for _, inv := range list {
		if inv.Status != invoices.StatusSent {
			continue
		}
		var b *agingAcc
		switch days := DaysOverdue(inv.DueDate, now); {
		case days <= 30:
			b = &current
		case days <= 60:
			b = &d31
		case days <= 90:
			b = &d61
		default:
			b = &over
		}
		b.count++
		b.amount = b.amount.Add(inv.Total)
	}
	return InvoiceAging{
		Current:    current.bucket(),
		Days31to60: d31.bucket(),
		Days61to90: d61.bucket(),
		Over90:     over.bucket(),
	}
}
