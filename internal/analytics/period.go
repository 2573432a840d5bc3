package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/invoicer/invoicer/internal/platform/httpx"
)

// Period is a reporting window token.
type Period string

const (
	Period7Days    Period = "7days"
	Period30Days   Period = "30days"
	Period3Months  Period = "3months"
	Period6Months  Period = "6months"
	Period12Months Period = "12months"
	Period24Months Period = "24months"
)

// DefaultPeriod applies when no token is supplied.
const DefaultPeriod = Period12Months

// Periods lists the accepted tokens in ascending length.
var Periods = []Period{Period7Days, Period30Days, Period3Months, Period6Months, Period12Months, Period24Months}

// Granularity is the bucket size of a series.
type Granularity int

const (
	Daily Granularity = iota
	Monthly
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

type span struct {
	days   int
	months int
}

var spans = map[Period]span{
	Period7Days:    {days: 7},
	Period30Days:   {days: 30},
	Period3Months:  {months: 3},
	Period6Months:  {months: 6},
	Period12Months: {months: 12},
	Period24Months: {months: 24},
}

// ParsePeriod validates a token. Blank resolves to DefaultPeriod.
func ParsePeriod(raw string) (Period, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPeriod, nil
	}
	p := Period(strings.ToLower(raw))
	if _, ok := spans[p]; !ok {
		return "", httpx.NewValidationError(map[string]string{
			"period": fmt.Sprintf("must be one of %s", joinPeriods()),
		})
	}
	return p, nil
}

func joinPeriods() string {
	parts := make([]string, len(Periods))
	for i, p := range Periods {
		parts[i] = string(p)
	}
	return strings.Join(parts, " ")
}

// Window is a period resolved against a clock.
type Window struct {
	Period      Period
	Granularity Granularity
	// Start is now minus the period; StartDay is its calendar date, the
	// first issue date inside the window.
	Start    time.Time
	StartDay time.Time
	// PrevStart opens the equally long window immediately before StartDay.
	PrevStart time.Time
	End       time.Time
}

// Resolve anchors p at now in UTC.
func Resolve(p Period, now time.Time) Window {
	s, ok := spans[p]
	if !ok {
		p, s = DefaultPeriod, spans[DefaultPeriod]
	}
	now = now.UTC()
	start := s.back(now)
	startDay := truncateDay(start)
	g := Monthly
	if s.days > 0 {
		g = Daily
	}
	return Window{
		Period:      p,
		Granularity: g,
		Start:       start,
		StartDay:    startDay,
		PrevStart:   s.back(startDay),
		End:         now,
	}
}

func (s span) back(t time.Time) time.Time {
	if s.days > 0 {
		return t.AddDate(0, 0, -s.days)
	}
	return addMonths(t, -s.months)
}

// addMonths shifts t by n calendar months, clamping the day to the last
// day of the target month (May 31 minus 3 months is Feb 28).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Contains reports whether an issue date falls in [StartDay, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.StartDay) && !t.After(w.End)
}

// ContainsPrevious reports whether t falls in [PrevStart, StartDay).
func (w Window) ContainsPrevious(t time.Time) bool {
	return !t.Before(w.PrevStart) && t.Before(w.StartDay)
}

// Keys lists every bucket key from Start to End inclusive.
func (w Window) Keys() []string {
	cur, last := w.bucketStart(w.Start), w.bucketStart(w.End)
	var keys []string
	for !cur.After(last) {
		keys = append(keys, w.key(cur))
		cur = w.step(cur, 1)
	}
	return keys
}

func (w Window) key(t time.Time) string {
	if w.Granularity == Daily {
		return t.UTC().Format(dayLayout)
	}
	return t.UTC().Format(monthLayout)
}

func (w Window) bucketStart(t time.Time) time.Time {
	if w.Granularity == Daily {
		return truncateDay(t)
	}
	return truncateMonth(t)
}

func (w Window) step(t time.Time, n int) time.Time {
	if w.Granularity == Daily {
		return t.AddDate(0, 0, n)
	}
	return t.AddDate(0, n, 0)
}

// nextKeys returns the n keys following key at the window's granularity.
func (w Window) nextKeys(key string, n int) []string {
	layout := monthLayout
	if w.Granularity == Daily {
		layout = dayLayout
	}
	t, err := time.Parse(layout, key)
	if err != nil {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = w.key(w.step(t, i+1))
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// trailingMonths lists the n calendar months ending with now's month.
func trailingMonths(now time.Time, n int) []string {
	first := truncateMonth(now)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = first.AddDate(0, i-n+1, 0).Format(monthLayout)
	}
	return out
}
