// Package comms builds the email and SMS delivery dashboards from the
// per-sender daily aggregates the database keeps. It reconciles stored
// totals against their parts but performs no sending of its own.
package comms

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"flock-insights/internal/calendar"
	"flock-insights/internal/churchdb"
	"flock-insights/internal/report"
)

// ChannelTotals accumulates delivery counts for one sender or one whole
// channel. Rates are percentages of the delivered count, rounded to one
// decimal place.
type ChannelTotals struct {
	Sent      int     `json:"sent"`
	Delivered int     `json:"delivered"`
	Failed    int     `json:"failed"`
	Bounced   int     `json:"bounced"`
	Opened    int     `json:"opened"`
	Clicked   int     `json:"clicked"`
	OpenRate  float64 `json:"openRate"`
	ClickRate float64 `json:"clickRate"`
}

func (t *ChannelTotals) finish() {
	t.OpenRate = rate(t.Opened, t.Delivered)
	t.ClickRate = rate(t.Clicked, t.Delivered)
}

func rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

// SenderSummary is one sender's totals over the dashboard window.
type SenderSummary struct {
	Sender string        `json:"sender"`
	Days   int           `json:"days"`
	Totals ChannelTotals `json:"totals"`
}

// Dashboard is the communication summary for one window, both channels.
type Dashboard struct {
	Window     calendar.Window  `json:"window"`
	Email      []SenderSummary  `json:"email"`
	EmailTotal ChannelTotals    `json:"emailTotal"`
	SMS        []SenderSummary  `json:"sms"`
	SMSTotal   ChannelTotals    `json:"smsTotal"`
	Warnings   []report.Warning `json:"warnings,omitempty"`
}

// Builder assembles dashboards from a store.
type Builder struct {
	store churchdb.Store
}

// NewBuilder wraps a store.
func NewBuilder(store churchdb.Store) *Builder {
	return &Builder{store: store}
}

// Build summarizes both channels over the window. A failed channel query
// degrades that channel to empty with a warning; the dashboard still
// returns.
func (b *Builder) Build(ctx context.Context, w calendar.Window) (*Dashboard, error) {
	warn := &report.Warnings{}
	dash := &Dashboard{Window: w}

	emails, err := b.store.EmailSummary(ctx, w)
	emails = report.Fallback(emails, err, warn, "email", windowLabel(w))
	dash.Email, dash.EmailTotal = summarizeEmail(emails, warn)

	sms, err := b.store.SMSSummary(ctx, w)
	sms = report.Fallback(sms, err, warn, "sms", windowLabel(w))
	dash.SMS, dash.SMSTotal = summarizeSMS(sms, warn)

	dash.Warnings = warn.All()
	return dash, nil
}

func windowLabel(w calendar.Window) string {
	return w.Start.Format("2006-01-02") + ".." + w.End.Format("2006-01-02")
}

// reconcileSent checks a stored sent total against the sum of its outcome
// parts. On disagreement the recomputed sum wins and a warning records the
// stored value; a malformed total must not distort the dashboard.
func reconcileSent(sender string, day time.Time, sent, parts int, warn *report.Warnings) int {
	if sent == parts {
		return sent
	}
	warn.Add(sender, day.Format("2006-01-02"),
		fmt.Errorf("stored sent total %d disagrees with outcome sum %d, using the sum", sent, parts))
	return parts
}

func summarizeEmail(rows []churchdb.EmailRow, warn *report.Warnings) ([]SenderSummary, ChannelTotals) {
	bySender := make(map[string]*SenderSummary)
	var total ChannelTotals

	for _, r := range rows {
		sent := reconcileSent(r.Sender, r.Day, r.Sent, r.Delivered+r.Failed+r.Bounced, warn)
		s := bySender[r.Sender]
		if s == nil {
			s = &SenderSummary{Sender: r.Sender}
			bySender[r.Sender] = s
		}
		s.Days++
		s.Totals.Sent += sent
		s.Totals.Delivered += r.Delivered
		s.Totals.Failed += r.Failed
		s.Totals.Bounced += r.Bounced
		s.Totals.Opened += r.Opened
		s.Totals.Clicked += r.Clicked

		total.Sent += sent
		total.Delivered += r.Delivered
		total.Failed += r.Failed
		total.Bounced += r.Bounced
		total.Opened += r.Opened
		total.Clicked += r.Clicked
	}

	out := flatten(bySender)
	total.finish()
	return out, total
}

func summarizeSMS(rows []churchdb.SMSRow, warn *report.Warnings) ([]SenderSummary, ChannelTotals) {
	bySender := make(map[string]*SenderSummary)
	var total ChannelTotals

	for _, r := range rows {
		sent := reconcileSent(r.Sender, r.Day, r.Sent, r.Delivered+r.Failed, warn)
		s := bySender[r.Sender]
		if s == nil {
			s = &SenderSummary{Sender: r.Sender}
			bySender[r.Sender] = s
		}
		s.Days++
		s.Totals.Sent += sent
		s.Totals.Delivered += r.Delivered
		s.Totals.Failed += r.Failed

		total.Sent += sent
		total.Delivered += r.Delivered
		total.Failed += r.Failed
	}

	out := flatten(bySender)
	total.finish()
	return out, total
}

func flatten(bySender map[string]*SenderSummary) []SenderSummary {
	out := make([]SenderSummary, 0, len(bySender))
	for _, s := range bySender {
		s.Totals.finish()
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sender < out[j].Sender })
	return out
}
