// Package audit flags people who are set to receive notifications through a
// channel that cannot actually reach them: missing, invalid or unsubscribed
// contact points. Known-acceptable cases live on an exception list stored as
// an opaque document alongside the congregation data.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"flock-insights/internal/churchdb"

	"github.com/rs/zerolog/log"
)

// exceptionDocKey is the document slot the exception list lives under.
const exceptionDocKey = "audit/notification-exceptions"

// Exception suppresses findings for one person/channel pair.
type Exception struct {
	PersonID int       `json:"personId"`
	Channel  string    `json:"channel"` // "email", "sms", or "" for both
	Reason   string    `json:"reason"`
	AddedAt  time.Time `json:"addedAt"`
}

// ExceptionList is the persisted document. Writes are last-write-wins; two
// concurrent editors can lose each other's entries.
type ExceptionList struct {
	Exceptions []Exception `json:"exceptions"`
}

func (l *ExceptionList) covers(g churchdb.GapRow) bool {
	for _, e := range l.Exceptions {
		if e.PersonID == g.PersonID && (e.Channel == "" || e.Channel == g.Channel) {
			return true
		}
	}
	return false
}

// Report is one audit run's outcome: the findings that survived the
// exception list, plus how many the list suppressed.
type Report struct {
	RanAt      time.Time         `json:"ranAt"`
	Findings   []churchdb.GapRow `json:"findings"`
	Suppressed int               `json:"suppressed"`
}

// Auditor runs hygiene audits against a store.
type Auditor struct {
	store churchdb.Store
}

// NewAuditor wraps a store.
func NewAuditor(store churchdb.Store) *Auditor {
	return &Auditor{store: store}
}

// Run fetches the current gaps and filters them through the exception list.
// A missing exception document means an empty list, not an error.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	gaps, err := a.store.NotificationGaps(ctx)
	if err != nil {
		return nil, fmt.Errorf("notification audit: %w", err)
	}
	list, err := a.loadExceptions(ctx)
	if err != nil {
		return nil, err
	}

	rep := &Report{RanAt: time.Now()}
	for _, g := range gaps {
		if list.covers(g) {
			rep.Suppressed++
			continue
		}
		rep.Findings = append(rep.Findings, g)
	}
	sort.Slice(rep.Findings, func(i, j int) bool {
		if rep.Findings[i].Channel != rep.Findings[j].Channel {
			return rep.Findings[i].Channel < rep.Findings[j].Channel
		}
		return rep.Findings[i].PersonID < rep.Findings[j].PersonID
	})
	log.Info().Int("findings", len(rep.Findings)).Int("suppressed", rep.Suppressed).
		Msg("Notification audit complete")
	return rep, nil
}

// AddException appends one entry and writes the list back.
func (a *Auditor) AddException(ctx context.Context, personID int, channel, reason string) error {
	list, err := a.loadExceptions(ctx)
	if err != nil {
		return err
	}
	list.Exceptions = append(list.Exceptions, Exception{
		PersonID: personID,
		Channel:  channel,
		Reason:   reason,
		AddedAt:  time.Now().UTC(),
	})
	return a.saveExceptions(ctx, list)
}

// RemoveException drops every entry for the person/channel pair. A channel
// of "" removes all of the person's entries.
func (a *Auditor) RemoveException(ctx context.Context, personID int, channel string) error {
	list, err := a.loadExceptions(ctx)
	if err != nil {
		return err
	}
	kept := list.Exceptions[:0]
	for _, e := range list.Exceptions {
		if e.PersonID == personID && (channel == "" || e.Channel == channel) {
			continue
		}
		kept = append(kept, e)
	}
	list.Exceptions = kept
	return a.saveExceptions(ctx, list)
}

func (a *Auditor) loadExceptions(ctx context.Context) (*ExceptionList, error) {
	doc, err := a.store.LoadDocument(ctx, exceptionDocKey)
	if errors.Is(err, churchdb.ErrNoDocument) {
		return &ExceptionList{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load exception list: %w", err)
	}
	var list ExceptionList
	if err := json.Unmarshal(doc, &list); err != nil {
		return nil, fmt.Errorf("decode exception list: %w", err)
	}
	return &list, nil
}

func (a *Auditor) saveExceptions(ctx context.Context, list *ExceptionList) error {
	doc, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode exception list: %w", err)
	}
	if err := a.store.SaveDocument(ctx, exceptionDocKey, doc); err != nil {
		return fmt.Errorf("save exception list: %w", err)
	}
	return nil
}
