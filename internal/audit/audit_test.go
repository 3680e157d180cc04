package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"flock-insights/internal/churchdb"
)

func gapStore() *churchdb.MemStore {
	s := churchdb.NewMemStore()
	s.Gaps = []churchdb.GapRow{
		{PersonID: 1, Name: "Ada", Channel: "email", Issue: "missing"},
		{PersonID: 2, Name: "Ben", Channel: "email", Issue: "unsubscribed"},
		{PersonID: 2, Name: "Ben", Channel: "sms", Issue: "invalid"},
		{PersonID: 3, Name: "Cay", Channel: "sms", Issue: "missing"},
	}
	return s
}

func TestRunNoExceptions(t *testing.T) {
	rep, err := NewAuditor(gapStore()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Findings) != 4 || rep.Suppressed != 0 {
		t.Errorf("got %d findings, %d suppressed", len(rep.Findings), rep.Suppressed)
	}
	// Sorted by channel, then person.
	if rep.Findings[0].Channel != "email" || rep.Findings[0].PersonID != 1 {
		t.Errorf("first finding = %+v", rep.Findings[0])
	}
}

func TestExceptionsSuppress(t *testing.T) {
	s := gapStore()
	aud := NewAuditor(s)
	ctx := context.Background()

	// Channel-specific exception.
	if err := aud.AddException(ctx, 1, "email", "uses spouse's address"); err != nil {
		t.Fatalf("AddException: %v", err)
	}
	// Blanket exception for person 2.
	if err := aud.AddException(ctx, 2, "", "opted out in writing"); err != nil {
		t.Fatalf("AddException: %v", err)
	}

	rep, err := aud.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Suppressed != 3 {
		t.Errorf("suppressed = %d, want 3", rep.Suppressed)
	}
	if len(rep.Findings) != 1 || rep.Findings[0].PersonID != 3 {
		t.Errorf("findings = %+v, want only person 3", rep.Findings)
	}

	// Removal re-surfaces the gap.
	if err := aud.RemoveException(ctx, 2, ""); err != nil {
		t.Fatalf("RemoveException: %v", err)
	}
	rep, err = aud.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Findings) != 3 {
		t.Errorf("findings after removal = %d, want 3", len(rep.Findings))
	}
}

func TestExceptionListPersists(t *testing.T) {
	s := gapStore()
	ctx := context.Background()
	if err := NewAuditor(s).AddException(ctx, 3, "sms", "landline only"); err != nil {
		t.Fatalf("AddException: %v", err)
	}

	// A fresh auditor over the same store reads the saved document.
	rep, err := NewAuditor(s).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Suppressed != 1 {
		t.Errorf("suppressed = %d, want 1 from the persisted list", rep.Suppressed)
	}
}

func TestRunMissingDocumentIsEmptyList(t *testing.T) {
	s := gapStore()
	if _, ok := s.Docs[exceptionDocKey]; ok {
		t.Fatal("fixture should start without a document")
	}
	if _, err := NewAuditor(s).Run(context.Background()); err != nil {
		t.Fatalf("missing document must not fail the audit: %v", err)
	}
}

func TestRunCorruptDocumentFails(t *testing.T) {
	s := gapStore()
	s.Docs[exceptionDocKey] = []byte("{not json")
	if _, err := NewAuditor(s).Run(context.Background()); err == nil {
		t.Fatal("corrupt exception list must fail loudly, not silently drop entries")
	}
}

func TestRunQueryFailure(t *testing.T) {
	s := gapStore()
	s.Fail["NotificationGaps"] = errors.New("view missing")
	if _, err := NewAuditor(s).Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestAddExceptionStampsTime(t *testing.T) {
	s := gapStore()
	aud := NewAuditor(s)
	ctx := context.Background()
	before := time.Now().UTC().Add(-time.Second)
	if err := aud.AddException(ctx, 9, "email", "test"); err != nil {
		t.Fatalf("AddException: %v", err)
	}
	list, err := aud.loadExceptions(ctx)
	if err != nil {
		t.Fatalf("loadExceptions: %v", err)
	}
	if len(list.Exceptions) != 1 || list.Exceptions[0].AddedAt.Before(before) {
		t.Errorf("list = %+v", list.Exceptions)
	}
}
