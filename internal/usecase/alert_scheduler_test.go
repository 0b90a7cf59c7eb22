package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockwatch/internal/domain"
)

type fakeThresholdStore struct {
	mu         sync.Mutex
	thresholds map[uint]*domain.Threshold
	listErr    error
	disableErr error
	calls      []string
	nextID     uint
}

func newFakeThresholdStore() *fakeThresholdStore {
	return &fakeThresholdStore{thresholds: make(map[uint]*domain.Threshold)}
}

func (f *fakeThresholdStore) add(th domain.Threshold) uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	th.ID = f.nextID
	f.thresholds[th.ID] = &th
	return th.ID
}

func (f *fakeThresholdStore) enabled(id uint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.thresholds[id].Enabled
}

func (f *fakeThresholdStore) Create(_ context.Context, th *domain.Threshold) error {
	th.ID = f.add(*th)
	th.CreatedAt = time.Now()
	return nil
}

func (f *fakeThresholdStore) ListByOwner(_ context.Context, ownerUID string) ([]domain.Threshold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Threshold
	for _, th := range f.thresholds {
		if th.OwnerUID == ownerUID {
			out = append(out, *th)
		}
	}
	return out, nil
}

func (f *fakeThresholdStore) ListAllEnabledGroupedByOwner(context.Context) (map[string][]domain.Threshold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	grouped := make(map[string][]domain.Threshold)
	for _, th := range f.thresholds {
		if th.Enabled {
			grouped[th.OwnerUID] = append(grouped[th.OwnerUID], *th)
		}
	}
	return grouped, nil
}

func (f *fakeThresholdStore) Disable(_ context.Context, ownerUID string, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "disable")
	if f.disableErr != nil {
		return f.disableErr
	}
	th, ok := f.thresholds[id]
	if !ok || th.OwnerUID != ownerUID {
		return domain.ErrNotFound
	}
	th.Enabled = false
	return nil
}

func (f *fakeThresholdStore) Delete(_ context.Context, ownerUID string, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	th, ok := f.thresholds[id]
	if !ok || th.OwnerUID != ownerUID {
		return domain.ErrNotFound
	}
	delete(f.thresholds, id)
	return nil
}

type fakeChartProvider struct {
	mu     sync.Mutex
	series map[string]*domain.PriceSeries
	errs   map[string]error
	dates  []string
}

func newFakeChartProvider() *fakeChartProvider {
	return &fakeChartProvider{
		series: make(map[string]*domain.PriceSeries),
		errs:   make(map[string]error),
	}
}

func (f *fakeChartProvider) setClose(ticker, price string) {
	f.series[ticker] = &domain.PriceSeries{
		Status: domain.SeriesOK,
		Samples: []domain.PriceSample{
			{Timestamp: time.Now(), Close: decimal.RequireFromString(price)},
		},
	}
}

func (f *fakeChartProvider) GetChart(_ context.Context, symbol, date string, _ domain.Interval) (*domain.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dates = append(f.dates, date)
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	if series, ok := f.series[symbol]; ok {
		return series, nil
	}
	return &domain.PriceSeries{Status: domain.SeriesNoData}, nil
}

type fakeIdentity struct {
	emails map[string]string
}

func (f fakeIdentity) NotificationAddress(_ context.Context, ownerUID string) (string, error) {
	email, ok := f.emails[ownerUID]
	if !ok || email == "" {
		return "", ErrNoNotificationAddress
	}
	return email, nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []domain.MailMessage
	err   error
	store *fakeThresholdStore
}

func (f *fakeMailer) Enqueue(_ context.Context, msg domain.MailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.store != nil {
		f.store.mu.Lock()
		f.store.calls = append(f.store.calls, "enqueue")
		f.store.mu.Unlock()
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestScheduler(store *fakeThresholdStore, charts *fakeChartProvider, identity fakeIdentity, mailer *fakeMailer) *AlertScheduler {
	return NewAlertScheduler(store, charts, identity, mailer, time.Minute, time.UTC, 2, zap.NewNop())
}

func TestRunPassBreachNotifiesOnceAndDisables(t *testing.T) {
	store := newFakeThresholdStore()
	id := store.add(domain.Threshold{
		OwnerUID:  "user-1",
		Ticker:    "AAPL",
		Target:    "150",
		Condition: domain.ConditionAbove,
		Enabled:   true,
	})

	charts := newFakeChartProvider()
	charts.setClose("AAPL", "151.20")

	mailer := &fakeMailer{store: store}
	scheduler := newTestScheduler(store, charts, fakeIdentity{emails: map[string]string{"user-1": "user@example.com"}}, mailer)

	if err := scheduler.RunPass(context.Background()); err != nil {
		t.Fatalf("unexpected pass error: %v", err)
	}

	if mailer.count() != 1 {
		t.Fatalf("expected 1 mail, got %d", mailer.count())
	}
	msg := mailer.sent[0]
	if msg.To != "user@example.com" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.Text, "AAPL") || !strings.Contains(msg.Text, "151.2") {
		t.Fatalf("mail text missing ticker or price: %q", msg.Text)
	}
	if store.enabled(id) {
		t.Fatal("threshold must be disabled after a fired alert")
	}
	if got := strings.Join(store.calls, ","); got != "enqueue,disable" {
		t.Fatalf("disable must follow enqueue, got call order %q", got)
	}

	// Disabled thresholds are excluded from every later pass.
	if err := scheduler.RunPass(context.Background()); err != nil {
		t.Fatalf("unexpected pass error: %v", err)
	}
	if mailer.count() != 1 {
		t.Fatalf("disabled threshold notified again, %d mails", mailer.count())
	}
}

func TestRunPassNoBreachLeavesThresholdAlone(t *testing.T) {
	store := newFakeThresholdStore()
	id := store.add(domain.Threshold{
		OwnerUID:  "user-1",
		Ticker:    "AAPL",
		Target:    "150",
		Condition: domain.ConditionAbove,
		Enabled:   true,
	})

	charts := newFakeChartProvider()
	charts.setClose("AAPL", "149.99")

	mailer := &fakeMailer{}
	scheduler := newTestScheduler(store, charts, fakeIdentity{emails: map[string]string{"user-1": "user@example.com"}}, mailer)

	if err := scheduler.RunPass(context.Background()); err != nil {
		t.Fatalf("unexpected pass error: %v", err)
	}
	if mailer.count() != 0 {
		t.Fatalf("expected no mail, got %d", mailer.count())
	}
	if !store.enabled(id) {
		t.Fatal("threshold must stay enabled without a breach")
	}
}

func TestRunPassNoDataSkipsWithoutMutation(t *testing.T) {
	store := newFakeThresholdStore()
	id := store.add(domain.Threshold{
		OwnerUID:  "user-1",
		Ticker:    "SPX",
		Target:    "100",
		Condition: domain.ConditionBelow,
		Enabled:   true,
	})

	charts := newFakeChartProvider()
	charts.series["SPX"] = &domain.PriceSeries{Status: domain.SeriesNoData}

	mailer := &fakeMailer{}
	scheduler := newTestScheduler(store, charts, fakeIdentity{emails: map[string]string{"user-1": "user@example.com"}}, mailer)

	if err := scheduler.RunPass(context.Background()); err != nil {
		t.Fatalf("unexpected pass error: %v", err)
	}
	if mailer.count() != 0 {
		t.Fatal("no_data must never notify")
	}
	if !store.enabled(id) {
		t.Fatal("no_data must never mutate the threshold")
	}
	if len(store.calls) != 0 {
		t.Fatalf("no store writes expected, got %v", store.calls)
	}
}

func TestRunPassEnqueueFailureKeepsThresholdEnabled(t *testing.T) {
	store := newFakeThresholdStore()
	id := store.add(domain.Threshold{
		OwnerUID:  "user-1",
		Ticker:    "AAPL",
		Target:    "150",
		Condition: domain.ConditionAbove,
		Enabled:   true,
	})

	charts := newFakeChartProvider()
	charts.setClose("AAPL", "151.20")

	mailer := &fakeMailer{store: store, err: errors.New("smtp outage")}
	scheduler := newTestScheduler(store, charts, fakeIdentity{emails: map[string]string{"user-1": "user@example.com"}}, mailer)

	if err := scheduler.RunPass(context.Background()); err != nil {
		t.Fatalf("unexpected pass error: %v", err)
	}
	if !store.enabled(id) {
		t.Fatal("threshold must stay enabled when enqueue fails")
	}
	for _, call := range store.calls {
		if call == "disable" {
			t.Fatal("disable must never run after a failed enqueue")
		}
	}

	// The next pass re-attempts and, on success, disables.
	mailer.err = nil
	if err := scheduler.RunPass(context.Background()); err != nil {
		t.Fatalf("unexpected pass error: %v", err)
	}
	if mailer.count() != 1 {
		t.Fatalf("expected 1 mail after retry, got %d", mailer.count())
	}
	if store.enabled(id) {
		t.Fatal("threshold must be disabled after successful retry")
	}
}

func TestRunPassDisableFailureIsDuplicateRiskOnly(t *testing.T) {
	store := newFakeThresholdStore()
	id := store.add(domain.Threshold{
		OwnerUID:  "user-1",
		Ticker:    "AAPL",
		Target:    "150",
		Condition: domain.ConditionAbove,
		Enabled:   true,
	})

	charts := newFakeChartProvider()
	charts.setClose("AAPL", "151.20")

	mailer := &fakeMailer{}
	store.disableErr = errors.New("write conflict")
	scheduler := newTestScheduler(store, charts, fakeIdentity{emails: map[string]string{"user-1": "user@example.com"}}, mailer)

	if err := scheduler.RunPass(context.Background()); err != nil {
		t.Fatalf("unexpected pass error: %v", err)
	}
	if mailer.count() != 1 {
		t.Fatalf("mail must still be enqueued, got %d", mailer.count())
	}
	if !store.enabled(id) {
		t.Fatal("threshold remains enabled when disable fails")
	}
}

func TestRunPassIsolatesProviderFailures(t *testing.T) {
	store := newFakeThresholdStore()
	store.add(domain.Threshold{
		OwnerUID:  "user-1",
		Ticker:    "BROKEN",
		Target:    "10",
		Condition: domain.ConditionAbove,
		Enabled:   true,
	})
	okID := store.add(domain.Threshold{
		OwnerUID:  "user-2",
		Ticker:    "MSFT",
		Target:    "300",
		Condition: domain.ConditionAbove,
		Enabled:   true,
	})

	charts := newFakeChartProvider()
	charts.errs["BROKEN"] = errors.New("upstream 500")
	charts.setClose("MSFT", "310.55")

	mailer := &fakeMailer{}
	identity := fakeIdentity{emails: map[string]string{
		"user-1": "one@example.com",
		"user-2": "two@example.com",
	}}
	scheduler := newTestScheduler(store, charts, identity, mailer)

	if err := scheduler.RunPass(context.Background()); err != nil {
		t.Fatalf("unexpected pass error: %v", err)
	}
	if mailer.count() != 1 {
		t.Fatalf("healthy threshold must still fire, got %d mails", mailer.count())
	}
	if mailer.sent[0].To != "two@example.com" {
		t.Fatalf("unexpected recipient %q", mailer.sent[0].To)
	}
	if store.enabled(okID) {
		t.Fatal("healthy threshold must be disabled after firing")
	}
}

func TestRunPassUnresolvableRecipientKeepsThresholdEnabled(t *testing.T) {
	store := newFakeThresholdStore()
	id := store.add(domain.Threshold{
		OwnerUID:  "ghost",
		Ticker:    "AAPL",
		Target:    "150",
		Condition: domain.ConditionAbove,
		Enabled:   true,
	})

	charts := newFakeChartProvider()
	charts.setClose("AAPL", "151.20")

	mailer := &fakeMailer{}
	scheduler := newTestScheduler(store, charts, fakeIdentity{emails: map[string]string{}}, mailer)

	if err := scheduler.RunPass(context.Background()); err != nil {
		t.Fatalf("unexpected pass error: %v", err)
	}
	if mailer.count() != 0 {
		t.Fatal("no mail without a resolvable address")
	}
	if !store.enabled(id) {
		t.Fatal("threshold must stay enabled for a retry next tick")
	}
}

func TestRunPassSkipsMalformedRecords(t *testing.T) {
	store := newFakeThresholdStore()
	badID := store.add(domain.Threshold{
		OwnerUID:  "user-1",
		Ticker:    "AAPL",
		Target:    "not-a-number",
		Condition: domain.ConditionAbove,
		Enabled:   true,
	})
	goodID := store.add(domain.Threshold{
		OwnerUID:  "user-1",
		Ticker:    "MSFT",
		Target:    "300",
		Condition: domain.ConditionAbove,
		Enabled:   true,
	})

	charts := newFakeChartProvider()
	charts.setClose("AAPL", "151.20")
	charts.setClose("MSFT", "301")

	mailer := &fakeMailer{}
	scheduler := newTestScheduler(store, charts, fakeIdentity{emails: map[string]string{"user-1": "user@example.com"}}, mailer)

	if err := scheduler.RunPass(context.Background()); err != nil {
		t.Fatalf("unexpected pass error: %v", err)
	}
	if mailer.count() != 1 {
		t.Fatalf("only the well-formed threshold fires, got %d mails", mailer.count())
	}
	if !store.enabled(badID) {
		t.Fatal("malformed record must not be mutated")
	}
	if store.enabled(goodID) {
		t.Fatal("well-formed threshold must be disabled after firing")
	}
}

func TestRunPassSnapshotFailureAbortsPass(t *testing.T) {
	store := newFakeThresholdStore()
	store.listErr = errors.New("store unreachable")

	scheduler := newTestScheduler(store, newFakeChartProvider(), fakeIdentity{}, &fakeMailer{})
	if err := scheduler.RunPass(context.Background()); err == nil {
		t.Fatal("expected pass to abort when the snapshot fails")
	}
}

func TestRunPassUsesOneDatePerPass(t *testing.T) {
	store := newFakeThresholdStore()
	store.add(domain.Threshold{OwnerUID: "u", Ticker: "A", Target: "1", Condition: domain.ConditionAbove, Enabled: true})
	store.add(domain.Threshold{OwnerUID: "u", Ticker: "B", Target: "1", Condition: domain.ConditionAbove, Enabled: true})

	charts := newFakeChartProvider()
	mailer := &fakeMailer{}
	scheduler := newTestScheduler(store, charts, fakeIdentity{}, mailer)
	scheduler.now = func() time.Time {
		return time.Date(2025, 6, 2, 23, 59, 59, 0, time.UTC)
	}

	if err := scheduler.RunPass(context.Background()); err != nil {
		t.Fatalf("unexpected pass error: %v", err)
	}
	if len(charts.dates) != 2 {
		t.Fatalf("expected 2 chart fetches, got %d", len(charts.dates))
	}
	for _, date := range charts.dates {
		if date != "2025-06-02" {
			t.Fatalf("unexpected lookup date %q", date)
		}
	}
}

func TestBuildAlertMailMatchesNotificationFormat(t *testing.T) {
	msg := buildAlertMail(
		"user@example.com",
		"AAPL",
		domain.ConditionAbove,
		decimal.RequireFromString("151.20"),
		decimal.RequireFromString("150"),
	)

	if msg.Subject != "📈 Alert: AAPL is above 150" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if msg.Text != "AAPL is now 151.2, which is above your threshold of 150." {
		t.Fatalf("unexpected text %q", msg.Text)
	}
	if !strings.Contains(msg.HTML, "<strong>151.2</strong>") {
		t.Fatalf("unexpected html %q", msg.HTML)
	}
}
