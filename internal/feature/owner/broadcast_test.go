package owner

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type staticRecipients []string

func (s staticRecipients) UserIDs(context.Context) []string {
	return s
}

type recordingSender struct {
	failFor map[int64]bool
	sent    []int64
	onSend  func()
}

func (r *recordingSender) Send(_ context.Context, chatID int64, _ string) error {
	if r.onSend != nil {
		r.onSend()
	}
	if r.failFor[chatID] {
		return errors.New("chat not found")
	}
	r.sent = append(r.sent, chatID)
	return nil
}

func TestBroadcastDeliversSequentiallyAndSkipsFailures(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	broadcaster := NewBroadcaster(staticRecipients{"1", "2", "3", "4"}, logrus.NewEntry(hookLogger))
	sender := &recordingSender{failFor: map[int64]bool{2: true, 4: true}}

	report, err := broadcaster.Broadcast(context.Background(), sender, "hello")
	if err != nil {
		t.Fatalf("Broadcast returned error: %v", err)
	}

	if report.Recipients != 4 || report.Delivered != 2 || report.Failed != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !reflect.DeepEqual(sender.sent, []int64{1, 3}) {
		t.Fatalf("expected deliveries in order, got %v", sender.sent)
	}

	failures := 0
	for _, entry := range hook.AllEntries() {
		if entry.Data["event"] == "broadcast_delivery_failed" {
			failures++
		}
	}
	if failures != 2 {
		t.Fatalf("expected 2 failure logs, got %d", failures)
	}
}

func TestBroadcastCountsUnparsableIDsAsFailed(t *testing.T) {
	hookLogger, _ := logtest.NewNullLogger()
	broadcaster := NewBroadcaster(staticRecipients{"abc", "7"}, logrus.NewEntry(hookLogger))
	sender := &recordingSender{}

	report, err := broadcaster.Broadcast(context.Background(), sender, "x")
	if err != nil {
		t.Fatalf("Broadcast returned error: %v", err)
	}
	if report.Delivered != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestBroadcastStopsOnCancel(t *testing.T) {
	hookLogger, _ := logtest.NewNullLogger()
	broadcaster := NewBroadcaster(staticRecipients{"1", "2", "3"}, logrus.NewEntry(hookLogger))

	ctx, cancel := context.WithCancel(context.Background())
	sender := &recordingSender{onSend: cancel}

	report, err := broadcaster.Broadcast(ctx, sender, "x")
	if err != nil {
		t.Fatalf("Broadcast returned error: %v", err)
	}
	if report.Delivered != 1 || report.Failed != 2 {
		t.Fatalf("expected one delivery before cancel, got %+v", report)
	}
}

func TestBroadcastEmptyUserList(t *testing.T) {
	report, err := NewBroadcaster(staticRecipients{}, nil).Broadcast(context.Background(), &recordingSender{}, "x")
	if err != nil || report != (Report{}) {
		t.Fatalf("expected empty report, got %+v err=%v", report, err)
	}
}

func TestBroadcastGuards(t *testing.T) {
	var nilBroadcaster *Broadcaster
	if _, err := nilBroadcaster.Broadcast(context.Background(), &recordingSender{}, "x"); err == nil {
		t.Fatalf("expected error for nil broadcaster")
	}

	broadcaster := NewBroadcaster(staticRecipients{"1"}, nil)
	if _, err := broadcaster.Broadcast(context.Background(), nil, "x"); err == nil {
		t.Fatalf("expected error for nil sender")
	}
	if _, err := broadcaster.Broadcast(nil, &recordingSender{}, "x"); err == nil {
		t.Fatalf("expected error for nil context")
	}
}
