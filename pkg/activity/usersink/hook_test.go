package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-dispatch/pkg/activity"
	"github.com/goliatone/go-dispatch/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return nil
}

func TestHookNotifyMapsRegistryEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildBackendRegisteredEvent(activity.BackendEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		Channel:    "dispatch",
		Domain:     "numerics",
		Backend:    "dask",
		Position:   1,
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected ids: %+v", record)
	}
	if record.Verb != activity.VerbBackendRegistered || record.ObjectType != activity.ObjectTypeDomain || record.ObjectID != "numerics" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "dispatch" || record.OccurredAt != now {
		t.Fatalf("unexpected channel or time: %+v", record)
	}
	if record.Data["backend"] != "dask" || record.Data["position"] != 1 {
		t.Fatalf("unexpected data: %+v", record.Data)
	}
}

func TestHookNotifyKeepsNonUUIDActor(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.BuildBackendGlobalSetEvent(activity.BackendEventInput{
		ActorID: "config-loader",
		Domain:  "numerics",
		Backend: "numpy",
	}))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected nil actor uuid, got %s", record.ActorID)
	}
	if record.Data["actor"] != "config-loader" {
		t.Fatalf("expected raw actor preserved, got %v", record.Data["actor"])
	}
	if record.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{Verb: activity.VerbBackendGlobalSet})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records, got %d", len(sink.records))
	}
}
