package services

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/repo"
)

// ---------- friend requests ----------

func TestOnFriendRequestCreated_EndToEnd(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, false)
	seedProfile(t, db, "u1", "tok1")

	fr := &domain.FriendRequest{FromUserName: "Ana", ToUserID: "u1", FromUserID: "u2"}
	if err := repo.CreateFriendRequest(ctx, db, fr); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := w.OnFriendRequestCreated(ctx, fr.ID); err != nil {
		t.Fatalf("watcher: %v", err)
	}

	recs := outboxFor(t, db, domain.CollectionFriendRequests, fr.ID)
	if len(recs) != 1 {
		t.Fatalf("want exactly 1 outbox record, got %d", len(recs))
	}
	got := recs[0]
	if got.Token != "tok1" || got.DeliveryState != domain.DeliveryPending {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Notification.Title != "Nova solicitação de amizade" || got.Notification.Body != "Ana quer ser seu amigo" {
		t.Fatalf("unexpected notification: %+v", got.Notification)
	}
	want := map[string]string{
		"type":         "friend_request",
		"fromUserId":   "u2",
		"fromUserName": "Ana",
		"requestId":    fr.ID,
	}
	if !reflect.DeepEqual(got.Data, want) {
		t.Fatalf("data = %v, want %v", got.Data, want)
	}

	// Marker-less mode leaves the source record untouched.
	after, err := repo.GetFriendRequest(ctx, db, fr.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.Processed || after.ProcessedAt != nil || after.Error != "" {
		t.Fatalf("friend request must not be mutated, got %+v", after)
	}
}

func TestOnFriendRequestCreated_MarkerOff_DuplicateDeliveryEnqueuesTwice(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, false)
	seedProfile(t, db, "u1", "tok1")

	fr := &domain.FriendRequest{FromUserID: "u2", ToUserID: "u1"}
	if err := repo.CreateFriendRequest(ctx, db, fr); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := w.OnFriendRequestCreated(ctx, fr.ID); err != nil {
			t.Fatalf("watcher #%d: %v", i, err)
		}
	}
	if n := len(outboxFor(t, db, domain.CollectionFriendRequests, fr.ID)); n != 2 {
		t.Fatalf("without a marker every delivery enqueues; got %d", n)
	}
}

func TestOnFriendRequestCreated_MarkerOn_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)
	seedProfile(t, db, "u1", "tok1")

	fr := &domain.FriendRequest{FromUserID: "u2", ToUserID: "u1"}
	if err := repo.CreateFriendRequest(ctx, db, fr); err != nil {
		t.Fatalf("create: %v", err)
	}

	kind := string(domain.KindFriendRequestCreated)
	skipped := testutil.ToFloat64(watcherEvents.WithLabelValues(kind, outcomeSkipped))

	for i := 0; i < 3; i++ {
		if err := w.OnFriendRequestCreated(ctx, fr.ID); err != nil {
			t.Fatalf("watcher #%d: %v", i, err)
		}
	}
	if n := len(outboxFor(t, db, domain.CollectionFriendRequests, fr.ID)); n != 1 {
		t.Fatalf("want 1 outbox record across redeliveries, got %d", n)
	}
	after, _ := repo.GetFriendRequest(ctx, db, fr.ID)
	if !after.Processed || after.ProcessedAt == nil || after.Error != "" {
		t.Fatalf("expected processed marker, got %+v", after)
	}
	if !after.ProcessedAt.Equal(fixedNow) {
		t.Fatalf("processed_at = %v, want %v", after.ProcessedAt, fixedNow)
	}
	if got := testutil.ToFloat64(watcherEvents.WithLabelValues(kind, outcomeSkipped)) - skipped; got != 2 {
		t.Fatalf("skipped delta = %v, want 2", got)
	}
}

func TestOnFriendRequestCreated_DefaultSenderName(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)
	seedProfile(t, db, "u1", "tok1")

	fr := &domain.FriendRequest{FromUserID: "u2", ToUserID: "u1"}
	_ = repo.CreateFriendRequest(ctx, db, fr)
	if err := w.OnFriendRequestCreated(ctx, fr.ID); err != nil {
		t.Fatalf("watcher: %v", err)
	}
	recs := outboxFor(t, db, domain.CollectionFriendRequests, fr.ID)
	if len(recs) != 1 || recs[0].Notification.Body != "Alguém quer ser seu amigo" {
		t.Fatalf("unexpected records: %+v", recs)
	}
	if recs[0].Data["fromUserName"] != "" {
		t.Fatalf("fromUserName data should stay empty, got %q", recs[0].Data["fromUserName"])
	}
}

// ---------- absent token ----------

func TestWatchers_AbsentTokenShortCircuit(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)
	seedProfile(t, db, "u-empty", "")

	inv := &domain.EventInvitation{ActivityID: "a1", ActivityTitle: "Trilha", ParticipantUserID: "u-empty"}
	upd := &domain.ActivityUpdate{ActivityID: "a1", ParticipantUserID: "ghost", UpdateMessage: "x"}
	fr := &domain.FriendRequest{FromUserID: "u2", ToUserID: "ghost"}
	if err := repo.CreateEventInvitation(ctx, db, inv); err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	if err := repo.CreateActivityUpdate(ctx, db, upd); err != nil {
		t.Fatalf("create update: %v", err)
	}
	if err := repo.CreateFriendRequest(ctx, db, fr); err != nil {
		t.Fatalf("create friend request: %v", err)
	}

	kind := string(domain.KindEventInvitationCreated)
	noToken := testutil.ToFloat64(watcherEvents.WithLabelValues(kind, outcomeNoToken))

	if err := w.OnEventInvitationCreated(ctx, inv.ID); err != nil {
		t.Fatalf("invitation watcher: %v", err)
	}
	if err := w.OnActivityUpdateCreated(ctx, upd.ID); err != nil {
		t.Fatalf("update watcher: %v", err)
	}
	if err := w.OnFriendRequestCreated(ctx, fr.ID); err != nil {
		t.Fatalf("friend request watcher: %v", err)
	}

	if n := countOutbox(t, db); n != 0 {
		t.Fatalf("absent token must produce no outbox record, got %d", n)
	}

	gotInv, _ := repo.GetEventInvitation(ctx, db, inv.ID)
	gotUpd, _ := repo.GetActivityUpdate(ctx, db, upd.ID)
	gotFR, _ := repo.GetFriendRequest(ctx, db, fr.ID)
	for _, m := range []domain.Marker{gotInv.Marker(), gotUpd.Marker(), gotFR.Marker()} {
		if !m.IsTerminal() || m.Error != ReasonNoToken || m.At == nil {
			t.Fatalf("expected terminal marker with reason, got %+v", m)
		}
	}
	if got := testutil.ToFloat64(watcherEvents.WithLabelValues(kind, outcomeNoToken)) - noToken; got != 1 {
		t.Fatalf("no_token delta = %v, want 1", got)
	}

	// A token registered later does not revive the record.
	seedProfile(t, db, "u-empty", "late")
	if err := w.OnEventInvitationCreated(ctx, inv.ID); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if n := countOutbox(t, db); n != 0 {
		t.Fatalf("terminal marker must block redelivery, got %d records", n)
	}
}

func TestOnFriendRequestCreated_MarkerOff_AbsentTokenOnlyLogs(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, false)

	fr := &domain.FriendRequest{FromUserID: "u2", ToUserID: "ghost"}
	_ = repo.CreateFriendRequest(ctx, db, fr)
	if err := w.OnFriendRequestCreated(ctx, fr.ID); err != nil {
		t.Fatalf("watcher: %v", err)
	}
	after, _ := repo.GetFriendRequest(ctx, db, fr.ID)
	if after.Processed || after.Error != "" {
		t.Fatalf("marker-less mode must not write a marker, got %+v", after)
	}
}

// ---------- invitations / updates ----------

func TestOnEventInvitationCreated_Fallbacks(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)
	seedProfile(t, db, "p1", "tokP")

	inv := &domain.EventInvitation{
		ActivityID:        "a1",
		ActivityType:      "unknown-value",
		ParticipantUserID: "p1",
	}
	_ = repo.CreateEventInvitation(ctx, db, inv)
	if err := w.OnEventInvitationCreated(ctx, inv.ID); err != nil {
		t.Fatalf("watcher: %v", err)
	}
	recs := outboxFor(t, db, domain.CollectionEventInvitations, inv.ID)
	if len(recs) != 1 {
		t.Fatalf("want 1 record, got %d", len(recs))
	}
	n := recs[0].Notification
	if n.Title != "📅 Convite para Evento" {
		t.Fatalf("title = %q", n.Title)
	}
	if n.Body != `Você foi convidado como participante para "Evento"` {
		t.Fatalf("body = %q", n.Body)
	}
	if recs[0].Data["role"] != "participant" || recs[0].Data["type"] != "event_invitation" {
		t.Fatalf("data = %v", recs[0].Data)
	}
	after, _ := repo.GetEventInvitation(ctx, db, inv.ID)
	if !after.Processed || after.Error != "" {
		t.Fatalf("expected clean processed marker, got %+v", after)
	}
}

func TestOnActivityUpdateCreated_Queued(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)
	seedProfile(t, db, "p1", "tokP")

	upd := &domain.ActivityUpdate{
		ActivityID:        "a9",
		ActivityTitle:     "Churrasco",
		ParticipantUserID: "p1",
		UpdateMessage:     "Mudamos para as 18h",
	}
	_ = repo.CreateActivityUpdate(ctx, db, upd)

	kind := string(domain.KindActivityUpdateCreated)
	enq := testutil.ToFloat64(outboxEnqueued.WithLabelValues(kind))

	if err := w.OnActivityUpdateCreated(ctx, upd.ID); err != nil {
		t.Fatalf("watcher: %v", err)
	}
	recs := outboxFor(t, db, domain.CollectionActivityUpdates, upd.ID)
	if len(recs) != 1 {
		t.Fatalf("want 1 record, got %d", len(recs))
	}
	if recs[0].Notification.Title != "📝 Atualização: Churrasco" || recs[0].Notification.Body != "Mudamos para as 18h" {
		t.Fatalf("notification = %+v", recs[0].Notification)
	}
	if recs[0].Data["activityId"] != "a9" {
		t.Fatalf("data = %v", recs[0].Data)
	}
	if got := testutil.ToFloat64(outboxEnqueued.WithLabelValues(kind)) - enq; got != 1 {
		t.Fatalf("enqueued delta = %v, want 1", got)
	}
}

func TestWatchers_MissingRecordIsNoop(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)

	for name, fn := range map[string]func(context.Context, string) error{
		"friend":       w.OnFriendRequestCreated,
		"invitation":   w.OnEventInvitationCreated,
		"update":       w.OnActivityUpdateCreated,
		"notification": w.OnNotificationCreated,
	} {
		if err := fn(ctx, "does-not-exist"); err != nil {
			t.Fatalf("%s: expected nil for a vanished record, got %v", name, err)
		}
	}
	if n := countOutbox(t, db); n != 0 {
		t.Fatalf("expected no outbox records, got %d", n)
	}
}

func TestWatchers_EnqueueFailureLeavesMarkerOpen(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)
	seedProfile(t, db, "p1", "tokP")

	upd := &domain.ActivityUpdate{ActivityID: "a1", ParticipantUserID: "p1"}
	_ = repo.CreateActivityUpdate(ctx, db, upd)
	if err := db.Migrator().DropTable(&domain.OutboxRecord{}); err != nil {
		t.Fatalf("drop outbox: %v", err)
	}

	if err := w.OnActivityUpdateCreated(ctx, upd.ID); err == nil {
		t.Fatalf("expected store error to propagate for redelivery")
	}
	after, _ := repo.GetActivityUpdate(ctx, db, upd.ID)
	if after.Processed {
		t.Fatalf("marker must roll back together with the failed enqueue")
	}
}

// ---------- generic notifications ----------

func TestOnNotificationCreated_CarriedToken(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)

	n := &domain.Notification{
		Type:     "promo",
		FCMToken: "carried",
		Title:    "Oi",
		Body:     "Tudo bem?",
		Data: map[string]any{
			"count": float64(3),
			"vip":   true,
			"none":  nil,
			"tags":  []any{"a", "b"},
		},
	}
	if err := repo.CreateNotification(ctx, db, n); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := w.OnNotificationCreated(ctx, n.ID); err != nil {
		t.Fatalf("watcher: %v", err)
	}
	recs := outboxFor(t, db, domain.CollectionNotifications, n.ID)
	if len(recs) != 1 {
		t.Fatalf("want 1 record, got %d", len(recs))
	}
	r := recs[0]
	if r.Token != "carried" || r.Notification.Title != "Oi" || r.Notification.Body != "Tudo bem?" {
		t.Fatalf("unexpected record: %+v", r)
	}
	want := map[string]string{"count": "3", "vip": "true", "none": "", "tags": `["a","b"]`}
	if !reflect.DeepEqual(r.Data, want) {
		t.Fatalf("data = %v, want %v", r.Data, want)
	}

	after, _ := repo.GetNotification(ctx, db, n.ID)
	if after.Status != domain.NotificationSent || after.SentAt == nil {
		t.Fatalf("expected status=sent with sent_at, got %+v", after)
	}
}

func TestOnNotificationCreated_ProfileFallbackAndDefaults(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)
	seedProfile(t, db, "r1", "tokR")

	n := &domain.Notification{RecipientID: "r1"}
	_ = repo.CreateNotification(ctx, db, n)
	if err := w.OnNotificationCreated(ctx, n.ID); err != nil {
		t.Fatalf("watcher: %v", err)
	}
	recs := outboxFor(t, db, domain.CollectionNotifications, n.ID)
	if len(recs) != 1 || recs[0].Token != "tokR" {
		t.Fatalf("expected profile token, got %+v", recs)
	}
	if recs[0].Notification.Title != "Notificação" || recs[0].Notification.Body != "Você tem uma nova notificação." {
		t.Fatalf("expected defaults, got %+v", recs[0].Notification)
	}
}

func TestOnNotificationCreated_NoToken(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)

	n := &domain.Notification{RecipientID: "ghost", Title: "t"}
	_ = repo.CreateNotification(ctx, db, n)
	if err := w.OnNotificationCreated(ctx, n.ID); err != nil {
		t.Fatalf("watcher: %v", err)
	}
	if c := countOutbox(t, db); c != 0 {
		t.Fatalf("expected no outbox records, got %d", c)
	}
	after, _ := repo.GetNotification(ctx, db, n.ID)
	if after.Status != domain.NotificationFailed || after.Error != ReasonNotificationNoToken {
		t.Fatalf("expected failed with reason, got %+v", after)
	}
}

func TestOnNotificationCreated_NotPendingSkipped(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)

	n := &domain.Notification{FCMToken: "tok", Status: domain.NotificationSent}
	_ = repo.CreateNotification(ctx, db, n)
	if err := w.OnNotificationCreated(ctx, n.ID); err != nil {
		t.Fatalf("watcher: %v", err)
	}
	if c := countOutbox(t, db); c != 0 {
		t.Fatalf("non-pending notification must be ignored, got %d records", c)
	}
}

// ---------- activity deletion fan-out ----------

func snapshotOf(t *testing.T, a domain.Activity) []byte {
	t.Helper()
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func tokensOf(recs []domain.OutboxRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Token)
	}
	sort.Strings(out)
	return out
}

func TestOnActivityDeleted_FanOutExclusion(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)
	seedProfile(t, db, "owner", "tokOwner")
	seedProfile(t, db, "A", "tokA")
	seedProfile(t, db, "B", "tokB")

	a := &domain.Activity{Title: "Praia", OwnerID: "owner", ParticipantIDs: []string{"owner", "A", "B"}}
	if err := repo.CreateActivity(ctx, db, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	removed, err := repo.DeleteActivity(ctx, db, a.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := w.OnActivityDeleted(ctx, a.ID, snapshotOf(t, *removed)); err != nil {
		t.Fatalf("watcher: %v", err)
	}
	recs := outboxFor(t, db, domain.CollectionActivities, a.ID)
	if got := tokensOf(recs); !reflect.DeepEqual(got, []string{"tokA", "tokB"}) {
		t.Fatalf("tokens = %v, want [tokA tokB]", got)
	}
	for _, r := range recs {
		if r.Notification.Title != "❌ Evento Cancelado" ||
			r.Notification.Body != `O evento "Praia" foi cancelado pelo organizador` {
			t.Fatalf("unexpected notification: %+v", r.Notification)
		}
		if r.Data["type"] != "activity_deleted" || r.Data["activityId"] != a.ID || r.Data["activityTitle"] != "Praia" {
			t.Fatalf("unexpected data: %v", r.Data)
		}
	}
}

func TestOnActivityDeleted_PartialTokensAndDuplicates(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)
	seedProfile(t, db, "A", "tokA")
	seedProfile(t, db, "C", "tokC")

	snap := snapshotOf(t, domain.Activity{
		OwnerID:        "owner",
		ParticipantIDs: []string{"A", "B", "", "A", "C", "owner"},
	})
	if err := w.OnActivityDeleted(ctx, "act-1", snap); err != nil {
		t.Fatalf("watcher: %v", err)
	}
	recs := outboxFor(t, db, domain.CollectionActivities, "act-1")
	if got := tokensOf(recs); !reflect.DeepEqual(got, []string{"tokA", "tokC"}) {
		t.Fatalf("tokens = %v, want [tokA tokC]", got)
	}
	// Missing title falls back to the default.
	if recs[0].Notification.Body != `O evento "Evento" foi cancelado pelo organizador` {
		t.Fatalf("body = %q", recs[0].Notification.Body)
	}
}

func TestOnActivityDeleted_RedeliveryDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)
	seedProfile(t, db, "A", "tokA")
	seedProfile(t, db, "B", "tokB")

	snap := snapshotOf(t, domain.Activity{OwnerID: "o", ParticipantIDs: []string{"A", "B"}})
	for i := 0; i < 2; i++ {
		if err := w.OnActivityDeleted(ctx, "act-2", snap); err != nil {
			t.Fatalf("watcher #%d: %v", i, err)
		}
	}
	if n := len(outboxFor(t, db, domain.CollectionActivities, "act-2")); n != 2 {
		t.Fatalf("want 2 records after redelivery, got %d", n)
	}
}

func TestOnActivityDeleted_OwnerOnlyAndBadSnapshot(t *testing.T) {
	ctx := context.Background()
	db := newSvcDB(t)
	w := newTestWatchers(t, db, true)
	seedProfile(t, db, "o", "tokO")

	if err := w.OnActivityDeleted(ctx, "a1", snapshotOf(t, domain.Activity{OwnerID: "o", ParticipantIDs: []string{"o"}})); err != nil {
		t.Fatalf("owner only: %v", err)
	}
	if err := w.OnActivityDeleted(ctx, "a2", []byte("{not json")); err != nil {
		t.Fatalf("bad snapshot should not be redelivered, got %v", err)
	}
	if n := countOutbox(t, db); n != 0 {
		t.Fatalf("expected no records, got %d", n)
	}
}

// ---------- terminal records stay untouched ----------

func TestWatchers_TerminalRecordUnchangedOnRedelivery(t *testing.T) {
	type watched struct {
		name   string
		create func(ctx context.Context, t *testing.T, w *Watchers) string
		run    func(w *Watchers, ctx context.Context, id string) error
		load   func(ctx context.Context, w *Watchers, id string) (any, error)
	}
	cases := []watched{
		{
			name: "friend request",
			create: func(ctx context.Context, t *testing.T, w *Watchers) string {
				fr := &domain.FriendRequest{FromUserID: "u2", FromUserName: "Ana", ToUserID: "u1"}
				if err := repo.CreateFriendRequest(ctx, w.DB, fr); err != nil {
					t.Fatalf("create: %v", err)
				}
				return fr.ID
			},
			run: (*Watchers).OnFriendRequestCreated,
			load: func(ctx context.Context, w *Watchers, id string) (any, error) {
				return repo.GetFriendRequest(ctx, w.DB, id)
			},
		},
		{
			name: "event invitation",
			create: func(ctx context.Context, t *testing.T, w *Watchers) string {
				inv := &domain.EventInvitation{ActivityID: "a1", ActivityTitle: "Trilha", ActivityType: "hiking", ParticipantUserID: "u1", ParticipantRole: "admin"}
				if err := repo.CreateEventInvitation(ctx, w.DB, inv); err != nil {
					t.Fatalf("create: %v", err)
				}
				return inv.ID
			},
			run: (*Watchers).OnEventInvitationCreated,
			load: func(ctx context.Context, w *Watchers, id string) (any, error) {
				return repo.GetEventInvitation(ctx, w.DB, id)
			},
		},
		{
			name: "activity update",
			create: func(ctx context.Context, t *testing.T, w *Watchers) string {
				upd := &domain.ActivityUpdate{ActivityID: "a1", ActivityTitle: "Trilha", ParticipantUserID: "u1", UpdateMessage: "Novo horário"}
				if err := repo.CreateActivityUpdate(ctx, w.DB, upd); err != nil {
					t.Fatalf("create: %v", err)
				}
				return upd.ID
			},
			run: (*Watchers).OnActivityUpdateCreated,
			load: func(ctx context.Context, w *Watchers, id string) (any, error) {
				return repo.GetActivityUpdate(ctx, w.DB, id)
			},
		},
		{
			name: "notification",
			create: func(ctx context.Context, t *testing.T, w *Watchers) string {
				n := &domain.Notification{RecipientID: "u1", Title: "Oi", Body: "Tudo bem?", Data: map[string]any{"n": 1}}
				if err := repo.CreateNotification(ctx, w.DB, n); err != nil {
					t.Fatalf("create: %v", err)
				}
				return n.ID
			},
			run: (*Watchers).OnNotificationCreated,
			load: func(ctx context.Context, w *Watchers, id string) (any, error) {
				return repo.GetNotification(ctx, w.DB, id)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			db := newSvcDB(t)
			w := newTestWatchers(t, db, true)
			seedProfile(t, db, "u1", "tok1")

			id := tc.create(ctx, t, w)
			if err := tc.run(w, ctx, id); err != nil {
				t.Fatalf("first delivery: %v", err)
			}
			before, err := tc.load(ctx, w, id)
			if err != nil {
				t.Fatalf("load: %v", err)
			}

			later := fixedNow.Add(time.Hour)
			w.Now = func() time.Time { return later }
			if err := tc.run(w, ctx, id); err != nil {
				t.Fatalf("redelivery: %v", err)
			}
			after, err := tc.load(ctx, w, id)
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			if !reflect.DeepEqual(before, after) {
				t.Fatalf("terminal record changed on redelivery:\nbefore %+v\nafter  %+v", before, after)
			}
			if n := countOutbox(t, db); n != 1 {
				t.Fatalf("want 1 outbox record, got %d", n)
			}
		})
	}
}
