package events

import (
	"encoding/json"
	"testing"
	"time"
)

// ── EventBus Publish/Subscribe ────────────────────────────────────────

func TestEventBusPublishSubscribe(t *testing.T) {
	t.Run("subscriber_receives_published_event", func(t *testing.T) {
		eb := NewEventBus(64)
		ch, cancel := eb.Subscribe(EventFilter{})
		defer cancel()

		eb.Publish(EventData{
			Type:    TypeTranscriptionCompleted,
			UserID:  "user-1",
			Payload: map[string]string{"title": "Standup"},
		})

		select {
		case evt := <-ch:
			if evt.Type != TypeTranscriptionCompleted {
				t.Errorf("Type = %q, want %q", evt.Type, TypeTranscriptionCompleted)
			}
			if evt.UserID != "user-1" {
				t.Errorf("UserID = %q, want user-1", evt.UserID)
			}
			if evt.ID == "" {
				t.Error("expected non-empty event ID")
			}
			var payload map[string]string
			if err := json.Unmarshal(evt.Data, &payload); err != nil {
				t.Fatalf("Data is not valid JSON: %v", err)
			}
			if payload["title"] != "Standup" {
				t.Errorf("payload title = %q, want Standup", payload["title"])
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	})

	t.Run("filtered_subscriber_misses_non_matching", func(t *testing.T) {
		eb := NewEventBus(64)
		ch, cancel := eb.Subscribe(EventFilter{Types: []string{TypeTranscriptionFailed}})
		defer cancel()

		eb.Publish(EventData{Type: TypeTranscriptionStarted, Payload: "x"})

		select {
		case evt := <-ch:
			t.Fatalf("should not receive event, got %+v", evt)
		case <-time.After(50 * time.Millisecond):
			// expected
		}
	})

	t.Run("user_filter_scopes_delivery", func(t *testing.T) {
		eb := NewEventBus(64)
		ch, cancel := eb.Subscribe(EventFilter{UserID: "user-1"})
		defer cancel()

		eb.Publish(EventData{Type: TypeTranscriptionCompleted, UserID: "user-2", Payload: "x"})
		eb.Publish(EventData{Type: TypeTranscriptionCompleted, UserID: "user-1", Payload: "y"})

		select {
		case evt := <-ch:
			if evt.UserID != "user-1" {
				t.Errorf("UserID = %q, want user-1", evt.UserID)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
		select {
		case evt := <-ch:
			t.Fatalf("should not receive another event, got %+v", evt)
		case <-time.After(50 * time.Millisecond):
			// expected
		}
	})

	t.Run("cancel_stops_delivery", func(t *testing.T) {
		eb := NewEventBus(64)
		ch, cancel := eb.Subscribe(EventFilter{})
		cancel()

		eb.Publish(EventData{Type: TypeTranscriptionStarted, Payload: "x"})

		select {
		case _, ok := <-ch:
			if ok {
				t.Fatal("should not receive event after cancel")
			}
		case <-time.After(50 * time.Millisecond):
			// expected — channel not closed, just removed from map
		}
	})

	t.Run("multiple_subscribers", func(t *testing.T) {
		eb := NewEventBus(64)
		ch1, cancel1 := eb.Subscribe(EventFilter{})
		defer cancel1()
		ch2, cancel2 := eb.Subscribe(EventFilter{})
		defer cancel2()

		eb.Publish(EventData{Type: TypeTranscriptionFailed, Payload: "x"})

		for i, ch := range []<-chan SSEEvent{ch1, ch2} {
			select {
			case evt := <-ch:
				if evt.Type != TypeTranscriptionFailed {
					t.Errorf("subscriber %d: Type = %q, want %q", i, evt.Type, TypeTranscriptionFailed)
				}
			case <-time.After(time.Second):
				t.Fatalf("subscriber %d: timed out", i)
			}
		}
	})
}

// ── EventBus ReplaySince ─────────────────────────────────────────────

func TestEventBusReplaySince(t *testing.T) {
	t.Run("replay_all_when_empty_lastID", func(t *testing.T) {
		eb := NewEventBus(64)
		eb.Publish(EventData{Type: TypeTranscriptionStarted, Payload: "a"})
		eb.Publish(EventData{Type: TypeTranscriptionCompleted, Payload: "b"})

		events := eb.ReplaySince("", EventFilter{})
		if len(events) != 2 {
			t.Fatalf("got %d events, want 2", len(events))
		}
	})

	t.Run("replay_after_specific_id", func(t *testing.T) {
		eb := NewEventBus(64)
		eb.Publish(EventData{Type: TypeTranscriptionStarted, Payload: "a"})

		allEvents := eb.ReplaySince("", EventFilter{})
		if len(allEvents) != 1 {
			t.Fatalf("expected 1 event, got %d", len(allEvents))
		}
		firstID := allEvents[0].ID

		eb.Publish(EventData{Type: TypeTranscriptionCompleted, Payload: "b"})

		events := eb.ReplaySince(firstID, EventFilter{})
		if len(events) != 1 {
			t.Fatalf("got %d events, want 1 (after first)", len(events))
		}
		if events[0].Type != TypeTranscriptionCompleted {
			t.Errorf("Type = %q, want %q", events[0].Type, TypeTranscriptionCompleted)
		}
	})

	t.Run("replay_with_user_filter", func(t *testing.T) {
		eb := NewEventBus(64)
		eb.Publish(EventData{Type: TypeTranscriptionCompleted, UserID: "user-1", Payload: "a"})
		eb.Publish(EventData{Type: TypeTranscriptionCompleted, UserID: "user-2", Payload: "b"})

		events := eb.ReplaySince("", EventFilter{UserID: "user-2"})
		if len(events) != 1 {
			t.Fatalf("got %d events, want 1 (filtered)", len(events))
		}
		if events[0].UserID != "user-2" {
			t.Errorf("UserID = %q, want user-2", events[0].UserID)
		}
	})

	t.Run("unknown_lastID_replays_all", func(t *testing.T) {
		eb := NewEventBus(64)
		eb.Publish(EventData{Type: TypeTranscriptionStarted, Payload: "a"})

		// When lastEventID is not found (overwritten by ring wrap), all available
		// events are returned so the client doesn't silently miss everything.
		events := eb.ReplaySince("nonexistent-id", EventFilter{})
		if len(events) != 1 {
			t.Fatalf("got %d events, want 1 (fallback replay all)", len(events))
		}
	})
}

func TestMatchesFilter(t *testing.T) {
	tests := []struct {
		name   string
		event  SSEEvent
		filter EventFilter
		want   bool
	}{
		{
			name:   "empty_filter_matches_all",
			event:  SSEEvent{Type: TypeTranscriptionStarted, UserID: "u"},
			filter: EventFilter{},
			want:   true,
		},
		{
			name:   "type_match",
			event:  SSEEvent{Type: TypeTranscriptionStarted},
			filter: EventFilter{Types: []string{TypeTranscriptionStarted}},
			want:   true,
		},
		{
			name:   "type_no_match",
			event:  SSEEvent{Type: TypeTranscriptionStarted},
			filter: EventFilter{Types: []string{TypeTranscriptionCompleted}},
			want:   false,
		},
		{
			name:   "type_multiple_one_matches",
			event:  SSEEvent{Type: TypeTranscriptionCompleted},
			filter: EventFilter{Types: []string{TypeTranscriptionStarted, TypeTranscriptionCompleted}},
			want:   true,
		},
		{
			name:   "compound_type_exact_match",
			event:  SSEEvent{Type: TypeTranscriptionFailed, SubType: "provider"},
			filter: EventFilter{Types: []string{"transcription_failed:provider"}},
			want:   true,
		},
		{
			name:   "compound_type_wrong_subtype",
			event:  SSEEvent{Type: TypeTranscriptionFailed, SubType: "fetch"},
			filter: EventFilter{Types: []string{"transcription_failed:provider"}},
			want:   false,
		},
		{
			name:   "plain_type_matches_any_subtype",
			event:  SSEEvent{Type: TypeTranscriptionFailed, SubType: "provider"},
			filter: EventFilter{Types: []string{TypeTranscriptionFailed}},
			want:   true,
		},
		{
			name:   "user_match",
			event:  SSEEvent{Type: TypeTranscriptionCompleted, UserID: "user-1"},
			filter: EventFilter{UserID: "user-1"},
			want:   true,
		},
		{
			name:   "user_no_match",
			event:  SSEEvent{Type: TypeTranscriptionCompleted, UserID: "user-2"},
			filter: EventFilter{UserID: "user-1"},
			want:   false,
		},
		{
			name:   "event_without_user_passes_through",
			event:  SSEEvent{Type: TypeTranscriptionStarted},
			filter: EventFilter{UserID: "user-1"},
			want:   true,
		},
		{
			name:   "type_and_user_both_required",
			event:  SSEEvent{Type: TypeTranscriptionCompleted, UserID: "user-1"},
			filter: EventFilter{Types: []string{TypeTranscriptionStarted}, UserID: "user-1"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchesFilter(tt.event, tt.filter)
			if got != tt.want {
				t.Errorf("matchesFilter(%+v, %+v) = %v, want %v", tt.event, tt.filter, got, tt.want)
			}
		})
	}
}
