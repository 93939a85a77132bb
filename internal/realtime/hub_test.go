package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/escrow-backend/internal/pkg/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubDeliversProjectEventsInOrder(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := ProjectChannel(uuid.New())

	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)

	first := SSEMessage{Channel: channel, Event: "milestone.submitted", Data: map[string]any{"seq": 1}}
	second := SSEMessage{Channel: channel, Event: "milestone.approved", Data: map[string]any{"seq": 2}}
	hub.Broadcast(first)
	hub.Broadcast(second)

	gotFirst := recvMessage(t, client.Outbound, time.Second)
	gotSecond := recvMessage(t, client.Outbound, time.Second)
	if gotFirst.Event != "milestone.submitted" {
		t.Fatalf("first event: want=milestone.submitted got=%s", gotFirst.Event)
	}
	if gotSecond.Event != "milestone.approved" {
		t.Fatalf("second event: want=milestone.approved got=%s", gotSecond.Event)
	}
}

func TestSSEHubReconnect(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := ProjectChannel(uuid.New())

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)
	hub.CloseClient(clientA)

	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: "payment.released"})
	got := recvMessage(t, clientB.Outbound, time.Second)
	if got.Event != "payment.released" {
		t.Fatalf("reconnect event: want=payment.released got=%s", got.Event)
	}
}

func TestSSEHubCloseClientIsIdempotent(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := ProjectChannel(uuid.New())
	user := uuid.New()

	// A reconnect closes the previous client, then the previous stream's
	// tail closes it again on its way out.
	old := hub.NewSSEClient(user)
	hub.AddChannel(old, channel)

	replacement := hub.NewSSEClient(user)
	hub.AddChannel(replacement, channel)

	hub.CloseClient(old)
	hub.CloseClient(old)

	select {
	case <-old.done:
	default:
		t.Fatalf("old client done channel must be closed")
	}

	hub.Broadcast(SSEMessage{Channel: channel, Event: "milestone.submitted"})
	got := recvMessage(t, replacement.Outbound, time.Second)
	if got.Event != "milestone.submitted" {
		t.Fatalf("replacement event: want=milestone.submitted got=%s", got.Event)
	}
}

func TestSSEHubIgnoresUnsubscribedChannel(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, ProjectChannel(uuid.New()))

	hub.Broadcast(SSEMessage{Channel: ProjectChannel(uuid.New()), Event: "project.completed"})

	select {
	case msg := <-client.Outbound:
		t.Fatalf("unexpected message on foreign channel: %v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
