package sse

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/nutritrack-backend/internal/logger"
)

func testHub(t *testing.T) *SSEHub {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewSSEHub(log)
}

func TestBroadcastReachesSubscribedChannel(t *testing.T) {
	hub := testHub(t)
	userID := uuid.New()

	client := hub.NewSSEClient(userID)
	hub.AddChannel(client, UserChannel(userID))

	msg := SSEMessage{
		Channel: UserChannel(userID),
		Event:   SSEEventReportUploadProgress,
		Data:    map[string]string{"stage": "uploading"},
	}
	hub.Broadcast(msg)

	select {
	case got := <-client.Outbound:
		if got.Event != SSEEventReportUploadProgress {
			t.Fatalf("expected event %q, got %q", SSEEventReportUploadProgress, got.Event)
		}
	default:
		t.Fatal("expected a delivered message")
	}

	// Other channels stay silent.
	hub.Broadcast(SSEMessage{Channel: UserChannel(uuid.New()), Event: SSEEventReportUploadDone})
	select {
	case got := <-client.Outbound:
		t.Fatalf("unexpected message: %#v", got)
	default:
	}
}

func TestCloseClientIsIdempotent(t *testing.T) {
	hub := testHub(t)
	userID := uuid.New()

	client := hub.NewSSEClient(userID)
	hub.AddChannel(client, UserChannel(userID))

	// A replaced stream gets closed by the reconnect path and again by its
	// own handler on exit; the second close must be a no-op.
	hub.CloseClient(client)
	hub.CloseClient(client)

	select {
	case <-client.done:
	default:
		t.Fatal("expected done channel to be closed")
	}

	// The client is fully unsubscribed, so broadcasting afterwards must
	// not touch its closed Outbound channel.
	hub.Broadcast(SSEMessage{Channel: UserChannel(userID), Event: SSEEventReportUploadDone})
}
