package services_test

import (
	"testing"
	"time"

	"coursepilot/models"
	"coursepilot/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeHubDeliversToSubscriber(t *testing.T) {
	hub := services.NewChangeHub()
	events, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Publish(services.PhaseEvent{ProjectID: 1, Phase: models.PhaseIngest, Action: models.ActionRecordUpdated, At: time.Now()})

	select {
	case event := <-events:
		assert.Equal(t, uint(1), event.ProjectID)
		assert.Equal(t, models.PhaseIngest, event.Phase)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

func TestChangeHubScopedToProject(t *testing.T) {
	hub := services.NewChangeHub()
	events, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Publish(services.PhaseEvent{ProjectID: 2, Phase: models.PhaseIngest})
	assert.Empty(t, events)
}

func TestChangeHubNeverBlocksPublisher(t *testing.T) {
	hub := services.NewChangeHub()
	events, cancel := hub.Subscribe(1)
	defer cancel()

	// Overfill the subscriber buffer without reading; Publish must return
	for i := 0; i < 40; i++ {
		hub.Publish(services.PhaseEvent{ProjectID: 1, Phase: models.PhaseIngest})
	}
	assert.Equal(t, 16, len(events))
}

func TestChangeHubCancelClosesChannel(t *testing.T) {
	hub := services.NewChangeHub()
	events, cancel := hub.Subscribe(1)

	cancel()
	_, open := <-events
	require.False(t, open)

	// Publishing after cancel is a no-op
	hub.Publish(services.PhaseEvent{ProjectID: 1, Phase: models.PhaseIngest})
}
