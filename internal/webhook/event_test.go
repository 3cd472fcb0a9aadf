package webhook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondhand/internal/webhook"
)

func TestParseBareEvent(t *testing.T) {
	ev, err := webhook.Parse([]byte(`{"id":"evt_1","type":"charge:created","data":{"id":"chg_1","metadata":{"session":"sid-1","n":3}}}`))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, webhook.TypeChargeCreated, ev.Type)
	assert.Equal(t, "chg_1", ev.Data.ID)
	assert.Equal(t, "sid-1", ev.Data.Meta("session"))
	assert.Equal(t, "3", ev.Data.Meta("n"))
	assert.Equal(t, "", ev.Data.Meta("missing"))
}

func TestParseProviderEnvelope(t *testing.T) {
	ev, err := webhook.Parse([]byte(`{
		"id": "delivery_9",
		"scheduled_for": "2024-01-01T00:00:00Z",
		"event": {"id": "evt_7", "type": "charge:failed", "data": {"id": "chg_7", "description": "p1(1)"}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "evt_7", ev.ID)
	assert.Equal(t, webhook.TypeChargeFailed, ev.Type)
	assert.Equal(t, "p1(1)", ev.Data.Description)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := webhook.Parse([]byte(`not json`))
	assert.ErrorIs(t, err, webhook.ErrMalformedEvent)

	_, err = webhook.Parse([]byte(`{"id":"evt_1"}`))
	assert.ErrorIs(t, err, webhook.ErrMalformedEvent)
}
