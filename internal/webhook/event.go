package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TypeChargeCreated   = "charge:created"
	TypeChargeConfirmed = "charge:confirmed"
	TypeChargeFailed    = "charge:failed"
)

type ChargeData struct {
	ID          string         `json:"id"`
	Code        string         `json:"code"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}

// Meta returns a metadata value as a string.
func (d ChargeData) Meta(key string) string {
	switch v := d.Metadata[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

type Event struct {
	ID   string     `json:"id"`
	Type string     `json:"type"`
	Data ChargeData `json:"data"`
}

// envelope accepts both a bare event and the provider's {"event": {...}} wrapper.
type envelope struct {
	Event
	Inner *Event `json:"event"`
}

var ErrMalformedEvent = errors.New("malformed webhook event")

// Parse decodes a verified body.
func Parse(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	ev := env.Event
	if env.Inner != nil && env.Inner.Type != "" {
		ev = *env.Inner
		if ev.ID == "" {
			ev.ID = env.ID
		}
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("%w: no type", ErrMalformedEvent)
	}
	return ev, nil
}
