package domain

import (
	"context"
	"time"
)

// EventType defines the kind of an inbound client event.
type EventType string

const (
	EventConnect EventType = "connect"
	EventClick   EventType = "click"
)

// ClickEvent is the application payload of a click on the rendered scene.
// Fields are decoded from the client payload; Payload keeps the raw map.
type ClickEvent struct {
	PageID   string         `json:"page_id" mapstructure:"-"`
	SocketID string         `json:"socket_id" mapstructure:"-"`
	ObjectID string         `json:"object_id" mapstructure:"object_id"`
	Button   int            `json:"button" mapstructure:"button"`
	X        float64        `json:"x" mapstructure:"x"`
	Y        float64        `json:"y" mapstructure:"y"`
	Z        float64        `json:"z" mapstructure:"z"`
	Payload  map[string]any `json:"payload,omitempty" mapstructure:"-"`
}

// DispatchEvent describes one command handed to the scheduler for one socket.
type DispatchEvent struct {
	Timestamp time.Time `json:"timestamp"`
	PageID    string    `json:"page_id"`
	SocketID  string    `json:"socket_id"`
	Command   Command   `json:"command"`
	Replay    bool      `json:"replay,omitempty"`
}

// DeliveryErrorEvent describes a delivery that failed and was dropped.
type DeliveryErrorEvent struct {
	DispatchEvent
	Err error `json:"-"`
}

// ReplayEvent describes a full state replay to a newly connected socket.
type ReplayEvent struct {
	Timestamp time.Time `json:"timestamp"`
	PageID    string    `json:"page_id"`
	SocketID  string    `json:"socket_id"`
	Objects   int       `json:"objects"`
}

// Hooks defines callbacks for view connector observability.
// Any of them may be nil. They run synchronously on the caller of the
// mutation (OnDispatch, OnReplay, OnClick) or on the delivery task (OnDeliveryError).
// OnDispatch and OnReplay fire once the view lock is released, so they may
// read the view.
type Hooks struct {
	OnDispatch      func(context.Context, *DispatchEvent)
	OnDeliveryError func(context.Context, *DeliveryErrorEvent)
	OnReplay        func(context.Context, *ReplayEvent)
	OnClick         func(context.Context, *ClickEvent, bool)
}
