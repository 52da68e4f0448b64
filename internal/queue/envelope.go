package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SpecVersion is the CloudEvents version produced by NewCloudEvent.
const SpecVersion = "1.0"

// DefaultSource is the CloudEvent source used for events built locally.
const DefaultSource = "pay-reconciler"

var (
	// ErrEmptyMessage is returned for a push without any data.
	ErrEmptyMessage = errors.New("push message has no data")
	// ErrMalformedEvent is returned when the payload is not a CloudEvent.
	ErrMalformedEvent = errors.New("malformed cloud event")
)

// PushRequest is the body of a Pub/Sub push delivery. Data arrives base64
// encoded and is decoded by encoding/json.
type PushRequest struct {
	Message      PushMessage `json:"message"`
	Subscription string      `json:"subscription"`
}

// PushMessage is the message part of a PushRequest.
type PushMessage struct {
	Data        []byte            `json:"data"`
	MessageID   string            `json:"messageId"`
	PublishTime string            `json:"publishTime,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// CloudEvent is the event carried in a push message.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Type            MessageType     `json:"type"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
}

// FileMessage is the payload of file upload events.
type FileMessage struct {
	FileName string `json:"fileName"`
	Location string `json:"location"`
}

// IdentifierUpdate is the payload of business registration events.
type IdentifierUpdate struct {
	TempIdentifier string `json:"tempidentifier"`
	Identifier     string `json:"identifier"`
}

// DecodePush extracts the CloudEvent from a push body. The messageId is
// used as the event id when the event carries none.
func DecodePush(body []byte) (*CloudEvent, error) {
	var req PushRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if len(req.Message.Data) == 0 {
		return nil, ErrEmptyMessage
	}

	var ce CloudEvent
	if err := json.Unmarshal(req.Message.Data, &ce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ce.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	if ce.ID == "" {
		ce.ID = req.Message.MessageID
	}
	return &ce, nil
}

// NewCloudEvent builds an event of type t carrying data as JSON.
func NewCloudEvent(t MessageType, data any) (*CloudEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event data: %w", err)
	}
	return &CloudEvent{
		SpecVersion:     SpecVersion,
		ID:              uuid.NewString(),
		Source:          DefaultSource,
		Type:            t,
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            raw,
	}, nil
}

// EncodePush wraps ce in a push body, as delivered by the subscription.
func EncodePush(ce *CloudEvent, subscription string) ([]byte, error) {
	data, err := json.Marshal(ce)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cloud event: %w", err)
	}
	return json.Marshal(PushRequest{
		Message:      PushMessage{Data: data, MessageID: ce.ID},
		Subscription: subscription,
	})
}

// DecodeData unmarshals the event data into v.
func (ce *CloudEvent) DecodeData(v any) error {
	if len(ce.Data) == 0 {
		return fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, ce.ID)
	}
	if err := json.Unmarshal(ce.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}

// FileMessage decodes a file upload payload and checks the file name.
func (ce *CloudEvent) FileMessage() (FileMessage, error) {
	var msg FileMessage
	if err := ce.DecodeData(&msg); err != nil {
		return msg, err
	}
	if msg.FileName == "" {
		return msg, fmt.Errorf("%w: fileName is required", ErrMalformedEvent)
	}
	return msg, nil
}
