package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrUnknownTopic is returned by Decode for topics this peer does not speak.
var ErrUnknownTopic = errors.New("unknown topic")

var validate = validator.New()

// Encode serializes a payload for broadcast.
func Encode(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// Decode parses and validates the payload of a received event. The returned
// value is one of the payload structs in this package, by value.
func Decode(topic string, data []byte) (any, error) {
	switch topic {
	case TopicJoin:
		return decodeAs[Join](data)
	case TopicLeave:
		return decodeAs[Leave](data)
	case TopicHeartbeat:
		return decodeAs[Heartbeat](data)
	case TopicTyping:
		return decodeAs[Typing](data)
	case TopicCounterUpdate:
		return decodeAs[CounterUpdate](data)
	case TopicChatMessage:
		return decodeAs[ChatMessageCreated](data)
	case TopicChatDelete:
		return decodeAs[ChatMessageDeleted](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
}

func decodeAs[T any](data []byte) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return v, nil
}
