package pkg

import (
	"encoding/json"
	"fmt"

	"github.com/qnkhuat/openingrush/pkg/gui"
	"github.com/qnkhuat/openingrush/pkg/presets"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

type MessageType int

const (
	TypeMessageConnect MessageType = iota
	TypeMessageBoard
	TypeMessageFeedback
	TypeMessageError
	TypeMessageLoad
	TypeMessageStart
	TypeMessageMove
	TypeMessagePreset
)

var messageTypeNames = map[MessageType]string{
	TypeMessageConnect:  "connect",
	TypeMessageBoard:    "board",
	TypeMessageFeedback: "feedback",
	TypeMessageError:    "error",
	TypeMessageLoad:     "load",
	TypeMessageStart:    "start",
	TypeMessageMove:     "move",
	TypeMessagePreset:   "preset",
}

func (m MessageType) String() string {
	if name, ok := messageTypeNames[m]; ok {
		return name
	}
	return "unknown"
}

func (m MessageType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MessageType) UnmarshalText(text []byte) error {
	for t, name := range messageTypeNames {
		if name == string(text) {
			*m = t
			return nil
		}
	}
	return fmt.Errorf("unknown message type %q", text)
}

type MessageInterface interface {
	Type() MessageType
}

// MessageTransport is the envelope of every websocket frame.
type MessageTransport struct {
	MsgType MessageType
	Data    json.RawMessage
}

func Encode(m MessageInterface) (MessageTransport, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return MessageTransport{}, fmt.Errorf("encode %s: %w", m.Type(), err)
	}
	return MessageTransport{MsgType: m.Type(), Data: data}, nil
}

// Decode unpacks the payload of t into the message type it announces.
func Decode(t MessageTransport) (MessageInterface, error) {
	var m MessageInterface
	switch t.MsgType {
	case TypeMessageConnect:
		m = &MessageConnect{}
	case TypeMessageBoard:
		m = &MessageBoard{}
	case TypeMessageFeedback:
		m = &MessageFeedback{}
	case TypeMessageError:
		m = &MessageError{}
	case TypeMessageLoad:
		m = &MessageLoad{}
	case TypeMessageStart:
		m = &MessageStart{}
	case TypeMessageMove:
		m = &MessageMove{}
	case TypeMessagePreset:
		m = &MessagePreset{}
	default:
		return nil, fmt.Errorf("unknown message type %d", t.MsgType)
	}
	if len(t.Data) > 0 {
		if err := json.Unmarshal(t.Data, m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t.MsgType, err)
		}
	}
	return m, nil
}

// Server to client

type MessageConnect struct {
	Id      string
	Name    string
	Presets []presets.Preset
	Theme   gui.ThemeHex
}

func (m MessageConnect) Type() MessageType { return TypeMessageConnect }

type MessageBoard struct {
	Fen         string
	Orientation trainer.Color
	ViewOnly    bool
	TurnColor   trainer.Color
	Dests       trainer.Dests
}

func (m MessageBoard) Type() MessageType { return TypeMessageBoard }

type MessageFeedback struct {
	Kind  trainer.NoticeKind
	Text  string
	Stats trainer.Stats
}

func (m MessageFeedback) Type() MessageType { return TypeMessageFeedback }

type MessageError struct {
	Message string
}

func (m MessageError) Type() MessageType { return TypeMessageError }

// Client to server

type MessageLoad struct {
	Pgn   string
	Color trainer.Color
}

func (m MessageLoad) Type() MessageType { return TypeMessageLoad }

type MessageStart struct{}

func (m MessageStart) Type() MessageType { return TypeMessageStart }

type MessageMove struct {
	From string
	To   string
}

func (m MessageMove) Type() MessageType { return TypeMessageMove }

type MessagePreset struct {
	Name string
}

func (m MessagePreset) Type() MessageType { return TypeMessagePreset }
