package pkg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnkhuat/openingrush/pkg/trainer"
)

func TestEnvelopeWireFormat(t *testing.T) {
	env, err := Encode(MessageBoard{
		Fen:         "8/8/8/8/8/8/8/8 w - - 0 1",
		Orientation: trainer.Black,
		TurnColor:   trainer.White,
		Dests:       trainer.Dests{"e2": {"e4"}},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"MsgType":"board","Data":{"Fen":"8/8/8/8/8/8/8/8 w - - 0 1","Orientation":"black","ViewOnly":false,"TurnColor":"white","Dests":{"e2":["e4"]}}}`, string(raw))
}

func TestDecodeClientMessages(t *testing.T) {
	tests := []struct {
		raw  string
		want MessageInterface
	}{
		{`{"MsgType":"load","Data":{"Pgn":"1. e4 *","Color":"black"}}`, &MessageLoad{Pgn: "1. e4 *", Color: trainer.Black}},
		{`{"MsgType":"start"}`, &MessageStart{}},
		{`{"MsgType":"move","Data":{"From":"e2","To":"e4"}}`, &MessageMove{From: "e2", To: "e4"}},
		{`{"MsgType":"preset","Data":{"Name":"Caro-Kann"}}`, &MessagePreset{Name: "Caro-Kann"}},
	}
	for _, tt := range tests {
		var env MessageTransport
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &env))
		got, err := Decode(env)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestDecodeErrors(t *testing.T) {
	var env MessageTransport
	assert.Error(t, json.Unmarshal([]byte(`{"MsgType":"resign"}`), &env))

	_, err := Decode(MessageTransport{MsgType: TypeMessageLoad, Data: json.RawMessage(`{"Color":"green"}`)})
	assert.Error(t, err)
}

func TestFeedbackKindOnTheWire(t *testing.T) {
	env, err := Encode(MessageFeedback{Kind: trainer.NoticeOffBook, Text: "❌"})
	require.NoError(t, err)
	got, err := Decode(env)
	require.NoError(t, err)
	assert.Equal(t, trainer.NoticeOffBook, got.(*MessageFeedback).Kind)
}
