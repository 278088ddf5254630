package streaming

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlitstudios/backlot/pkg/core"
)

func TestMarshal_WrapsPayload(t *testing.T) {
	data, err := Marshal(TypeWorldEvent, core.WorldEvent{Tick: 12, Kind: "door.state", Actor: "door", State: "opening"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, TypeWorldEvent, env.Type)
	assert.JSONEq(t, `{"sessionId":0,"tick":12,"time":"0001-01-01T00:00:00Z","kind":"door.state","actor":"door","state":"opening"}`, string(env.Payload))
}

func TestMarshal_NilPayload(t *testing.T) {
	data, err := Marshal(TypeEndSession, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"end_session","payload":null}`, string(data))
}

func TestDecode(t *testing.T) {
	env := Envelope{Type: TypeInput, Payload: json.RawMessage(`{"steer":-1,"thrust":true}`)}

	var in InputPayload
	require.NoError(t, Decode(env, TypeInput, &in))
	assert.Equal(t, InputPayload{Steer: -1, Thrust: true}, in)

	assert.Error(t, Decode(env, TypeHello, &in))
	assert.Error(t, Decode(Envelope{Type: TypeInput, Payload: json.RawMessage(`{`)}, TypeInput, &in))
}
