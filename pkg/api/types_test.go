package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionDataOptionsList(t *testing.T) {
	payload := `{
		"id": "991",
		"type": 2,
		"guild_id": "g1",
		"channel_id": "c1",
		"member": {"user": {"id": "u1"}},
		"token": "tok",
		"data": {
			"id": "7",
			"name": "git",
			"options": [{"name": "add", "options": [{"name": "file", "value": "README.md"}]}]
		}
	}`

	var inv Interaction
	require.NoError(t, json.Unmarshal([]byte(payload), &inv))

	assert.Equal(t, InteractionApplicationCommand, inv.Type)
	assert.Equal(t, "u1", inv.Member.User.ID)
	require.NotNil(t, inv.Data)
	require.Len(t, inv.Data.Options, 1)
	assert.Equal(t, "add", inv.Data.Options[0].Name)
	require.Len(t, inv.Data.Options[0].Options, 1)
	assert.Equal(t, "README.md", inv.Data.Options[0].Options[0].Value)
}

func TestInteractionDataOptionsSingleObject(t *testing.T) {
	payload := `{"id": "7", "name": "echo", "options": {"name": "text", "value": "hi"}}`

	var data InteractionData
	require.NoError(t, json.Unmarshal([]byte(payload), &data))

	require.Len(t, data.Options, 1)
	assert.Equal(t, "text", data.Options[0].Name)
	assert.Equal(t, "hi", data.Options[0].Value)
}

func TestDataOptionScalarValues(t *testing.T) {
	payload := `[{"name":"n","value":42},{"name":"b","value":true},{"name":"f","value":1.5},{"name":"x"}]`

	var opts DataOptions
	require.NoError(t, json.Unmarshal([]byte(payload), &opts))

	require.Len(t, opts, 4)
	assert.Equal(t, "42", opts[0].Value)
	assert.Equal(t, "true", opts[1].Value)
	assert.Equal(t, "1.5", opts[2].Value)
	assert.Equal(t, "", opts[3].Value)
}

func TestDataOptionRejectsObjectValue(t *testing.T) {
	var opts DataOptions
	err := json.Unmarshal([]byte(`[{"name":"n","value":{"a":1}}]`), &opts)
	assert.Error(t, err)
}

func TestOptionOmitsAbsentFlags(t *testing.T) {
	data, err := json.Marshal(Option{Type: OptionString, Name: "file", Description: "filename"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":3,"name":"file","description":"filename"}`, string(data))

	data, err = json.Marshal(Option{Type: OptionString, Name: "file", Description: "d", Required: Bool(false)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":3,"name":"file","description":"d","required":false}`, string(data))
}

func TestAckResponse(t *testing.T) {
	data, err := json.Marshal(AckResponse())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":4,"data":{"content":"⠀"}}`, string(data))

	data, err = json.Marshal(PongResponse())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":1}`, string(data))
}
