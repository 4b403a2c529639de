package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRooms_Array(t *testing.T) {
	rooms, err := ParseRooms([]byte(`[{"type":"DOUBLE","quantity":2}]`))

	require.NoError(t, err)
	assert.Equal(t, Rooms{{Type: RoomDouble, Quantity: 2}}, rooms)
}

func TestParseRooms_StringEncoded(t *testing.T) {
	rooms, err := ParseRooms([]byte(`"[{\"type\":\"DOUBLE\",\"quantity\":2}]"`))

	require.NoError(t, err)
	assert.Equal(t, Rooms{{Type: RoomDouble, Quantity: 2}}, rooms)
}

func TestParseRooms_EmptyAndNull(t *testing.T) {
	for _, in := range []string{"", "null", `""`, "  "} {
		rooms, err := ParseRooms([]byte(in))
		require.NoError(t, err, in)
		assert.Empty(t, rooms, in)
	}
}

func TestParseRooms_Rejects(t *testing.T) {
	for _, in := range []string{`{"type":"SINGLE"}`, `42`, `"\"[]\""`, `[{"type":1}]`} {
		_, err := ParseRooms([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestRooms_RoundTripThroughStorageForm(t *testing.T) {
	original := Rooms{{Type: RoomDouble, Quantity: 2}}

	encoded, err := original.Encode()
	require.NoError(t, err)

	// storage hands back the string column; the JSON body may carry either form
	var fromString Rooms
	require.NoError(t, fromString.Scan(encoded))
	assert.Equal(t, original, fromString)

	var fromBytes Rooms
	require.NoError(t, fromBytes.Scan([]byte(encoded)))
	assert.Equal(t, original, fromBytes)

	quoted, err := json.Marshal(encoded)
	require.NoError(t, err)
	var fromQuoted Rooms
	require.NoError(t, json.Unmarshal(quoted, &fromQuoted))
	assert.Equal(t, original, fromQuoted)
}

func TestRooms_MarshalNilAsEmptyArray(t *testing.T) {
	b, err := json.Marshal(struct {
		Rooms Rooms `json:"rooms"`
	}{})

	require.NoError(t, err)
	assert.JSONEq(t, `{"rooms":[]}`, string(b))
}

func TestRoomType_Valid(t *testing.T) {
	for _, rt := range RoomTypes {
		assert.True(t, rt.Valid())
	}
	assert.False(t, RoomType("PENTHOUSE").Valid())
	assert.False(t, RoomType("single").Valid())
}
