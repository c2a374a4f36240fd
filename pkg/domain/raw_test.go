package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaw_UnmarshalJSON(t *testing.T) {
	var body struct {
		Null   Raw `json:"null"`
		Bool   Raw `json:"bool"`
		Number Raw `json:"number"`
		String Raw `json:"string"`
		Array  Raw `json:"array"`
		Object Raw `json:"object"`
		Absent Raw `json:"absent"`
	}
	data := `{"null":null,"bool":true,"number":1.5,"string":"foo","array":["a",{"b":"asc"}],"object":{"k":null}}`
	require.NoError(t, json.Unmarshal([]byte(data), &body))

	assert.Equal(t, RawNull, body.Null.Kind())
	assert.Equal(t, RawBool, body.Bool.Kind())
	assert.Equal(t, RawNumber, body.Number.Kind())
	assert.Equal(t, RawString, body.String.Kind())
	assert.Equal(t, RawArray, body.Array.Kind())
	assert.Equal(t, RawObject, body.Object.Kind())
	assert.True(t, body.Absent.IsAbsent())
	assert.False(t, body.Null.IsAbsent())

	s, ok := body.String.AsString()
	assert.True(t, ok)
	assert.Equal(t, "foo", s)

	items, ok := body.Array.AsArray()
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, RawString, items[0].Kind())
	inner, ok := items[1].AsObject()
	require.True(t, ok)
	assert.Equal(t, RawString, inner["b"].Kind())

	obj, ok := body.Object.AsObject()
	require.True(t, ok)
	assert.Equal(t, RawNull, obj["k"].Kind())
}

func TestRaw_Accessors(t *testing.T) {
	_, ok := NewRaw(nil).AsString()
	assert.False(t, ok)
	_, ok = NewRaw("foo").AsArray()
	assert.False(t, ok)
	_, ok = NewRaw([]string{"foo"}).AsObject()
	assert.False(t, ok)
	_, ok = Absent().AsArray()
	assert.False(t, ok)

	assert.Equal(t, "absent", Absent().Kind().String())
	assert.Equal(t, RawObject, NewRaw(map[string]string{"foo": "asc"}).Kind())
	assert.Equal(t, RawNumber, NewRaw(3).Kind())
}

func TestRaw_MarshalJSON(t *testing.T) {
	raw := NewRaw([]interface{}{"foo", map[string]interface{}{"bar": "asc"}, nil, true})
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `["foo",{"bar":"asc"},null,true]`, string(data))

	data, err = json.Marshal(Absent())
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
