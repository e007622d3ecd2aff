package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfileRequestDistinguishesOmittedNullAndValue(t *testing.T) {
	var req UpdateProfileRequest
	body := `{"bio": null, "location": "Bandung", "communities": ["RT 05", "Karang Taruna"]}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.False(t, req.Name.Set, "name omitted")
	assert.True(t, req.Bio.Set)
	assert.True(t, req.Bio.Null)
	assert.Nil(t, req.Bio.Ptr())
	assert.True(t, req.Location.Set)
	assert.Equal(t, "Bandung", *req.Location.Ptr())
	assert.Equal(t, []string{"RT 05", "Karang Taruna"}, req.Communities.Value)
	assert.False(t, req.Notes.Set)

	assert.True(t, req.TouchesUser())
	assert.True(t, req.TouchesProfile())
}

func TestUpdateProfileRequestEmptyBody(t *testing.T) {
	var req UpdateProfileRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))

	assert.False(t, req.TouchesUser())
	assert.False(t, req.TouchesProfile())
}

func TestOptionalMarshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A Optional[string] `json:"a"`
		B Optional[string] `json:"b"`
	}{A: Some("x"), B: Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":null}`, string(out))
}
