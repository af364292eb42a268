package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":          "ID",
		"userId":      "user ID",
		"listingId":   "listing ID",
		"ownerUserId": "owner user ID",
		"slug":        "slug",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}

func TestFlexString(t *testing.T) {
	var req createListingRequest

	require.NoError(t, json.Unmarshal([]byte(`{"price": 12.50}`), &req))
	assert.Equal(t, flexString("12.50"), req.Price)

	require.NoError(t, json.Unmarshal([]byte(`{"price": "99"}`), &req))
	assert.Equal(t, flexString("99"), req.Price)

	require.NoError(t, json.Unmarshal([]byte(`{"price": null}`), &req))
	assert.Equal(t, flexString(""), req.Price)

	assert.Error(t, json.Unmarshal([]byte(`{"price": true}`), &req))
}

func TestFlexStrings(t *testing.T) {
	var req createListingRequest

	require.NoError(t, json.Unmarshal([]byte(`{"images": "https://a/1.jpg"}`), &req))
	assert.Equal(t, flexStrings{"https://a/1.jpg"}, req.Images)

	require.NoError(t, json.Unmarshal([]byte(`{"images": ["a", "b", "c"]}`), &req))
	assert.Equal(t, flexStrings{"a", "b", "c"}, req.Images)

	assert.Error(t, json.Unmarshal([]byte(`{"images": 3}`), &req))
}
