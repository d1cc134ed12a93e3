package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

func TestDecodeList(t *testing.T) {
	items, count, err := DecodeList[named]([]byte(`[{"id":1,"nombre":"Centro"},{"id":2,"nombre":"Norte"}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "Norte", items[1].Name)

	items, count, err = DecodeList[named]([]byte(`{"count":40,"results":[{"id":3,"nombre":"Sur"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 40, count)
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].ID)

	items, count, err = DecodeList[named]([]byte(" null "))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, count)

	_, _, err = DecodeList[named]([]byte(`{"results":"nope"}`))
	assert.Error(t, err)
}
