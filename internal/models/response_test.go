package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContactOK(t *testing.T) {
	resp := NewContactOK()

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data), "error field is omitted on success")
}

func TestNewContactError(t *testing.T) {
	resp := NewContactError(MsgRateLimited)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"error":"Çok fazla istek gönderdiniz. Lütfen daha sonra tekrar deneyin."}`, string(data))
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("Host not allowed")

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Host not allowed"}`, string(data))
}
