package server

import (
	"net/http"
	"testing"

	"github.com/jcouture/go-gameroom/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestGetUserId(t *testing.T) {
	cm := &ClientMessage{
		BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
		UserId:      42,
	}
	assert.Equal(t, 42, cm.GetUserId(), "expected UserId to be returned directly")

	var nilMsg *ClientMessage
	assert.Equal(t, 0, nilMsg.GetUserId(), "expected 0 for a nil message")
}

func TestNoErrOK(t *testing.T) {
	msg := NoErrOK(1, map[string]any{"testkey": "testvalue"})
	assert.Equal(t, 1, msg.Id)
	assert.Equal(t, http.StatusOK, msg.Response.ResponseCode)
	assert.Equal(t, map[string]any{"testkey": "testvalue"}, msg.Response.Data)
	assert.Empty(t, msg.Response.Error)
}

func TestNoErrAccepted(t *testing.T) {
	msg := NoErrAccepted(3)
	assert.Equal(t, 3, msg.Id)
	assert.Equal(t, http.StatusAccepted, msg.Response.ResponseCode)
	assert.Nil(t, msg.Response.Data)
}

func TestErrResponse(t *testing.T) {
	tcases := []struct {
		name     string
		err      *types.Error
		wantCode int
	}{
		{name: "authorization", err: types.Forbidden("not your turn"), wantCode: http.StatusForbidden},
		{name: "not found", err: types.NotFound("room not found"), wantCode: http.StatusNotFound},
		{name: "conflict", err: types.Conflict("the session is paused"), wantCode: http.StatusConflict},
		{name: "validation", err: types.Invalid("player id is required"), wantCode: http.StatusBadRequest},
		{name: "transient", err: types.Transient("try again"), wantCode: http.StatusServiceUnavailable},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			msg := ErrResponse(5, tc.err)
			assert.Equal(t, 5, msg.Id)
			assert.Equal(t, tc.wantCode, msg.Response.ResponseCode, "expected the taxonomy to map to the right code")
			assert.Equal(t, string(tc.err.Code), msg.Response.ErrorCode)
			assert.Equal(t, tc.err.Message, msg.Response.Error, "expected the reason to be preserved")
		})
	}
}

func TestErrInvalidMessage(t *testing.T) {
	msg := ErrInvalidMessage(-1)
	assert.Equal(t, 0, msg.Id, "expected negative ids to be dropped")

	msg = ErrInvalidMessage(9)
	assert.Equal(t, 9, msg.Id, "expected positive ids to be echoed")
	assert.Equal(t, http.StatusBadRequest, msg.Response.ResponseCode)
}
