package observability

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kit-messenger/internal/mocks"
)

func TestPublishEventWrapsPayload(t *testing.T) {
	sink := new(mocks.PublisherMock)
	SetSink(sink)
	t.Cleanup(func() { SetSink(nil) })

	sink.On("Publish", mock.Anything, RoutingCallEnded, mock.AnythingOfType("observability.EventEnvelope")).Return(nil).Once()

	require.NoError(t, PublishEvent(context.Background(), RoutingCallEnded, "call.ended", map[string]string{"target_id": "u-2"}))

	sink.AssertExpectations(t)
	assert.Equal(t, []string{RoutingCallEnded}, sink.RoutingKeys())
	envelope := sink.Calls[0].Arguments.Get(2).(EventEnvelope)
	assert.Equal(t, "call.ended", envelope.EventName)
	assert.Empty(t, envelope.TraceID)
}

func TestPublishEventWithoutSink(t *testing.T) {
	SetSink(nil)
	assert.NoError(t, PublishEvent(context.Background(), RoutingMessageSent, "message.sent", nil))
}

func TestPublishEventReturnsSinkError(t *testing.T) {
	sink := new(mocks.PublisherMock)
	SetSink(sink)
	t.Cleanup(func() { SetSink(nil) })
	sink.On("Publish", mock.Anything, RoutingMessageSent, mock.Anything).Return(assert.AnError).Once()

	assert.ErrorIs(t, PublishEvent(context.Background(), RoutingMessageSent, "message.sent", nil), assert.AnError)
}

func TestClientFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/events", nil)
	req.RemoteAddr = "192.168.1.5:4000"
	req.Header.Set("X-Device-Id", "laptop")

	info := ClientFromRequest(req)
	assert.Equal(t, ClientInfo{IP: "192.168.1.5", DeviceID: "laptop"}, info)

	req.Header.Set("X-Forwarded-For", " 10.1.1.1 , 10.2.2.2")
	assert.Equal(t, "10.1.1.1", IPFromRequest(req))
}
