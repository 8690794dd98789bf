package sender

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

type capturedMessage struct {
	topic string
	key   string
	value any
}

type fakePublisher struct {
	messages []capturedMessage
	err      error
}

func (p *fakePublisher) SendMessage(_ context.Context, topic, key string, value any) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, capturedMessage{topic: topic, key: key, value: value})
	return nil
}

func TestKafkaSender(t *testing.T) {
	pub := &fakePublisher{}
	s := NewKafkaSender(pub, "storefront.mail")

	err := s.Send(context.Background(), domain.Email{To: []string{"a@example.com", "b@example.com"}, Subject: "Hi", HTML: "<p>x</p>"})
	require.NoError(t, err)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "storefront.mail", pub.messages[0].topic)
	assert.Equal(t, "a@example.com", pub.messages[0].key)
	assert.Equal(t, MailCommand{To: []string{"a@example.com", "b@example.com"}, Subject: "Hi", HTML: "<p>x</p>"}, pub.messages[0].value)

	pub.err = errors.New("broker unavailable")
	err = s.Send(context.Background(), domain.Email{To: []string{"a@example.com"}})
	assert.True(t, xerrors.Is(err, xerrors.KindTransport))
}

func TestWebhookAlerter(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewWebhookAlerter(srv.URL).Alert(context.Background(), "New order #ORD-1"))
	assert.Equal(t, map[string]string{"text": "New order #ORD-1"}, got)
}

func TestWebhookAlerter_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookAlerter(srv.URL).Alert(context.Background(), "x")
	assert.True(t, xerrors.Is(err, xerrors.KindTransport))
}

func TestNew(t *testing.T) {
	s, err := New(ChannelLog, SMTPConfig{}, nil, "")
	require.NoError(t, err)
	assert.IsType(t, LogSender{}, s)

	s, err = New(ChannelSMTP, SMTPConfig{Host: "localhost", Port: 25}, nil, "")
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = New(ChannelKafka, SMTPConfig{}, nil, "mail")
	assert.Error(t, err)

	_, err = New("pigeon", SMTPConfig{}, nil, "")
	assert.ErrorContains(t, err, "unsupported mail channel")
}

func TestSMTPSender_UnreachableServerIsTransportError(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "shop@example.com"})

	err := s.Send(context.Background(), domain.Email{To: []string{"a@example.com"}, Subject: "Hi", HTML: "x"})
	assert.True(t, xerrors.Is(err, xerrors.KindTransport))
}
