package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
	"github.com/rotahq/rota/internal/shared/infrastructure/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorderDispatcher records dispatched messages and optionally fails.
type recorderDispatcher struct {
	msgs []Message
	err  error
}

func (d *recorderDispatcher) Dispatch(_ context.Context, msg Message) error {
	if d.err != nil {
		return d.err
	}
	d.msgs = append(d.msgs, msg)
	return nil
}

func consumedEvent(t *testing.T, routingKey string, payload any) *eventbus.ConsumedEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   uuid.New(),
		AggregateType: "recurrence_family",
		RoutingKey:    routingKey,
		OccurredAt:    time.Now().UTC(),
		Payload:       raw,
	}
}

func TestVisitEventConsumer_ConfirmedSendsSMS(t *testing.T) {
	clientID := uuid.New()
	directory := NewStaticDirectory(map[uuid.UUID]string{clientID: "+4712345678"})
	dispatcher := &recorderDispatcher{}
	consumer := NewVisitEventConsumer(directory, dispatcher, nil)

	event := consumedEvent(t, domain.RoutingKeyInstanceConfirmed, map[string]any{
		"client_id": clientID,
		"date":      time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		"clock":     "09:00",
	})

	require.NoError(t, consumer.Handle(context.Background(), event))
	require.Len(t, dispatcher.msgs, 1)
	assert.Equal(t, "+4712345678", dispatcher.msgs[0].To)
	assert.Equal(t, "Your cleaning visit is confirmed for Sat 1 Mar at 09:00.", dispatcher.msgs[0].Body)
}

func TestVisitEventConsumer_SkippedMentionsBothDates(t *testing.T) {
	clientID := uuid.New()
	directory := NewStaticDirectory(map[uuid.UUID]string{clientID: "+4712345678"})
	dispatcher := &recorderDispatcher{}
	consumer := NewVisitEventConsumer(directory, dispatcher, nil)

	event := consumedEvent(t, domain.RoutingKeyInstanceSkipped, map[string]any{
		"client_id":    clientID,
		"skipped_date": time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		"next_date":    time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, consumer.Handle(context.Background(), event))
	require.Len(t, dispatcher.msgs, 1)
	assert.Contains(t, dispatcher.msgs[0].Body, "Sat 1 Mar")
	assert.Contains(t, dispatcher.msgs[0].Body, "Sat 8 Mar")
}

func TestVisitEventConsumer_MovedSendsNewSlot(t *testing.T) {
	clientID := uuid.New()
	directory := NewStaticDirectory(map[uuid.UUID]string{clientID: "+4712345678"})
	dispatcher := &recorderDispatcher{}
	consumer := NewVisitEventConsumer(directory, dispatcher, nil)

	event := consumedEvent(t, domain.RoutingKeyInstanceMoved, map[string]any{
		"client_id": clientID,
		"new_date":  time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		"new_clock": "15:00",
	})

	require.NoError(t, consumer.Handle(context.Background(), event))
	require.Len(t, dispatcher.msgs, 1)
	assert.Equal(t, "Your cleaning visit has moved to Mon 3 Mar at 15:00.", dispatcher.msgs[0].Body)
}

func TestVisitEventConsumer_NoPhoneOnFileSkips(t *testing.T) {
	dispatcher := &recorderDispatcher{}
	consumer := NewVisitEventConsumer(NewStaticDirectory(nil), dispatcher, nil)

	event := consumedEvent(t, domain.RoutingKeyInstanceConfirmed, map[string]any{
		"client_id": uuid.New(),
		"date":      time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		"clock":     "09:00",
	})

	require.NoError(t, consumer.Handle(context.Background(), event))
	assert.Empty(t, dispatcher.msgs)
}

func TestVisitEventConsumer_BadPayloadIsDiscarded(t *testing.T) {
	dispatcher := &recorderDispatcher{}
	consumer := NewVisitEventConsumer(NewStaticDirectory(nil), dispatcher, nil)

	event := &eventbus.ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: domain.RoutingKeyInstanceConfirmed,
		Payload:    []byte("not json"),
	}

	require.NoError(t, consumer.Handle(context.Background(), event))
	assert.Empty(t, dispatcher.msgs)
}

func TestVisitEventConsumer_ProviderErrorPropagates(t *testing.T) {
	clientID := uuid.New()
	directory := NewStaticDirectory(map[uuid.UUID]string{clientID: "+4712345678"})
	dispatcher := &recorderDispatcher{err: errors.New("gateway down")}
	consumer := NewVisitEventConsumer(directory, dispatcher, nil)

	event := consumedEvent(t, domain.RoutingKeyInstanceConfirmed, map[string]any{
		"client_id": clientID,
		"date":      time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		"clock":     "09:00",
	})

	err := consumer.Handle(context.Background(), event)
	assert.EqualError(t, err, "gateway down")
}

func TestBreakerDispatcher_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &recorderDispatcher{err: errors.New("gateway down")}
	config := DefaultBreakerConfig()
	config.FailureThreshold = 3
	dispatcher := NewBreakerDispatcher(inner, config, nil)

	msg := Message{To: "+4712345678", Body: "hello"}
	for i := 0; i < 3; i++ {
		err := dispatcher.Dispatch(context.Background(), msg)
		assert.EqualError(t, err, "gateway down")
	}

	// Breaker is now open; the inner dispatcher is no longer reached.
	err := dispatcher.Dispatch(context.Background(), msg)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestBreakerDispatcher_PassthroughOnSuccess(t *testing.T) {
	inner := &recorderDispatcher{}
	dispatcher := NewBreakerDispatcher(inner, DefaultBreakerConfig(), nil)

	require.NoError(t, dispatcher.Dispatch(context.Background(), Message{To: "+47", Body: "hi"}))
	require.Len(t, inner.msgs, 1)
}

func TestHTTPProvider_Dispatch(t *testing.T) {
	var got smsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "secret", nil)
	err := provider.Dispatch(context.Background(), Message{To: "+4712345678", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "+4712345678", got.To)
	assert.Equal(t, "hello", got.Body)
}

func TestHTTPProvider_GatewayErrorIsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "secret", nil)
	err := provider.Dispatch(context.Background(), Message{To: "+4712345678", Body: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestLoadDirectory(t *testing.T) {
	clientID := uuid.New()
	path := filepath.Join(t.TempDir(), "phones.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"`+clientID.String()+`": "+44700900123"}`), 0o600))

	dir, err := LoadDirectory(path)
	require.NoError(t, err)

	phone, err := dir.PhoneFor(context.Background(), clientID)
	require.NoError(t, err)
	assert.Equal(t, "+44700900123", phone)

	phone, err = dir.PhoneFor(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, phone)
}

func TestLoadDirectory_Errors(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not-a-uuid": "x"}`), 0o600))
	_, err = LoadDirectory(bad)
	assert.Error(t, err)
}
