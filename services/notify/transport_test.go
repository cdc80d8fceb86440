package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vplan-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestNewTransportNoop(t *testing.T) {
	transport := NewTransport(NtfyOptions{Url: "  "}, &telemetry.MemoryAPI{})
	require.IsType(t, NoopTransport{}, transport)
	require.NoError(t, transport.Publish(context.Background(), "class.10c", Message{}))
}

func TestNtfyTransport(t *testing.T) {
	var received []ntfyPublish
	var auth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body ntfyPublish
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received = append(received, body)
		auth = append(auth, r.Header.Get("Authorization"))
		if body.Topic == "teacher_GAR" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"id":"abc","event":"message"}`))
	}))
	defer server.Close()

	transport := NewTransport(NtfyOptions{Url: server.URL, Token: "tk_secret"}, &telemetry.MemoryAPI{})
	msg := FormatMessage(Change{Record: exampleRecord()})

	require.NoError(t, transport.Publish(context.Background(), "class.10c", msg))

	err := transport.Publish(context.Background(), "teacher.GAR", msg)
	var dispatchErr *DispatchError
	require.True(t, errors.As(err, &dispatchErr))
	require.Equal(t, http.StatusTooManyRequests, dispatchErr.Status)
	require.Equal(t, "teacher.GAR", dispatchErr.Topic)

	require.Len(t, received, 2)
	require.Equal(t, "class_10c", received[0].Topic)
	require.Equal(t, msg.Title, received[0].Title)
	require.Equal(t, msg.Body, received[0].Message)
	require.Equal(t, []string{"vplan", "new"}, received[0].Tags)
	require.Equal(t, 3, received[0].Priority)
	require.Equal(t, "Bearer tk_secret", auth[0])
}

func TestNtfyTransportUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	transport := NewNtfyTransport(NtfyOptions{Url: url}, &telemetry.MemoryAPI{})
	err := transport.Publish(context.Background(), "class.10c", Message{Body: "x"})
	var dispatchErr *DispatchError
	require.True(t, errors.As(err, &dispatchErr))
	require.Error(t, dispatchErr.Unwrap())
}

func TestNtfyTopic(t *testing.T) {
	require.Equal(t, "class_10c", NtfyTopic("class.10c"))
	require.Equal(t, "vplan_teacher_MUL", NtfyTopic("vplan.teacher.MUL"))

	mul := NtfyTopic("vplan.teacher.MÜL")
	require.True(t, strings.HasPrefix(mul, "vplan_teacher_MUL_"))
	require.Len(t, mul, len("vplan_teacher_MUL")+9)
	require.Equal(t, mul, NtfyTopic("vplan.teacher.MÜL"))
	require.NotEqual(t, mul, NtfyTopic("vplan.teacher.MÖL"))
	require.NotEqual(t, NtfyTopic("class.10c/x"), NtfyTopic("class.10c?x"))

	long := strings.Repeat("a", 100)
	require.Len(t, NtfyTopic(long), 64)
	require.NotEqual(t, NtfyTopic(long), NtfyTopic(long+"b"))
	require.Len(t, NtfyTopic(string(make([]byte, 100))), 64)
}
