//go:build integration

package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"vplan-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNtfyContainer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute*2)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "binwiederhier/ntfy:v2.11.0",
			Cmd:          []string{"serve"},
			ExposedPorts: []string{"80/tcp"},
			WaitingFor:   wait.ForHTTP("/v1/health").WithPort("80/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer container.Terminate(context.Background())

	endpoint, err := container.Endpoint(ctx, "http")
	require.NoError(t, err)

	transport := NewTransport(NtfyOptions{Url: endpoint}, &telemetry.MemoryAPI{})
	msg := FormatMessage(Change{Record: exampleRecord()})
	require.NoError(t, transport.Publish(ctx, "class.10c", msg))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/class_10c/json?poll=1", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var event struct {
		Event   string `json:"event"`
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	scanner := bufio.NewScanner(res.Body)
	require.True(t, scanner.Scan())
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
	require.Equal(t, "message", event.Event)
	require.Equal(t, msg.Title, event.Title)
	require.Equal(t, msg.Body, event.Message)
}
