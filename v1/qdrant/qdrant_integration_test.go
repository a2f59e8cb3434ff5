package qdrant

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// QdrantContainer represents a Qdrant container for testing
type QdrantContainer struct {
	testcontainers.Container
	Host string
	Port string
}

// setupQdrantContainer sets up a Qdrant container for testing
func setupQdrantContainer(ctx context.Context) (*QdrantContainer, error) {
	// Get a random free port
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"6334/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	// Define container request
	req := testcontainers.ContainerRequest{
		Image: "qdrant/qdrant:v1.13.4",
		Env: map[string]string{
			"QDRANT__SERVICE__GRPC_PORT": "6334",
		},
		ExposedPorts: []string{"6334/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForListeningPort("6334/tcp").WithStartupTimeout(60 * time.Second),
	}

	// Start container
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start qdrant container: %w", err)
	}

	// Get host
	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	// Get mapped port
	mappedPort, err := container.MappedPort(ctx, "6334")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	portStr = mappedPort.Port()

	// Wait for Qdrant to be fully ready
	fmt.Printf("Waiting for Qdrant to be ready on %s:%s...\n", host, portStr)
	err = waitForQdrantReady(host, portStr, 30*time.Second)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("qdrant container not ready: %w", err)
	}
	fmt.Printf("Qdrant is ready on %s:%s\n", host, portStr)

	return &QdrantContainer{
		Container: container,
		Host:      host,
		Port:      portStr,
	}, nil
}

// getFreePort gets a free port from the OS
func getFreePort() (int, error) {
	addr, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer func(addr net.Listener) {
		err := addr.Close()
		if err != nil {
			fmt.Printf("Failed to close listener: %v", err)
		}
	}(addr)

	return addr.Addr().(*net.TCPAddr).Port, nil
}

// waitForQdrantReady attempts to connect to Qdrant until it's ready or times out
func waitForQdrantReady(host, port string, timeout time.Duration) error {
	startTime := time.Now()
	for {
		if time.Since(startTime) > timeout {
			return fmt.Errorf("timed out waiting for Qdrant to be ready after %s", timeout)
		}

		// Try to establish a TCP connection
		conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), 2*time.Second)
		if err == nil {
			_ = conn.Close()
			// Additional wait to ensure the service is fully ready
			time.Sleep(2 * time.Second)
			return nil
		}

		time.Sleep(500 * time.Millisecond)
	}
}

// TestMain sets up the testing environment
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// TestQdrantStoreWithFXModule runs the vectordb.Service contract against a real Qdrant.
func TestQdrantStoreWithFXModule(t *testing.T) {
	// Skip if running in short mode
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	containerInstance, err := setupQdrantContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	t.Logf("Using Qdrant on %s:%s", containerInstance.Host, containerInstance.Port)

	portNum, err := strconv.Atoi(containerInstance.Port)
	require.NoError(t, err)

	var (
		client *Client
		svc    *vectordb.Service
	)
	app := fxtest.New(t,
		fx.Provide(
			func() *Config {
				return &Config{
					Endpoint:           containerInstance.Host,
					Port:               portNum,
					CheckCompatibility: false,
					Timeout:            10 * time.Second,
				}
			},
		),
		FXModule,
		vectordb.FXModule,
		fx.Populate(&client, &svc),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, client)
	require.NoError(t, client.HealthCheck(ctx))

	single := vectordb.SingleVector(3, vectordb.DistanceCosine)

	t.Run("EnsureIsIdempotent", func(t *testing.T) {
		require.NoError(t, svc.Ensure(ctx, "it_ensure", single))
		require.NoError(t, svc.Ensure(ctx, "it_ensure", single))

		err := svc.Ensure(ctx, "it_ensure", vectordb.SingleVector(4, vectordb.DistanceCosine))
		assert.ErrorIs(t, err, vectordb.ErrSchemaMismatch)

		err = NewStore(client).CreateCollection(ctx, "it_ensure", single)
		assert.ErrorIs(t, err, vectordb.ErrAlreadyExists)
	})

	t.Run("UpsertSearchRoundTrip", func(t *testing.T) {
		require.NoError(t, svc.Ensure(ctx, "it_roundtrip", single))

		id, err := svc.Upsert(ctx, vectordb.UpsertRequest{
			Collection: "it_roundtrip",
			Vector:     []float32{0.3, 0.4, 0.5},
			Payload:    map[string]any{"text": "hello"},
		})
		require.NoError(t, err)

		matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "it_roundtrip", Vector: []float32{0.3, 0.4, 0.5}, Limit: 1})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, id, matches[0].ID)
		assert.Equal(t, map[string]any{"text": "hello"}, matches[0].Payload)
		assert.InDelta(t, 1.0, matches[0].Score, 1e-4)
	})

	t.Run("ReplacementAndRanking", func(t *testing.T) {
		require.NoError(t, svc.Ensure(ctx, "it_ranking", single))

		for id, v := range map[string][]float32{"1": {-1, 0, 0}, "2": {0, 1, 0}, "3": {1, 0, 0}} {
			_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "it_ranking", ID: id, Vector: v, Payload: map[string]any{"v": "first"}})
			require.NoError(t, err)
		}
		_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "it_ranking", ID: "3", Vector: []float32{1, 0, 0}, Payload: map[string]any{"v": "second"}})
		require.NoError(t, err)

		n, err := svc.Count(ctx, "it_ranking")
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)

		matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "it_ranking", Vector: []float32{1, 0, 0}, Limit: 3})
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, "3", matches[0].ID)
		assert.Equal(t, "second", matches[0].Payload["v"])
		assert.Equal(t, "2", matches[1].ID)
		assert.Equal(t, "1", matches[2].ID)
		assert.InDelta(t, -1.0, matches[2].Score, 1e-4)
	})

	t.Run("NamedSlotsAndPlaceholders", func(t *testing.T) {
		schema := vectordb.Schema{
			"image_vector": {Size: 4, Distance: vectordb.DistanceCosine},
			"text_vector":  {Size: 4, Distance: vectordb.DistanceCosine},
		}
		require.NoError(t, svc.Ensure(ctx, "it_images", schema))

		info, err := svc.Describe(ctx, "it_images")
		require.NoError(t, err)
		assert.True(t, info.Schema.Equal(schema))

		imageID, err := svc.Upsert(ctx, vectordb.UpsertRequest{
			Collection: "it_images",
			Vectors:    map[string][]float32{"image_vector": {1, 0, 0, 0}},
			Payload:    map[string]any{"image_data": "aGVsbG8="},
		})
		require.NoError(t, err)

		matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "it_images", Slot: "text_vector", Vector: []float32{1, 0, 0, 0}, Limit: 5})
		require.NoError(t, err)
		assert.Empty(t, matches)

		matches, err = svc.Search(ctx, vectordb.SearchRequest{Collection: "it_images", Slot: "image_vector", Vector: []float32{1, 0, 0, 0}, Limit: 5})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, imageID, matches[0].ID)
		assert.Equal(t, map[string]any{"image_data": "aGVsbG8="}, matches[0].Payload)
	})

	t.Run("Filters", func(t *testing.T) {
		require.NoError(t, svc.Ensure(ctx, "it_filters", single))
		for i, source := range []string{"upload", "seed", "upload"} {
			_, err := svc.Upsert(ctx, vectordb.UpsertRequest{
				Collection: "it_filters",
				ID:         fmt.Sprint(i + 1),
				Vector:     []float32{1, float32(i), 0},
				Payload:    map[string]any{"source": source, "rank": i},
			})
			require.NoError(t, err)
		}

		matches, err := svc.Search(ctx, vectordb.SearchRequest{
			Collection: "it_filters",
			Vector:     []float32{1, 0, 0},
			Limit:      5,
			Filter: vectordb.NewFilterSet(
				vectordb.Must(vectordb.NewMatch("source", "upload")),
				vectordb.MustNot(vectordb.NewMatch("rank", 0)),
			),
		})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "3", matches[0].ID)
	})

	t.Run("ClearAndCount", func(t *testing.T) {
		require.NoError(t, svc.Ensure(ctx, "it_clear", single))
		for i := 0; i < 5; i++ {
			_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "it_clear", Vector: []float32{1, float32(i), 0}})
			require.NoError(t, err)
		}
		require.NoError(t, svc.Clear(ctx, "it_clear", single))

		n, err := svc.Count(ctx, "it_clear")
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "it_clear", Vector: []float32{0, 1, 0}})
		require.NoError(t, err)
		n, err = svc.Count(ctx, "it_clear")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)
	})

	t.Run("MissingCollection", func(t *testing.T) {
		matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "it_missing", Vector: []float32{1, 0, 0}, Limit: 5})
		require.NoError(t, err)
		assert.Empty(t, matches)

		n, err := svc.Count(ctx, "it_missing")
		require.NoError(t, err)
		assert.Zero(t, n)

		require.NoError(t, NewStore(client).DeleteCollection(ctx, "it_missing"))
	})
}

// TestNewClient_Unreachable checks that a dead endpoint reports ErrStoreUnavailable.
func TestNewClient_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	port, err := getFreePort()
	require.NoError(t, err)

	_, err = NewClient(&Config{Endpoint: "localhost", Port: port}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, vectordb.ErrStoreUnavailable)
}
