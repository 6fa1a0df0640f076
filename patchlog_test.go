package patchlog_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/helixml/patchlog"
	"github.com/helixml/patchlog/domain/record"
	"github.com/helixml/patchlog/domain/summary"
	"github.com/helixml/patchlog/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts ...patchlog.Option) *patchlog.Client {
	t.Helper()
	tmpDir := t.TempDir()
	base := []patchlog.Option{
		patchlog.WithSQLite(filepath.Join(tmpDir, "test.db")),
		patchlog.WithDataDir(tmpDir),
		patchlog.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	client, err := patchlog.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNew_RequiresDatabase(t *testing.T) {
	_, err := patchlog.New(patchlog.WithDataDir(t.TempDir()))
	assert.ErrorIs(t, err, patchlog.ErrNoDatabase)
}

func TestClient_RecordLifecycle(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	created, err := client.Records.Create(ctx, "alice", record.Draft{
		Environment: "UAT",
		Branch:      "feature/login",
		TaskID:      "JIRA-42",
		Title:       "Add login form",
		Diff:        "diff --git a/login.go b/login.go\n+func Login() {}\n",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Stats().LinesAdded)

	records, err := client.Records.List(ctx, "alice", record.NewFilter())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, created.ID(), records[0].ID())

	require.NoError(t, client.Records.Delete(ctx, "alice", created.ID()))
	_, err = client.Records.Get(ctx, "alice", created.ID())
	assert.ErrorIs(t, err, patchlog.ErrNotFound)
}

func TestClient_UnconfiguredSummarizer(t *testing.T) {
	client := newTestClient(t)

	assert.False(t, client.Summarizer.Configured())
	result, err := client.Summarizer.Generate(context.Background(), "+x", "")
	require.NoError(t, err)
	assert.Equal(t, summary.Unconfigured(), result)
}

func TestClient_UnconfiguredSummarizerMakesNoRequests(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	for _, p := range []config.AIProvider{config.ProviderGemini, config.ProviderOpenAI} {
		t.Run(string(p), func(t *testing.T) {
			client := newTestClient(t, patchlog.WithAIConfig(config.NewAIConfigWithOptions(
				config.WithProvider(p),
				config.WithBaseURL(srv.URL),
				config.WithAPIKey(""),
				config.WithMinInterval(0),
			)))

			result, err := client.Summarizer.Generate(context.Background(), "diff --git a/x b/x\n+x", "context")
			require.NoError(t, err)
			assert.Contains(t, result.Tags, "mock-ai")
		})
	}

	assert.Equal(t, int64(0), hits.Load(), "no request may reach the model endpoint without a credential")
}

func TestClient_CloseTwice(t *testing.T) {
	tmpDir := t.TempDir()
	client, err := patchlog.New(
		patchlog.WithSQLite(filepath.Join(tmpDir, "test.db")),
		patchlog.WithDataDir(tmpDir),
	)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.Close(), patchlog.ErrClientClosed)
}

func TestClient_APIKeysCopy(t *testing.T) {
	client := newTestClient(t, patchlog.WithAPIKeys("alice:k1"))

	keys := client.APIKeys()
	keys[0] = "changed"
	assert.Equal(t, []string{"alice:k1"}, client.APIKeys())
}
