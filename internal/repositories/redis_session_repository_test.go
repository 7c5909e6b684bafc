package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scode550/MultiRole-Chatbot/internal/models"
)

func setupSessionRepo(t *testing.T) (*RedisSessionRepository, func()) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // separate DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available: %v", err)
	}

	repo := NewRedisSessionRepository(client)
	cleanup := func() {
		client.FlushDB(context.Background())
		client.Close()
	}
	client.FlushDB(context.Background())
	return repo, cleanup
}

func testSession(id string) *models.Session {
	return &models.Session{
		ID:        id,
		Role:      models.RoleTechLead,
		Filenames: []string{"report.pdf"},
		History:   []models.Turn{},
		CreatedAt: time.Now(),
	}
}

func TestRedisSessionRepository_InsertAndGet(t *testing.T) {
	repo, cleanup := setupSessionRepo(t)
	defer cleanup()

	ctx := context.Background()
	session := testSession("sess-1")

	err := repo.Insert(ctx, session)
	require.NoError(t, err)

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, session.Role, got.Role)
	assert.Equal(t, session.Filenames, got.Filenames)
	assert.Empty(t, got.History)
}

func TestRedisSessionRepository_InsertDuplicate(t *testing.T) {
	repo, cleanup := setupSessionRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, testSession("sess-dup")))

	err := repo.Insert(ctx, testSession("sess-dup"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRedisSessionRepository_GetNotFound(t *testing.T) {
	repo, cleanup := setupSessionRepo(t)
	defer cleanup()

	_, err := repo.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsSessionNotFound(err))
}

func TestRedisSessionRepository_ListMostRecentFirst(t *testing.T) {
	repo, cleanup := setupSessionRepo(t)
	defer cleanup()

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.Insert(ctx, testSession(fmt.Sprintf("sess-%d", i))))
	}

	sessions, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "sess-3", sessions[0].ID)
	assert.Equal(t, "sess-2", sessions[1].ID)
	assert.Equal(t, "sess-1", sessions[2].ID)
}

func TestRedisSessionRepository_AppendTurns(t *testing.T) {
	repo, cleanup := setupSessionRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, testSession("sess-hist")))

	err := repo.AppendTurns(ctx, "sess-hist",
		models.Turn{Role: "user", Content: "What is the system uptime?"},
		models.Turn{Role: "assistant", Content: "Uptime is 99.9%.", Sources: []models.Source{
			{SourceFile: "report.pdf", DocType: "Technical Documentation"},
		}},
	)
	require.NoError(t, err)

	got, err := repo.Get(ctx, "sess-hist")
	require.NoError(t, err)
	require.Len(t, got.History, 2)
	assert.Equal(t, "user", got.History[0].Role)

	last := got.LastTurn()
	require.NotNil(t, last)
	assert.Equal(t, "assistant", last.Role)
	assert.Equal(t, "Uptime is 99.9%.", last.Content)
	assert.Len(t, last.Sources, 1)
}

func TestRedisSessionRepository_AppendTurnsMissingSession(t *testing.T) {
	repo, cleanup := setupSessionRepo(t)
	defer cleanup()

	err := repo.AppendTurns(context.Background(), "missing", models.Turn{Role: "user", Content: "hi"})
	require.Error(t, err)
	assert.True(t, IsSessionNotFound(err))
}

func TestRedisSessionRepository_Delete(t *testing.T) {
	repo, cleanup := setupSessionRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, testSession("sess-del")))
	require.NoError(t, repo.Delete(ctx, "sess-del"))

	_, err := repo.Get(ctx, "sess-del")
	assert.True(t, IsSessionNotFound(err))

	sessions, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisSessionRepository_DeleteNotFound(t *testing.T) {
	repo, cleanup := setupSessionRepo(t)
	defer cleanup()

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsSessionNotFound(err))
}
