package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ck4445/ECKOBits/pkg/command"
	"github.com/ck4445/ECKOBits/pkg/repository"
	"github.com/ck4445/ECKOBits/pkg/service"
)

type fakeSource struct {
	comments []Comment
	err      error
}

func (f *fakeSource) Comments(context.Context, int) ([]Comment, error) {
	return f.comments, f.err
}

func newTestListener(t *testing.T, source Source) (*Listener, *repository.Repository) {
	t.Helper()
	repo, err := repository.New(t.TempDir(), log.NewNopLogger())
	require.NoError(t, err)
	svc := service.NewLedgerService(repo)
	processor := command.New(svc, log.NewNopLogger())
	return NewListener(source, repo, processor, 0, 30, log.NewNopLogger()), repo
}

func TestPollHandlesOldestFirst(t *testing.T) {
	// the source yields newest first; the backlog must apply oldest first
	source := &fakeSource{comments: []Comment{
		{ID: "2", Author: "alice", Content: "s carol 20"},
		{ID: "1", Author: "alice", Content: "s bob 10"},
	}}
	l, repo := newTestListener(t, source)

	require.NoError(t, l.Poll(context.Background()))

	txns, err := repo.Transactions()
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "bob", txns[0].To)
	assert.Equal(t, "carol", txns[1].To)
}

func TestPollSkipsProcessedComments(t *testing.T) {
	source := &fakeSource{comments: []Comment{
		{ID: "7", Author: "alice", Content: "s bob 10"},
	}}
	l, repo := newTestListener(t, source)
	require.NoError(t, repo.MarkCommentProcessed("7"))

	require.NoError(t, l.Poll(context.Background()))

	txns, err := repo.Transactions()
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestPollMarksEveryComment(t *testing.T) {
	source := &fakeSource{comments: []Comment{
		{ID: "3", Author: "alice", Content: "just chatting"},
		{ID: "2", Author: "bob", Content: "!s alice 5"},
		{ID: "1", Author: "carol", Content: ""},
	}}
	l, repo := newTestListener(t, source)

	require.NoError(t, l.Poll(context.Background()))

	for _, id := range []string{"1", "2", "3"} {
		done, err := repo.IsCommentProcessed(id)
		require.NoError(t, err)
		assert.True(t, done, "comment %s", id)
	}

	// only the command comment produced a transaction
	txns, err := repo.Transactions()
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "bob", txns[0].From)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comments", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":102,"author_name":"alice","content":"s bob 10"},{"id":101,"author_name":"bob","content":"hi"}]`))
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, nil)
	comments, err := source.Comments(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	// numeric wire ids normalize to strings
	assert.Equal(t, "102", comments[0].ID)
	assert.Equal(t, "alice", comments[0].Author)
	assert.Equal(t, "s bob 10", comments[0].Content)
}

func TestHTTPSourceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, nil)
	_, err := source.Comments(context.Background(), 30)
	assert.Error(t, err)
}
