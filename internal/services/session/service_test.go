package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalogview/internal/collection"
	"catalogview/internal/datasource/graphql"
	"catalogview/internal/domain/page"
	"catalogview/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func staticSources(resp collection.Response[json.RawMessage], err error) SourceFactory {
	return func(name string) (collection.DataSource[json.RawMessage], error) {
		if name != "listWorksheets" {
			return nil, &graphql.ErrUnknownDocument{Name: name}
		}
		return collection.DataSourceFunc[json.RawMessage](func(context.Context, collection.Operation) (collection.Response[json.RawMessage], error) {
			return resp, err
		}), nil
	}
}

func onePage() collection.Response[json.RawMessage] {
	r := page.NewResult([]json.RawMessage{json.RawMessage(`{"worksheetUri":"w1"}`)}, 1, 1, 10)
	return collection.Response[json.RawMessage]{Data: &r}
}

func TestCreateDoesNotFetch(t *testing.T) {
	svc := NewService(staticSources(onePage(), nil), nil, Options{DefaultPageSize: 20, MaxPageSize: 50})

	sess, err := svc.Create(CreateRequest{Collection: "listWorksheets", Filter: page.Filter{Term: "q"}})
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "listWorksheets", sess.Controller.Operation())
	assert.Equal(t, collection.StatusIdle, sess.Controller.CurrentState().Status)
	assert.Equal(t, page.Filter{Term: "q", Page: 1, PageSize: 20}, sess.Controller.CurrentFilter())
	assert.Equal(t, 1, svc.Len())
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(staticSources(onePage(), nil), nil, Options{})

	_, err := svc.Create(CreateRequest{Collection: " "})
	assert.ErrorIs(t, err, ErrMissingCollection)

	_, err = svc.Create(CreateRequest{Collection: "listPayments"})
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "create", se.Op)
	var unknown *graphql.ErrUnknownDocument
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, 0, svc.Len())
}

func TestSessionFetchAndNotify(t *testing.T) {
	rec := notify.NewRecorder()
	svc := NewService(staticSources(collection.Response[json.RawMessage]{}, errors.New("Network error")), rec, Options{})

	sess, err := svc.Create(CreateRequest{Collection: "listWorksheets"})
	require.NoError(t, err)

	sess.Controller.Refresh(context.Background())
	sess.Controller.Wait()

	st := sess.Controller.CurrentState()
	assert.Equal(t, collection.StatusFailed, st.Status)
	assert.Equal(t, "Network error", st.Message)

	got := rec.Notifications()
	require.Len(t, got, 1)
	assert.Equal(t, sess.ID, got[0].Session)
	assert.Equal(t, "Network error", got[0].Message)
}

func TestGetAndClose(t *testing.T) {
	svc := NewService(staticSources(onePage(), nil), nil, Options{})
	sess, err := svc.Create(CreateRequest{Collection: "listWorksheets"})
	require.NoError(t, err)

	got, err := svc.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, []string{sess.ID}, svc.IDs())

	require.NoError(t, svc.Close(sess.ID))
	_, err = svc.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Close(sess.ID), ErrNotFound)
}

func TestExpireAndReaper(t *testing.T) {
	svc := NewService(staticSources(onePage(), nil), nil, Options{})
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	old, err := svc.Create(CreateRequest{Collection: "listWorksheets"})
	require.NoError(t, err)
	clock = clock.Add(20 * time.Minute)
	fresh, err := svc.Create(CreateRequest{Collection: "listWorksheets"})
	require.NoError(t, err)

	clock = clock.Add(15 * time.Minute)
	assert.Equal(t, []string{old.ID}, svc.Expire(30*time.Minute))
	assert.Equal(t, []string{fresh.ID}, svc.IDs())

	// a lookup keeps the session alive
	clock = clock.Add(10 * time.Minute)
	_, err = svc.Get(fresh.ID)
	require.NoError(t, err)
	clock = clock.Add(25 * time.Minute)

	r := NewReaper(svc, 30*time.Minute, time.Hour)
	assert.Equal(t, 0, r.reapOnce())
	clock = clock.Add(10 * time.Minute)
	assert.Equal(t, 1, r.reapOnce())
	assert.Equal(t, 0, svc.Len())
}

func TestReaperStopsOnCancel(t *testing.T) {
	svc := NewService(staticSources(onePage(), nil), nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewReaper(svc, time.Millisecond, time.Millisecond).Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}

func TestCatalogSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"listWorksheets":{"count":1,"page":1,"pages":1,"hasNext":false,"hasPrevious":false,"nodes":[{"worksheetUri":"w1"}]}}}`))
	}))
	defer srv.Close()

	client := graphql.NewClient(srv.URL, graphql.Options{Timeout: time.Second})
	svc := NewService(CatalogSources(client, graphql.DefaultCatalog()), nil, Options{})

	sess, err := svc.Create(CreateRequest{Collection: graphql.DocListWorksheets})
	require.NoError(t, err)
	sess.Controller.Refresh(context.Background())
	sess.Controller.Wait()

	st := sess.Controller.CurrentState()
	require.Equal(t, collection.StatusSuccess, st.Status, st.Message)
	require.Len(t, st.Result.Nodes, 1)
	assert.JSONEq(t, `{"worksheetUri":"w1"}`, string(st.Result.Nodes[0]))

	_, err = svc.Create(CreateRequest{Collection: "nope"})
	assert.Error(t, err)
	client.CloseIdleConnections()
}

// blockingSources serves every collection, holding each call until release is closed
func blockingSources(release <-chan struct{}, started chan<- string) SourceFactory {
	return func(string) (collection.DataSource[json.RawMessage], error) {
		return collection.DataSourceFunc[json.RawMessage](func(ctx context.Context, op collection.Operation) (collection.Response[json.RawMessage], error) {
			sid, _ := notify.SessionID(ctx)
			started <- sid
			<-release
			return onePage(), nil
		}), nil
	}
}

func TestShutdownDrainsFetches(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 4)
	svc := NewService(blockingSources(release, started), nil, Options{})

	sess, err := svc.Create(CreateRequest{Collection: "listWorksheets"})
	require.NoError(t, err)
	sess.Controller.Refresh(context.Background())
	<-started

	done := make(chan error, 1)
	go func() { done <- svc.Shutdown(context.Background()) }()

	select {
	case <-done:
		t.Fatal("shutdown returned while a fetch was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return after the fetch completed")
	}
	assert.Equal(t, collection.StatusSuccess, sess.Controller.CurrentState().Status)
}

func TestShutdownHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 4)
	svc := NewService(blockingSources(release, started), nil, Options{})

	sess, err := svc.Create(CreateRequest{Collection: "listWorksheets"})
	require.NoError(t, err)
	sess.Controller.Refresh(context.Background())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = svc.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	sess.Controller.Wait()
}

func TestRefreshCollection(t *testing.T) {
	release := make(chan struct{})
	close(release)
	started := make(chan string, 4)
	svc := NewService(blockingSources(release, started), nil, Options{})

	a, err := svc.Create(CreateRequest{Collection: "searchGlossary"})
	require.NoError(t, err)
	b, err := svc.Create(CreateRequest{Collection: "searchGlossary"})
	require.NoError(t, err)
	other, err := svc.Create(CreateRequest{Collection: "listWorksheets"})
	require.NoError(t, err)

	assert.Equal(t, 2, svc.RefreshCollection("searchGlossary"))
	a.Controller.Wait()
	b.Controller.Wait()

	assert.ElementsMatch(t, []string{a.ID, b.ID}, []string{<-started, <-started})
	assert.Equal(t, collection.StatusSuccess, a.Controller.CurrentState().Status)
	assert.Equal(t, collection.StatusIdle, other.Controller.CurrentState().Status)
	assert.Equal(t, 0, svc.RefreshCollection("listDatasets"))
}

func TestOverrideRoutesOneCollection(t *testing.T) {
	override := collection.DataSourceFunc[json.RawMessage](func(context.Context, collection.Operation) (collection.Response[json.RawMessage], error) {
		r := page.NewResult([]json.RawMessage{json.RawMessage(`{"nodeUri":"g1"}`)}, 1, 1, 10)
		return collection.Response[json.RawMessage]{Data: &r}, nil
	})
	svc := NewService(Override(staticSources(onePage(), nil), "searchGlossary", override), nil, Options{})

	glossary, err := svc.Create(CreateRequest{Collection: "searchGlossary"})
	require.NoError(t, err)
	glossary.Controller.Refresh(context.Background())
	glossary.Controller.Wait()
	assert.JSONEq(t, `{"nodeUri":"g1"}`, string(glossary.Controller.CurrentState().Result.Nodes[0]))

	_, err = svc.Create(CreateRequest{Collection: "listWorksheets"})
	assert.NoError(t, err)
	_, err = svc.Create(CreateRequest{Collection: "listPayments"})
	assert.Error(t, err)
}
