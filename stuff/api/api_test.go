package api

import (
	"context"
	"io/ioutil"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/andrebq/mindgate/internal/testutil"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
)

func acquireHandler(ctx context.Context, t *testing.T, assets string, seed ...string) (http.Handler, func()) {
	st, cleanup := testutil.AcquireStore(ctx, t, "stuff.db")
	for _, s := range seed {
		if _, _, err := st.Add(ctx, s); err != nil {
			cleanup()
			t.Fatal(err)
		}
	}
	h, err := AsHandler(ctx, st, assets)
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	return h, cleanup
}

func TestAddAndQuery(t *testing.T) {
	ctx := context.Background()
	h, cleanup := acquireHandler(ctx, t, "")
	defer cleanup()

	apitest.New().Handler(h).
		Post("/api/stuff").
		JSON(`{"add":{"body":"buy milk #shopping"}}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.body", "buy milk")).
		Assert(jsonpath.Equal("$.state", "active")).
		Assert(jsonpath.Contains("$.tags", "shopping")).
		End()

	apitest.New().Handler(h).
		Post("/api/stuff").
		JSON(`{"add":{"body":"write report #work"}}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().Handler(h).
		Post("/api/stuff").
		JSON(`{"query":{"tag":"shopping"}}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.items", 1)).
		Assert(jsonpath.Equal("$.items[0].body", "buy milk")).
		Assert(jsonpath.Equal("$.more", false)).
		End()

	apitest.New().Handler(h).
		Get("/api/tags").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.tags", 2)).
		Assert(jsonpath.Equal("$.tags[0]", "work")).
		End()
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	h, cleanup := acquireHandler(ctx, t, "", "one #n", "two #n", "three #n")
	defer cleanup()

	apitest.New().Handler(h).
		Post("/api/stuff").
		JSON(`{"query":{"tag":"n","num":2}}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.items", 2)).
		Assert(jsonpath.Equal("$.items[0].body", "three")).
		Assert(jsonpath.Equal("$.more", true)).
		End()

	apitest.New().Handler(h).
		Post("/api/stuff").
		JSON(`{"query":{"tag":"n","num":2,"page":1}}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.items", 1)).
		Assert(jsonpath.Equal("$.items[0].body", "one")).
		Assert(jsonpath.Equal("$.more", false)).
		End()

	apitest.New().Handler(h).
		Get("/api/stuff").
		Query("tag", "n").
		Query("num", "1").
		Query("page", "1").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.items[0].body", "two")).
		Assert(jsonpath.Equal("$.more", true)).
		End()

	apitest.New().Handler(h).
		Get("/api/stuff").
		Query("page", "x").
		Expect(t).
		Status(http.StatusBadRequest).
		End()

	apitest.New().Handler(h).
		Post("/api/stuff").
		JSON(`{"query":{"tag":"n","order":"oldest","num":1}}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.items[0].body", "one")).
		End()
}

func TestStateChanges(t *testing.T) {
	ctx := context.Background()
	h, cleanup := acquireHandler(ctx, t, "", "water plants #home")
	defer cleanup()

	apitest.New().Handler(h).
		Post("/api/stuff").
		JSON(`{"tick":{"id":1}}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.state", "ticked")).
		End()

	apitest.New().Handler(h).
		Post("/api/stuff").
		JSON(`{"query":{"tag":"home"}}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.items", 0)).
		End()

	apitest.New().Handler(h).
		Post("/api/stuff").
		JSON(`{"query":{"tag":"home","state":"any"}}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.items", 1)).
		Assert(jsonpath.Equal("$.items[0].state", "ticked")).
		End()

	apitest.New().Handler(h).
		Post("/api/stuff").
		JSON(`{"forget":{"id":1}}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.state", "forgotten")).
		End()

	apitest.New().Handler(h).
		Get("/api/stuff/1").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.state", "forgotten")).
		Assert(jsonpath.Contains("$.tags", "home")).
		End()

	apitest.New().Handler(h).
		Post("/api/stuff").
		JSON(`{"untick":{"id":42}}`).
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestBadRequests(t *testing.T) {
	ctx := context.Background()
	h, cleanup := acquireHandler(ctx, t, "")
	defer cleanup()

	for _, body := range []string{
		`not json`,
		`{}`,
		`{"add":{"body":"   "}}`,
		`{"query":{"tag":"not-a-tag"}}`,
		`{"query":{"state":"sleeping"}}`,
		`{"query":{"order":"random"}}`,
	} {
		apitest.New().Handler(h).
			Post("/api/stuff").
			Body(body).
			Expect(t).
			Status(http.StatusBadRequest).
			End()
	}

	apitest.New().Handler(h).
		Get("/api/stuff/abc").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestServeAssets(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	err := ioutil.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>stuff</h1>"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	h, cleanup := acquireHandler(ctx, t, dir)
	defer cleanup()

	apitest.New().Handler(h).
		Get("/").
		Expect(t).
		Status(http.StatusOK).
		Body("<h1>stuff</h1>").
		End()

	apitest.New().Handler(h).
		Get("/missing.js").
		Expect(t).
		Status(http.StatusNotFound).
		End()
}
