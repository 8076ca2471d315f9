package stuff_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/andrebq/mindgate/internal/testutil"
	"github.com/andrebq/mindgate/stuff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTags(t *testing.T) {
	type testCase struct {
		text string
		body string
		tags []string
	}
	for _, tc := range []testCase{
		{"buy milk #shopping", "buy milk", []string{"shopping"}},
		{"#b #a call mom #a", "call mom", []string{"a", "b"}},
		{"a lone # stays", "a lone # stays", []string{}},
		{"first line #x\nsecond   line", "first line\nsecond line", []string{"x"}},
		{"no tags", "no tags", []string{}},
	} {
		body, tags := stuff.ExtractTags(tc.text)
		assert.Equal(t, tc.body, body, "body of %q", tc.text)
		assert.Equal(t, tc.tags, tags, "tags of %q", tc.text)
	}
}

func TestAddAndQuery(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "stuff.db")
	defer cleanup()

	first, tags, err := st.Add(ctx, "buy milk #shopping")
	require.NoError(t, err)
	require.Equal(t, []string{"shopping"}, tags)
	second, _, err := st.Add(ctx, "write report #work")
	require.NoError(t, err)
	third, _, err := st.Add(ctx, "buy bread #shopping")
	require.NoError(t, err)

	all, err := st.Query(ctx, stuff.Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID, "latest should come first")
	assert.Equal(t, first.ID, all[2].ID)

	oldest, err := st.Query(ctx, stuff.Query{Oldest: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, oldest[0].ID)

	shopping, err := st.Query(ctx, stuff.Query{Tag: "shopping"})
	require.NoError(t, err)
	require.Len(t, shopping, 2)
	assert.Equal(t, "buy bread", shopping[0].Body)
	assert.Equal(t, "buy milk", shopping[1].Body)

	got, gotTags, err := st.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "write report", got.Body)
	assert.Equal(t, []string{"work"}, gotTags)

	latest, err := st.LatestTags(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"shopping", "work"}, latest)
}

func TestStateChanges(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "stuff.db")
	defer cleanup()

	item, _, err := st.Add(ctx, "water plants #home")
	require.NoError(t, err)
	_, _, err = st.Add(ctx, "fix door #home")
	require.NoError(t, err)

	require.NoError(t, st.Tick(ctx, item.ID))
	active, err := st.Query(ctx, stuff.Query{Tag: "home"})
	require.NoError(t, err)
	require.Len(t, active, 1)

	ticked, err := st.Query(ctx, stuff.Query{Tag: "home", State: stuff.Ticked})
	require.NoError(t, err)
	require.Len(t, ticked, 1)
	assert.Equal(t, item.ID, ticked[0].ID)

	visible, err := st.Query(ctx, stuff.Query{Tag: "home", State: stuff.AnyState})
	require.NoError(t, err)
	require.Len(t, visible, 2)

	require.NoError(t, st.Untick(ctx, item.ID))
	require.NoError(t, st.Forget(ctx, item.ID))
	visible, err = st.Query(ctx, stuff.Query{Tag: "home", State: stuff.AnyState})
	require.NoError(t, err)
	require.Len(t, visible, 1)

	err = st.Tick(ctx, 4242)
	require.True(t, errors.Is(err, stuff.NotFound{ID: 4242}), "got %v", err)
	_, _, err = st.Get(ctx, 4242)
	require.True(t, errors.Is(err, stuff.NotFound{ID: 4242}), "got %v", err)
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "stuff.db")
	defer cleanup()

	for i := 0; i < stuff.PageSize*2; i++ {
		_, _, err := st.Add(ctx, fmt.Sprintf("item %v #bulk", i))
		require.NoError(t, err)
	}
	page, err := st.Query(ctx, stuff.Query{Tag: "bulk"})
	require.NoError(t, err)
	require.Len(t, page, stuff.PageSize+1, "default limit should peek one item past the page")

	last, err := st.Query(ctx, stuff.Query{Tag: "bulk", Offset: stuff.PageSize * 2, Limit: stuff.PageSize})
	require.NoError(t, err)
	require.Empty(t, last)
}

func TestRejectEmptyAndReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	file := filepath.Join(dir, "stuff.db")
	st, err := stuff.Open(ctx, file, true)
	require.NoError(t, err)
	_, _, err = st.Add(ctx, "   \n ")
	require.Equal(t, stuff.EmptyBody{}, err)
	_, _, err = st.Add(ctx, "kept")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	ro, err := stuff.Open(ctx, file, false)
	require.NoError(t, err)
	defer ro.Close()
	items, err := ro.Query(ctx, stuff.Query{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	_, _, err = ro.Add(ctx, "denied")
	require.Equal(t, stuff.ReadOnly{}, err)
	require.Equal(t, stuff.ReadOnly{}, ro.Forget(ctx, items[0].ID))
}

func TestParseState(t *testing.T) {
	for _, st := range []stuff.State{stuff.Active, stuff.Ticked, stuff.Forgotten, stuff.AnyState} {
		parsed, err := stuff.ParseState(st.String())
		require.NoError(t, err)
		require.Equal(t, st, parsed)
	}
	_, err := stuff.ParseState("bogus")
	require.Error(t, err)
}
