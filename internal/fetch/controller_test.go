package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/calhours/internal/client"
	"github.com/julianstephens/calhours/internal/constants"
	"github.com/julianstephens/calhours/internal/models"
)

type result struct {
	data []models.CategoryEntry
	err  error
}

type fakeFetcher struct {
	mu      sync.Mutex
	results map[models.Range]result
	calls   []models.Range
}

func (f *fakeFetcher) FetchAggregate(_ context.Context, r models.Range) ([]models.CategoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r)
	res := f.results[r]
	return res.data, res.err
}

var (
	weekData  = []models.CategoryEntry{{Name: "Work", Hours: 10}, {Name: "Personal", Hours: 5}}
	monthData = []models.CategoryEntry{{Name: "Work", Hours: 40}, {Name: "Gym", Hours: 12}}
)

func newFake() *fakeFetcher {
	return &fakeFetcher{results: map[models.Range]result{
		models.RangeWeek:  {data: weekData},
		models.RangeMonth: {data: monthData},
		models.RangeYear:  {data: []models.CategoryEntry{}},
	}}
}

func settle(t *testing.T, c *Controller, cmd tea.Cmd) bool {
	t.Helper()
	msg, ok := cmd().(SettledMsg)
	require.True(t, ok, "command did not yield SettledMsg")
	return c.Settle(msg)
}

func TestController_StartsIdle(t *testing.T) {
	c := NewController(newFake(), time.Second)
	s := c.State()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Nil(t, s.Data)
	assert.Empty(t, s.ErrorMessage)
	assert.Nil(t, c.Retry())
}

func TestController_LoadSuccess(t *testing.T) {
	c := NewController(newFake(), time.Second)

	cmd := c.Load(models.RangeWeek)
	require.NotNil(t, cmd)
	assert.Equal(t, StatusLoading, c.State().Status)
	assert.Equal(t, models.RangeWeek, c.State().Range)
	assert.NotEmpty(t, c.State().Tag)

	assert.True(t, settle(t, c, cmd))

	s := c.State()
	assert.Equal(t, StatusSuccess, s.Status)
	assert.Equal(t, weekData, s.Data)
	assert.Empty(t, s.ErrorMessage)
	assert.False(t, s.SettledAt.IsZero())
}

func TestController_EmptyResponseIsSuccess(t *testing.T) {
	c := NewController(newFake(), time.Second)

	cmd := c.Load(models.RangeYear)
	assert.True(t, settle(t, c, cmd))

	s := c.State()
	assert.Equal(t, StatusSuccess, s.Status)
	assert.NotNil(t, s.Data)
	assert.Empty(t, s.Data)
}

func TestController_NilDataIsSuccess(t *testing.T) {
	f := newFake()
	f.results[models.RangeWeek] = result{}
	c := NewController(f, time.Second)

	cmd := c.Load(models.RangeWeek)
	assert.True(t, settle(t, c, cmd))
	assert.Equal(t, StatusSuccess, c.State().Status)
	assert.Empty(t, c.State().Data)
}

func TestController_StaleResultSuppressed(t *testing.T) {
	c := NewController(newFake(), time.Second)

	weekCmd := c.Load(models.RangeWeek)
	monthCmd := c.Load(models.RangeMonth)

	// month settles first, week arrives late.
	assert.True(t, settle(t, c, monthCmd))
	assert.False(t, settle(t, c, weekCmd))

	s := c.State()
	assert.Equal(t, StatusSuccess, s.Status)
	assert.Equal(t, models.RangeMonth, s.Range)
	assert.Equal(t, monthData, s.Data)
}

func TestController_StaleResultWhileLoadingSuppressed(t *testing.T) {
	c := NewController(newFake(), time.Second)

	weekCmd := c.Load(models.RangeWeek)
	c.Load(models.RangeMonth)

	assert.False(t, settle(t, c, weekCmd))
	s := c.State()
	assert.Equal(t, StatusLoading, s.Status)
	assert.Equal(t, models.RangeMonth, s.Range)
	assert.Nil(t, s.Data)
}

func TestController_SameRangeReissueDropsOlderRequest(t *testing.T) {
	c := NewController(newFake(), time.Second)

	first := c.Load(models.RangeWeek)
	c.Load(models.RangeMonth)
	third := c.Load(models.RangeWeek)

	assert.False(t, settle(t, c, first))
	assert.True(t, settle(t, c, third))
	assert.Equal(t, weekData, c.State().Data)
}

func TestController_SettleIgnoredOnceSettled(t *testing.T) {
	c := NewController(newFake(), time.Second)

	cmd := c.Load(models.RangeWeek)
	msg := cmd().(SettledMsg)
	require.True(t, c.Settle(msg))

	msg.Err = errors.New("late duplicate")
	assert.False(t, c.Settle(msg))
	assert.Equal(t, StatusSuccess, c.State().Status)
}

func TestController_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "server message",
			err:  &client.Error{Kind: client.KindServer, Status: 401, Message: "unauthorized"},
			want: "unauthorized",
		},
		{
			name: "parse fallback",
			err:  &client.Error{Kind: client.KindParse, Status: 200, Message: constants.MsgMalformedData, Err: errors.New("unexpected end of JSON input")},
			want: constants.MsgMalformedData,
		},
		{
			name: "network",
			err:  &client.Error{Kind: client.KindNetwork, Message: constants.MsgUnreachable},
			want: constants.MsgUnreachable,
		},
		{
			name: "untyped error",
			err:  errors.New("boom"),
			want: constants.MsgFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			f.results[models.RangeWeek] = result{err: tt.err}
			c := NewController(f, time.Second)

			cmd := c.Load(models.RangeWeek)
			assert.True(t, settle(t, c, cmd))

			s := c.State()
			assert.Equal(t, StatusError, s.Status)
			assert.Equal(t, tt.want, s.ErrorMessage)
			assert.Nil(t, s.Data)
		})
	}
}

func TestController_LoadDiscardsPreviousOutcome(t *testing.T) {
	f := newFake()
	f.results[models.RangeWeek] = result{err: &client.Error{Kind: client.KindServer, Message: "unauthorized"}}
	c := NewController(f, time.Second)

	cmd := c.Load(models.RangeWeek)
	settle(t, c, cmd)
	require.Equal(t, StatusError, c.State().Status)

	c.Load(models.RangeMonth)
	s := c.State()
	assert.Equal(t, StatusLoading, s.Status)
	assert.Empty(t, s.ErrorMessage)
	assert.Nil(t, s.Data)
}

func TestController_RetryReloadsCurrentRange(t *testing.T) {
	f := newFake()
	f.results[models.RangeMonth] = result{err: &client.Error{Kind: client.KindNetwork, Message: constants.MsgUnreachable}}
	c := NewController(f, time.Second)

	cmd := c.Load(models.RangeMonth)
	settle(t, c, cmd)
	require.Equal(t, StatusError, c.State().Status)

	f.results[models.RangeMonth] = result{data: monthData}
	retry := c.Retry()
	require.NotNil(t, retry)
	assert.Equal(t, StatusLoading, c.State().Status)

	assert.True(t, settle(t, c, retry))
	assert.Equal(t, monthData, c.State().Data)
	assert.Equal(t, []models.Range{models.RangeMonth, models.RangeMonth}, f.calls)
}

func TestController_StateReturnsCopy(t *testing.T) {
	c := NewController(newFake(), time.Second)
	cmd := c.Load(models.RangeWeek)
	settle(t, c, cmd)

	s := c.State()
	s.Data[0].Name = "mutated"
	assert.Equal(t, "Work", c.State().Data[0].Name)
}

func TestController_FetchRunsToCompletion(t *testing.T) {
	c := NewController(newFake(), time.Second)

	s := c.Fetch(models.RangeMonth)
	assert.Equal(t, StatusSuccess, s.Status)
	assert.Equal(t, models.RangeMonth, s.Range)
	assert.Equal(t, monthData, s.Data)

	f := &fakeFetcher{results: map[models.Range]result{
		models.RangeWeek: {err: &client.Error{Kind: client.KindNetwork, Message: constants.MsgUnreachable}},
	}}
	s = NewController(f, time.Second).Fetch(models.RangeWeek)
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, constants.MsgUnreachable, s.ErrorMessage)
}

func TestState_Snapshot(t *testing.T) {
	c := NewController(newFake(), time.Second)

	_, ok := c.State().Snapshot()
	assert.False(t, ok, "idle state has nothing to store")

	s := c.Fetch(models.RangeWeek)
	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, models.RangeWeek, snap.Range)
	assert.Equal(t, s.SettledAt, snap.FetchedAt)
	assert.Equal(t, weekData, snap.Entries)

	snap.Entries[0].Name = "changed"
	assert.Equal(t, "Work", c.State().Data[0].Name)
}

func TestController_EmptyPayloadStaysNonNil(t *testing.T) {
	c := NewController(newFake(), time.Second)

	s := c.Fetch(models.RangeYear)
	require.Equal(t, StatusSuccess, s.Status)
	require.NotNil(t, s.Data)
	assert.Len(t, s.Data, 0)

	again := c.State()
	assert.NotNil(t, again.Data)

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.NotNil(t, snap.Entries)
	assert.Len(t, snap.Entries, 0)
}

func TestController_StateBeforeSettleHasNilData(t *testing.T) {
	c := NewController(newFake(), time.Second)
	_ = c.Load(models.RangeWeek)
	assert.Nil(t, c.State().Data)
}
