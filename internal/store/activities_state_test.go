package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/fittrack-cli/internal/model"
)

func reduceAll(s ActivitiesState, events ...Event) ActivitiesState {
	for _, e := range events {
		s = ReduceActivities(s, e)
	}
	return s
}

func TestListLifecycle(t *testing.T) {
	s := ReduceActivities(ActivitiesState{Err: "old"}, ListPending{})
	assert.True(t, s.Loading)
	assert.Empty(t, s.Err)

	s = ReduceActivities(s, ListFulfilled{Payload: json.RawMessage(`[{"id":1,"type":"RUNNING","duration":30,"caloriesBurned":300}]`)})
	assert.False(t, s.Loading)
	assert.Empty(t, s.Err)
	require.Len(t, s.Activities, 1)
	assert.Equal(t, model.Activity{ID: "1", Type: model.ActivityRunning, Duration: 30, CaloriesBurned: 300}, s.Activities[0])

	s = reduceAll(s, ListPending{}, ListRejected{Message: "HTTP 500: Internal Server Error"})
	assert.False(t, s.Loading)
	assert.Equal(t, "HTTP 500: Internal Server Error", s.Err)
	assert.Len(t, s.Activities, 1, "a failed reload keeps the previous collection")
}

func TestListAcceptsEnvelopeAndCoercesMalformedShapes(t *testing.T) {
	cases := map[string]int{
		`{"data":[{"id":"a"},{"id":"b"}]}`: 2,
		`[{"id":"a"},null,7,"x"]`:          1,
		`{"data":{"id":"a"}}`:              0,
		`{"data":"nope"}`:                  0,
		`{"activities":[]}`:                0,
		`"text"`:                           0,
		`null`:                             0,
		``:                                 0,
	}
	for payload, want := range cases {
		s := reduceAll(ActivitiesState{Activities: []model.Activity{{ID: "old"}}}, ListPending{}, ListFulfilled{Payload: json.RawMessage(payload)})
		assert.NotNil(t, s.Activities, payload)
		assert.Len(t, s.Activities, want, payload)
		assert.False(t, s.Loading)
	}
}

func TestDetailAcceptsBareAndEnveloped(t *testing.T) {
	bare := reduceAll(ActivitiesState{}, DetailPending{}, DetailFulfilled{Payload: json.RawMessage(`{"id":"42","type":"YOGA","recommendation":"Form: good"}`)})
	require.NotNil(t, bare.Current)
	assert.Equal(t, model.ActivityID("42"), bare.Current.ID)
	assert.False(t, bare.FetchingDetail)

	wrapped := reduceAll(ActivitiesState{}, DetailPending{}, DetailFulfilled{Payload: json.RawMessage(`{"data":{"activityId":"42","activityType":"CYCLING","improvements":["cadence"]}}`)})
	require.NotNil(t, wrapped.Current)
	assert.Equal(t, model.ActivityID("42"), wrapped.Current.ID)
	assert.Equal(t, model.ActivityCycling, wrapped.Current.Type)
	assert.Equal(t, []string{"cadence"}, wrapped.Current.Improvements)

	pending := ReduceActivities(ActivitiesState{}, DetailPending{})
	assert.True(t, pending.FetchingDetail)
	assert.False(t, pending.Loading, "detail fetch must not touch the list flag")

	failed := ReduceActivities(pending, DetailRejected{Message: "HTTP 404: Not Found"})
	assert.False(t, failed.FetchingDetail)
	assert.Equal(t, "HTTP 404: Not Found", failed.Err)
}

func TestCreatePrependsWellFormedResults(t *testing.T) {
	start := ActivitiesState{Activities: []model.Activity{{ID: "1"}, {ID: "2"}}}

	s := ReduceActivities(start, CreatePending{})
	assert.True(t, s.AddingActivity)

	s = ReduceActivities(s, CreateFulfilled{Payload: json.RawMessage(`{"id":9,"type":"YOGA","duration":45,"caloriesBurned":150}`)})
	assert.False(t, s.AddingActivity)
	require.Len(t, s.Activities, 3)
	assert.Equal(t, model.ActivityID("9"), s.Activities[0].ID)
	assert.Equal(t, model.ActivityID("1"), s.Activities[1].ID)

	s = reduceAll(s, CreatePending{}, CreateFulfilled{Payload: json.RawMessage(`{"data":{"id":10}}`)})
	assert.Equal(t, model.ActivityID("10"), s.Activities[0].ID)

	for _, malformed := range []string{`{"type":"YOGA"}`, `null`, `[]`, `{"data":null}`} {
		got := reduceAll(s, CreatePending{}, CreateFulfilled{Payload: json.RawMessage(malformed)})
		assert.Len(t, got.Activities, 4, malformed)
		assert.False(t, got.AddingActivity)
	}

	assert.Len(t, start.Activities, 2, "reducer must not mutate its input")
}

func TestCreateReplacesEntryWithSameID(t *testing.T) {
	s := reduceAll(ActivitiesState{},
		ListPending{}, ListFulfilled{Payload: json.RawMessage(`[{"id":9,"type":"YOGA","duration":40},{"id":3}]`)},
		CreatePending{}, CreateFulfilled{Payload: json.RawMessage(`{"id":"9","type":"YOGA","duration":45}`)},
	)
	require.Len(t, s.Activities, 2)
	assert.Equal(t, model.ActivityID("9"), s.Activities[0].ID)
	assert.Equal(t, model.Quantity(45), s.Activities[0].Duration)
	assert.Equal(t, model.ActivityID("3"), s.Activities[1].ID)
}

func TestQuantitiesTolerateStringsAndFloats(t *testing.T) {
	list := reduceAll(ActivitiesState{}, ListPending{}, ListFulfilled{Payload: json.RawMessage(
		`[{"id":1,"duration":30,"caloriesBurned":300},{"id":2,"duration":"30","caloriesBurned":"250"},{"id":3,"duration":30.5,"caloriesBurned":310.25}]`)})
	require.Len(t, list.Activities, 3)
	assert.Equal(t, model.Quantity(30), list.Activities[1].Duration)
	assert.Equal(t, model.Quantity(250), list.Activities[1].CaloriesBurned)
	assert.Equal(t, model.Quantity(30.5), list.Activities[2].Duration)

	detail := reduceAll(ActivitiesState{}, DetailPending{}, DetailFulfilled{Payload: json.RawMessage(`{"id":"42","duration":"30","caloriesBurned":"lots"}`)})
	require.NotNil(t, detail.Current)
	assert.Equal(t, model.Quantity(30), detail.Current.Duration)
	assert.Zero(t, detail.Current.CaloriesBurned)
}

func TestDeleteRemovesEntryAndSelection(t *testing.T) {
	cur := model.Activity{ID: "2"}
	start := ActivitiesState{Activities: []model.Activity{{ID: "1"}, {ID: "2"}, {ID: "3"}}, Current: &cur}

	s := ReduceActivities(start, DeletePending{})
	assert.True(t, s.DeletingActivity)

	s = ReduceActivities(s, DeleteFulfilled{ID: "2"})
	assert.False(t, s.DeletingActivity)
	assert.Equal(t, []model.Activity{{ID: "1"}, {ID: "3"}}, s.Activities)
	assert.Nil(t, s.Current)

	other := ReduceActivities(start, DeleteFulfilled{ID: "1"})
	require.NotNil(t, other.Current)
	assert.Equal(t, model.ActivityID("2"), other.Current.ID)

	absent := ReduceActivities(start, DeleteFulfilled{ID: "99"})
	assert.Equal(t, start.Activities, absent.Activities)

	rejected := reduceAll(start, DeletePending{}, DeleteRejected{Message: "HTTP 404: Not Found"})
	assert.False(t, rejected.DeletingActivity)
	assert.Equal(t, "HTTP 404: Not Found", rejected.Err)
	assert.Len(t, rejected.Activities, 3)
}

func TestFlagsAreIndependent(t *testing.T) {
	s := reduceAll(ActivitiesState{}, ListPending{}, CreatePending{}, DetailPending{}, DeletePending{})
	assert.True(t, s.Loading && s.AddingActivity && s.FetchingDetail && s.DeletingActivity)

	s = ReduceActivities(s, CreateFulfilled{Payload: json.RawMessage(`{"id":1}`)})
	assert.False(t, s.AddingActivity)
	assert.True(t, s.Loading && s.FetchingDetail && s.DeletingActivity)
}

func TestClearErrorAndSelection(t *testing.T) {
	cur := model.Activity{ID: "5"}
	s := ActivitiesState{Err: "boom", Current: &cur, Activities: []model.Activity{{ID: "5"}}}

	s = ReduceActivities(s, ClearError{})
	assert.Empty(t, s.Err)
	assert.NotNil(t, s.Current)

	s = ReduceActivities(s, ClearCurrent{})
	assert.Nil(t, s.Current)
	assert.Len(t, s.Activities, 1)
}
