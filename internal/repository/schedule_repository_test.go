package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbdms-web/internal/models"
	"github.com/noah-isme/cbdms-web/pkg/apiclient"
	"github.com/noah-isme/cbdms-web/pkg/config"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
)

func newAPI(t *testing.T, mux *http.ServeMux) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return apiclient.New(config.APIConfig{BaseURL: srv.URL, Timeout: time.Second}, nil, nil)
}

var teacher = models.Session{UserID: "u1", Token: "tok"}

func TestScheduleRepositoryFindByUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/time_schedule/u1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"_id":"s1","user":"u1","schedule":{"monday":["MATH101","--","--","--","--"],"tuesday":["--","--","--","--","--"],"wednesday":["--","--","--","--","--"],"thursday":["--","--","--","--","--"],"friday":["--","--","--","--","--"]}}`))
	})
	repo := NewScheduleRepository(newAPI(t, mux))

	record, err := repo.FindByUser(context.Background(), teacher)
	require.NoError(t, err)
	assert.Equal(t, "s1", record.ID)
	assert.Equal(t, "MATH101", record.Schedule.Monday[0])
}

func TestScheduleRepositoryFindByUserNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/time_schedule/u1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	repo := NewScheduleRepository(newAPI(t, mux))

	_, err := repo.FindByUser(context.Background(), teacher)
	require.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestScheduleRepositoryFindByUserFillsMissingGrid(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/time_schedule/u1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_id":"s1","user":"u1"}`))
	})
	repo := NewScheduleRepository(newAPI(t, mux))

	record, err := repo.FindByUser(context.Background(), teacher)
	require.NoError(t, err)
	assert.Equal(t, "s1", record.ID)
	assert.Equal(t, models.DefaultSchedule(), record.Schedule)
}

func TestScheduleRepositoryFindByUserRejectsRecordWithoutID(t *testing.T) {
	bodies := map[string]string{
		"empty body": "",
		"no id":      `{"schedule":{"monday":["MATH101","--","--","--","--"]}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/time_schedule/u1", func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			repo := NewScheduleRepository(newAPI(t, mux))

			record, err := repo.FindByUser(context.Background(), teacher)
			assert.Nil(t, record)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrUpstream))
		})
	}
}

func TestScheduleRepositoryWrites(t *testing.T) {
	var methods []string
	mux := http.NewServeMux()
	mux.HandleFunc("/time_schedule/u1", func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		var payload models.SchedulePayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "u1", payload.User)
		_, _ = w.Write([]byte(`{"message":"saved"}`))
	})
	mux.HandleFunc("/time_schedule/s1", func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		_, _ = w.Write([]byte(`{"message":"deleted"}`))
	})
	repo := NewScheduleRepository(newAPI(t, mux))
	payload := models.SchedulePayload{User: "u1", Schedule: models.DefaultSchedule()}

	res, err := repo.Create(context.Background(), teacher, payload)
	require.NoError(t, err)
	assert.Equal(t, "saved", res.Message)

	_, err = repo.Update(context.Background(), teacher, payload)
	require.NoError(t, err)

	res, err = repo.Delete(context.Background(), teacher, "s1")
	require.NoError(t, err)
	assert.Equal(t, "deleted", res.Message)

	assert.Equal(t, []string{http.MethodPost, http.MethodPatch, http.MethodDelete}, methods)
}

func TestPaperRepositoryListByTeacher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/paper/teacher/u1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"_id":"p2","name":"PHY201","paper":"Physics"},{"_id":"p1","name":"MATH101","paper":"Mathematics"}]`))
	})
	repo := NewPaperRepository(newAPI(t, mux))

	papers, err := repo.ListByTeacher(context.Background(), teacher)
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, "PHY201", papers[0].Name)
	assert.Equal(t, "Mathematics", papers[1].Label)
}
