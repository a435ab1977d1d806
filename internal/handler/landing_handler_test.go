package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbdms-web/internal/models"
)

func TestLandingLoadsPapersOnce(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/", "", "text/html")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "College based Data Management System")
	assert.Contains(t, w.Body.String(), "Ada Lovelace")

	h.do(http.MethodGet, "/", "", "text/html")
	count := 0
	for _, r := range h.backend.requests {
		if r == "GET /paper/teacher/u1" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestLandingFailureReachesErrorBoundary(t *testing.T) {
	h := newHarness(t)
	h.backend.failPaper = true

	w := h.do(http.MethodGet, "/", "", "text/html")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "paper service down")
}

func TestPapersJSON(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/v1/papers", "", jsonAccept)
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data []models.Paper         `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Len(t, env.Data, 2)
	assert.Equal(t, "MATH101", env.Data[0].Name)
	assert.EqualValues(t, 2, env.Meta["count"])
}
