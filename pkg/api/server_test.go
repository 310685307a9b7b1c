package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridorganize/gridorganize/pkg/pipeline"
)

func newTestServer() *Server {
	return NewServer(pipeline.NewRunner(nil, nil, nil), nil)
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestActionOrganize(t *testing.T) {
	body := `{
		"action": "organize",
		"graph": {
			"nodes": [
				{"id": 1, "type": "loader", "pos": [500, 200], "size": [100, 50]},
				{"id": 2, "type": "sampler", "pos": [0, 0], "size": [100, 50]}
			],
			"links": [
				{"id": 10, "origin_id": 1, "origin_slot": 0, "target_id": 2, "target_slot": 0}
			]
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/v1/action", strings.NewReader(body))
	w := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Status    string                `json:"status"`
		Message   string                `json:"message"`
		Positions map[string][2]float64 `json:"positions"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "Complete - positioned 2 nodes", res.Message)
	assert.Equal(t, [2]float64{100, 0}, res.Positions["1"])
	assert.Equal(t, [2]float64{300, 0}, res.Positions["2"])
}

func TestActionReroute(t *testing.T) {
	body := `{
		"action": "reroute",
		"graph": {
			"nodes": [
				{"id": "a", "type": "loader", "pos": [0, 0], "size": [50, 50]},
				{"id": "b", "type": "sampler", "pos": [150, 0], "size": [50, 50]},
				{"id": "c", "type": "saver", "pos": [300, 0], "size": [50, 50]}
			],
			"links": [
				{"id": "1", "origin_id": "a", "origin_slot": 0, "target_id": "c", "target_slot": 0},
				{"id": "2", "origin_id": "b", "origin_slot": 0, "target_id": "c", "target_slot": 1}
			]
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/v1/action", strings.NewReader(body))
	w := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Overlaps []struct {
			LinkID           string `json:"link_id"`
			RerouteDirection string `json:"reroute_direction"`
		} `json:"overlaps"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "Found 1 overlapping links", res.Message)
	require.Len(t, res.Overlaps, 1)
	assert.Equal(t, "1", res.Overlaps[0].LinkID)
	assert.Equal(t, "down", res.Overlaps[0].RerouteDirection)
}

func TestActionLog(t *testing.T) {
	body := `{"action": "log", "message": "organize requested"}`

	req := httptest.NewRequest(http.MethodPost, "/v1/action", strings.NewReader(body))
	w := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
}

func TestActionUnknown(t *testing.T) {
	body := `{"action": "explode"}`

	req := httptest.NewRequest(http.MethodPost, "/v1/action", strings.NewReader(body))
	w := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var res struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Contains(t, res.Error, "unknown action: explode")
}

func TestActionMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/action", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var res struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.NotEmpty(t, res.Error)
}

func TestRequestIDPropagation(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "editor-42")
	w = httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(w, req)
	assert.Equal(t, "editor-42", w.Header().Get("X-Request-ID"))
}

func TestRecovererConvertsPanicTo500(t *testing.T) {
	s := newTestServer()
	h := s.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/action", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}
