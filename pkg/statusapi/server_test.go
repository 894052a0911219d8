package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsod90/screenhero-sub001/pkg/pairing"
	"github.com/bsod90/screenhero-sub001/pkg/stats"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	mgr, err := pairing.NewManager([]byte("0123456789abcdef0123456789abcdef"), "host-1")
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return NewServer(&stats.SessionStats{}, mgr)
}

func TestHealthz(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	s := testServer(t)
	s.stats.FramesProduced.Add(5)
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap stats.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, uint64(5), snap.FramesProduced)
}

func TestPairAndRedeemFlow(t *testing.T) {
	s := testServer(t)

	pairReq := httptest.NewRequest(http.MethodPost, "/pair", strings.NewReader(`{"ttlSeconds":60}`))
	pairRec := httptest.NewRecorder()
	s.Router().ServeHTTP(pairRec, pairReq)
	require.Equal(t, http.StatusOK, pairRec.Code)

	var pairResp pairResponse
	require.NoError(t, json.NewDecoder(pairRec.Body).Decode(&pairResp))
	assert.NotEmpty(t, pairResp.Code)

	body := `{"code":"` + pairResp.Code + `","viewerId":"viewer-1"}`
	redeemReq := httptest.NewRequest(http.MethodPost, "/pair/redeem", strings.NewReader(body))
	redeemRec := httptest.NewRecorder()
	s.Router().ServeHTTP(redeemRec, redeemReq)
	require.Equal(t, http.StatusOK, redeemRec.Code)

	var token pairing.AuthToken
	require.NoError(t, json.NewDecoder(redeemRec.Body).Decode(&token))
	assert.Equal(t, "viewer-1", token.ViewerID)
}

func TestRedeemRejectsUnknownCode(t *testing.T) {
	s := testServer(t)
	body := `{"code":"ZZZZ-0000","viewerId":"viewer-1"}`
	req := httptest.NewRequest(http.MethodPost, "/pair/redeem", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
