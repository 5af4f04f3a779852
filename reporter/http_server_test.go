package reporter

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilmix/mixer-go/mixer"
	"github.com/veilmix/mixer-go/mixrecord"
)

func testReporter(t *testing.T) (*HttpReporter, *mixrecord.SQLiteMixStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := mixrecord.NewSQLiteMixStorage(filepath.Join(t.TempDir(), "mix.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewHttpReporter("127.0.0.1", "0", store, nil), store
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHello(t *testing.T) {
	h, _ := testReporter(t)
	w := get(t, h.SetupRouter(), ROUTE_HELLO)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "world")
}

func TestMixRoutes(t *testing.T) {
	h, store := testReporter(t)
	require.NoError(t, store.AddMix(mixrecord.MixRecord{
		ID: "mix-1", Amount: 10, Status: mixrecord.StatusComplete, StartedAt: 1,
	}))
	router := h.SetupRouter()

	w := get(t, router, ROUTE_MIXES)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mix-1")

	w = get(t, router, ROUTE_MIX+"?id=mix-1")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(t, router, ROUTE_MIX+"?id=absent")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(t, router, ROUTE_MIX)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayoutRoutes(t *testing.T) {
	h, store := testReporter(t)
	require.NoError(t, store.AddMix(mixrecord.MixRecord{ID: "mix-1", StartedAt: 1}))
	require.NoError(t, store.AddPayout(mixrecord.PayoutRecord{
		MixID: "mix-1", Destination: "0xAlice", SourceUnits: 4.8, Status: "CLAIMED",
	}))
	router := h.SetupRouter()

	w := get(t, router, ROUTE_PAYOUTS+"?mix_id=mix-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "0xAlice")

	w = get(t, router, ROUTE_PAYOUTS+"?mix_id=absent")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(t, router, ROUTE_PAYOUTS)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubLauncher struct {
	got *mixer.MixRequest
	err error
}

func (s *stubLauncher) Launch(req *mixer.MixRequest) (string, error) {
	s.got = req
	return "mix-42", s.err
}

func postMix(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, ROUTE_MIX, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestStartMix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := mixrecord.NewSQLiteMixStorage(filepath.Join(t.TempDir(), "mix.db"))
	require.NoError(t, err)
	defer store.Close()

	launcher := &stubLauncher{}
	router := NewHttpReporter("127.0.0.1", "0", store, launcher).SetupRouter()

	w := postMix(t, router, `{
		"amount": 10,
		"destinations": ["0xAlice", "0xBob"],
		"privacy_level": "standard"
	}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "mix-42")
	require.NotNil(t, launcher.got)
	assert.Equal(t, 10.0, launcher.got.Amount)

	// Requests failing validation never reach the launcher.
	launcher.got = nil
	w = postMix(t, router, `{"amount": -1, "destinations": ["0xAlice"], "privacy_level": "standard"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, launcher.got)
}

func TestStartMixWithoutLauncher(t *testing.T) {
	h, _ := testReporter(t)
	w := postMix(t, h.SetupRouter(), `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
