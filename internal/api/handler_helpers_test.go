package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/vocab-review/internal/api/shared"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/stretchr/testify/require"
)

var (
	baseTime = time.Date(2025, 1, 18, 10, 30, 0, 0, time.UTC)
	discard  = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func newTestRouter(itemSvc *mockItemService, sessionSvc *mockSessionService) http.Handler {
	if itemSvc == nil {
		itemSvc = &mockItemService{}
	}
	if sessionSvc == nil {
		sessionSvc = &mockSessionService{}
	}
	return NewRouter(RouterConfig{
		Items:              itemSvc,
		Sessions:           sessionSvc,
		Logger:             discard,
		CORSAllowedOrigins: []string{"https://app.example.com"},
	})
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	return decodeBody[shared.ErrorResponse](t, w)
}

func newItem(t *testing.T, text string) *domain.LearningItem {
	t.Helper()
	item, err := domain.NewLearningItem("user-1", domain.ItemContent{Text: text, Definition: "def"}, baseTime)
	require.NoError(t, err)
	return item
}
