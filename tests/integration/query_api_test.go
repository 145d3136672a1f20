package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/beego/beego/v2/server/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrhub/backend-go/app/bootstrap"
	"github.com/hrhub/backend-go/app/router"
)

// 端到端测试需要可用的Postgres，通过环境变量开启。
func setupApp(t *testing.T) {
	t.Helper()
	if os.Getenv("HRHUB_INTEGRATION") == "" {
		t.Skip("set HRHUB_INTEGRATION=1 to run integration tests")
	}

	app, err := bootstrap.Init()
	require.NoError(t, err)
	require.NotNil(t, app)
	t.Cleanup(app.Shutdown)

	router.Init()
	web.BConfig.CopyRequestBody = true
}

func doJSON(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	web.BeeApp.Handlers.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	setupApp(t)

	w := doJSON(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestQueryEndpoint(t *testing.T) {
	setupApp(t)

	w := doJSON(t, "POST", "/api/query", map[string]interface{}{
		"question": "How many vacation days do I get per year?",
		"user_id":  "it-test",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Answer          string   `json:"answer"`
			ConfidenceScore float64  `json:"confidence_score"`
			Sources         []string `json:"sources"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.Answer)
	assert.GreaterOrEqual(t, resp.Data.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, resp.Data.ConfidenceScore, 1.0)
}

func TestQueryValidation(t *testing.T) {
	setupApp(t)

	w := doJSON(t, "POST", "/api/query", map[string]interface{}{"question": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
