package routers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"predict-api/internal/config"
	"predict-api/internal/handlers/predict"
	"predict-api/internal/middleware"
	"predict-api/internal/model"
	"predict-api/internal/shared"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const kellyBatch = `{"PassengerId":[892],"Pclass":[3],"Name":["Kelly, Mr. James"],"Sex":["male"],"Age":[34.5],"SibSp":[0],"Fare":[7.8292],"Embarked":["S"]}`

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	log := zap.NewNop().Sugar()
	p, err := model.Load("../../models/*.model.json")
	require.NoError(t, err)

	e := echo.New()
	base := e.Group("")
	base.Use(middleware.NewRecoverMiddleware(log))
	base.Use(middleware.NewTrackMiddleware(log))
	cfg := &config.Config{ServiceName: "titanic", APIVersion: "0.0.1"}
	require.NoError(t, RegisterPredictRoutes(base, predict.NewPredictHandler(p, log), cfg))
	return e
}

func post(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPredictRoute(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{
			name: "feature vector",
			path: "/titanic/v0.0.1/predict",
			body: `{"X": [892, 3, 0, 0, 34.5, 0, 7.8292, 0]}`,
			want: `{"prediction":0}`,
		},
		{
			name: "column batch",
			path: "/titanic/v0.0.1/predict",
			body: kellyBatch,
			want: `{"predictions":[0]}`,
		},
		{
			name: "alias path",
			path: "/predict",
			body: kellyBatch,
			want: `{"predictions":[0]}`,
		},
		{
			name: "two rows",
			path: "/predict",
			body: `{"PassengerId":[1,2],"Pclass":[1,3],"Name":["Cumings, Mrs. Florence","Braund, Mr. Owen"],"Sex":["female","male"],"Age":[29,22],"SibSp":[0,1],"Fare":[80,7.25],"Embarked":["C","S"]}`,
			want: `{"predictions":[1,0]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(e, tt.path, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.JSONEq(t, tt.want, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
		})
	}
}

func TestPredictRouteIsDeterministic(t *testing.T) {
	e := newTestServer(t)
	first := post(e, "/predict", kellyBatch)
	second := post(e, "/predict", kellyBatch)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestPredictRouteBadInput(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"X": [1, 2`},
		{name: "wrong vector length", body: `{"X": [892, 3]}`},
		{name: "string in numeric column", body: strings.Replace(kellyBatch, `"Age":[34.5]`, `"Age":["old"]`, 1)},
		{name: "missing column", body: `{"Age": [34.5]}`},
		{name: "not an object", body: `"hello"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(e, "/predict", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body shared.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, http.StatusBadRequest, body.Error.Code)
			assert.Equal(t, "BadRequest", body.Error.Type)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestPredictRouteBodyTooLarge(t *testing.T) {
	e := newTestServer(t)
	body := `{"X": [` + strings.Repeat("1,", shared.MaxRequestBodyBytes/2) + `1]}`
	rec := post(e, "/predict", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestModelRoute(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/titanic/v0.0.1/model", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var info model.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "titanic-survival", info.Name)
	assert.Equal(t, []string{"PassengerId", "Pclass", "Name", "Sex", "Age", "SibSp", "Fare", "Embarked"}, info.InputColumns)
}

func TestUnknownRoute(t *testing.T) {
	e := newTestServer(t)
	rec := post(e, "/titanic/v9/predict", kellyBatch)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
