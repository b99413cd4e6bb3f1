package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	backend "weather-ml-backend/internal/api"
	"weather-ml-backend/internal/core"
	"weather-ml-backend/internal/pipeline"
	"weather-ml-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	datasets []string
	models   []string
	err      error
}

func (c *fakeCatalog) ListDatasets(ctx context.Context) ([]string, error) {
	return c.datasets, c.err
}

func (c *fakeCatalog) ListModels(ctx context.Context) ([]string, error) {
	return c.models, c.err
}

type fakeProcessor struct {
	result pipeline.Result
	err    error
	calls  []string
}

func (p *fakeProcessor) Process(ctx context.Context, blobName string) (pipeline.Result, error) {
	p.calls = append(p.calls, blobName)
	return p.result, p.err
}

func newRouter(processor backend.Processor, catalog backend.Catalog) chi.Router {
	router := chi.NewRouter()
	backend.NewBackendService(processor, catalog).AddRoutes(router)
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response), "recieved response: "+rec.Body.String())
	return rec.Code, response
}

func TestProcessInferenceOnlyResponse(t *testing.T) {
	processor := &fakeProcessor{result: pipeline.Result{InferenceOnly: true, Blob: "weather_20230101.csv"}}
	router := newRouter(processor, &fakeCatalog{})

	code, response := doRequest(t, router, http.MethodPost, "/process", `{"blob_name":"weather_20230101.csv"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{
		"status":  "success",
		"message": "Only one blob — inference executed",
		"blob":    "weather_20230101.csv",
	}, response)
	assert.Equal(t, []string{"weather_20230101.csv"}, processor.calls)
}

func TestProcessDriftCheckResponse(t *testing.T) {
	processor := &fakeProcessor{result: pipeline.Result{
		DriftDetected:   true,
		RetrainExecuted: false,
		PreviousFile:    "D_20230101",
		LatestFile:      "D_20230201",
		InferenceBlob:   "D_20230101",
	}}
	router := newRouter(processor, &fakeCatalog{})

	code, response := doRequest(t, router, http.MethodPost, "/process", `{"blob_name":"D_20230101"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{
		"status":           "success",
		"drift_detected":   true,
		"retrain_executed": false,
		"previous_file":    "D_20230101",
		"latest_file":      "D_20230201",
		"inference_blob":   "D_20230101",
	}, response)
}

func TestProcessErrorResponses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"Validation", &pipeline.Error{Kind: pipeline.ValidationError, Err: errors.New(pipeline.MissingBlobNameMessage)}, http.StatusBadRequest, "Missing blob_name in POST request"},
		{"NotFound", &pipeline.Error{Kind: pipeline.NotFoundError, Err: errors.New(pipeline.NoBlobsMessage)}, http.StatusBadRequest, "No blobs found in container"},
		{"Collaborator", &pipeline.Error{Kind: pipeline.CollaboratorError, Err: errors.New("connection refused")}, http.StatusInternalServerError, "connection refused"},
		{"Unclassified", errors.New("boom"), http.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&fakeProcessor{err: tt.err}, &fakeCatalog{})

			code, response := doRequest(t, router, http.MethodPost, "/process", `{"blob_name":"x"}`)

			assert.Equal(t, tt.code, code)
			assert.Equal(t, map[string]any{"status": "failed", "error": tt.msg}, response)
		})
	}
}

func TestProcessMalformedBody(t *testing.T) {
	processor := &fakeProcessor{}
	router := newRouter(processor, &fakeCatalog{})

	code, response := doRequest(t, router, http.MethodPost, "/process", `{"blob_name":`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "failed", response["status"])
	assert.Empty(t, processor.calls)
}

func TestProcessEmptyBodyIsMissingBlobName(t *testing.T) {
	catalog := &fakeCatalog{datasets: []string{"weather_20230101.csv"}}
	processor := pipeline.NewProcessor(pipeline.Config{}, pipeline.Collaborators{Datasets: catalog})
	router := newRouter(processor, catalog)

	for _, body := range []string{"", "{}", `{"blob_name":""}`} {
		code, response := doRequest(t, router, http.MethodPost, "/process", body)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, map[string]any{"status": "failed", "error": "Missing blob_name in POST request"}, response)
	}
}

func TestListDatasets(t *testing.T) {
	catalog := &fakeCatalog{datasets: []string{"D_20230101", "D_20230201", "D_20230301"}}
	router := newRouter(&fakeProcessor{}, catalog)

	code, response := doRequest(t, router, http.MethodGet, "/datasets", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"D_20230101", "D_20230201", "D_20230301"}, response["datasets"])

	code, response = doRequest(t, router, http.MethodGet, "/datasets?limit=2", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"D_20230201", "D_20230301"}, response["datasets"])

	code, _ = doRequest(t, router, http.MethodGet, "/datasets?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doRequest(t, router, http.MethodGet, "/datasets?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, response = doRequest(t, newRouter(&fakeProcessor{}, &fakeCatalog{}), http.MethodGet, "/datasets", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, response["datasets"])
}

func TestListModels(t *testing.T) {
	router := newRouter(&fakeProcessor{}, &fakeCatalog{models: []string{"model_20230101.json", "model_20230301.json"}})

	code, response := doRequest(t, router, http.MethodGet, "/models", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"model_20230101.json", "model_20230301.json"}, response["models"])
	assert.Equal(t, "model_20230301.json", response["latest_model"])

	router = newRouter(&fakeProcessor{}, &fakeCatalog{err: errors.New("denied")})
	code, response = doRequest(t, router, http.MethodGet, "/models", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "error listing models: denied", response["error"])
}

func TestHealth(t *testing.T) {
	code, response := doRequest(t, newRouter(&fakeProcessor{}, &fakeCatalog{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, response)
}

func weatherCSV(offset float64) string {
	var sb strings.Builder
	sb.WriteString("humidity,pressure,temperature\n")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "%d,%d,%g\n", 50+i, 1000+(i*5)%11, float64(50+i)/2+offset)
	}
	return sb.String()
}

func TestServerEndToEnd(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)
	for _, bucket := range []string{"weather-data", "models", "predictions"} {
		require.NoError(t, store.CreateBucket(ctx, bucket))
	}

	cfg := pipeline.Config{DatasetBucket: "weather-data", ModelBucket: "models"}
	params := core.DefaultParams()
	catalog := pipeline.NewCatalog(store, cfg)
	processor := pipeline.NewProcessor(cfg, pipeline.Collaborators{
		Datasets:  catalog,
		Loader:    catalog,
		Models:    catalog,
		Drift:     core.NewKSDriftDetector(params.Drift),
		Retrainer: pipeline.NewTrainer(store, cfg, params.Training),
		Inference: pipeline.NewPredictor(store, cfg, "predictions", params.Inference),
	})

	server := httptest.NewServer(newRouter(processor, catalog))
	defer server.Close()

	client := resty.New().SetBaseURL(server.URL)

	post := func(blobName string) (*resty.Response, map[string]any) {
		var body map[string]any
		res, err := client.R().
			SetBody(map[string]string{"blob_name": blobName}).
			SetResult(&body).
			SetError(&body).
			Post("/process")
		require.NoError(t, err)
		return res, body
	}

	res, body := post("weather_20230101.csv")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode())
	assert.Equal(t, "No blobs found in container", body["error"])

	require.NoError(t, store.PutObject(ctx, "weather-data", "weather_20230101.csv", strings.NewReader(weatherCSV(0))))

	res, body = post("weather_20230101.csv")
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode(), "no model has been published yet")
	assert.Equal(t, "failed", body["status"])
	assert.Contains(t, body["error"], "no model available")

	require.NoError(t, store.PutObject(ctx, "weather-data", "weather_20230201.csv", strings.NewReader(weatherCSV(15))))

	res, body = post("weather_20230201.csv")
	assert.Equal(t, http.StatusOK, res.StatusCode())
	assert.Equal(t, true, body["drift_detected"])
	assert.Equal(t, true, body["retrain_executed"])

	res, body = post("weather_20230201.csv")
	assert.Equal(t, http.StatusOK, res.StatusCode())
	assert.Equal(t, false, body["retrain_executed"])
	assert.Equal(t, "weather_20230201.csv", body["inference_blob"])

	_, err = store.GetObject(ctx, "predictions", "weather_20230201_predictions.csv")
	require.NoError(t, err)

	var models map[string]any
	_, err = client.R().SetResult(&models).Get("/models")
	require.NoError(t, err)
	assert.Equal(t, "model_20230201.json", models["latest_model"])
}
