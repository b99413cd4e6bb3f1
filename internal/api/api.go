package api

import (
	"context"
	"log/slog"
	"net/http"
	"weather-ml-backend/internal/core"
	"weather-ml-backend/internal/pipeline"
	"weather-ml-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

const InferenceOnlyMessage = "Only one blob — inference executed"

type Processor interface {
	Process(ctx context.Context, blobName string) (pipeline.Result, error)
}

type Catalog interface {
	pipeline.DatasetLister
	pipeline.ModelLister
}

type BackendService struct {
	processor Processor
	catalog   Catalog
}

func NewBackendService(processor Processor, catalog Catalog) *BackendService {
	return &BackendService{processor: processor, catalog: catalog}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Post("/process", RestHandler(s.ProcessData))
	r.Get("/datasets", RestHandler(s.ListDatasets))
	r.Get("/models", RestHandler(s.ListModels))
}

func (s *BackendService) ProcessData(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ProcessRequest](r)
	if err != nil {
		return nil, err
	}

	res, err := s.processor.Process(r.Context(), req.BlobName)
	if err != nil {
		return nil, processError(err)
	}

	if res.InferenceOnly {
		return api.InferenceOnlyResponse{
			Status:  api.StatusSuccess,
			Message: InferenceOnlyMessage,
			Blob:    res.Blob,
		}, nil
	}

	return api.DriftCheckResponse{
		Status:          api.StatusSuccess,
		DriftDetected:   res.DriftDetected,
		RetrainExecuted: res.RetrainExecuted,
		PreviousFile:    res.PreviousFile,
		LatestFile:      res.LatestFile,
		InferenceBlob:   res.InferenceBlob,
	}, nil
}

func processError(err error) error {
	switch pipeline.KindOf(err) {
	case pipeline.ValidationError, pipeline.NotFoundError:
		return CodedError(http.StatusBadRequest, err)
	default:
		slog.Error("error processing blob", "error", err)
		return CodedError(http.StatusInternalServerError, err)
	}
}

func (s *BackendService) ListDatasets(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListDatasetsParams](r)
	if err != nil {
		return nil, err
	}
	if params.Limit < 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "limit must not be negative")
	}

	datasets, err := s.catalog.ListDatasets(r.Context())
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing datasets: %v", err)
	}

	// Keep the most recent datasets when limited.
	if params.Limit > 0 && len(datasets) > params.Limit {
		datasets = datasets[len(datasets)-params.Limit:]
	}
	if datasets == nil {
		datasets = []string{}
	}

	return api.ListDatasetsResponse{Datasets: datasets}, nil
}

func (s *BackendService) ListModels(r *http.Request) (any, error) {
	models, err := s.catalog.ListModels(r.Context())
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing models: %v", err)
	}
	if models == nil {
		models = []string{}
	}

	latest, _ := core.LatestByName(models)

	return api.ListModelsResponse{Models: models, LatestModel: latest}, nil
}
