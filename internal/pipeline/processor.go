package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"weather-ml-backend/internal/core"

	"github.com/google/uuid"
)

type DatasetLister interface {
	// ListDatasets returns dataset names ordered by date token, earliest first.
	ListDatasets(ctx context.Context) ([]string, error)
}

type DatasetLoader interface {
	LoadDataset(ctx context.Context, name string) (*core.Table, error)
}

type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

type DriftDetector interface {
	DetectDrift(reference, current *core.Table) (bool, error)
}

type Retrainer interface {
	// Retrain trains on data and publishes the resulting model artifact.
	Retrain(ctx context.Context, datasetName string, data *core.Table) error
}

type InferenceRunner interface {
	// RunInference predicts on the named dataset with the latest model and
	// publishes the predictions.
	RunInference(ctx context.Context, datasetName string) error
}

type Config struct {
	DatasetBucket string
	ModelBucket   string
}

type Collaborators struct {
	Datasets  DatasetLister
	Loader    DatasetLoader
	Models    ModelLister
	Drift     DriftDetector
	Retrainer Retrainer
	Inference InferenceRunner
}

// Result is the outcome of a successful Process call. When InferenceOnly is
// set only Blob is meaningful.
type Result struct {
	InferenceOnly bool
	Blob          string

	DriftDetected   bool
	RetrainExecuted bool
	PreviousFile    string
	LatestFile      string
	InferenceBlob   string
}

type Processor struct {
	cfg Config
	Collaborators
}

func NewProcessor(cfg Config, collaborators Collaborators) *Processor {
	return &Processor{cfg: cfg, Collaborators: collaborators}
}

// Process handles the arrival of blobName in the dataset bucket. With a
// single dataset it runs inference on blobName. With two or more it checks
// the two most recent datasets for drift and either retrains on the latest
// dataset or runs inference on blobName, never both.
func (p *Processor) Process(ctx context.Context, blobName string) (Result, error) {
	if blobName == "" {
		return Result{}, newError(ValidationError, errors.New(MissingBlobNameMessage))
	}

	runId := uuid.New()
	logger := slog.With("run_id", runId, "blob_name", blobName)

	datasets, err := p.Datasets.ListDatasets(ctx)
	if err != nil {
		return Result{}, newError(CollaboratorError, err)
	}

	switch len(datasets) {
	case 0:
		return Result{}, newError(NotFoundError, errors.New(NoBlobsMessage))
	case 1:
		logger.Info("only one dataset in bucket, running inference", "bucket", p.cfg.DatasetBucket)
		if err := p.Inference.RunInference(ctx, blobName); err != nil {
			return Result{}, newError(CollaboratorError, err)
		}
		return Result{InferenceOnly: true, Blob: blobName}, nil
	}

	latestName := datasets[len(datasets)-1]
	previousName := datasets[len(datasets)-2]

	logger.Info("loading previous dataset", "dataset", previousName)
	previous, err := p.Loader.LoadDataset(ctx, previousName)
	if err != nil {
		return Result{}, newError(CollaboratorError, err)
	}

	logger.Info("loading latest dataset", "dataset", latestName)
	latest, err := p.Loader.LoadDataset(ctx, latestName)
	if err != nil {
		return Result{}, newError(CollaboratorError, err)
	}

	drifted, err := p.Drift.DetectDrift(previous, latest)
	if err != nil {
		return Result{}, newError(CollaboratorError, err)
	}

	models, err := p.Models.ListModels(ctx)
	if err != nil {
		return Result{}, newError(CollaboratorError, err)
	}

	latestModel, _ := core.LatestByName(models)
	retrain := RetrainNeeded(drifted, latestModel, latestName)

	logger.Info("drift check complete", "previous", previousName, "latest", latestName, "drifted", drifted, "latest_model", latestModel, "retrain", retrain)

	if retrain {
		logger.Info("retraining model on latest dataset", "dataset", latestName, "bucket", p.cfg.ModelBucket)
		if err := p.Retrainer.Retrain(ctx, latestName, latest); err != nil {
			return Result{}, newError(CollaboratorError, err)
		}
	} else {
		logger.Info("no retraining needed, running inference")
		if err := p.Inference.RunInference(ctx, blobName); err != nil {
			return Result{}, newError(CollaboratorError, err)
		}
	}

	return Result{
		DriftDetected:   drifted,
		RetrainExecuted: retrain,
		PreviousFile:    previousName,
		LatestFile:      latestName,
		InferenceBlob:   blobName,
	}, nil
}

// RetrainNeeded starts from the drift result. A model dated on or after the
// latest dataset suppresses retraining. If either date cannot be parsed, or
// there is no model, the drift result stands.
func RetrainNeeded(drifted bool, latestModel, latestDataset string) bool {
	if latestModel == "" {
		return drifted
	}

	modelDate, ok := core.ParseDateToken(latestModel)
	if !ok {
		return drifted
	}
	datasetDate, ok := core.ParseDateToken(latestDataset)
	if !ok {
		return drifted
	}

	if !modelDate.Before(datasetDate) {
		return false
	}
	return drifted
}
