package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"weather-ml-backend/internal/core"
	"weather-ml-backend/internal/storage"
)

// Catalog lists and loads datasets and lists models from object storage.
type Catalog struct {
	store storage.Provider
	cfg   Config
}

var (
	_ DatasetLister = (*Catalog)(nil)
	_ DatasetLoader = (*Catalog)(nil)
	_ ModelLister   = (*Catalog)(nil)
)

func NewCatalog(store storage.Provider, cfg Config) *Catalog {
	return &Catalog{store: store, cfg: cfg}
}

// ListDatasets returns the names in the dataset bucket that carry a date
// token, earliest first. Other objects are not dataset snapshots and are
// skipped, so a bucket holding only undated objects is reported as empty.
func (c *Catalog) ListDatasets(ctx context.Context) ([]string, error) {
	objects, err := c.store.ListObjects(ctx, c.cfg.DatasetBucket, "")
	if err != nil {
		return nil, fmt.Errorf("error listing datasets: %w", err)
	}

	var names []string
	for _, obj := range objects {
		if _, ok := core.ExtractDateToken(obj.Name); !ok {
			slog.Debug("skipping object without date token", "bucket", c.cfg.DatasetBucket, "name", obj.Name)
			continue
		}
		names = append(names, obj.Name)
	}

	core.SortByDate(names)

	return names, nil
}

func (c *Catalog) LoadDataset(ctx context.Context, name string) (*core.Table, error) {
	data, err := c.store.GetObject(ctx, c.cfg.DatasetBucket, name)
	if err != nil {
		return nil, fmt.Errorf("error downloading dataset %s: %w", name, err)
	}

	table, err := core.ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing dataset %s: %w", name, err)
	}

	return table, nil
}

func (c *Catalog) ListModels(ctx context.Context) ([]string, error) {
	objects, err := c.store.ListObjects(ctx, c.cfg.ModelBucket, "")
	if err != nil {
		return nil, fmt.Errorf("error listing models: %w", err)
	}
	return storage.ObjectNames(objects), nil
}

// Trainer fits a linear model on a dataset and publishes it to the model
// bucket under the dataset's date token.
type Trainer struct {
	store  storage.Provider
	cfg    Config
	params core.TrainingParams
}

var _ Retrainer = (*Trainer)(nil)

func NewTrainer(store storage.Provider, cfg Config, params core.TrainingParams) *Trainer {
	return &Trainer{store: store, cfg: cfg, params: params}
}

func (t *Trainer) Retrain(ctx context.Context, datasetName string, data *core.Table) error {
	modelName, err := core.ModelName(datasetName)
	if err != nil {
		return fmt.Errorf("error naming model: %w", err)
	}

	model, err := core.TrainLinearModel(data, datasetName, t.params)
	if err != nil {
		return fmt.Errorf("error training model on %s: %w", datasetName, err)
	}

	var buf bytes.Buffer
	if err := model.Save(&buf); err != nil {
		return err
	}

	if err := t.store.PutObject(ctx, t.cfg.ModelBucket, modelName, &buf); err != nil {
		return fmt.Errorf("error publishing model %s: %w", modelName, err)
	}

	slog.Info("published retrained model", "model", modelName, "dataset", datasetName, "features", model.Features)

	return nil
}

// Predictor runs the latest model over a dataset and writes the dataset,
// with a prediction column appended, to the prediction bucket.
type Predictor struct {
	store            storage.Provider
	catalog          *Catalog
	cfg              Config
	predictionBucket string
	params           core.InferenceParams
}

var _ InferenceRunner = (*Predictor)(nil)

func NewPredictor(store storage.Provider, cfg Config, predictionBucket string, params core.InferenceParams) *Predictor {
	return &Predictor{
		store:            store,
		catalog:          NewCatalog(store, cfg),
		cfg:              cfg,
		predictionBucket: predictionBucket,
		params:           params,
	}
}

func (p *Predictor) RunInference(ctx context.Context, datasetName string) error {
	models, err := p.catalog.ListModels(ctx)
	if err != nil {
		return err
	}

	modelName, ok := core.LatestByName(models)
	if !ok {
		return fmt.Errorf("no model available in bucket %s for inference", p.cfg.ModelBucket)
	}

	modelData, err := p.store.GetObject(ctx, p.cfg.ModelBucket, modelName)
	if err != nil {
		return fmt.Errorf("error downloading model %s: %w", modelName, err)
	}

	model, err := core.LoadLinearModel(bytes.NewReader(modelData))
	if err != nil {
		return fmt.Errorf("error loading model %s: %w", modelName, err)
	}

	data, err := p.catalog.LoadDataset(ctx, datasetName)
	if err != nil {
		return err
	}

	predictions, err := model.Predict(data)
	if err != nil {
		return fmt.Errorf("error running model %s on %s: %w", modelName, datasetName, err)
	}

	values := make([]string, len(predictions))
	for i, v := range predictions {
		if !math.IsNaN(v) {
			values[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}

	out, err := data.AppendColumn(p.params.PredictionColumn, values)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := out.WriteCSV(&buf); err != nil {
		return err
	}

	outputName := core.PredictionName(datasetName)
	if err := p.store.PutObject(ctx, p.predictionBucket, outputName, &buf); err != nil {
		return fmt.Errorf("error publishing predictions %s: %w", outputName, err)
	}

	slog.Info("published predictions", "dataset", datasetName, "model", modelName, "output", outputName, "rows", len(predictions))

	return nil
}
