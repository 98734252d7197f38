// Package app wires the training pipeline: fetch, derive, build, train,
// evaluate and persist.
package app

import (
	"context"
	"fmt"
	"time"

	"stockPredictor/internal/dataset"
	"stockPredictor/internal/domain"
	"stockPredictor/internal/evaluation"
	"stockPredictor/internal/features"
	"stockPredictor/internal/forest"
	"stockPredictor/internal/modelstore"
	"stockPredictor/internal/ports"
	"stockPredictor/internal/training"
)

// PriceFetcher returns normalized daily history for [start, end).
type PriceFetcher interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)
}

// PipelineConfig holds the settings of one training run.
type PipelineConfig struct {
	Symbol       string
	Start        time.Time
	End          time.Time
	Mode         training.Mode
	TestFraction float64
	ModelPath    string
	ChartPath    string // optional holdout chart
	Features     features.Config
	Training     training.Config
}

// RunReport summarizes a completed run.
type RunReport struct {
	Symbol      string
	Mode        training.Mode
	Bars        int
	FeatureRows int
	TrainSize   int
	TestSize    int
	Params      forest.Params
	CVScore     float64
	Evaluation  evaluation.Report
	ModelPath   string
	ChartPath   string
}

// Pipeline runs a single training job.
type Pipeline struct {
	cfg     PipelineConfig
	logger  ports.Logger
	fetcher PriceFetcher
	store   ports.PriceRepository // optional
	deriver *features.Deriver
	trainer *training.Trainer
}

// NewPipeline creates a pipeline. store may be nil; when set, fetched bars
// are saved to it before training.
func NewPipeline(cfg PipelineConfig, logger ports.Logger, fetcher PriceFetcher, store ports.PriceRepository) (*Pipeline, error) {
	if logger == nil || fetcher == nil {
		return nil, fmt.Errorf("missing required dependencies for Pipeline")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", ports.ErrInvalidRequest)
	}
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path is required: %w", ports.ErrInvalidRequest)
	}
	if cfg.TestFraction == 0 {
		cfg.TestFraction = dataset.DefaultTestFraction
	}
	deriver, err := features.NewDeriver(cfg.Features)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		store:   store,
		deriver: deriver,
		trainer: training.NewTrainer(cfg.Training, logger),
	}, nil
}

// Train executes the run. The artifact is only written once training and
// evaluation have both succeeded.
func (p *Pipeline) Train(ctx context.Context) (*RunReport, error) {
	cfg := p.cfg
	report := &RunReport{Symbol: cfg.Symbol, Mode: cfg.Mode, ModelPath: cfg.ModelPath}

	series, err := p.fetcher.Fetch(ctx, cfg.Symbol, cfg.Start, cfg.End)
	if err != nil {
		p.logger.Error(ctx, err, "Failed to fetch price history", map[string]interface{}{"symbol": cfg.Symbol})
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	report.Bars = series.Len()

	if p.store != nil {
		if _, err := p.store.SaveBars(ctx, cfg.Symbol, series.Bars); err != nil {
			p.logger.Warn(ctx, "Could not cache fetched bars", map[string]interface{}{"error": err.Error()})
		}
	}

	rows, err := p.deriver.Derive(series)
	if err != nil {
		p.logger.Error(ctx, err, "Failed to derive features", map[string]interface{}{"bars": series.Len()})
		return nil, fmt.Errorf("deriving features: %w", err)
	}
	report.FeatureRows = len(rows)

	split, err := dataset.Build(rows, cfg.TestFraction)
	if err != nil {
		p.logger.Error(ctx, err, "Failed to build dataset", map[string]interface{}{"rows": len(rows)})
		return nil, fmt.Errorf("building dataset: %w", err)
	}
	report.TrainSize = len(split.XTrain)
	report.TestSize = len(split.XTest)
	p.logger.Info(ctx, "Dataset split", map[string]interface{}{
		"train":      report.TrainSize,
		"test":       report.TestSize,
		"train_last": split.TrainDates[len(split.TrainDates)-1].Format("2006-01-02"),
		"test_first": split.TestDates[0].Format("2006-01-02"),
	})

	result, err := p.trainer.Train(ctx, split.XTrain, split.YTrain, cfg.Mode)
	if err != nil {
		p.logger.Error(ctx, err, "Training failed", map[string]interface{}{"mode": string(cfg.Mode)})
		return nil, fmt.Errorf("training: %w", err)
	}
	report.Params = result.Params
	report.CVScore = result.CVScore

	eval, err := evaluation.Evaluate(result.Model, split.XTest, split.YTest)
	if err != nil {
		p.logger.Error(ctx, err, "Evaluation failed")
		return nil, fmt.Errorf("evaluating: %w", err)
	}
	report.Evaluation = eval
	p.logger.Info(ctx, "Model evaluated", eval.Fields())

	artifact := modelstore.NewArtifact(result.Model, cfg.Symbol, string(cfg.Mode))
	if err := modelstore.Save(artifact, cfg.ModelPath); err != nil {
		p.logger.Error(ctx, err, "Failed to save model", map[string]interface{}{"path": cfg.ModelPath})
		return nil, fmt.Errorf("saving model: %w", err)
	}
	p.logger.Info(ctx, "Model trained and saved", map[string]interface{}{"path": cfg.ModelPath})

	if cfg.ChartPath != "" {
		pred, err := result.Model.PredictBatch(split.XTest)
		if err == nil {
			title := fmt.Sprintf("%s next-day close: actual vs predicted", cfg.Symbol)
			err = evaluation.SaveChart(cfg.ChartPath, title, split.TestDates, split.YTest, pred)
		}
		if err != nil {
			p.logger.Warn(ctx, "Could not render holdout chart", map[string]interface{}{"path": cfg.ChartPath, "error": err.Error()})
		} else {
			report.ChartPath = cfg.ChartPath
		}
	}

	return report, nil
}
