package timbre

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crimson-sun/timbre/internal/classifier"
	"github.com/crimson-sun/timbre/internal/dataset"
	"github.com/crimson-sun/timbre/internal/persist"
	"github.com/crimson-sun/timbre/internal/pipeline"
	"github.com/crimson-sun/timbre/internal/vectorizer"
)

// Prediction is a sentiment call on a single piece of text.
type Prediction struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`  // "Positive" or "Negative"
	Confidence float64 `json:"confidence"` // probability of the predicted class, in [0.5, 1]
}

// Analyzer scores comment sentiment using the artifacts of a training
// run. Safe for concurrent use: the fitted model and vectorizer are
// read-only after construction.
type Analyzer struct {
	model      *classifier.LogisticRegression
	vectorizer *vectorizer.Vectorizer
}

// New loads a fitted model and vectorizer from disk.
func New(opts ...Option) (*Analyzer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	modelPath, vecPath := resolvePaths(o)

	m, err := persist.LoadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("timbre: %w", err)
	}
	v, err := persist.LoadVectorizer(vecPath)
	if err != nil {
		return nil, fmt.Errorf("timbre: %w", err)
	}
	if m.FeatureCount() != v.FeatureCount() {
		return nil, fmt.Errorf("timbre: model expects %d features, vectorizer produces %d",
			m.FeatureCount(), v.FeatureCount())
	}

	return &Analyzer{model: m, vectorizer: v}, nil
}

// Train runs the complete training pipeline (fit, evaluate, persist,
// attempt ONNX export) and returns an Analyzer backed by the artifacts
// it wrote.
func Train(ctx context.Context, opts ...Option) (*Analyzer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dir := o.artifactsDir
	if dir == "" {
		dir = "."
	}

	p := pipeline.New(pipeline.Config{
		Out:            o.progress,
		OutputDir:      dir,
		RuntimeLibPath: o.runtimeLib,
		RunID:          uuid.NewString(),
		Log:            zerolog.Nop(),
	})
	if _, err := p.Run(ctx); err != nil {
		return nil, fmt.Errorf("timbre: %w", err)
	}

	return New(WithArtifactsDir(dir))
}

// Analyze scores a single comment.
func (a *Analyzer) Analyze(text string) (Prediction, error) {
	preds, err := a.AnalyzeBatch([]string{text})
	if err != nil {
		return Prediction{}, err
	}
	return preds[0], nil
}

// AnalyzeBatch scores multiple comments in one vectorizer pass.
func (a *Analyzer) AnalyzeBatch(texts []string) ([]Prediction, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	X, err := a.vectorizer.Transform(texts)
	if err != nil {
		return nil, fmt.Errorf("timbre: %w", err)
	}
	probas, err := a.model.PredictProba(X)
	if err != nil {
		return nil, fmt.Errorf("timbre: %w", err)
	}

	preds := make([]Prediction, len(texts))
	for i, text := range texts {
		label := dataset.Negative
		confidence := probas[i][0]
		if probas[i][1] >= 0.5 {
			label = dataset.Positive
			confidence = probas[i][1]
		}
		preds[i] = Prediction{Text: text, Sentiment: label.String(), Confidence: confidence}
	}
	return preds, nil
}

// FeatureCount reports the width of the fitted feature space.
func (a *Analyzer) FeatureCount() int {
	return a.model.FeatureCount()
}
