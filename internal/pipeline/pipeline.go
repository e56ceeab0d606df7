package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/crimson-sun/timbre/internal/classifier"
	"github.com/crimson-sun/timbre/internal/dataset"
	"github.com/crimson-sun/timbre/internal/evaluate"
	"github.com/crimson-sun/timbre/internal/export"
	"github.com/crimson-sun/timbre/internal/persist"
	"github.com/crimson-sun/timbre/internal/vectorizer"
)

// Artifact file names written into the output directory.
const (
	ModelFile      = "sentiment_model.json"
	VectorizerFile = "sentiment_vectorizer.json"
	ONNXFile       = "sentiment_model.onnx"
)

const (
	testFraction = 0.2
	splitSeed    = 42
)

// Config carries the pipeline's dependencies and destinations.
type Config struct {
	Out            io.Writer // program output; defaults to os.Stdout
	OutputDir      string    // artifact directory; defaults to "."
	RuntimeLibPath string    // ONNX Runtime shared library location
	RunID          string
	Log            zerolog.Logger
}

// Prediction is one classified demo comment.
type Prediction struct {
	Text       string
	Sentiment  dataset.Label
	Confidence float64 // probability of the predicted class
}

// Results collects what a pipeline run produced.
type Results struct {
	TrainCount   int
	TestCount    int
	FeatureCount int
	Epochs       int

	Accuracy  float64
	Report    evaluate.Report
	Confusion [2][2]int

	ModelPath      string
	VectorizerPath string
	ONNXPath       string // set only when Exported
	Exported       bool

	Demo []Prediction
}

// Pipeline trains, evaluates, persists and exports the sentiment model.
type Pipeline struct {
	cfg Config
}

// New creates a Pipeline, applying defaults for unset config fields.
func New(cfg Config) *Pipeline {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return &Pipeline{cfg: cfg}
}

// Run executes the pipeline end to end: split the corpus, fit the
// vectorizer and model on the training portion, evaluate on the held-out
// portion, persist both artifacts, classify the demo comments, and
// attempt ONNX export. A missing ONNX runtime downgrades export to a
// printed note; any other failure aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Results, error) {
	out := p.cfg.Out
	log := p.cfg.Log
	start := time.Now()

	train, test, err := dataset.Split(dataset.Corpus(), testFraction, splitSeed)
	if err != nil {
		return nil, fmt.Errorf("pipeline: split corpus: %w", err)
	}
	log.Info().Int("train", len(train)).Int("test", len(test)).Msg("corpus split")
	fmt.Fprintf(out, "Training samples: %d\n", len(train))
	fmt.Fprintf(out, "Test samples: %d\n", len(test))

	vec := vectorizer.New(vectorizer.DefaultParams())
	xTrain, err := vec.FitTransform(dataset.Texts(train))
	if err != nil {
		return nil, fmt.Errorf("pipeline: fit vectorizer: %w", err)
	}
	xTest, err := vec.Transform(dataset.Texts(test))
	if err != nil {
		return nil, fmt.Errorf("pipeline: transform test set: %w", err)
	}
	log.Info().Int("features", vec.FeatureCount()).Msg("vectorizer fitted")
	fmt.Fprintf(out, "\nFeature vector shape: (%d, %d)\n", len(xTrain), vec.FeatureCount())

	model := classifier.New(classifier.DefaultTrainConfig())
	if err := model.Fit(ctx, xTrain, dataset.Labels(train)); err != nil {
		return nil, fmt.Errorf("pipeline: train model: %w", err)
	}
	log.Info().Int("epochs", model.Epochs).Msg("model trained")

	yTest := dataset.Labels(test)
	yPred, err := model.Predict(xTest)
	if err != nil {
		return nil, fmt.Errorf("pipeline: predict test set: %w", err)
	}
	accuracy, err := evaluate.Accuracy(yTest, yPred)
	if err != nil {
		return nil, fmt.Errorf("pipeline: score test set: %w", err)
	}
	report, err := evaluate.ClassificationReport(yTest, yPred)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build report: %w", err)
	}
	confusion, err := evaluate.ConfusionMatrix(yTest, yPred)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build confusion matrix: %w", err)
	}
	log.Info().Float64("accuracy", accuracy).Msg("model evaluated")

	fmt.Fprintf(out, "\nModel Accuracy: %.2f%%\n", accuracy*100)
	fmt.Fprintln(out, "\nClassification Report:")
	fmt.Fprintln(out, report.Format([2]string{dataset.Negative.String(), dataset.Positive.String()}))
	fmt.Fprintln(out, "\nConfusion Matrix:")
	fmt.Fprintln(out, evaluate.FormatConfusionMatrix(confusion))

	modelPath := filepath.Join(p.cfg.OutputDir, ModelFile)
	if err := persist.SaveModel(modelPath, model, p.cfg.RunID); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	vecPath := filepath.Join(p.cfg.OutputDir, VectorizerFile)
	if err := persist.SaveVectorizer(vecPath, vec, p.cfg.RunID); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	log.Info().Str("model", modelPath).Str("vectorizer", vecPath).Msg("artifacts saved")
	fmt.Fprintf(out, "\nModel saved to %s\n", ModelFile)
	fmt.Fprintf(out, "Vectorizer saved to %s\n", VectorizerFile)

	demo, err := p.classifyDemos(out, vec, model)
	if err != nil {
		return nil, err
	}

	results := &Results{
		TrainCount:     len(train),
		TestCount:      len(test),
		FeatureCount:   vec.FeatureCount(),
		Epochs:         model.Epochs,
		Accuracy:       accuracy,
		Report:         report,
		Confusion:      confusion,
		ModelPath:      modelPath,
		VectorizerPath: vecPath,
		Demo:           demo,
	}

	onnxPath := filepath.Join(p.cfg.OutputDir, ONNXFile)
	exp := export.New(p.cfg.RuntimeLibPath, log)
	switch err := exp.Export(ctx, model, vec, onnxPath, p.cfg.RunID); {
	case err == nil:
		results.Exported = true
		results.ONNXPath = onnxPath
		fmt.Fprintf(out, "\nONNX model saved to %s\n", ONNXFile)
		fmt.Fprintln(out, "This model can be used with any ONNX Runtime integration")
	case errors.Is(err, export.ErrRuntimeUnavailable):
		log.Warn().Err(err).Msg("onnx export skipped")
		fmt.Fprintln(out, "\nNote: ONNX Runtime not available. To export the ONNX model, run:")
		fmt.Fprintln(out, "TIMBRE_ONNXRUNTIME_PATH=/path/to/libonnxruntime.so timbre")
	default:
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("pipeline complete")
	return results, nil
}

// classifyDemos runs the fitted model over the built-in demo comments and
// prints each verdict.
func (p *Pipeline) classifyDemos(out io.Writer, vec *vectorizer.Vectorizer, model *classifier.LogisticRegression) ([]Prediction, error) {
	comments := dataset.DemoComments()
	x, err := vec.Transform(comments)
	if err != nil {
		return nil, fmt.Errorf("pipeline: transform demo comments: %w", err)
	}
	probas, err := model.PredictProba(x)
	if err != nil {
		return nil, fmt.Errorf("pipeline: classify demo comments: %w", err)
	}

	fmt.Fprintln(out, "\n--- Test Predictions ---")
	demo := make([]Prediction, len(comments))
	for i, comment := range comments {
		sentiment := dataset.Negative
		confidence := probas[i][0]
		if probas[i][1] >= 0.5 {
			sentiment = dataset.Positive
			confidence = probas[i][1]
		}
		demo[i] = Prediction{Text: comment, Sentiment: sentiment, Confidence: confidence}
		fmt.Fprintf(out, "Comment: '%s'\n", comment)
		fmt.Fprintf(out, "  Sentiment: %s (Confidence: %.1f%%)\n\n", sentiment, confidence*100)
	}
	return demo, nil
}
