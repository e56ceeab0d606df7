package timbre

import (
	"io"
	"path/filepath"

	"github.com/crimson-sun/timbre/internal/pipeline"
)

type options struct {
	artifactsDir   string
	modelPath      string
	vectorizerPath string
	runtimeLib     string
	progress       io.Writer
}

// Option configures New or Train.
type Option func(*options)

// WithArtifactsDir sets the directory holding (or receiving) the artifacts.
// Expects: sentiment_model.json and sentiment_vectorizer.json.
func WithArtifactsDir(dir string) Option {
	return func(o *options) {
		o.artifactsDir = dir
	}
}

// WithArtifactPaths sets explicit paths for both artifact files.
// Takes precedence over WithArtifactsDir in New. Train ignores it and
// always writes the standard file names into the artifacts directory.
func WithArtifactPaths(model, vectorizer string) Option {
	return func(o *options) {
		o.modelPath = model
		o.vectorizerPath = vectorizer
	}
}

// WithRuntimeLib points Train at an ONNX Runtime shared library so the
// trained model is also exported as sentiment_model.onnx. Without a
// usable runtime Train still succeeds and only skips the export.
func WithRuntimeLib(path string) Option {
	return func(o *options) {
		o.runtimeLib = path
	}
}

// WithProgress directs Train's progress report (metrics, demo
// predictions) to w. Default: discarded.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

func defaultOptions() options {
	return options{progress: io.Discard}
}

// resolvePaths determines the two artifact file paths from the
// configured options. Explicit paths take precedence over artifactsDir.
func resolvePaths(o options) (model, vectorizer string) {
	if o.modelPath != "" {
		return o.modelPath, o.vectorizerPath
	}
	dir := o.artifactsDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, pipeline.ModelFile), filepath.Join(dir, pipeline.VectorizerFile)
}
