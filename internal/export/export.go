package export

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/crimson-sun/timbre/internal/classifier"
	"github.com/crimson-sun/timbre/internal/vectorizer"
)

// ErrRuntimeUnavailable reports that the ONNX Runtime shared library could
// not be loaded. Every exported model is verified by the runtime before it
// is committed, so export cannot proceed without it.
var ErrRuntimeUnavailable = errors.New("export: onnx runtime unavailable")

// verifyTolerance bounds the probability drift allowed between the Go
// model and the exported graph. The graph stores float32 weights.
const verifyTolerance = 1e-4

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// Exporter writes fitted models as ONNX files.
type Exporter struct {
	libPath string
	log     zerolog.Logger
}

// New creates an Exporter that loads the ONNX Runtime shared library from
// libPath.
func New(libPath string, log zerolog.Logger) *Exporter {
	return &Exporter{libPath: libPath, log: log}
}

// Export encodes the model as an ONNX graph, verifies with the ONNX
// Runtime that the graph reproduces the model's predictions, and writes
// it atomically to path. It returns ErrRuntimeUnavailable when the
// runtime cannot be loaded; the caller decides whether that is fatal.
// The vectorizer pins the expected input width so mismatched artifacts
// are caught before anything is written.
func (e *Exporter) Export(ctx context.Context, m *classifier.LogisticRegression, v *vectorizer.Vectorizer, path, runID string) error {
	if m == nil || m.FeatureCount() == 0 {
		return fmt.Errorf("export: model is not fitted")
	}
	if v == nil || v.FeatureCount() == 0 {
		return fmt.Errorf("export: vectorizer is not fitted")
	}
	if m.FeatureCount() != v.FeatureCount() {
		return fmt.Errorf("export: model expects %d features, vectorizer produces %d", m.FeatureCount(), v.FeatureCount())
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if err := initORT(e.libPath); err != nil {
		return fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}

	data := buildModel(m.Weights, m.Bias, runID)
	e.log.Debug().Int("bytes", len(data)).Int("features", m.FeatureCount()).Msg("encoded onnx graph")

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("export: write %s: %w", tmp, err)
	}
	if err := e.verify(tmp, m); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export: rename %s: %w", path, err)
	}

	e.log.Debug().Str("path", path).Msg("onnx model verified and written")
	return nil
}

// verify loads the written file with the ONNX Runtime, checks its declared
// inputs and outputs, and compares its predictions on probe rows against
// the Go model.
func (e *Exporter) verify(path string, m *classifier.LogisticRegression) error {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return fmt.Errorf("export: read model info: %w", err)
	}
	if len(inputs) != 1 || inputs[0].Name != inputName {
		return fmt.Errorf("export: model is missing input %q", inputName)
	}
	dims := inputs[0].Dimensions
	if len(dims) != 2 || dims[1] != int64(m.FeatureCount()) {
		return fmt.Errorf("export: unexpected input shape %v", dims)
	}
	outNames := make(map[string]bool, len(outputs))
	for _, out := range outputs {
		outNames[out.Name] = true
	}
	if !outNames[labelName] || !outNames[probasName] {
		return fmt.Errorf("export: model is missing outputs %q and %q", labelName, probasName)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("export: create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		path,
		[]string{inputName},
		[]string{labelName, probasName},
		opts,
	)
	if err != nil {
		return fmt.Errorf("export: create session: %w", err)
	}
	defer session.Destroy()

	probes := probeRows(m.FeatureCount())
	wantLabels, err := m.Predict(probes)
	if err != nil {
		return fmt.Errorf("export: probe predictions: %w", err)
	}
	wantProbas, err := m.PredictProba(probes)
	if err != nil {
		return fmt.Errorf("export: probe probabilities: %w", err)
	}

	n := int64(len(probes))
	f := int64(m.FeatureCount())
	flat := make([]float32, n*f)
	for i, row := range probes {
		for j, val := range row {
			flat[int64(i)*f+int64(j)] = float32(val)
		}
	}
	in, err := ort.NewTensor(ort.NewShape(n, f), flat)
	if err != nil {
		return fmt.Errorf("export: create input tensor: %w", err)
	}
	defer in.Destroy()

	labelOut, err := ort.NewEmptyTensor[int64](ort.NewShape(n))
	if err != nil {
		return fmt.Errorf("export: create label tensor: %w", err)
	}
	defer labelOut.Destroy()

	probasOut, err := ort.NewEmptyTensor[float32](ort.NewShape(n, 2))
	if err != nil {
		return fmt.Errorf("export: create probabilities tensor: %w", err)
	}
	defer probasOut.Destroy()

	if err := session.Run([]ort.Value{in}, []ort.Value{labelOut, probasOut}); err != nil {
		return fmt.Errorf("export: verification inference: %w", err)
	}

	labels := labelOut.GetData()
	probas := probasOut.GetData()
	for i := range probes {
		if labels[i] != int64(wantLabels[i]) {
			return fmt.Errorf("export: verification: probe %d got label %d, model predicts %d", i, labels[i], wantLabels[i])
		}
		for c := 0; c < 2; c++ {
			got := float64(probas[i*2+c])
			want := wantProbas[i][c]
			if math.Abs(got-want) > verifyTolerance {
				return fmt.Errorf("export: verification: probe %d class %d probability %v, model says %v", i, c, got, want)
			}
		}
	}
	return nil
}

// probeRows builds deterministic feature vectors for verification: the
// zero vector, unit vectors at the edges and middle, and a uniform
// unit-norm row.
func probeRows(nFeatures int) [][]float64 {
	rows := [][]float64{make([]float64, nFeatures)}
	for _, j := range []int{0, nFeatures / 2, nFeatures - 1} {
		row := make([]float64, nFeatures)
		row[j] = 1
		rows = append(rows, row)
	}
	uniform := make([]float64, nFeatures)
	val := 1 / math.Sqrt(float64(nFeatures))
	for j := range uniform {
		uniform[j] = val
	}
	return append(rows, uniform)
}
