package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/crimson-sun/timbre/internal/classifier"
	"github.com/crimson-sun/timbre/internal/vectorizer"
)

// Artifact schemas. Loading rejects files whose schema does not match.
const (
	ModelSchema      = "timbre/logistic-regression/v1"
	VectorizerSchema = "timbre/tfidf-vectorizer/v1"
)

// Envelope wraps a serialized artifact with identifying metadata.
type Envelope struct {
	Schema    string          `json:"schema"`
	CreatedAt time.Time       `json:"created_at"`
	RunID     string          `json:"run_id"`
	Payload   json.RawMessage `json:"payload"`
}

// SaveModel writes a fitted model to path as JSON.
func SaveModel(path string, m *classifier.LogisticRegression, runID string) error {
	return save(path, ModelSchema, runID, m)
}

// LoadModel reads a model previously written by SaveModel.
func LoadModel(path string) (*classifier.LogisticRegression, error) {
	var m classifier.LogisticRegression
	if err := load(path, ModelSchema, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveVectorizer writes a fitted vectorizer to path as JSON.
func SaveVectorizer(path string, v *vectorizer.Vectorizer, runID string) error {
	return save(path, VectorizerSchema, runID, v)
}

// LoadVectorizer reads a vectorizer previously written by SaveVectorizer.
func LoadVectorizer(path string) (*vectorizer.Vectorizer, error) {
	var v vectorizer.Vectorizer
	if err := load(path, VectorizerSchema, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// save marshals payload inside an Envelope and writes it atomically: the
// bytes go to a temporary file in the same directory which is then
// renamed over path.
func save(path, schema, runID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("persist: marshal payload: %w", err)
	}
	env := Envelope{
		Schema:    schema,
		CreatedAt: time.Now().UTC(),
		RunID:     runID,
		Payload:   raw,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: marshal envelope: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("persist: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("persist: rename %s: %w", path, err)
	}
	return nil
}

func load(path, wantSchema string, into any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("persist: read %s: %w", path, err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("persist: parse %s: %w", path, err)
	}
	if env.Schema != wantSchema {
		return fmt.Errorf("persist: %s has schema %q, want %q", path, env.Schema, wantSchema)
	}
	if len(env.Payload) == 0 {
		return fmt.Errorf("persist: %s has no payload", path)
	}
	if err := json.Unmarshal(env.Payload, into); err != nil {
		return fmt.Errorf("persist: parse %s payload: %w", path, err)
	}
	return nil
}
