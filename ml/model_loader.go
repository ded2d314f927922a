package ml

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v2"

	"studentpass/db"
)

const (
	KindDecisionTree       = "decision_tree"
	KindLogisticRegression = "logistic_regression"
	KindONNX               = "onnx"
)

// LoadOptions tunes how an artifact is opened.
type LoadOptions struct {
	// Name selects a bundle inside a SQLite registry; empty takes the newest.
	Name string
	// ONNXRuntimeLib is the onnxruntime shared library used by onnx bundles.
	ONNXRuntimeLib string
}

// artifactDoc is the on-disk bundle: the predictor parameters and the
// columns it was trained on.
type artifactDoc struct {
	Name    string          `json:"name"`
	Kind    string          `json:"kind"`
	Columns []string        `json:"columns"`
	Model   json.RawMessage `json:"model"`
}

//go:embed bundle.schema.json
var bundleSchemaJSON []byte

var bundleSchema struct {
	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

func compiledBundleSchema() (*jsonschema.Schema, error) {
	bundleSchema.once.Do(func() {
		var def any
		if err := json.Unmarshal(bundleSchemaJSON, &def); err != nil {
			bundleSchema.err = fmt.Errorf("parse bundle schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://bundle.json"
		if err := c.AddResource(url, def); err != nil {
			bundleSchema.err = fmt.Errorf("add resource: %w", err)
			return
		}
		bundleSchema.compiled, bundleSchema.err = c.Compile(url)
	})
	return bundleSchema.compiled, bundleSchema.err
}

// LoadBundle reads the artifact at path. The format is chosen by extension:
// .json and .yaml/.yml bundle documents, or a .db/.sqlite/.sqlite3 registry.
// Every failure is a *LoadError.
func LoadBundle(path string, opts LoadOptions) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, loadErr(path, "artifact not found", err)
		}
		return nil, loadErr(path, "stat artifact", err)
	}
	if info.IsDir() {
		return nil, loadErr(path, "artifact is a directory", nil)
	}

	var raw []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		raw, err = os.ReadFile(path)
	case ".yaml", ".yml":
		raw, err = readYAMLBundle(path)
	case ".db", ".sqlite", ".sqlite3":
		raw, err = readRegistryBundle(path, opts.Name)
	default:
		return nil, loadErr(path, fmt.Sprintf("unsupported artifact format %q", ext), nil)
	}
	if err != nil {
		return nil, loadErr(path, "read artifact", err)
	}

	doc, err := decodeArtifact(raw)
	if err != nil {
		return nil, loadErr(path, "corrupted artifact", err)
	}
	return buildBundle(path, doc, opts)
}

func decodeArtifact(raw []byte) (*artifactDoc, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	schema, err := compiledBundleSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	var doc artifactDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func readYAMLBundle(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(jsonCompatible(doc))
}

// jsonCompatible rewrites the map[interface{}]interface{} values produced by
// yaml.v2 into string-keyed maps.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []interface{}:
		for i := range t {
			t[i] = jsonCompatible(t[i])
		}
		return t
	default:
		return v
	}
}

func readRegistryBundle(path, name string) ([]byte, error) {
	store, err := db.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	rec, err := store.LatestBundle(name)
	if err != nil {
		return nil, err
	}
	return json.Marshal(artifactDoc{
		Name:    rec.Name,
		Kind:    rec.Kind,
		Columns: rec.Columns,
		Model:   rec.Model,
	})
}

func buildBundle(path string, doc *artifactDoc, opts LoadOptions) (*Bundle, error) {
	schema, err := NewSchema(doc.Columns)
	if err != nil {
		return nil, loadErr(path, "invalid column list", err)
	}
	predictor, err := decodePredictor(doc.Kind, doc.Model, filepath.Dir(path), opts)
	if err != nil {
		return nil, loadErr(path, fmt.Sprintf("invalid %s predictor", doc.Kind), err)
	}
	name := doc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &Bundle{
		Name:      name,
		Kind:      doc.Kind,
		Schema:    schema,
		Predictor: predictor,
	}, nil
}

func decodePredictor(kind string, raw json.RawMessage, baseDir string, opts LoadOptions) (Predictor, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	switch kind {
	case KindDecisionTree:
		var p decisionTreeParams
		if err := dec.Decode(&p); err != nil {
			return nil, err
		}
		return NewDecisionTree(p.Nodes, p.NFeatures)
	case KindLogisticRegression:
		var p logisticParams
		if err := dec.Decode(&p); err != nil {
			return nil, err
		}
		threshold := 0.5
		if p.Threshold != nil {
			threshold = *p.Threshold
		}
		return NewLogisticRegression(p.Coefficients, p.Intercept, threshold)
	case KindONNX:
		var p onnxParams
		if err := dec.Decode(&p); err != nil {
			return nil, err
		}
		if p.Path == "" {
			return nil, errors.New("onnx model path is empty")
		}
		modelPath := p.Path
		if !filepath.IsAbs(modelPath) {
			modelPath = filepath.Join(baseDir, modelPath)
		}
		return NewONNXClassifier(modelPath, opts.ONNXRuntimeLib)
	default:
		return nil, fmt.Errorf("unsupported model type %q", kind)
	}
}
