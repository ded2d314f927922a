package ml

import (
	"fmt"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv guards the process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

type onnxParams struct {
	Path string `json:"path"`
}

// ONNXClassifier runs a classifier exported to ONNX (for example with
// skl2onnx): a float input of shape [N, F] and an int64 label output.
type ONNXClassifier struct {
	session   *ort.DynamicAdvancedSession
	inputName string
	labelName string
	nFeatures int
}

// NewONNXClassifier opens modelPath with the runtime library at libPath
// (empty uses the default search path).
func NewONNXClassifier(modelPath, libPath string) (*ONNXClassifier, error) {
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected a single input tensor, got %d", len(inputs))
	}
	input := inputs[0]
	if len(input.Dimensions) != 2 {
		return nil, fmt.Errorf("onnx: expected 2D input, got %v", input.Dimensions)
	}
	nFeatures := 0
	if d := input.Dimensions[1]; d > 0 {
		nFeatures = int(d)
	}

	labelName, err := findLabelOutput(outputs)
	if err != nil {
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{input.Name}, []string{labelName}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}
	return &ONNXClassifier{
		session:   session,
		inputName: input.Name,
		labelName: labelName,
		nFeatures: nFeatures,
	}, nil
}

// findLabelOutput picks the int64 label tensor; skl2onnx names it
// "output_label" or "label".
func findLabelOutput(outputs []ort.InputOutputInfo) (string, error) {
	var fallback string
	for _, out := range outputs {
		if out.OrtValueType != ort.ONNXTypeTensor || out.DataType != ort.TensorElementDataTypeInt64 {
			continue
		}
		if strings.Contains(strings.ToLower(out.Name), "label") {
			return out.Name, nil
		}
		if fallback == "" {
			fallback = out.Name
		}
	}
	if fallback == "" {
		return "", fmt.Errorf("onnx: model has no int64 label output")
	}
	return fallback, nil
}

func (c *ONNXClassifier) NumFeatures() int { return c.nFeatures }

func (c *ONNXClassifier) Predict(features []float64) (int, error) {
	if c.nFeatures > 0 && len(features) != c.nFeatures {
		return 0, shapeErr(c.nFeatures, len(features))
	}
	data := make([]float32, len(features))
	for i, v := range features {
		data[i] = float32(v)
	}

	in, err := ort.NewTensor(ort.NewShape(1, int64(len(data))), data)
	if err != nil {
		return 0, fmt.Errorf("onnx: create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return 0, fmt.Errorf("onnx: create label tensor: %w", err)
	}
	defer out.Destroy()

	if err := c.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return 0, fmt.Errorf("onnx: inference failed: %w", err)
	}
	return int(out.GetData()[0]), nil
}

func (c *ONNXClassifier) Close() error {
	return c.session.Destroy()
}
