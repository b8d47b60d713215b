package inference

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"

	"demosaicnet/pkg/raster"
)

// ONNXOptions configures the ONNX Runtime backend.
type ONNXOptions struct {
	// ModelPath is either the .onnx file itself or a model directory
	// containing a file named model.onnx.
	ModelPath string

	// LibraryPath optionally points at the onnxruntime shared library.
	// Only consulted before the first environment initialization.
	LibraryPath string

	// Threads sets the intra/inter op thread counts. Zero means all CPUs.
	Threads int

	// Quiet suppresses the backend's load-time diagnostics on stdout.
	// Passed explicitly here rather than read from ambient state.
	Quiet bool
}

// ONNXEngine runs patch inference through an ONNX Runtime session.
type ONNXEngine struct {
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
	crop        int
	noiseAware  bool
	quiet       bool
}

// NewONNXEngine loads the model and discovers its fixed crop amount by
// comparing the declared input and output spatial dimensions. Models with
// dynamic shapes fall back to DefaultCrop.
func NewONNXEngine(opts ONNXOptions) (*ONNXEngine, error) {
	modelPath, err := resolveModelPath(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if !ort.IsInitialized() {
		if opts.LibraryPath != "" {
			ort.SetSharedLibraryPath(opts.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initializing onnxruntime: %v", ErrBackendUnavailable, err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading model signature: %v", ErrBackendUnavailable, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("%w: model declares no inputs or outputs", ErrBackendUnavailable)
	}

	inputNames := make([]string, len(inputs))
	for i, info := range inputs {
		inputNames[i] = info.Name
	}
	outputNames := []string{outputs[0].Name}

	crop := discoverCrop(inputs[0].Dimensions, outputs[0].Dimensions)

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: creating session options: %v", ErrBackendUnavailable, err)
	}
	defer options.Destroy()

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	options.SetIntraOpNumThreads(threads)
	options.SetInterOpNumThreads(threads)

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, options)
	if err != nil {
		return nil, fmt.Errorf("%w: creating session: %v", ErrBackendUnavailable, err)
	}

	engine := &ONNXEngine{
		session:     session,
		inputNames:  inputNames,
		outputNames: outputNames,
		crop:        crop,
		noiseAware:  len(inputs) > 1,
		quiet:       opts.Quiet,
	}

	if !opts.Quiet {
		fmt.Printf("Loaded model %s (crop=%d, noise-aware=%v)\n",
			filepath.Base(modelPath), engine.crop, engine.noiseAware)
	}
	return engine, nil
}

// resolveModelPath accepts either the .onnx file or its directory.
func resolveModelPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		path = filepath.Join(path, "model.onnx")
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
	}
	return path, nil
}

// discoverCrop derives the per-side border loss from the declared NCHW
// tensor shapes. Dynamic dimensions (<= 0) defeat the comparison and
// select the fallback constant.
func discoverCrop(in, out ort.Shape) int {
	if len(in) != 4 || len(out) != 4 {
		return DefaultCrop
	}
	inSide, outSide := in[len(in)-1], out[len(out)-1]
	if inSide <= 0 || outSide <= 0 || outSide > inSide {
		return DefaultCrop
	}
	return int(inSide-outSide) / 2
}

// Crop reports the per-side border loss of the model.
func (e *ONNXEngine) Crop() int { return e.crop }

// NoiseAware reports whether the model takes a noise-level input.
func (e *ONNXEngine) NoiseAware() bool { return e.noiseAware }

// Infer runs one forward pass. The patch is fed as a 1x1xHxW tensor; when
// the model is noise-aware a 1x1 noise tensor accompanies it. The NCHW
// output is repacked into an interleaved raster image.
func (e *ONNXEngine) Infer(patch *raster.Image, noise float64) (*raster.Image, error) {
	h, w := patch.Height, patch.Width

	inputTensor, err := ort.NewTensor(ort.NewShape(1, 1, int64(h), int64(w)), patch.Pix)
	if err != nil {
		return nil, fmt.Errorf("%w: creating input tensor: %v", ErrBackendUnavailable, err)
	}
	defer inputTensor.Destroy()

	tensors := []ort.Value{inputTensor}
	if e.noiseAware {
		noiseTensor, err := ort.NewTensor(ort.NewShape(1, 1), []float32{float32(noise)})
		if err != nil {
			return nil, fmt.Errorf("%w: creating noise tensor: %v", ErrBackendUnavailable, err)
		}
		defer noiseTensor.Destroy()
		tensors = append(tensors, noiseTensor)
	}

	outputs := make([]ort.Value, 1)
	if err := e.session.Run(tensors, outputs); err != nil {
		return nil, fmt.Errorf("%w: running inference: %v", ErrBackendUnavailable, err)
	}
	defer outputs[0].Destroy()

	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: model output is not a float32 tensor", ErrBackendUnavailable)
	}

	shape := outTensor.GetShape()
	if len(shape) != 4 || shape[1] != 3 {
		return nil, fmt.Errorf("%w: unexpected output shape %v", ErrBackendUnavailable, shape)
	}
	oh, ow := int(shape[2]), int(shape[3])
	if oh != h-2*e.crop || ow != w-2*e.crop {
		return nil, fmt.Errorf("%w: output %dx%d does not match crop %d for %dx%d input",
			ErrBackendUnavailable, ow, oh, e.crop, w, h)
	}

	data := outTensor.GetData()
	out := raster.New(ow, oh, 3)
	plane := oh * ow
	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			i := y*ow + x
			out.Set(x, y, 0, data[i])
			out.Set(x, y, 1, data[plane+i])
			out.Set(x, y, 2, data[2*plane+i])
		}
	}
	return out, nil
}

// Close destroys the underlying session. The onnxruntime environment is
// left initialized for the life of the process.
func (e *ONNXEngine) Close() error {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	return nil
}
