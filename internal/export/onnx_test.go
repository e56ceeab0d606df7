package export

import (
	"encoding/binary"
	"math"
	"reflect"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

// wireField is one decoded protobuf field, used to check the emitted
// model without an ONNX schema.
type wireField struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func parseFields(t *testing.T, msg []byte) []wireField {
	t.Helper()
	var out []wireField
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			t.Fatalf("bad tag: %v", protowire.ParseError(n))
		}
		msg = msg[n:]

		f := wireField{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			v, vn := protowire.ConsumeVarint(msg)
			if vn < 0 {
				t.Fatalf("bad varint: %v", protowire.ParseError(vn))
			}
			f.varint = v
			msg = msg[vn:]
		case protowire.BytesType:
			b, bn := protowire.ConsumeBytes(msg)
			if bn < 0 {
				t.Fatalf("bad length-delimited field: %v", protowire.ParseError(bn))
			}
			f.bytes = b
			msg = msg[bn:]
		default:
			t.Fatalf("unexpected wire type %v for field %d", typ, num)
		}
		out = append(out, f)
	}
	return out
}

func byNum(fields []wireField, num protowire.Number) []wireField {
	var out []wireField
	for _, f := range fields {
		if f.num == num {
			out = append(out, f)
		}
	}
	return out
}

func onlyField(t *testing.T, fields []wireField, num protowire.Number) wireField {
	t.Helper()
	got := byNum(fields, num)
	if len(got) != 1 {
		t.Fatalf("expected exactly one field %d, got %d", num, len(got))
	}
	return got[0]
}

func unpackFloats(t *testing.T, b []byte) []float32 {
	t.Helper()
	if len(b)%4 != 0 {
		t.Fatalf("float payload of %d bytes is not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

func unpackVarints(t *testing.T, b []byte) []int64 {
	t.Helper()
	var out []int64
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			t.Fatalf("bad packed varint: %v", protowire.ParseError(n))
		}
		out = append(out, int64(v))
		b = b[n:]
	}
	return out
}

func fieldString(t *testing.T, fields []wireField, num protowire.Number) string {
	t.Helper()
	return string(onlyField(t, fields, num).bytes)
}

func TestBuildModelStructure(t *testing.T) {
	weights := []float64{0.5, -0.25, 1.5}
	data := buildModel(weights, 0.75, "run-xyz")

	model := parseFields(t, data)
	if got := onlyField(t, model, fModelIRVersion).varint; got != onnxIRVersion {
		t.Errorf("ir_version = %d, want %d", got, onnxIRVersion)
	}
	if got := fieldString(t, model, fModelProducerName); got != "timbre" {
		t.Errorf("producer = %q, want timbre", got)
	}

	opset := parseFields(t, onlyField(t, model, fModelOpsetImport).bytes)
	if got := onlyField(t, opset, fOpsetVersion).varint; got != onnxOpset {
		t.Errorf("opset version = %d, want %d", got, onnxOpset)
	}

	meta := parseFields(t, onlyField(t, model, fModelMetadataProps).bytes)
	if k, v := fieldString(t, meta, fEntryKey), fieldString(t, meta, fEntryValue); k != "run_id" || v != "run-xyz" {
		t.Errorf("metadata = %q=%q, want run_id=run-xyz", k, v)
	}

	graph := parseFields(t, onlyField(t, model, fModelGraph).bytes)

	var opTypes []string
	for _, n := range byNum(graph, fGraphNode) {
		opTypes = append(opTypes, fieldString(t, parseFields(t, n.bytes), fNodeOpType))
	}
	wantOps := []string{"MatMul", "Add", "ArgMax", "Softmax"}
	if !reflect.DeepEqual(opTypes, wantOps) {
		t.Errorf("node op types = %v, want %v", opTypes, wantOps)
	}

	inits := byNum(graph, fGraphInitializer)
	if len(inits) != 2 {
		t.Fatalf("expected 2 initializers, got %d", len(inits))
	}

	coef := parseFields(t, inits[0].bytes)
	if got := fieldString(t, coef, fTensorName); got != "coefficients" {
		t.Errorf("initializer 0 name = %q, want coefficients", got)
	}
	if got := unpackVarints(t, onlyField(t, coef, fTensorDims).bytes); !reflect.DeepEqual(got, []int64{3, 2}) {
		t.Errorf("coefficient dims = %v, want [3 2]", got)
	}
	if got := onlyField(t, coef, fTensorDataType).varint; got != elemFloat {
		t.Errorf("coefficient data type = %d, want %d", got, elemFloat)
	}
	// Row-major [features, 2]: class-0 column zero, class-1 column the weights.
	wantCoef := []float32{0, 0.5, 0, -0.25, 0, 1.5}
	if got := unpackFloats(t, onlyField(t, coef, fTensorFloatData).bytes); !reflect.DeepEqual(got, wantCoef) {
		t.Errorf("coefficients = %v, want %v", got, wantCoef)
	}

	intercepts := parseFields(t, inits[1].bytes)
	if got := fieldString(t, intercepts, fTensorName); got != "intercepts" {
		t.Errorf("initializer 1 name = %q, want intercepts", got)
	}
	wantIntercepts := []float32{0, 0.75}
	if got := unpackFloats(t, onlyField(t, intercepts, fTensorFloatData).bytes); !reflect.DeepEqual(got, wantIntercepts) {
		t.Errorf("intercepts = %v, want %v", got, wantIntercepts)
	}
}

func TestBuildModelTensorShapes(t *testing.T) {
	data := buildModel([]float64{1, 2, 3, 4}, 0, "")
	model := parseFields(t, data)
	graph := parseFields(t, onlyField(t, model, fModelGraph).bytes)

	type shapeDim struct {
		value int64
		param string
	}
	readValueInfo := func(f wireField) (name string, elem uint64, dims []shapeDim) {
		vi := parseFields(t, f.bytes)
		name = fieldString(t, vi, fValueInfoName)
		typ := parseFields(t, onlyField(t, vi, fValueInfoType).bytes)
		tensor := parseFields(t, onlyField(t, typ, fTypeTensor).bytes)
		elem = onlyField(t, tensor, fTensorElemType).varint
		shape := parseFields(t, onlyField(t, tensor, fTensorShape).bytes)
		for _, d := range byNum(shape, fShapeDim) {
			df := parseFields(t, d.bytes)
			var sd shapeDim
			if p := byNum(df, fDimParam); len(p) == 1 {
				sd.param = string(p[0].bytes)
			} else {
				sd.value = int64(onlyField(t, df, fDimValue).varint)
			}
			dims = append(dims, sd)
		}
		return name, elem, dims
	}

	graphIn := byNum(graph, fGraphInput)
	if len(graphIn) != 1 {
		t.Fatalf("expected 1 graph input, got %d", len(graphIn))
	}
	name, elem, dims := readValueInfo(graphIn[0])
	if name != inputName || elem != elemFloat {
		t.Errorf("input = %q type %d, want %q type %d", name, elem, inputName, elemFloat)
	}
	if len(dims) != 2 || dims[0].param != "N" || dims[1].value != 4 {
		t.Errorf("input dims = %+v, want [N 4]", dims)
	}

	graphOut := byNum(graph, fGraphOutput)
	if len(graphOut) != 2 {
		t.Fatalf("expected 2 graph outputs, got %d", len(graphOut))
	}
	name, elem, dims = readValueInfo(graphOut[0])
	if name != labelName || elem != elemInt64 || len(dims) != 1 {
		t.Errorf("output 0 = %q type %d dims %+v, want %q int64 [N]", name, elem, dims, labelName)
	}
	name, elem, dims = readValueInfo(graphOut[1])
	if name != probasName || elem != elemFloat {
		t.Errorf("output 1 = %q type %d, want %q float", name, elem, probasName)
	}
	if len(dims) != 2 || dims[0].param != "N" || dims[1].value != 2 {
		t.Errorf("probabilities dims = %+v, want [N 2]", dims)
	}

	// No run id means no metadata entry.
	if got := byNum(model, fModelMetadataProps); len(got) != 0 {
		t.Errorf("expected no metadata props, got %d", len(got))
	}
}

// TestBuildModelDimensionEncoding pins the TensorShapeProto.Dimension
// wire format with literal field numbers: onnx.proto declares the oneof
// as dim_value = 1 and dim_param = 2, with denotation = 3. A symbolic
// batch dimension written to any other field leaves the dimension
// unnamed for schema-aware consumers.
func TestBuildModelDimensionEncoding(t *testing.T) {
	data := buildModel([]float64{1, 2, 3}, 0, "")
	model := parseFields(t, data)
	graph := parseFields(t, onlyField(t, model, fModelGraph).bytes)

	in := byNum(graph, fGraphInput)
	if len(in) != 1 {
		t.Fatalf("expected 1 graph input, got %d", len(in))
	}
	vi := parseFields(t, in[0].bytes)
	typ := parseFields(t, onlyField(t, vi, fValueInfoType).bytes)
	tensor := parseFields(t, onlyField(t, typ, fTypeTensor).bytes)
	shape := parseFields(t, onlyField(t, tensor, fTensorShape).bytes)
	dims := byNum(shape, fShapeDim)
	if len(dims) != 2 {
		t.Fatalf("expected 2 input dimensions, got %d", len(dims))
	}

	batch := parseFields(t, dims[0].bytes)
	if len(batch) != 1 || batch[0].num != 2 || batch[0].typ != protowire.BytesType {
		t.Fatalf("batch dimension fields = %+v, want a single dim_param (field 2)", batch)
	}
	if got := string(batch[0].bytes); got != "N" {
		t.Errorf("batch dim_param = %q, want N", got)
	}

	feat := parseFields(t, dims[1].bytes)
	if len(feat) != 1 || feat[0].num != 1 || feat[0].typ != protowire.VarintType {
		t.Fatalf("feature dimension fields = %+v, want a single dim_value (field 1)", feat)
	}
	if feat[0].varint != 3 {
		t.Errorf("feature dim_value = %d, want 3", feat[0].varint)
	}
}
