package export

import (
	"encoding/binary"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Tensor names in the exported graph.
const (
	inputName  = "float_input"
	labelName  = "label"
	probasName = "probabilities"
)

const (
	onnxIRVersion   = 8
	onnxOpset       = 13
	producerVersion = "0.1.0"
)

// ONNX TensorProto element types.
const (
	elemFloat = 1
	elemInt64 = 7
)

// Field numbers from the ONNX protobuf schema (onnx.proto).
const (
	// ModelProto
	fModelIRVersion       = 1
	fModelProducerName    = 2
	fModelProducerVersion = 3
	fModelVersion         = 5
	fModelDocString       = 6
	fModelGraph           = 7
	fModelOpsetImport     = 8
	fModelMetadataProps   = 14

	// GraphProto
	fGraphNode        = 1
	fGraphName        = 2
	fGraphInitializer = 5
	fGraphInput       = 11
	fGraphOutput      = 12

	// NodeProto
	fNodeInput     = 1
	fNodeOutput    = 2
	fNodeName      = 3
	fNodeOpType    = 4
	fNodeAttribute = 5

	// AttributeProto
	fAttrName = 1
	fAttrInt  = 3
	fAttrType = 20

	// TensorProto
	fTensorDims      = 1
	fTensorDataType  = 2
	fTensorFloatData = 4
	fTensorName      = 8

	// ValueInfoProto, TypeProto, TensorShapeProto
	fValueInfoName  = 1
	fValueInfoType  = 2
	fTypeTensor     = 1
	fTensorElemType = 1
	fTensorShape    = 2
	fShapeDim       = 1
	fDimValue       = 1
	fDimParam       = 2

	// OperatorSetIdProto
	fOpsetVersion = 2

	// StringStringEntryProto
	fEntryKey   = 1
	fEntryValue = 2
)

// AttributeProto.AttributeType INT.
const attrTypeInt = 2

// buildModel encodes a fitted binary logistic regression as an ONNX model.
// The graph widens the model to two columns with the negative-class column
// fixed at zero, so Softmax over the scores yields exactly
// [P(negative), P(positive)] and ArgMax yields the predicted label.
func buildModel(weights []float64, bias float64, runID string) []byte {
	nFeatures := int64(len(weights))

	coef := make([]float32, 2*len(weights))
	for j, w := range weights {
		coef[2*j+1] = float32(w) // column 0 stays zero
	}
	intercepts := []float32{0, float32(bias)}

	var graph []byte
	graph = appendTagged(graph, fGraphNode,
		node("linear", "MatMul", []string{inputName, "coefficients"}, []string{"matmul_result"}))
	graph = appendTagged(graph, fGraphNode,
		node("bias", "Add", []string{"matmul_result", "intercepts"}, []string{"scores"}))
	graph = appendTagged(graph, fGraphNode,
		node("argmax", "ArgMax", []string{"scores"}, []string{labelName},
			intAttr("axis", 1), intAttr("keepdims", 0)))
	graph = appendTagged(graph, fGraphNode,
		node("softmax", "Softmax", []string{"scores"}, []string{probasName},
			intAttr("axis", 1)))
	graph = appendTaggedString(graph, fGraphName, "sentiment_classifier")
	graph = appendTagged(graph, fGraphInitializer,
		floatTensor("coefficients", []int64{nFeatures, 2}, coef))
	graph = appendTagged(graph, fGraphInitializer,
		floatTensor("intercepts", []int64{2}, intercepts))
	graph = appendTagged(graph, fGraphInput,
		tensorValueInfo(inputName, elemFloat, []dim{{param: "N"}, {value: nFeatures}}))
	graph = appendTagged(graph, fGraphOutput,
		tensorValueInfo(labelName, elemInt64, []dim{{param: "N"}}))
	graph = appendTagged(graph, fGraphOutput,
		tensorValueInfo(probasName, elemFloat, []dim{{param: "N"}, {value: 2}}))

	var opset []byte
	opset = appendTaggedVarint(opset, fOpsetVersion, onnxOpset)

	var model []byte
	model = appendTaggedVarint(model, fModelIRVersion, onnxIRVersion)
	model = appendTaggedString(model, fModelProducerName, "timbre")
	model = appendTaggedString(model, fModelProducerVersion, producerVersion)
	model = appendTaggedVarint(model, fModelVersion, 1)
	model = appendTaggedString(model, fModelDocString,
		"Binary sentiment classifier over TF-IDF features.")
	model = appendTagged(model, fModelGraph, graph)
	model = appendTagged(model, fModelOpsetImport, opset)
	if runID != "" {
		var entry []byte
		entry = appendTaggedString(entry, fEntryKey, "run_id")
		entry = appendTaggedString(entry, fEntryValue, runID)
		model = appendTagged(model, fModelMetadataProps, entry)
	}
	return model
}

// dim is one dimension of a tensor shape: a fixed value or a symbolic
// parameter such as the batch size.
type dim struct {
	value int64
	param string
}

func node(name, opType string, inputs, outputs []string, attrs ...[]byte) []byte {
	var b []byte
	for _, in := range inputs {
		b = appendTaggedString(b, fNodeInput, in)
	}
	for _, out := range outputs {
		b = appendTaggedString(b, fNodeOutput, out)
	}
	b = appendTaggedString(b, fNodeName, name)
	b = appendTaggedString(b, fNodeOpType, opType)
	for _, a := range attrs {
		b = appendTagged(b, fNodeAttribute, a)
	}
	return b
}

func intAttr(name string, v int64) []byte {
	var b []byte
	b = appendTaggedString(b, fAttrName, name)
	b = appendTaggedVarint(b, fAttrInt, uint64(v))
	b = appendTaggedVarint(b, fAttrType, attrTypeInt)
	return b
}

func floatTensor(name string, dims []int64, vals []float32) []byte {
	var b []byte
	b = appendTagged(b, fTensorDims, packVarints(dims))
	b = appendTaggedVarint(b, fTensorDataType, elemFloat)
	b = appendTagged(b, fTensorFloatData, packFloats(vals))
	b = appendTaggedString(b, fTensorName, name)
	return b
}

func tensorValueInfo(name string, elemType uint64, dims []dim) []byte {
	var shape []byte
	for _, d := range dims {
		var dmsg []byte
		if d.param != "" {
			dmsg = appendTaggedString(dmsg, fDimParam, d.param)
		} else {
			dmsg = appendTaggedVarint(dmsg, fDimValue, uint64(d.value))
		}
		shape = appendTagged(shape, fShapeDim, dmsg)
	}

	var tensor []byte
	tensor = appendTaggedVarint(tensor, fTensorElemType, elemType)
	tensor = appendTagged(tensor, fTensorShape, shape)

	var typ []byte
	typ = appendTagged(typ, fTypeTensor, tensor)

	var vi []byte
	vi = appendTaggedString(vi, fValueInfoName, name)
	vi = appendTagged(vi, fValueInfoType, typ)
	return vi
}

func appendTagged(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendTaggedString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendTaggedVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func packVarints(vals []int64) []byte {
	var b []byte
	for _, v := range vals {
		b = protowire.AppendVarint(b, uint64(v))
	}
	return b
}

func packFloats(vals []float32) []byte {
	b := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}
