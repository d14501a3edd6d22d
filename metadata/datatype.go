package metadata

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/zerr"
)

// dataTypeFromJSON parses zarr.json's "data_type" field: either a bare
// string ("int32", "float64", "bool", "string", "bytes", ...) or, for
// raw-bits types, an object {"name": "r*", "configuration": {"length_bits":
// N}} per the Zarr V3 core specification's extension-point shape.
func dataTypeFromJSON(raw json.RawMessage) (chunktype.DataType, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return dataTypeFromName(name)
	}

	var obj struct {
		Name          string `json:"name"`
		Configuration struct {
			LengthBits int `json:"length_bits"`
		} `json:"configuration"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return chunktype.DataType{}, zerr.Metadata("zarr.json: data_type: %v", err)
	}
	if !strings.HasPrefix(obj.Name, "r") {
		return chunktype.DataType{}, zerr.Metadata("zarr.json: unrecognised data_type object %q", obj.Name)
	}
	if obj.Configuration.LengthBits%8 != 0 || obj.Configuration.LengthBits <= 0 {
		return chunktype.DataType{}, zerr.Metadata("zarr.json: raw-bits data_type must have a positive multiple-of-8 length_bits, got %d", obj.Configuration.LengthBits)
	}
	return chunktype.NewRawBits(obj.Configuration.LengthBits / 8), nil
}

func dataTypeFromName(name string) (chunktype.DataType, error) {
	switch name {
	case "bool":
		return chunktype.New(chunktype.KindBool), nil
	case "int8":
		return chunktype.New(chunktype.KindInt8), nil
	case "int16":
		return chunktype.New(chunktype.KindInt16), nil
	case "int32":
		return chunktype.New(chunktype.KindInt32), nil
	case "int64":
		return chunktype.New(chunktype.KindInt64), nil
	case "uint8":
		return chunktype.New(chunktype.KindUint8), nil
	case "uint16":
		return chunktype.New(chunktype.KindUint16), nil
	case "uint32":
		return chunktype.New(chunktype.KindUint32), nil
	case "uint64":
		return chunktype.New(chunktype.KindUint64), nil
	case "float16":
		return chunktype.New(chunktype.KindFloat16), nil
	case "float32":
		return chunktype.New(chunktype.KindFloat32), nil
	case "float64":
		return chunktype.New(chunktype.KindFloat64), nil
	case "bfloat16":
		return chunktype.New(chunktype.KindBFloat16), nil
	case "complex64":
		return chunktype.New(chunktype.KindComplex64), nil
	case "complex128":
		return chunktype.New(chunktype.KindComplex128), nil
	case "string":
		return chunktype.New(chunktype.KindString), nil
	case "bytes":
		return chunktype.New(chunktype.KindBytes), nil
	default:
		if strings.HasPrefix(name, "r") {
			if bits, err := strconv.Atoi(name[1:]); err == nil && bits > 0 && bits%8 == 0 {
				return chunktype.NewRawBits(bits / 8), nil
			}
		}
		return chunktype.DataType{}, zerr.Metadata("zarr.json: unrecognised data_type %q", name)
	}
}

func dataTypeToJSON(dt chunktype.DataType) (json.RawMessage, error) {
	if dt.Kind() == chunktype.KindRawBits {
		return json.Marshal(fmt.Sprintf("r%d", dt.ElementSize().Bytes()*8))
	}
	return json.Marshal(dt.String())
}

// fillValueFromJSON parses zarr.json's "fill_value" field per the data
// type: a JSON number for numeric types (with "NaN"/"Infinity"/"-Infinity"
// string sentinels for floats, per the Zarr V3 core specification), true/
// false for bool, a base64 string for raw-bits, and the empty string/null
// for the two variable-length types (no stored element payload, so the
// fill value is just "no bytes").
func fillValueFromJSON(dt chunktype.DataType, raw json.RawMessage) (chunktype.FillValue, error) {
	size := dt.ElementSize()
	if size.IsUnbounded() {
		return chunktype.NewVariable(nil), nil
	}

	switch dt.Kind() {
	case chunktype.KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return chunktype.FillValue{}, zerr.Metadata("zarr.json: fill_value: %v", err)
		}
		if b {
			return chunktype.NewFixed([]byte{1}), nil
		}
		return chunktype.NewFixed([]byte{0}), nil

	case chunktype.KindFloat32:
		f, isNaN, err := fillFloat(raw)
		if err != nil {
			return chunktype.FillValue{}, err
		}
		if isNaN {
			return chunktype.NaNFillValue32(), nil
		}
		return fixedLEFloat32(float32(f)), nil

	case chunktype.KindFloat64:
		f, isNaN, err := fillFloat(raw)
		if err != nil {
			return chunktype.FillValue{}, err
		}
		if isNaN {
			return chunktype.NaNFillValue64(), nil
		}
		return fixedLEFloat64(f), nil

	case chunktype.KindFloat16, chunktype.KindBFloat16:
		_, isNaN, err := fillFloat(raw)
		if err != nil {
			return chunktype.FillValue{}, err
		}
		if isNaN {
			if dt.Kind() == chunktype.KindFloat16 {
				return chunktype.NaNFillValue16(), nil
			}
			return chunktype.NaNFillValueBFloat16(), nil
		}
		return chunktype.NewFixed(make([]byte, size.Bytes())), nil

	case chunktype.KindRawBits:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return chunktype.FillValue{}, zerr.Metadata("zarr.json: fill_value: %v", err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return chunktype.FillValue{}, zerr.Metadata("zarr.json: fill_value: base64: %v", err)
		}
		if len(b) != size.Bytes() {
			return chunktype.FillValue{}, zerr.Metadata("zarr.json: fill_value has %d bytes, data type needs %d", len(b), size.Bytes())
		}
		return chunktype.NewFixed(b), nil

	default:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return chunktype.FillValue{}, zerr.Metadata("zarr.json: fill_value: %v", err)
		}
		b := make([]byte, size.Bytes())
		for i := 0; i < size.Bytes(); i++ {
			b[i] = byte(n >> (8 * i))
		}
		return chunktype.NewFixed(b), nil
	}
}

func fillFloat(raw json.RawMessage) (value float64, isNaN bool, err error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "NaN":
			return 0, true, nil
		case "Infinity":
			return math.Inf(1), false, nil
		case "-Infinity":
			return math.Inf(-1), false, nil
		default:
			f, perr := strconv.ParseFloat(s, 64)
			if perr != nil {
				return 0, false, zerr.Metadata("zarr.json: fill_value: %v", perr)
			}
			return f, false, nil
		}
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false, zerr.Metadata("zarr.json: fill_value: %v", err)
	}
	return f, false, nil
}

func fixedLEFloat32(f float32) chunktype.FillValue {
	bits := math.Float32bits(f)
	b := make([]byte, 4)
	for i := 0; i < 4; i++ {
		b[i] = byte(bits >> (8 * i))
	}
	return chunktype.NewFixed(b)
}

func fixedLEFloat64(f float64) chunktype.FillValue {
	bits := math.Float64bits(f)
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * i))
	}
	return chunktype.NewFixed(b)
}

// fillValueToJSON serialises a FillValue back to zarr.json shape for the
// given data type: true/false for bool, a JSON number (or the "NaN"/
// "Infinity" sentinels) for the numeric kinds, and base64 for raw-bits.
// Variable-length fill values serialise as null, matching
// fillValueFromJSON's "no stored payload" reading.
func fillValueToJSON(dt chunktype.DataType, fv chunktype.FillValue) (json.RawMessage, error) {
	if fv.IsVariable() {
		return json.Marshal(nil)
	}
	b := fv.Bytes()
	switch dt.Kind() {
	case chunktype.KindBool:
		return json.Marshal(b[0] != 0)
	case chunktype.KindFloat32:
		f := math.Float32frombits(leUint32(b))
		if f != f {
			return json.Marshal("NaN")
		}
		return json.Marshal(f)
	case chunktype.KindFloat64:
		f := math.Float64frombits(leUint64(b))
		if f != f {
			return json.Marshal("NaN")
		}
		return json.Marshal(f)
	case chunktype.KindRawBits:
		return json.Marshal(base64.StdEncoding.EncodeToString(b))
	default:
		var n int64
		for i := len(b) - 1; i >= 0; i-- {
			n = n<<8 | int64(b[i])
		}
		return json.Marshal(n)
	}
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
