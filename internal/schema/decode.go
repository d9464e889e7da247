package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

// DecodeStrict parses a single JSON value with two properties the stdlib
// one-shot Unmarshal lacks: numbers stay json.Number so integer literals are
// distinguishable from floats, and duplicate object keys are reported with
// their paths instead of silently keeping the last value. The decoded value
// uses map[string]any, []any, string, json.Number, bool, and nil.
//
// Malformed JSON (including trailing data after the value) yields a nil
// value and a single finding at the root with ReasonInvalidJSON. Duplicate
// keys do not abort decoding; the last value wins and the walk continues so
// every duplicate is reported.
func DecodeStrict(data []byte) (any, []Error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	sd := &strictDecoder{dec: dec}
	value, err := sd.value("")
	if err == nil {
		// The document must be exactly one value.
		if _, trailing := dec.Token(); trailing != io.EOF {
			err = errors.New("trailing data")
		}
	}
	if err != nil {
		return nil, []Error{{Path: "", Reason: ReasonInvalidJSON}}
	}
	return value, sd.errs
}

type strictDecoder struct {
	dec  *json.Decoder
	errs []Error
}

func (sd *strictDecoder) value(path string) (any, error) {
	tok, err := sd.dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); ok {
		switch delim {
		case '{':
			return sd.object(path)
		case '[':
			return sd.array(path)
		}
	}
	// string, json.Number, bool, or nil
	return tok, nil
}

func (sd *strictDecoder) object(path string) (any, error) {
	obj := make(map[string]any)
	for sd.dec.More() {
		tok, err := sd.dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("object key is not a string")
		}
		entryPath := joinPath(path, key)
		if _, seen := obj[key]; seen {
			sd.errs = append(sd.errs, Error{Path: entryPath, Reason: ReasonDuplicateKey})
		}
		v, err := sd.value(entryPath)
		if err != nil {
			return nil, err
		}
		obj[key] = v
	}
	// consume the closing brace
	if _, err := sd.dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func (sd *strictDecoder) array(path string) (any, error) {
	var arr []any
	for i := 0; sd.dec.More(); i++ {
		v, err := sd.value(joinPath(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if _, err := sd.dec.Token(); err != nil {
		return nil, err
	}
	if arr == nil {
		arr = []any{}
	}
	return arr, nil
}
