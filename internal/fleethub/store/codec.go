package store

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Codec encodes and decodes a whole snapshot document.
type Codec interface {
	// Name is a short label used in logs and metrics.
	Name() string
	Marshal(snap Snapshot) ([]byte, error)
	Unmarshal(data []byte) (Snapshot, error)
}

// CodecFor picks a codec from the file extension. Unknown extensions use JSON.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlCodec{}
	case ".cbor":
		return newCBORCodec()
	default:
		return jsonCodec{}
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(snap Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Unmarshal tolerates comments and trailing commas so the file can be edited by hand.
func (jsonCodec) Unmarshal(data []byte) (Snapshot, error) {
	var snap Snapshot
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	if err := dec.Decode(&snap); err != nil {
		return nil, err
	}
	return snap, nil
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Marshal(snap Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (yamlCodec) Unmarshal(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() cborCodec {
	// Canonical encoding keeps identical snapshots byte-identical.
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return cborCodec{enc: enc, dec: dec}
}

func (cborCodec) Name() string { return "cbor" }

func (c cborCodec) Marshal(snap Snapshot) ([]byte, error) {
	return c.enc.Marshal(snap)
}

func (c cborCodec) Unmarshal(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := c.dec.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}
