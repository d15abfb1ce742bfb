// Package replayfile reads and writes replay records on disk. Records are
// JSON documents, optionally compressed with zstd (.json.zst) or snappy
// (.json.sz), and are checked against the embedded record schema on load.
package replayfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Codec identifies how a replay file is compressed
type Codec string

const (
	CodecJSON   Codec = "json"
	CodecZstd   Codec = "zstd"
	CodecSnappy Codec = "snappy"
)

const schemaURL = "replay-record.schema.json"

// ErrSchema is returned when a decoded record does not have the shape of a
// replay record.
var ErrSchema = errors.New("replay record does not match schema")

//go:embed schema.json
var schemaSource []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// CodecFor picks the codec from a file name's extension
func CodecFor(path string) Codec {
	switch {
	case strings.HasSuffix(path, ".zst"):
		return CodecZstd
	case strings.HasSuffix(path, ".sz"):
		return CodecSnappy
	default:
		return CodecJSON
	}
}

// Load reads, decompresses, decodes and validates the replay record at path
func Load(path string) (map[string]interface{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay %s: %w", path, err)
	}
	defer file.Close()

	record, err := Decode(file, CodecFor(path))
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", path, err)
	}
	return record, nil
}

// Decode reads one replay record from r. Numbers are kept as json.Number so
// large timestamps survive unchanged.
func Decode(r io.Reader, codec Codec) (map[string]interface{}, error) {
	var src io.Reader = r
	switch codec {
	case CodecZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		defer zr.Close()
		src = zr
	case CodecSnappy:
		src = snappy.NewReader(r)
	}

	payload, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s stream: %w", codec, err)
	}
	return Parse(payload)
}

// Parse decodes and validates an uncompressed JSON replay record
func Parse(payload []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc.(map[string]interface{}), nil
}

// Validate checks a decoded document against the replay record schema
func Validate(doc interface{}) error {
	schema, err := recordSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

// Save writes record to path, compressing it according to the extension
func Save(path string, record interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create replay %s: %w", path, err)
	}
	if err := Encode(file, CodecFor(path), record); err != nil {
		file.Close()
		return fmt.Errorf("replay %s: %w", path, err)
	}
	return file.Close()
}

// Encode writes record to w as JSON using codec
func Encode(w io.Writer, codec Codec, record interface{}) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	switch codec {
	case CodecZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to open zstd stream: %w", err)
		}
		if _, err := zw.Write(payload); err != nil {
			zw.Close()
			return fmt.Errorf("failed to write zstd stream: %w", err)
		}
		return zw.Close()
	case CodecSnappy:
		sw := snappy.NewBufferedWriter(w)
		if _, err := sw.Write(payload); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write snappy stream: %w", err)
		}
		return sw.Close()
	default:
		_, err := w.Write(payload)
		return err
	}
}

func recordSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaSource)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}
