// Package manifest reads queries from JSON-lines manifests or plain text
// files and writes the restored texts back in the same shape.
package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Text keys, in order of preference.
const (
	KeyPredText = "pred_text"
	KeyText     = "text"
)

const maxLineSize = 16 << 20

// Manifest is a JSON-lines file with one object per query.
type Manifest struct {
	// Key is the field holding the query text, chosen from the first record
	Key     string
	Records []Record
}

// Record is one manifest object. Keys keeps the input field order.
type Record struct {
	Keys   []string
	Fields map[string]json.RawMessage
}

// parseRecord decodes one JSON object, remembering the order of its fields.
// A repeated field keeps its first position and its last value.
func parseRecord(raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return Record{}, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Record{}, errors.New("expected a JSON object")
	}

	r := Record{Fields: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Record{}, err
		}
		key := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return Record{}, err
		}
		if _, seen := r.Fields[key]; !seen {
			r.Keys = append(r.Keys, key)
		}
		r.Fields[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return Record{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Record{}, errors.New("unexpected data after JSON object")
	}

	return r, nil
}

// MarshalJSON writes the fields in their input order.
func (r Record) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, key := range r.Keys {
		if i > 0 {
			b.WriteByte(',')
		}
		name, err := marshalString(key)
		if err != nil {
			return nil, err
		}
		b.Write(name)
		b.WriteByte(':')
		b.Write(r.Fields[key])
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (r Record) with(key string, value json.RawMessage) Record {
	out := Record{Keys: r.Keys, Fields: make(map[string]json.RawMessage, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	if _, ok := out.Fields[key]; !ok {
		out.Keys = append(append([]string(nil), r.Keys...), key)
	}
	out.Fields[key] = value
	return out
}

// marshalString encodes s as a JSON string without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(b.Bytes(), []byte("\n")), nil
}

// Read parses a manifest. Blank lines are skipped.
func Read(r io.Reader) (*Manifest, error) {
	m := &Manifest{}

	scanner := newScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		record, err := parseRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("parse manifest line %d: %w", line, err)
		}
		if m.Key == "" {
			m.Key = KeyText
			if _, ok := record.Fields[KeyPredText]; ok {
				m.Key = KeyPredText
			}
		}
		m.Records = append(m.Records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}

	return m, nil
}

// Texts returns the query text of every record.
func (m *Manifest) Texts() ([]string, error) {
	texts := make([]string, len(m.Records))
	for i, record := range m.Records {
		raw, ok := record.Fields[m.Key]
		if !ok {
			return nil, fmt.Errorf("manifest record %d has no %q field", i, m.Key)
		}
		if err := json.Unmarshal(raw, &texts[i]); err != nil {
			return nil, fmt.Errorf("manifest record %d: %q is not a string: %w", i, m.Key, err)
		}
	}
	return texts, nil
}

// Write writes the manifest with the query field of every record replaced
// by the matching text. Other fields and the field order are kept.
func (m *Manifest) Write(w io.Writer, texts []string) error {
	if len(texts) != len(m.Records) {
		return fmt.Errorf("manifest has %d records but got %d texts", len(m.Records), len(texts))
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i, record := range m.Records {
		value, err := marshalString(texts[i])
		if err != nil {
			return fmt.Errorf("marshal text %d: %w", i, err)
		}

		if err := enc.Encode(record.with(m.Key, value)); err != nil {
			return fmt.Errorf("write manifest record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadLines reads one query per line, trimming surrounding whitespace.
// Empty lines are kept as empty queries.
func ReadLines(r io.Reader) ([]string, error) {
	var texts []string
	scanner := newScanner(r)
	for scanner.Scan() {
		texts = append(texts, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan text: %w", err)
	}
	return texts, nil
}

// WriteLines writes one text per line.
func WriteLines(w io.Writer, texts []string) error {
	bw := bufio.NewWriter(w)
	for _, t := range texts {
		if _, err := bw.WriteString(t); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Open opens path for reading; "-" is stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// Create opens path for writing, creating parent directories; "-" is stdout.
func Create(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return scanner
}
