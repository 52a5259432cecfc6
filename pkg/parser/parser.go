package parser

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is a single decoded reading.
type Record map[string]interface{}

// Get implements database.Row. Absent fields read as nil so sparse
// records behave like NULL columns.
func (r Record) Get(field string) (interface{}, error) {
	return r[field], nil
}

// Primitive implements database.Row.
func (r Record) Primitive() interface{} {
	return map[string]interface{}(r)
}

// Parser streams readings from a JSON or JSONL file.
type Parser struct {
	file    *os.File
	isJSONL bool
	tmpFile string // Path to temporary file, if created

	decoder   *json.Decoder
	scanner   *bufio.Scanner
	bufReader *bufio.Reader

	startArrayChecked bool
	inArray           bool
}

// NewParser creates a new parser for the given file
// Special cases:
// - Empty string or "-" reads from stdin
// - Strings starting with '{' or '[' are treated as inline JSON
func NewParser(filename string) (*Parser, error) {
	var (
		file    *os.File
		isJSONL bool
		tmpFile string
	)

	switch {
	case len(filename) > 0 && (filename[0] == '{' || filename[0] == '['):
		f, err := os.CreateTemp("", "lspi-inline-*.json")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		tmpFile = f.Name()
		if _, err := f.WriteString(filename); err != nil {
			f.Close()
			os.Remove(tmpFile)
			return nil, fmt.Errorf("failed to write inline JSON: %w", err)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			os.Remove(tmpFile)
			return nil, fmt.Errorf("failed to seek: %w", err)
		}
		file = f
	case filename == "" || filename == "-":
		file = os.Stdin
	default:
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		file = f
		isJSONL = strings.HasSuffix(filename, ".jsonl")
	}

	p := &Parser{
		file:    file,
		isJSONL: isJSONL,
		tmpFile: tmpFile,
	}
	if p.isJSONL {
		p.scanner = bufio.NewScanner(p.file)
		p.scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	} else {
		p.bufReader = bufio.NewReader(p.file)
		p.decoder = json.NewDecoder(p.bufReader)
	}
	return p, nil
}

// Close closes the underlying file and cleans up any temporary files
func (p *Parser) Close() error {
	err := p.file.Close()
	if p.tmpFile != "" {
		os.Remove(p.tmpFile)
	}
	return err
}

// IsJSONL returns whether the parser is treating the file as JSONL
func (p *Parser) IsJSONL() bool {
	return p.isJSONL
}

// Read returns the next record, or io.EOF when the input is exhausted.
func (p *Parser) Read() (Record, error) {
	if p.isJSONL {
		return p.readLine()
	}

	if !p.startArrayChecked {
		if err := p.checkArrayStart(); err != nil {
			return nil, err
		}
	}

	if p.inArray && !p.decoder.More() {
		t, err := p.decoder.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := t.(json.Delim); ok && delim == ']' {
			p.inArray = false
			return nil, io.EOF
		}
		return nil, fmt.Errorf("expected array end, got %v", t)
	}

	var record Record
	if err := p.decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode JSON record: %w", err)
	}
	return record, nil
}

func (p *Parser) readLine() (Record, error) {
	for p.scanner.Scan() {
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" {
			continue
		}
		var record Record
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSONL record: %w", err)
		}
		return record, nil
	}
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// checkArrayStart peeks past leading whitespace and, for a top-level
// array, lets the decoder consume the opening '['. Bytes are never read
// around the decoder.
func (p *Parser) checkArrayStart() error {
	for n := 1; ; n++ {
		b, err := p.bufReader.Peek(n)
		if err != nil {
			return err
		}
		switch b[n-1] {
		case ' ', '\n', '\t', '\r':
			continue
		case '[':
			t, err := p.decoder.Token()
			if err != nil {
				return fmt.Errorf("failed to decode JSON array: %w", err)
			}
			if delim, ok := t.(json.Delim); !ok || delim != '[' {
				return fmt.Errorf("expected array start, got %v", t)
			}
			p.inArray = true
		}
		p.startArrayChecked = true
		return nil
	}
}

// ReadAll reads the remaining records.
func (p *Parser) ReadAll() ([]Record, error) {
	var records []Record
	for {
		r, err := p.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
}
