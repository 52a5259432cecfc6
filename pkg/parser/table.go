package parser

import (
	"errors"
	"io"

	"github.com/jdyer28/LSPI/pkg/database"
)

// FileTable adapts a JSON/JSONL file of readings to database.Table.
type FileTable struct {
	filename string
}

func NewFileTable(filename string) *FileTable {
	return &FileTable{filename: filename}
}

func (t *FileTable) Iterate() (database.RowIterator, error) {
	p, err := NewParser(t.filename)
	if err != nil {
		return nil, err
	}
	return &fileIterator{parser: p}, nil
}

type fileIterator struct {
	parser  *Parser
	current database.Row
	err     error
}

func (it *fileIterator) Next() bool {
	record, err := it.parser.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		return false
	}
	it.current = record
	return true
}

func (it *fileIterator) Row() database.Row { return it.current }

func (it *fileIterator) Error() error { return it.err }

func (it *fileIterator) Close() error { return it.parser.Close() }
