package internal

import (
	"encoding/csv"
	"io"
	"iter"
)

// CSVRecord is one parsed row, or the error that stopped parsing.
type CSVRecord[T any] struct {
	Value *T
	Error error
}

// ParseCSV yields parsed rows one at a time. When hasHeader is set the first
// row is consumed and passed to parse alongside each record; otherwise
// headers is nil. Iteration stops at EOF or on the first error, which is
// yielded as the final element.
func ParseCSV[T any](r io.Reader, hasHeader bool, parse func(record, headers []string) (*T, error)) iter.Seq[CSVRecord[T]] {
	return func(yield func(CSVRecord[T]) bool) {
		reader := csv.NewReader(r)

		var headers []string
		if hasHeader {
			row, err := reader.Read()
			if err != nil {
				if err != io.EOF {
					yield(CSVRecord[T]{Error: err})
				}
				return
			}
			headers = row
		}

		for {
			row, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(CSVRecord[T]{Error: err})
				return
			}

			value, err := parse(row, headers)
			if !yield(CSVRecord[T]{Value: value, Error: err}) {
				return
			}
		}
	}
}
