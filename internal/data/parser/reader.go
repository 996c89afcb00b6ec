package parser

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const readerBufferSize = 64 * 1024

// Line is one physical line of a transcript.
type Line struct {
	Number int    // 1-based
	Data   []byte // without the line terminator
	// Terminated is false for a trailing line with no newline yet, which may
	// still be in the middle of being written.
	Terminated bool
}

// ScanLines reads r sequentially and calls visit for every line until visit
// returns false or input ends. It returns the number of bytes that belong to
// newline-terminated lines that were visited, which is a safe offset to
// resume reading from.
func ScanLines(r io.Reader, visit func(Line) bool) (int64, error) {
	reader := bufio.NewReaderSize(r, readerBufferSize)
	var consumed int64
	number := 0

	for {
		data, err := reader.ReadBytes('\n')
		if len(data) > 0 {
			number++
			terminated := data[len(data)-1] == '\n'
			line := Line{
				Number:     number,
				Data:       bytes.TrimRight(data, "\r\n"),
				Terminated: terminated,
			}
			if !visit(line) {
				return consumed, nil
			}
			if terminated {
				consumed += int64(len(data))
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, err
		}
	}
}
