package httpapi

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Event streams are framed in RecordIO: each record is its byte length in
// decimal ASCII, a newline, then exactly that many payload bytes.

const maxRecordSize = 4 * 1024 * 1024

// RecordReader decodes RecordIO frames from a stream.
type RecordReader struct {
	r *bufio.Reader
}

func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{r: bufio.NewReader(r)}
}

// ReadRecord returns the payload of the next record. It returns io.EOF at a
// clean end of stream and an error on malformed framing.
func (rr *RecordReader) ReadRecord() ([]byte, error) {
	header, err := rr.r.ReadString('\n')
	if err != nil {
		if err == io.EOF && header == "" {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "reading record header")
	}
	size, err := strconv.ParseUint(header[:len(header)-1], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed record header %q", header)
	}
	if size > maxRecordSize {
		return nil, errors.Errorf("record of %d bytes exceeds maximum of %d", size, maxRecordSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(rr.r, payload); err != nil {
		return nil, errors.Wrap(err, "reading record payload")
	}
	return payload, nil
}

// WriteRecord frames one payload onto w.
func WriteRecord(w io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "%d\n", len(payload)); err != nil {
		return errors.Wrap(err, "writing record header")
	}
	_, err := w.Write(payload)
	return errors.Wrap(err, "writing record payload")
}
