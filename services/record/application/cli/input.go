package cli

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// MaxLineBytes bounds one line of operator input.
const MaxLineBytes = 1 << 20

// ErrLineTooLong is returned for a line over the limit. The whole line is
// consumed, so the next read starts on the following line.
var ErrLineTooLong = errors.New("input line too long")

// LineReader reads operator input one trimmed line at a time.
type LineReader struct {
	r   *bufio.Reader
	max int
}

func NewLineReader(in io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(in), max: MaxLineBytes}
}

// ReadLine returns the next line with surrounding whitespace removed. A final
// line without a newline is still returned; io.EOF means nothing is left.
func (l *LineReader) ReadLine() (string, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, err := l.r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > l.max+1 {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil, errors.Is(err, io.EOF):
			if tooLong {
				return "", ErrLineTooLong
			}
			if err != nil && len(buf) == 0 {
				return "", io.EOF
			}
			return strings.TrimSpace(string(buf)), nil
		default:
			return "", err
		}
	}
}
