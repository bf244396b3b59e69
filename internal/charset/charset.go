// Package charset decodes input and policy files from a configured IANA
// character set into UTF-8.
package charset

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/conneroisu/taglint/internal/errors"
)

// Default is used when no charset is configured.
const Default = "UTF-8"

// Lookup resolves an IANA charset name such as "UTF-8", "Shift_JIS" or
// "ISO-8859-1". An empty name resolves to UTF-8.
func Lookup(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeUnsupportedValue,
			fmt.Sprintf("unknown charset %q", name))
	}
	if enc == nil {
		return nil, errors.NewConfigError(errors.ErrCodeUnsupportedValue,
			fmt.Sprintf("charset %q is not supported", name))
	}
	return enc, nil
}

// NewReader wraps r so that reads return UTF-8 text decoded from name.
func NewReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return r, nil
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

type decodedFile struct {
	io.Reader
	file *os.File
}

func (d *decodedFile) Close() error {
	return d.file.Close()
}

// Open opens path for reading through the decoder for name. The caller must
// close the returned reader.
func Open(path, name string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrFileNotFound(path)
		}
		return nil, errors.ErrUnreadable(path, err)
	}
	r, err := NewReader(f, name)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &decodedFile{Reader: r, file: f}, nil
}
