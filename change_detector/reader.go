package change_detector

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/lightningnetwork/lnd/fn/v2"
)

var (
	// ErrBinaryFile marks content that is not valid UTF-8 text.
	ErrBinaryFile = errors.New("binary file")

	// ErrFileTooLarge marks files above the configured read limit.
	ErrFileTooLarge = errors.New("file too large")
)

// ReadText reads a file as text. The error side of the result says why a file
// was skipped (unreadable, binary, too large) so callers can tell a
// deliberate skip apart from a file that was never read. maxBytes <= 0
// disables the size limit.
func ReadText(path string, maxBytes int64) fn.Result[string] {
	info, err := os.Stat(path)
	if err != nil {
		return fn.Err[string](err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return fn.Err[string](fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, path, info.Size()))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fn.Err[string](err)
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return fn.Err[string](fmt.Errorf("%w: %s", ErrBinaryFile, path))
	}

	return fn.Ok(string(data))
}
