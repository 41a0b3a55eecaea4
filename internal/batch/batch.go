// Package batch packs single-amount ciphertexts into one MPC batch buffer
// and splits MPC results back into records.
//
// Records are laid out at a fixed stride of crypto.CiphertextSize bytes with
// no header. This relies on every record being a single-u64 ciphertext;
// variable-length plaintexts would need explicit length prefixes.
// The package never sees key material.
package batch

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/AlexZinkM/confidential-pay/internal/crypto"
)

// RecordSize is the stride of one record in a packed buffer.
const RecordSize = crypto.CiphertextSize

// ErrStructural reports a buffer whose shape does not match the expected
// record layout. It indicates a protocol or version mismatch.
var ErrStructural = errors.New("batch structure mismatch")

// Pack concatenates items in order. Every item must be exactly RecordSize
// bytes long.
func Pack(items [][]byte) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrStructural)
	}

	buf := make([]byte, 0, len(items)*RecordSize)
	for i, item := range items {
		if len(item) != RecordSize {
			return nil, fmt.Errorf("%w: item %d is %d bytes, want %d", ErrStructural, i, len(item), RecordSize)
		}
		buf = append(buf, item...)
	}
	return buf, nil
}

// Unpack splits buf into count records, preserving order. The returned
// records are copies and do not alias buf.
func Unpack(buf []byte, count int) ([][]byte, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: expected count must be positive, got %d", ErrStructural, count)
	}
	if count > len(buf)/RecordSize || len(buf) != count*RecordSize {
		return nil, fmt.Errorf("%w: buffer is %d bytes, want %d records of %d bytes",
			ErrStructural, len(buf), count, RecordSize)
	}

	items := make([][]byte, count)
	for i := range items {
		record := make([]byte, RecordSize)
		copy(record, buf[i*RecordSize:(i+1)*RecordSize])
		items[i] = record
	}
	return items, nil
}

// PackStrings decodes base64 records and packs them.
func PackStrings(items []string) ([]byte, error) {
	raw := make([][]byte, len(items))
	for i, s := range items {
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d is not valid base64: %v", ErrStructural, i, err)
		}
		raw[i] = b
	}
	return Pack(raw)
}

// UnpackStrings unpacks buf and base64-encodes each record.
func UnpackStrings(buf []byte, count int) ([]string, error) {
	items, err := Unpack(buf, count)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(items))
	for i, item := range items {
		out[i] = base64.StdEncoding.EncodeToString(item)
	}
	return out, nil
}
