package gate

import (
	"encoding/hex"
	"errors"
	"strings"
)

// ToHex encodes buf as lowercase hex, two characters per byte
func ToHex(buf []byte) string {
	return hex.EncodeToString(buf)
}

// FromHex decodes a hex string (either case). Odd lengths and non-hex
// characters return MalformedEncoding.
func FromHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, MalformedEncoding{Length: len(s), Offset: -1}
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		var invalid hex.InvalidByteError
		offset := 0
		if errors.As(err, &invalid) {
			offset = strings.IndexByte(s, byte(invalid))
		}
		return nil, MalformedEncoding{Length: len(s), Offset: offset}
	}
	return buf, nil
}
