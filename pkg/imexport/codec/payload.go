package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Container identifies the compression wrapping a payload.
type Container string

const (
	ContainerGzip Container = "gzip"
	ContainerZstd Container = "zstd"
	ContainerLZ4  Container = "lz4"
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// errUnknownContainer is returned for payloads with no recognised
// compression header.
var errUnknownContainer = errors.New("unrecognised payload container")

// zstdDecoder is shared by all payload decodes. DecodeAll is safe for
// concurrent use.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// DecodePayload reverses the embedding pipeline: optional base64 text
// encoding, then gzip, zstd or LZ4-frame compression. Failures are
// reported as *InitError.
func DecodePayload(raw []byte) ([]byte, error) {
	data := bytes.TrimSpace(raw)
	if detect(data) == "" {
		decoded, err := decodeBase64(data)
		if err != nil {
			return nil, &InitError{Stage: "decode", Err: err}
		}
		data = decoded
	}

	out, err := decompress(data)
	if err != nil {
		return nil, &InitError{Stage: "decompress", Err: err}
	}
	return out, nil
}

func detect(data []byte) Container {
	switch {
	case bytes.HasPrefix(data, magicGzip):
		return ContainerGzip
	case bytes.HasPrefix(data, magicZstd):
		return ContainerZstd
	case bytes.HasPrefix(data, magicLZ4):
		return ContainerLZ4
	default:
		return ""
	}
}

func decodeBase64(data []byte) ([]byte, error) {
	// Wrapped text.
	data = bytes.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, data)

	out := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(out, data)
	if err == nil {
		return out[:n], nil
	}
	out = make([]byte, base64.RawStdEncoding.DecodedLen(len(data)))
	n, rawErr := base64.RawStdEncoding.Decode(out, data)
	if rawErr != nil {
		return nil, fmt.Errorf("payload is neither compressed nor base64: %w", err)
	}
	return out[:n], nil
}

func decompress(data []byte) ([]byte, error) {
	switch detect(data) {
	case ContainerGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return out, nil

	case ContainerZstd:
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil

	case ContainerLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		return out, nil

	default:
		return nil, errUnknownContainer
	}
}
