package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func gzipBase64(t *testing.T, data []byte) []byte {
	t.Helper()
	return []byte(base64.StdEncoding.EncodeToString(gzipBytes(t, data)))
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func lz4Bytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("lz4 write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("lz4 close: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePayload(t *testing.T) {
	want := []byte("version: 1\ncolumn_width: 10\n")
	wrapped := base64.StdEncoding.EncodeToString(gzipBytes(t, want))

	tests := []struct {
		name string
		raw  []byte
	}{
		{"gzip", gzipBytes(t, want)},
		{"gzip base64", []byte(wrapped)},
		{"gzip base64 wrapped lines", []byte(wrapped[:20] + "\n" + wrapped[20:] + "\n")},
		{"gzip raw base64", []byte(base64.RawStdEncoding.EncodeToString(gzipBytes(t, want)))},
		{"zstd", zstdBytes(t, want)},
		{"zstd base64", []byte(base64.StdEncoding.EncodeToString(zstdBytes(t, want)))},
		{"lz4", lz4Bytes(t, want)},
		{"lz4 base64", []byte(base64.StdEncoding.EncodeToString(lz4Bytes(t, want)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePayload(tt.raw)
			if err != nil {
				t.Fatalf("DecodePayload() error = %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("DecodePayload() = %q, want %q", got, want)
			}
		})
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   []byte
		stage string
	}{
		{"not base64", []byte("!!!"), "decode"},
		{"plain text", []byte(base64.StdEncoding.EncodeToString([]byte("plain"))), "decompress"},
		{"truncated gzip", gzipBytes(t, []byte("hello world"))[:12], "decompress"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(tt.raw)
			var initErr *InitError
			if !errors.As(err, &initErr) {
				t.Fatalf("error = %v, want *InitError", err)
			}
			if initErr.Stage != tt.stage {
				t.Errorf("Stage = %q, want %q", initErr.Stage, tt.stage)
			}
		})
	}
}

func TestInitializeRejectsInvalidProfile(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not yaml", "::: [unterminated"},
		{"wrong version", "version: 2\ncolumn_width: 10\nfont: {size: 11}\n"},
		{"missing styles", "version: 1\ncolumn_width: 10\nfont: {size: 11}\ndate: {layouts: ['2006-01-02']}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Initialize([]byte(tt.raw)); err == nil {
				t.Fatal("Initialize() error = nil, want error")
			}
		})
	}
}
