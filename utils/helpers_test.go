package utils

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{"gif87", []byte("GIF87a\x00\x00"), "gif"},
		{"gif89", []byte("GIF89a\x00\x00"), "gif"},
		{"tiff little-endian", []byte{'I', 'I', 0x2A, 0x00}, "tiff"},
		{"tiff big-endian", []byte{'M', 'M', 0x00, 0x2A}, "tiff"},
		{"bmp", []byte("BM\x00\x00\x00\x00"), "bmp"},
		{"pdf", []byte("%PDF-1.7\n"), "pdf"},
		{"heif", append([]byte{0, 0, 0, 24}, []byte("ftypheic")...), "heif"},
		{"avif", append([]byte{0, 0, 0, 24}, []byte("ftypavif")...), "heif"},
		{"svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), "svg"},
		{"svg with prolog", []byte(`<?xml version="1.0"?><svg></svg>`), "svg"},
		{"garbage", []byte{0x00, 0x01, 0x02, 0x03}, "unknown"},
		{"too short", []byte{0xFF}, "unknown"},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.data); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDrainReader(t *testing.T) {
	payload := strings.Repeat("x", 100*1024)
	buf, err := DrainReader(context.Background(), strings.NewReader(payload), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer ReleaseBuffer(buf)
	if buf.Len() != len(payload) {
		t.Fatalf("drained %d bytes, want %d", buf.Len(), len(payload))
	}
}

func TestDrainReaderLimit(t *testing.T) {
	payload := strings.Repeat("x", 1024)
	_, err := DrainReader(context.Background(), strings.NewReader(payload), 512)
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("want ErrUnexpectedEOF over the limit, got %v", err)
	}
}

func TestDrainReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DrainReader(ctx, strings.NewReader("data"), 0); err == nil {
		t.Fatal("expected context error")
	}
}

func TestCloneBytes(t *testing.T) {
	src := []byte{1, 2, 3}
	dst := CloneBytes(src)
	src[0] = 9
	if dst[0] != 1 {
		t.Fatal("clone shares backing storage with the source")
	}
	if !bytes.Equal(dst, []byte{1, 2, 3}) {
		t.Fatalf("clone mismatch: %v", dst)
	}
}
