package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestCopyStrategies(t *testing.T) {
	payload := strings.Repeat("abcdefgh", 10_000) // larger than one pooled buffer

	strategies := []struct {
		name string
		copy StreamCopier
	}{
		{"plain", CopyPlain},
		{"pooled", CopyPooled},
	}

	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			var dst bytes.Buffer
			n, err := st.copy(&dst, strings.NewReader(payload))
			if err != nil {
				t.Fatalf("copy: %v", err)
			}
			if n != int64(len(payload)) {
				t.Errorf("copied %d bytes, want %d", n, len(payload))
			}
			if dst.String() != payload {
				t.Error("payload corrupted in transit")
			}
		})
	}
}

func TestBufPoolRoundTrip(t *testing.T) {
	buf := GetBuf()
	if len(*buf) != DefaultBufSize {
		t.Fatalf("buffer size = %d, want %d", len(*buf), DefaultBufSize)
	}
	PutBuf(buf)
	PutBuf(nil) // must not panic
}
