package compress

import (
	"bytes"
	"io"
	"testing"
)

func TestCodecForName(t *testing.T) {
	cases := map[string]Codec{
		"backup.tar":     None,
		"backup.tar.gz":  Gzip,
		"backup.tgz":     Gzip,
		"backup.tar.bz2": Bzip2,
		"backup.tbz2":    Bzip2,
		"backup.tar.xz":  Xz,
		"backup.txz":     Xz,
		"backup.weird":   Gzip,
	}
	for name, want := range cases {
		if got := CodecForName(name); got != want {
			t.Errorf("CodecForName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRoundTripEachCodec(t *testing.T) {
	for _, codec := range []Codec{None, Gzip, Bzip2, Xz} {
		var buf bytes.Buffer
		w, err := NewWriter(codec, &buf)
		if err != nil {
			t.Fatalf("codec %v: NewWriter: %v", codec, err)
		}
		if _, err := w.Write([]byte("roundtrip payload")); err != nil {
			t.Fatalf("codec %v: Write: %v", codec, err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("codec %v: Close: %v", codec, err)
		}

		r, err := NewReader(codec, bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("codec %v: NewReader: %v", codec, err)
		}
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("codec %v: ReadAll: %v", codec, err)
		}
		if string(got) != "roundtrip payload" {
			t.Fatalf("codec %v: got %q, want %q", codec, got, "roundtrip payload")
		}
	}
}
