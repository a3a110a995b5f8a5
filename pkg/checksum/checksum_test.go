package checksum

import (
	"bytes"
	"testing"
)

func TestSumEmptyAlgorithms(t *testing.T) {
	sums, err := Sum(bytes.NewReader([]byte("hello")), nil)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if len(sums) != 0 {
		t.Fatal("expected no digests for an empty algorithm list")
	}
}

func TestSumKnownDigest(t *testing.T) {
	sums, err := Sum(bytes.NewReader([]byte("abc")), []string{"sha256"})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := sums["sha256"]; got != want {
		t.Fatalf("unexpected sha256 digest: got %s, want %s", got, want)
	}
}

func TestSumMultipleAlgorithmsReturnsEveryDigest(t *testing.T) {
	sums, err := Sum(bytes.NewReader([]byte("some moderately long input used to exercise chunking")), []string{"sha256", "sha1", "sha512", "xxh3"})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	for _, alg := range []string{"sha256", "sha1", "sha512", "xxh3"} {
		if _, ok := sums[alg]; !ok {
			t.Fatalf("missing digest for algorithm %s", alg)
		}
	}
}

func TestSumUnsupportedAlgorithm(t *testing.T) {
	if _, err := Sum(bytes.NewReader(nil), []string{"md5"}); err == nil {
		t.Fatal("expected an error for an unsupported algorithm")
	}
}

func TestSumIsDeterministic(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, chunkSize*3+17)
	first, err := Sum(bytes.NewReader(data), []string{"sha256"})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	second, err := Sum(bytes.NewReader(data), []string{"sha256"})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if first["sha256"] != second["sha256"] {
		t.Fatal("identical input produced different digests across calls")
	}
}
