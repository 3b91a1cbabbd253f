package secretstore

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestStore_RoundTrip(t *testing.T) {
	ss, err := Open(OpenOptions{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ss.Close()

	if _, found, err := ss.GetString("missing"); err != nil || found {
		t.Fatalf("missing key: found=%v err=%v", found, err)
	}
	if err := ss.SetString("wallet/key", "deadbeef"); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, found, err := ss.GetString("wallet/key")
	if err != nil || !found || val != "deadbeef" {
		t.Fatalf("get: val=%q found=%v err=%v", val, found, err)
	}
}

func TestStore_EmptyKeyRejected(t *testing.T) {
	ss, err := Open(OpenOptions{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ss.Close()

	if err := ss.SetString("  ", "v"); err == nil {
		t.Fatal("expected error for blank key")
	}
	if _, _, err := ss.GetString(""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestParseKey(t *testing.T) {
	if b, err := ParseKey(""); err != nil || b != nil {
		t.Fatalf("empty key: %v %v", b, err)
	}

	hexKey := strings.Repeat("ab", 32)
	b, err := ParseKey(hexKey)
	if err != nil || len(b) != 32 {
		t.Fatalf("hex key: %v %v", b, err)
	}
	if b2, err := ParseKey("0x" + hexKey); err != nil || len(b2) != 32 {
		t.Fatalf("0x hex key: %v %v", b2, err)
	}

	b64 := base64.StdEncoding.EncodeToString(make([]byte, 32))
	if b3, err := ParseKey(b64); err != nil || len(b3) != 32 {
		t.Fatalf("base64 key: %v %v", b3, err)
	}

	if _, err := ParseKey("abcd"); err == nil {
		t.Fatal("short key should fail")
	}
	if _, err := ParseKey("!!not-a-key!!"); err == nil {
		t.Fatal("garbage key should fail")
	}
}
