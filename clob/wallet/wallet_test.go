package wallet

import (
	"errors"
	"strings"
	"testing"
)

const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const testKeyAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestValidate_AcceptedForms(t *testing.T) {
	// 带/不带 0x 前缀、大小写混合，都应归一化到同一身份
	forms := []string{
		testKeyHex,
		"0x" + testKeyHex,
		"0X" + testKeyHex,
		"  " + testKeyHex + "  ",
		strings.ToUpper(testKeyHex),
		"0x" + strings.ToUpper(testKeyHex),
	}
	for _, raw := range forms {
		id, err := Validate(raw)
		if err != nil {
			t.Fatalf("Validate(%q): %v", raw, err)
		}
		if id.Address.Hex() != testKeyAddress {
			t.Fatalf("Validate(%q): address %s", raw, id.Address.Hex())
		}
		if id.KeyHex != testKeyHex {
			t.Fatalf("Validate(%q): KeyHex not normalized: %q", raw, id.KeyHex)
		}
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"too short", "abcd"},
		{"too long", testKeyHex + "00"},
		{"non hex", strings.Repeat("zz", 32)},
		{"all zero", strings.Repeat("00", 32)},
		{"prefix only", "0x"},
	}
	for _, tc := range cases {
		if _, err := Validate(tc.raw); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("%s: want ErrInvalidKey, got %v", tc.name, err)
		}
	}
}

func TestFromMnemonic_KnownPhrase(t *testing.T) {
	// 公开测试助记词（hardhat 默认），account #0
	const mnemonic = "test test test test test test test test test test test junk"
	id, err := FromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if id.Address.Hex() != testKeyAddress {
		t.Fatalf("derived address %s, want %s", id.Address.Hex(), testKeyAddress)
	}
}

func TestFromMnemonic_Invalid(t *testing.T) {
	if _, err := FromMnemonic("", ""); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("empty mnemonic: want ErrInvalidKey, got %v", err)
	}
	if _, err := FromMnemonic("definitely not a valid phrase", ""); err == nil {
		t.Fatal("expected error for bad mnemonic")
	}
}
