package util

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"math/big"
	"regexp"
	"strings"
)

// legacyAddrPattern matches Base58 bitcoin addresses embedded in scraped cell
// text. Listing cells often carry extra annotations ("wallet: Binance-coldwallet")
// next to the address itself.
var legacyAddrPattern = regexp.MustCompile(`[13][a-km-zA-HJ-NP-Z1-9]{25,34}`)

// bech32AddrPattern matches native segwit addresses, which have no Base58 checksum.
var bech32AddrPattern = regexp.MustCompile(`bc1[ac-hj-np-z02-9]{8,87}`)

// ExtractAddress returns the bitcoin address embedded in scraped cell text.
// Candidates matching the legacy pattern are preferred when their Base58Check
// checksum verifies; otherwise the first pattern match wins. When nothing
// matches, the trimmed input is returned as-is so the caller can decide.
func ExtractAddress(text string) string {
	clean := strings.TrimSpace(text)

	candidates := legacyAddrPattern.FindAllString(clean, -1)
	for _, c := range candidates {
		if AddressValid(c) {
			return c
		}
	}

	if m := bech32AddrPattern.FindString(clean); m != "" {
		return m
	}

	if len(candidates) > 0 {
		return candidates[0]
	}

	return clean
}

// AddressValid checks the Base58Check checksum of a legacy address.
func AddressValid(addr string) bool {
	if len(addr) == 0 {
		return false
	}

	buffer, err := DecodeBase58(addr)
	if err != nil {
		return false
	}

	if len(buffer) < 5 {
		return false
	}

	checksum := Sha256(Sha256(buffer[:len(buffer)-4]))
	return bytes.Equal(buffer[len(buffer)-4:], checksum[:4])
}

// Sha256 returns sha256 of input data bytes.
func Sha256(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

const b58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var b58Index = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i, c := range b58Alphabet {
		idx[c] = int8(i)
	}
	return idx
}()

// DecodeBase58 decodes base58 text into bytes, preserving leading zero bytes.
func DecodeBase58(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("empty base58 string")
	}

	val := new(big.Int)
	radix := big.NewInt(58)

	for i := 0; i < len(s); i++ {
		d := b58Index[s[i]]
		if d < 0 {
			return nil, errors.New("invalid base58 character: " + string(s[i]))
		}
		val.Mul(val, radix)
		val.Add(val, big.NewInt(int64(d)))
	}

	decoded := val.Bytes()

	// '1' encodes a zero byte.
	zeros := 0
	for zeros < len(s) && s[zeros] == '1' {
		zeros++
	}

	return append(make([]byte, zeros), decoded...), nil
}
