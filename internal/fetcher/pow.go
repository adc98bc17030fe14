package fetcher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/bits"
	"net/http"
	"strconv"
	"strings"
)

// powAESKey is the published key the federal court endpoint's optional
// AES-CBC refinement uses to wrap pow_data_raw (spec §4.1, §9 open question 2).
// Disabled by default (config.PoWEncrypt=false); present for parity with the
// source when a live deployment demands it.
const powAESKey = "9f3c1a8e7b4d62f1e0b5c47a2d8f93bc"

// isPoWRedirect reports whether a redirect target is the federal court's
// proof-of-work gate.
func isPoWRedirect(target string) bool {
	return strings.Contains(target, "pow.php")
}

// MinePoW finds the smallest nonce >= 0 such that
// SHA256(data || ascii(nonce)) has at least difficulty leading zero bits
// (spec §4.1, testable property 3). Deterministic given a fixed data seed.
func MinePoW(dataHex string, difficulty int) (nonce uint64, hash string) {
	for n := uint64(0); ; n++ {
		candidate := dataHex + strconv.FormatUint(n, 10)
		sum := sha256.Sum256([]byte(candidate))
		if leadingZeroBits(sum[:]) >= difficulty {
			return n, hex.EncodeToString(sum[:])
		}
	}
}

func leadingZeroBits(b []byte) int {
	total := 0
	for _, by := range b {
		if by == 0 {
			total += 8
			continue
		}
		total += bits.LeadingZeros8(by)
		break
	}
	return total
}

// randomFingerprint generates the random 32-byte hex fingerprint pow_data_raw
// (spec §4.1 step 1).
func randomFingerprint() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("fetcher: generate pow fingerprint: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// encryptPoWData applies the optional AES-CBC refinement (spec §4.1 "An
// optional refinement encrypts pow_data_raw with AES-CBC using a published
// key"). Only invoked when Config.PoWEncrypt is true.
func encryptPoWData(dataHex string) (string, error) {
	block, err := aes.NewCipher([]byte(powAESKey))
	if err != nil {
		return "", fmt.Errorf("fetcher: aes cipher: %w", err)
	}
	plain := []byte(dataHex)
	// PKCS#7 pad to the block size.
	padLen := aes.BlockSize - len(plain)%aes.BlockSize
	padded := append(plain, pkcs7Padding(padLen)...)

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("fetcher: aes iv: %w", err)
	}
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return hex.EncodeToString(append(iv, out...)), nil
}

func pkcs7Padding(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(n)
	}
	return b
}

// minePoWAndSetCookies performs the full PoW sequence and records the
// resulting cookies in the session jar (spec §4.1 steps 1-4).
func (c *Client) minePoWAndSetCookies(_ string) error {
	dataRaw, err := randomFingerprint()
	if err != nil {
		return err
	}
	nonce, hash := MinePoW(dataRaw, c.cfg.PoWDifficulty)

	powData := dataRaw
	if c.cfg.PoWEncrypt {
		encrypted, err := encryptPoWData(dataRaw)
		if err != nil {
			return err
		}
		powData = encrypted
	}

	c.rememberCookies([]*http.Cookie{
		{Name: "powData", Value: powData},
		{Name: "powDifficulty", Value: strconv.Itoa(c.cfg.PoWDifficulty)},
		{Name: "powHash", Value: hash},
		{Name: "powNonce", Value: strconv.FormatUint(nonce, 10)},
	})
	return nil
}
