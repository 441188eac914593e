package protect

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Scheme is the envelope version prefix.
const Scheme = "g1"

const (
	DefaultIterations = 20000
	MinIterations     = 1000
	// maxIterations bounds the work a hostile envelope can demand.
	maxIterations = 10_000_000

	saltSize = 16
	ivSize   = aes.BlockSize
	keySize  = 32
	macSize  = sha256.Size
)

// Cipher encrypts article bodies so the bundled browser routine can decrypt
// them with CryptoJS:
//
//	PBKDF2-SHA256(password, salt, iterations) -> 64 bytes
//	bytes 0..31  AES-256-CBC key (PKCS#7)
//	bytes 32..63 HMAC-SHA256 key over salt|iv|ciphertext
//
// Output is "g1.<iterations>.<salt>.<iv>.<ciphertext>.<mac>" in padded
// standard base64.
type Cipher struct {
	iterations int
	random     io.Reader
}

// CipherOption customises a Cipher.
type CipherOption func(*Cipher)

// WithIterations sets the PBKDF2 work factor used for encryption.
func WithIterations(n int) CipherOption {
	return func(c *Cipher) {
		if n > 0 {
			c.iterations = n
		}
	}
}

// WithRandom replaces the source of salts and IVs.
func WithRandom(r io.Reader) CipherOption {
	return func(c *Cipher) {
		if r != nil {
			c.random = r
		}
	}
}

// NewCipher returns a Cipher using DefaultIterations and crypto/rand.
func NewCipher(opts ...CipherOption) *Cipher {
	c := &Cipher{iterations: DefaultIterations, random: rand.Reader}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Iterations returns the work factor applied by Encrypt.
func (c *Cipher) Iterations() int { return c.iterations }

// Encrypt seals plaintext under password with a fresh salt and IV.
func (c *Cipher) Encrypt(plaintext, password string) (string, error) {
	if plaintext == "" || password == "" {
		return "", ErrEncryptionInput
	}

	salt := make([]byte, saltSize)
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(c.random, salt); err != nil {
		return "", fmt.Errorf("protect: read salt: %w", err)
	}
	if _, err := io.ReadFull(c.random, iv); err != nil {
		return "", fmt.Errorf("protect: read iv: %w", err)
	}

	encKey, macKey := deriveKeys(password, salt, c.iterations)
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return "", fmt.Errorf("protect: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	mac := sign(macKey, salt, iv, ct)

	enc := base64.StdEncoding
	return strings.Join([]string{
		Scheme,
		strconv.Itoa(c.iterations),
		enc.EncodeToString(salt),
		enc.EncodeToString(iv),
		enc.EncodeToString(ct),
		enc.EncodeToString(mac),
	}, "."), nil
}

// Decrypt opens a g1 envelope. The iteration count is read from the
// envelope, so payloads sealed with other settings still open.
func (c *Cipher) Decrypt(payload, password string) (string, error) {
	env, err := parseEnvelope(payload)
	if err != nil {
		return "", err
	}

	encKey, macKey := deriveKeys(password, env.salt, env.iterations)
	if !hmac.Equal(sign(macKey, env.salt, env.iv, env.ct), env.mac) {
		return "", ErrDecrypt
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return "", fmt.Errorf("protect: %w", err)
	}
	plain := make([]byte, len(env.ct))
	cipher.NewCBCDecrypter(block, env.iv).CryptBlocks(plain, env.ct)

	unpadded, ok := pkcs7Unpad(plain, aes.BlockSize)
	if !ok {
		return "", ErrDecrypt
	}
	return string(unpadded), nil
}

type envelope struct {
	iterations int
	salt       []byte
	iv         []byte
	ct         []byte
	mac        []byte
}

func parseEnvelope(payload string) (envelope, error) {
	parts := strings.Split(strings.TrimSpace(payload), ".")
	if len(parts) != 6 || parts[0] != Scheme {
		return envelope{}, ErrMalformedPayload
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < 1 || iterations > maxIterations {
		return envelope{}, fmt.Errorf("%w: iterations", ErrMalformedPayload)
	}

	var decoded [4][]byte
	for i, part := range parts[2:] {
		decoded[i], err = base64.StdEncoding.DecodeString(part)
		if err != nil {
			return envelope{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
	}

	env := envelope{
		iterations: iterations,
		salt:       decoded[0],
		iv:         decoded[1],
		ct:         decoded[2],
		mac:        decoded[3],
	}
	switch {
	case len(env.salt) != saltSize,
		len(env.iv) != ivSize,
		len(env.mac) != macSize,
		len(env.ct) == 0,
		len(env.ct)%aes.BlockSize != 0:
		return envelope{}, fmt.Errorf("%w: field length", ErrMalformedPayload)
	}
	return env, nil
}

func deriveKeys(password string, salt []byte, iterations int) (encKey, macKey []byte) {
	material := pbkdf2.Key([]byte(password), salt, iterations, 2*keySize, sha256.New)
	return material[:keySize], material[keySize:]
}

func sign(key, salt, iv, ct []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(salt)
	mac.Write(iv)
	mac.Write(ct)
	return mac.Sum(nil)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
