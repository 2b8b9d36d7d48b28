package redsys

import (
	"bytes"
	"crypto/cipher"
	"crypto/des"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Padding selects how the order id is padded before 3DES encryption.
type Padding string

const (
	// PadLength fills with bytes whose value is the pad count. Input that is
	// already block aligned gains a full block of 0x08.
	PadLength Padding = "length"
	// PadZero fills with 0x00 up to the next boundary and leaves aligned input
	// as is.
	PadZero Padding = "zero"
)

const (
	secretLength = 24
	keyLength    = 24
)

// Encryptor signs parameter blobs with a per-order key derived from the
// merchant secret. It holds no mutable state and is safe for concurrent use.
type Encryptor struct {
	secret  string // merchant secret encoded with Base64
	padding Padding
}

func NewEncryptor(secret string, padding Padding) *Encryptor {
	if padding == "" {
		padding = PadLength
	}
	return &Encryptor{
		secret:  secret,
		padding: padding,
	}
}

// DeriveKey derives the per-order key with the default padding.
func DeriveKey(order, secret string) ([]byte, error) {
	return NewEncryptor(secret, PadLength).DeriveKey(order)
}

// Sign signs parameters for order with the default padding.
func Sign(parameters, order, secret string) (string, error) {
	return NewEncryptor(secret, PadLength).Sign(parameters, order)
}

// DeriveKey encrypts the order id with 3DES-CBC under the merchant secret,
// using a zero IV. The ciphertext is the HMAC key for that order.
func (e *Encryptor) DeriveKey(order string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(e.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidSecret, err)
	}
	if len(key) != secretLength {
		return nil, fmt.Errorf("%w: decoded to %d bytes, want %d", ErrInvalidSecret, len(key), secretLength)
	}

	derived, err := e.encrypt3DES(order, key)
	if err != nil {
		return nil, err
	}
	if len(derived) > keyLength {
		derived = derived[:keyLength]
	}
	return derived, nil
}

// Sign computes HMAC-SHA256 over the Base64 parameter string itself (not its
// decoded bytes) and returns it in the URL-safe Base64 alphabet.
func (e *Encryptor) Sign(parameters, order string) (string, error) {
	key, err := e.DeriveKey(order)
	if err != nil {
		return "", err
	}
	hash := e.mac256(parameters, key)
	return base64.URLEncoding.EncodeToString(hash), nil
}

func (e *Encryptor) encrypt3DES(plainText string, key []byte) ([]byte, error) {
	if plainText == "" {
		return nil, errors.New("encrypt3DES: order cannot be empty")
	}

	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}

	toEncrypt := pad([]byte(plainText), block.BlockSize(), e.padding)
	ciphertext := make([]byte, len(toEncrypt))

	iv := make([]byte, block.BlockSize())
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, toEncrypt)

	return ciphertext, nil
}

func (e *Encryptor) mac256(message string, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return mac.Sum(nil)
}

func pad(data []byte, blockSize int, scheme Padding) []byte {
	if scheme == PadZero {
		rem := len(data) % blockSize
		if rem == 0 {
			return data
		}
		return append(data, make([]byte, blockSize-rem)...)
	}
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

// SignaturesEqual compares two signatures in constant time after mapping both
// to the standard Base64 alphabet.
func SignaturesEqual(a, b string) bool {
	return hmac.Equal([]byte(toStandardAlphabet(a)), []byte(toStandardAlphabet(b)))
}

func toStandardAlphabet(s string) string {
	return strings.NewReplacer("-", "+", "_", "/").Replace(s)
}
