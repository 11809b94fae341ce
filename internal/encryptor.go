package internal

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"redsyspay/entity"
	"strings"

	"gitee.com/golang-module/dongle"
)

// tripleDesKeySize is the key length of DES-EDE3.
const tripleDesKeySize = 24

// Encryptor signs one Base64 parameters payload for one order with the
// merchant secret, following the HMAC_SHA256_V1 scheme.
type Encryptor struct {
	secret     entity.SecretKey // merchant secret encoded with Base64
	parameters string
	order      string // order number to be encrypted
}

func NewEncryptor(secret entity.SecretKey, parameters string, order string) *Encryptor {
	return &Encryptor{
		secret:     secret,
		parameters: parameters,
		order:      order,
	}
}

func (e *Encryptor) CreateSignature() (string, error) {
	key, err := DeriveKey(e.secret, e.order)
	if err != nil {
		return "", err
	}
	defer key.Wipe()
	return Sign(key, e.parameters), nil
}

func (e *Encryptor) VerifySignature(candidate string) (bool, error) {
	key, err := DeriveKey(e.secret, e.order)
	if err != nil {
		return false, err
	}
	defer key.Wipe()
	return Verify(key, e.parameters, candidate), nil
}

// DeriveKey encrypts the order number with 3DES in ECB mode and PKCS#7
// padding. The raw ciphertext is the HMAC key for that order.
func DeriveKey(secret entity.SecretKey, order string) (entity.DerivedKey, error) {
	if secret.IsEmpty() {
		return nil, fmt.Errorf("%w: empty secret", ErrInvalidKeyMaterial)
	}
	if order == "" {
		return nil, ErrMissingOrderNumber
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(secret.Reveal()))
	if err != nil {
		// the decoder error quotes input bytes
		return nil, fmt.Errorf("%w: secret is not valid base64", ErrInvalidKeyMaterial)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrInvalidKeyMaterial)
	}

	key := make([]byte, tripleDesKeySize)
	copy(key, raw)

	cipher := dongle.NewCipher()
	cipher.SetMode(dongle.ECB)
	cipher.SetPadding(dongle.PKCS7)
	cipher.SetKey(key)

	encrypted := dongle.Encrypt.FromBytes([]byte(order)).By3Des(cipher)
	if encrypted.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, encrypted.Error)
	}
	derived := encrypted.ToRawBytes()
	if len(derived) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext", ErrCipher)
	}
	return derived, nil
}

// Sign computes HMAC-SHA256 over the Base64 text of the payload, not over
// the decoded JSON, and returns the digest in standard Base64.
func Sign(key entity.DerivedKey, payload string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares it in constant time.
// Notifications carry the URL-safe alphabet, so both sides are normalized.
func Verify(key entity.DerivedKey, payload string, candidate string) bool {
	expected := Sign(key, payload)
	return hmac.Equal([]byte(normalizeSignature(expected)), []byte(normalizeSignature(candidate)))
}

var urlSafeAlphabet = strings.NewReplacer("-", "+", "_", "/")

func normalizeSignature(signature string) string {
	return urlSafeAlphabet.Replace(strings.TrimSpace(signature))
}
