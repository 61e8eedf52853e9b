package lobby

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var ErrBadPassword = fmt.Errorf("%w: password missing or invalid", ErrRoomUnavailable)

var roomIDInfo = []byte("dolphinretro lobby server id")

func roomKey(password string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(password), nil, roomIDInfo)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncryptID seals a server id so only holders of password can recover it.
func EncryptID(serverID, password string) (string, error) {
	key, err := roomKey(password)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(serverID)+aead.Overhead())
	if _, err = rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, []byte(serverID), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptID recovers the server id of a password protected session.
func (s Session) DecryptID(password string) (string, error) {
	if password == "" {
		return "", ErrBadPassword
	}

	sealed, err := base64.RawURLEncoding.DecodeString(s.ServerID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadPassword, err)
	}

	key, err := roomKey(password)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return "", fmt.Errorf("%w: sealed id too short", ErrBadPassword)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Join(ErrBadPassword, err)
	}
	return string(plain), nil
}
