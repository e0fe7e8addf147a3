package provider

import (
	"context"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
)

// SoftwareClient is an in-process reference provider.
// It performs real cryptographic operations so strategies can assert round trips deterministically.
type SoftwareClient struct {
	name string

	mu   sync.RWMutex
	keys map[string]*softwareKey
}

type softwareKey struct {
	algorithm KeyAlgorithm
	ecdsa     *ecdsa.PrivateKey
	ed25519   ed25519.PrivateKey
	symmetric []byte
}

// NewSoftwareClient creates a reference provider for one component
func NewSoftwareClient(name string) *SoftwareClient {
	return &SoftwareClient{
		name: name,
		keys: make(map[string]*softwareKey),
	}
}

// Ping implements Client
func (s *SoftwareClient) Ping(ctx context.Context) error {
	return ctx.Err()
}

// GenerateKey implements Client
func (s *SoftwareClient) GenerateKey(ctx context.Context, algorithm KeyAlgorithm) (KeyHandle, error) {
	if err := ctx.Err(); err != nil {
		return KeyHandle{}, err
	}

	key := &softwareKey{algorithm: algorithm}
	handle := KeyHandle{ID: s.name + "-" + uuid.New().String(), Algorithm: algorithm}

	switch algorithm {
	case AlgorithmECDSAP256:
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return KeyHandle{}, fmt.Errorf("ecdsa key generation: %w", err)
		}
		pub, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
		if err != nil {
			return KeyHandle{}, fmt.Errorf("marshal public key: %w", err)
		}
		key.ecdsa = priv
		handle.PublicKey = pub
	case AlgorithmEd25519:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return KeyHandle{}, fmt.Errorf("ed25519 key generation: %w", err)
		}
		key.ed25519 = priv
		handle.PublicKey = pub
	case AlgorithmXChaCha20Poly1305:
		secret := make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(secret); err != nil {
			return KeyHandle{}, fmt.Errorf("symmetric key generation: %w", err)
		}
		key.symmetric = secret
	default:
		return KeyHandle{}, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}

	s.mu.Lock()
	s.keys[handle.ID] = key
	s.mu.Unlock()

	return handle, nil
}

// Sign implements Client
func (s *SoftwareClient) Sign(ctx context.Context, keyID string, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := s.key(keyID)
	if err != nil {
		return nil, err
	}

	switch key.algorithm {
	case AlgorithmECDSAP256:
		digest := sha256.Sum256(message)
		return ecdsa.SignASN1(rand.Reader, key.ecdsa, digest[:])
	case AlgorithmEd25519:
		return ed25519.Sign(key.ed25519, message), nil
	default:
		return nil, fmt.Errorf("%w: sign with %s", ErrWrongKeyUsage, key.algorithm)
	}
}

// Verify implements Client
func (s *SoftwareClient) Verify(ctx context.Context, keyID string, message, signature []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, err := s.key(keyID)
	if err != nil {
		return false, err
	}

	switch key.algorithm {
	case AlgorithmECDSAP256:
		digest := sha256.Sum256(message)
		return ecdsa.VerifyASN1(&key.ecdsa.PublicKey, digest[:], signature), nil
	case AlgorithmEd25519:
		return ed25519.Verify(key.ed25519.Public().(ed25519.PublicKey), message, signature), nil
	default:
		return false, fmt.Errorf("%w: verify with %s", ErrWrongKeyUsage, key.algorithm)
	}
}

// Encrypt implements Client. The random nonce is prepended to the ciphertext.
func (s *SoftwareClient) Encrypt(ctx context.Context, keyID string, plaintext []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	aead, err := s.aead(keyID)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, []byte(keyID)), nil
}

// Decrypt implements Client
func (s *SoftwareClient) Decrypt(ctx context.Context, keyID string, ciphertext []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	aead, err := s.aead(keyID)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, []byte(keyID))
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

// DestroyKey implements Client
func (s *SoftwareClient) DestroyKey(_ context.Context, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[keyID]; !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}
	delete(s.keys, keyID)
	return nil
}

// KeyCount returns the number of keys currently held
func (s *SoftwareClient) KeyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

func (s *SoftwareClient) key(keyID string) (*softwareKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[keyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}
	return key, nil
}

func (s *SoftwareClient) aead(keyID string) (cipher.AEAD, error) {
	key, err := s.key(keyID)
	if err != nil {
		return nil, err
	}
	if key.algorithm != AlgorithmXChaCha20Poly1305 {
		return nil, fmt.Errorf("%w: encryption with %s", ErrWrongKeyUsage, key.algorithm)
	}
	return chacha20poly1305.NewX(key.symmetric)
}
