package provider

import (
	"context"
	"errors"
)

// KeyAlgorithm names the kind of key a provider is asked to create
type KeyAlgorithm string

const (
	AlgorithmECDSAP256         KeyAlgorithm = "ecdsa-p256"
	AlgorithmEd25519           KeyAlgorithm = "ed25519"
	AlgorithmXChaCha20Poly1305 KeyAlgorithm = "xchacha20-poly1305"
)

var (
	ErrKeyNotFound          = errors.New("key not found")
	ErrUnsupportedAlgorithm = errors.New("unsupported key algorithm")
	ErrWrongKeyUsage        = errors.New("key does not support this operation")
)

// KeyHandle identifies a key held by a provider
type KeyHandle struct {
	ID        string       `json:"id"`
	Algorithm KeyAlgorithm `json:"algorithm"`
	PublicKey []byte       `json:"public_key,omitempty"`
}

// Client is the operation surface a provider component exposes to the test strategies
type Client interface {
	Ping(ctx context.Context) error
	GenerateKey(ctx context.Context, algorithm KeyAlgorithm) (KeyHandle, error)
	Sign(ctx context.Context, keyID string, message []byte) ([]byte, error)
	Verify(ctx context.Context, keyID string, message, signature []byte) (bool, error)
	Encrypt(ctx context.Context, keyID string, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, keyID string, ciphertext []byte) ([]byte, error)
	DestroyKey(ctx context.Context, keyID string) error
}

// ClientSource resolves the client for a component
type ClientSource interface {
	Client(component string) (Client, bool)
}

// Clients is a fixed component to client mapping
type Clients map[string]Client

// Client implements ClientSource
func (c Clients) Client(component string) (Client, bool) {
	client, ok := c[component]
	return client, ok
}
