package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"test-orchestrator/internal/pkg/provider"
)

// Strategy is one test type: a set of assertions run against a provider client.
type Strategy interface {
	Name() string
	ExpectedDuration() time.Duration
	Run(ctx context.Context, client provider.Client) error
}

// StrategyFunc adapts a plain function into a Strategy
type StrategyFunc struct {
	TestType string
	Expected time.Duration
	Fn       func(ctx context.Context, client provider.Client) error
}

func (s StrategyFunc) Name() string                    { return s.TestType }
func (s StrategyFunc) ExpectedDuration() time.Duration { return s.Expected }

func (s StrategyFunc) Run(ctx context.Context, client provider.Client) error {
	return s.Fn(ctx, client)
}

var probeMessage = []byte("supacrypt integration probe")

// DefaultStrategies returns the built-in test types
func DefaultStrategies() []Strategy {
	return []Strategy{
		StrategyFunc{TestType: "connectivity", Expected: 500 * time.Millisecond, Fn: pingStrategy},
		StrategyFunc{TestType: "health_check", Expected: time.Second, Fn: pingStrategy},
		StrategyFunc{TestType: "key_generation", Expected: 2 * time.Second, Fn: keyGenerationStrategy},
		StrategyFunc{TestType: "signing", Expected: 1500 * time.Millisecond, Fn: signingStrategy},
		StrategyFunc{TestType: "verification", Expected: time.Second, Fn: verificationStrategy},
		StrategyFunc{TestType: "encryption", Expected: 2 * time.Second, Fn: encryptionStrategy},
		StrategyFunc{TestType: "decryption", Expected: 1800 * time.Millisecond, Fn: decryptionStrategy},
	}
}

func pingStrategy(ctx context.Context, client provider.Client) error {
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// withKey generates a key, hands it to fn and destroys it afterwards
func withKey(ctx context.Context, client provider.Client, alg provider.KeyAlgorithm, fn func(provider.KeyHandle) error) error {
	handle, err := client.GenerateKey(ctx, alg)
	if err != nil {
		return fmt.Errorf("generate %s key: %w", alg, err)
	}
	if handle.ID == "" {
		return errors.New("provider returned an empty key id")
	}

	runErr := fn(handle)

	// cleanup uses a fresh context so a timed-out test still releases its key
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := client.DestroyKey(cleanupCtx, handle.ID); err != nil && runErr == nil {
		return fmt.Errorf("destroy key: %w", err)
	}
	return runErr
}

func keyGenerationStrategy(ctx context.Context, client provider.Client) error {
	return withKey(ctx, client, provider.AlgorithmECDSAP256, func(h provider.KeyHandle) error {
		if len(h.PublicKey) == 0 {
			return errors.New("generated key has no public part")
		}
		return nil
	})
}

func signingStrategy(ctx context.Context, client provider.Client) error {
	return withKey(ctx, client, provider.AlgorithmECDSAP256, func(h provider.KeyHandle) error {
		sig, err := client.Sign(ctx, h.ID, probeMessage)
		if err != nil {
			return fmt.Errorf("sign: %w", err)
		}
		if len(sig) == 0 {
			return errors.New("empty signature")
		}
		return nil
	})
}

func verificationStrategy(ctx context.Context, client provider.Client) error {
	return withKey(ctx, client, provider.AlgorithmEd25519, func(h provider.KeyHandle) error {
		sig, err := client.Sign(ctx, h.ID, probeMessage)
		if err != nil {
			return fmt.Errorf("sign: %w", err)
		}

		ok, err := client.Verify(ctx, h.ID, probeMessage, sig)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if !ok {
			return errors.New("valid signature rejected")
		}

		ok, err = client.Verify(ctx, h.ID, append(bytes.Clone(probeMessage), '!'), sig)
		if err != nil {
			return fmt.Errorf("verify tampered: %w", err)
		}
		if ok {
			return errors.New("signature accepted for tampered message")
		}
		return nil
	})
}

func encryptionStrategy(ctx context.Context, client provider.Client) error {
	return withKey(ctx, client, provider.AlgorithmXChaCha20Poly1305, func(h provider.KeyHandle) error {
		ciphertext, err := client.Encrypt(ctx, h.ID, probeMessage)
		if err != nil {
			return fmt.Errorf("encrypt: %w", err)
		}
		if bytes.Contains(ciphertext, probeMessage) {
			return errors.New("ciphertext contains plaintext")
		}
		return nil
	})
}

func decryptionStrategy(ctx context.Context, client provider.Client) error {
	return withKey(ctx, client, provider.AlgorithmXChaCha20Poly1305, func(h provider.KeyHandle) error {
		ciphertext, err := client.Encrypt(ctx, h.ID, probeMessage)
		if err != nil {
			return fmt.Errorf("encrypt: %w", err)
		}
		plaintext, err := client.Decrypt(ctx, h.ID, ciphertext)
		if err != nil {
			return fmt.Errorf("decrypt: %w", err)
		}
		if !bytes.Equal(plaintext, probeMessage) {
			return errors.New("decrypted payload does not match")
		}
		return nil
	})
}
