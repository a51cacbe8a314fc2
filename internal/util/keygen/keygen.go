package keygen

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// KeyPair holds an SSH key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the PEM-encoded private key.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format.
	PublicKey []byte
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size.
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}

	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	return withPublicKey(privateKeyPEM, &privateKey.PublicKey)
}

// GenerateEd25519KeyPair generates a new Ed25519 key pair in OpenSSH format.
func GenerateEd25519KeyPair(comment string) (*KeyPair, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 private key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(privateKey, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ed25519 private key: %w", err)
	}

	return withPublicKey(pem.EncodeToMemory(block), publicKey)
}

func withPublicKey(privateKeyPEM []byte, publicKey any) (*KeyPair, error) {
	sshPublicKey, err := ssh.NewPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  ssh.MarshalAuthorizedKey(sshPublicKey),
	}, nil
}

// EnsureKeyPair generates an Ed25519 key pair at privateKeyPath and
// publicKeyPath unless the private key already exists. It reports whether a
// new pair was written. An existing private key without its public half is
// an error rather than being overwritten.
func EnsureKeyPair(privateKeyPath, publicKeyPath, comment string) (bool, error) {
	_, privErr := os.Stat(privateKeyPath)
	_, pubErr := os.Stat(publicKeyPath)
	switch {
	case privErr == nil && pubErr == nil:
		return false, nil
	case privErr == nil:
		return false, fmt.Errorf("private key %s exists but public key %s is missing", privateKeyPath, publicKeyPath)
	case !os.IsNotExist(privErr):
		return false, fmt.Errorf("failed to stat private key: %w", privErr)
	}

	pair, err := GenerateEd25519KeyPair(comment)
	if err != nil {
		return false, err
	}
	if err := pair.writeFiles(privateKeyPath, publicKeyPath); err != nil {
		return false, err
	}
	return true, nil
}

func (k *KeyPair) writeFiles(privateKeyPath, publicKeyPath string) error {
	for _, dir := range []string{filepath.Dir(privateKeyPath), filepath.Dir(publicKeyPath)} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create key directory: %w", err)
		}
	}
	if err := os.WriteFile(privateKeyPath, k.PrivateKey, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(publicKeyPath, k.PublicKey, 0o644); err != nil { //nolint:gosec // public key
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}
