package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	certValidity = 30 * 24 * time.Hour
	renewBefore  = 7 * 24 * time.Hour
	fileMode     = 0o600
)

var nowFn = time.Now

// LoadOrGenerateConfig returns a server config backed by the key pair in
// certFile and keyFile. A missing, unreadable or soon-to-expire pair is
// replaced by a fresh self-signed certificate for localhost.
func LoadOrGenerateConfig(certFile, keyFile string, logger *zap.Logger) (*tls.Config, error) {
	cert, err := loadCertificate(certFile, keyFile)
	switch {
	case err != nil:
		logger.Info("generating preview certificate", zap.String("reason", err.Error()))
	case nowFn().Add(renewBefore).After(cert.Leaf.NotAfter):
		logger.Info("preview certificate expires soon, generating a new one")
	default:
		logger.Debug("using existing preview certificate", zap.String("cert", certFile))
		return serverConfig(cert), nil
	}

	cert, err = generateCertificate(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return serverConfig(cert), nil
}

// LoadClientConfig trusts the certificate in certFile. Browsers do the
// same after the user accepts it; tests use this instead.
func LoadClientConfig(certFile string) (*tls.Config, error) {
	data, err := os.ReadFile(certFile)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, errors.Errorf("no certificate found in %s", certFile)
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func serverConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
}

func loadCertificate(certFile, keyFile string) (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return cert, errors.WithStack(err)
	}
	if cert.Leaf == nil {
		cert.Leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return cert, errors.Wrap(err, "failed to parse certificate")
		}
	}
	return cert, nil
}

func generateCertificate(certFile, keyFile string) (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, errors.WithStack(err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, errors.WithStack(err)
	}

	now := nowFn()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "mdpane preview"},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:              []string{"localhost"},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, "failed to create certificate")
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return tls.Certificate{}, errors.WithStack(err)
	}

	if err := writePEM(certFile, "CERTIFICATE", der); err != nil {
		return tls.Certificate{}, err
	}
	if err := writePEM(keyFile, "EC PRIVATE KEY", keyDER); err != nil {
		return tls.Certificate{}, err
	}

	return loadCertificate(certFile, keyFile)
}

func writePEM(name, blockType string, der []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o700); err != nil {
		return errors.WithStack(err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	return errors.WithStack(os.WriteFile(name, data, fileMode))
}
