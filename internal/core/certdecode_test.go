package core

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selfSignedPEM returns a freshly generated ECDSA P-256 certificate.
func selfSignedPEM(t *testing.T, serial int64) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	name := pkix.Name{
		Country:      []string{"US"},
		Organization: []string{"Acme"},
		CommonName:   "Test eUICC CA",
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      name,
		Issuer:       name,
		NotBefore:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2034, 1, 1, 0, 0, 0, 0, time.UTC),
		KeyUsage:     x509.KeyUsageCertSign,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func TestX509Decoder_Decode(t *testing.T) {
	parsed, err := X509Decoder{}.Decode([]byte(selfSignedPEM(t, 0x1a2b)))
	require.NoError(t, err)

	assert.Equal(t, "countryName=US, organizationName=Acme, commonName=Test eUICC CA", parsed.Subject)
	assert.Equal(t, parsed.Subject, parsed.Issuer)
	assert.Equal(t, "0x1a2b", parsed.SerialNumber)
	assert.Equal(t, "2024-01-01T00:00:00+00:00", parsed.NotBefore)
	assert.Equal(t, "2034-01-01T00:00:00+00:00", parsed.NotAfter)
	assert.Equal(t, 2, parsed.Version)
	assert.Equal(t, "ecdsa-with-SHA256", parsed.SignatureAlgorithm)
}

func TestX509Decoder_SkipsNonCertificateBlocks(t *testing.T) {
	key := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: []byte{1, 2, 3}}))
	parsed, err := X509Decoder{}.Decode([]byte(key + selfSignedPEM(t, 7)))
	require.NoError(t, err)
	assert.Equal(t, "0x7", parsed.SerialNumber)
}

func TestX509Decoder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not PEM", "hello"},
		{"only a key block", string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1}}))},
		{"garbage DER", string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{0x30, 0x01, 0x00}}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := X509Decoder{}.Decode([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestAttributeName_UnknownOID(t *testing.T) {
	assert.Equal(t, "1.2.3.4", attributeName([]int{1, 2, 3, 4}))
	assert.Equal(t, "emailAddress", attributeName([]int{1, 2, 840, 113549, 1, 9, 1}))
}
