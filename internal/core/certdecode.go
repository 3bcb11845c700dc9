package core

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// CertificateDecoder extracts display fields from PEM-encoded certificate bytes.
type CertificateDecoder interface {
	Decode(pemData []byte) (*ParsedCertificate, error)
}

// X509Decoder decodes the first CERTIFICATE block with crypto/x509.
type X509Decoder struct{}

// validityLayout renders validity times as UTC with an explicit +00:00 offset.
const validityLayout = "2006-01-02T15:04:05-07:00"

// Decode implements CertificateDecoder.
func (X509Decoder) Decode(pemData []byte) (*ParsedCertificate, error) {
	rest := pemData
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, errors.New("unable to load PEM certificate: no CERTIFICATE block found")
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		return describeCertificate(cert), nil
	}
}

func describeCertificate(cert *x509.Certificate) *ParsedCertificate {
	return &ParsedCertificate{
		Issuer:             formatName(cert.Issuer),
		Subject:            formatName(cert.Subject),
		SerialNumber:       fmt.Sprintf("%#x", cert.SerialNumber),
		NotBefore:          cert.NotBefore.UTC().Format(validityLayout),
		NotAfter:           cert.NotAfter.UTC().Format(validityLayout),
		Version:            cert.Version - 1,
		SignatureAlgorithm: signatureAlgorithmName(cert),
	}
}

// formatName joins attribute=value pairs in the order they appear in the
// certificate, using OpenSSL long names for attribute types.
func formatName(name pkix.Name) string {
	parts := make([]string, 0, len(name.Names))
	for _, atv := range name.Names {
		parts = append(parts, attributeName(atv.Type)+"="+fmt.Sprint(atv.Value))
	}
	return strings.Join(parts, ", ")
}

var attributeNames = map[string]string{
	"2.5.4.3":                    "commonName",
	"2.5.4.4":                    "surname",
	"2.5.4.5":                    "serialNumber",
	"2.5.4.6":                    "countryName",
	"2.5.4.7":                    "localityName",
	"2.5.4.8":                    "stateOrProvinceName",
	"2.5.4.9":                    "streetAddress",
	"2.5.4.10":                   "organizationName",
	"2.5.4.11":                   "organizationalUnitName",
	"2.5.4.12":                   "title",
	"2.5.4.15":                   "businessCategory",
	"2.5.4.17":                   "postalCode",
	"2.5.4.42":                   "givenName",
	"2.5.4.43":                   "initials",
	"2.5.4.44":                   "generationQualifier",
	"2.5.4.46":                   "dnQualifier",
	"2.5.4.65":                   "pseudonym",
	"2.5.4.97":                   "organizationIdentifier",
	"0.9.2342.19200300.100.1.1":  "userID",
	"0.9.2342.19200300.100.1.25": "domainComponent",
	"1.2.840.113549.1.9.1":       "emailAddress",
	"1.3.6.1.4.1.311.60.2.1.1":   "jurisdictionLocalityName",
	"1.3.6.1.4.1.311.60.2.1.2":   "jurisdictionStateOrProvinceName",
	"1.3.6.1.4.1.311.60.2.1.3":   "jurisdictionCountryName",
}

func attributeName(oid asn1.ObjectIdentifier) string {
	if name, ok := attributeNames[oid.String()]; ok {
		return name
	}
	return oid.String()
}

var signatureAlgorithmNames = map[x509.SignatureAlgorithm]string{
	x509.MD5WithRSA:       "md5WithRSAEncryption",
	x509.SHA1WithRSA:      "sha1WithRSAEncryption",
	x509.SHA256WithRSA:    "sha256WithRSAEncryption",
	x509.SHA384WithRSA:    "sha384WithRSAEncryption",
	x509.SHA512WithRSA:    "sha512WithRSAEncryption",
	x509.SHA256WithRSAPSS: "RSASSA-PSS",
	x509.SHA384WithRSAPSS: "RSASSA-PSS",
	x509.SHA512WithRSAPSS: "RSASSA-PSS",
	x509.DSAWithSHA1:      "dsa-with-sha1",
	x509.DSAWithSHA256:    "dsa-with-sha256",
	x509.ECDSAWithSHA1:    "ecdsa-with-SHA1",
	x509.ECDSAWithSHA256:  "ecdsa-with-SHA256",
	x509.ECDSAWithSHA384:  "ecdsa-with-SHA384",
	x509.ECDSAWithSHA512:  "ecdsa-with-SHA512",
	x509.PureEd25519:      "ed25519",
}

func signatureAlgorithmName(cert *x509.Certificate) string {
	if name, ok := signatureAlgorithmNames[cert.SignatureAlgorithm]; ok {
		return name
	}
	return cert.SignatureAlgorithm.String()
}
