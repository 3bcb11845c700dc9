package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/euicc/internal/logging"
	"github.com/JonMunkholm/euicc/internal/store"
)

// ListCertificates returns every certificate in the store's natural order.
func (s *Service) ListCertificates(ctx context.Context) ([]Certificate, error) {
	docs, err := s.store.Certificates().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}

	certs := make([]Certificate, 0, len(docs))
	for _, doc := range docs {
		var c Certificate
		if err := store.Decode(doc, &c); err != nil {
			return nil, fmt.Errorf("decode certificate: %w", err)
		}
		certs = append(certs, c)
	}
	return certs, nil
}

// GetCertificate returns the certificate with the given id.
func (s *Service) GetCertificate(ctx context.Context, id string) (*Certificate, error) {
	doc, err := s.store.Certificates().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errCertificateNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("get certificate %s: %w", id, err)
	}

	var c Certificate
	if err := store.Decode(doc, &c); err != nil {
		return nil, fmt.Errorf("decode certificate %s: %w", id, err)
	}
	return &c, nil
}

// CreateCertificate stores in as given. The descriptive fields are not
// checked against pem_data.
func (s *Service) CreateCertificate(ctx context.Context, in CertificateInput) (*Certificate, error) {
	if missing := in.missingFields(); len(missing) > 0 {
		return nil, BadRequest(CodeInvalidCertificate, "field required: %s", strings.Join(missing, ", "))
	}

	c := &Certificate{
		ID:           s.newID(),
		Name:         in.Name,
		Issuer:       in.Issuer,
		Subject:      in.Subject,
		SerialNumber: in.SerialNumber,
		NotBefore:    in.NotBefore,
		NotAfter:     in.NotAfter,
		KeyID:        copyString(in.KeyID),
		CRLURL:       copyString(in.CRLURL),
		Standard:     copyString(in.Standard),
		PEMData:      in.PEMData,
		CreatedAt:    s.timestamp(),
	}

	doc, err := store.Encode(c)
	if err != nil {
		return nil, fmt.Errorf("encode certificate: %w", err)
	}
	if err := s.store.Certificates().Insert(ctx, c.ID, doc); err != nil {
		return nil, fmt.Errorf("insert certificate: %w", err)
	}

	s.metrics.IncrementCertificatesCreated()
	auditLogger(ctx).Info("certificate created", "id", c.ID, "name", c.Name)
	return c, nil
}

// DeleteCertificate removes the certificate with the given id.
func (s *Service) DeleteCertificate(ctx context.Context, id string) error {
	err := s.store.Certificates().Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return errCertificateNotFound()
	}
	if err != nil {
		return fmt.Errorf("delete certificate %s: %w", id, err)
	}

	auditLogger(ctx).Info("certificate deleted", "id", id)
	return nil
}

// ParseCertificate decodes pemData for preview. Nothing is persisted.
func (s *Service) ParseCertificate(ctx context.Context, pemData string) (*ParsedCertificate, error) {
	if pemData == "" {
		return nil, BadRequest(CodePEMRequired, "PEM data is required")
	}

	parsed, err := s.decoder.Decode([]byte(pemData))
	if err != nil {
		s.metrics.RecordParse(false)
		logging.FromContext(ctx).Debug("certificate parse failed", "error", err)
		return nil, &Error{
			Kind:    KindBadRequest,
			Code:    CodeCertificateParse,
			Message: "Error parsing certificate: " + err.Error(),
			Err:     err,
		}
	}

	s.metrics.RecordParse(true)
	return parsed, nil
}

func (in CertificateInput) missingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", in.Name},
		{"issuer", in.Issuer},
		{"subject", in.Subject},
		{"serial_number", in.SerialNumber},
		{"not_before", in.NotBefore},
		{"not_after", in.NotAfter},
		{"pem_data", in.PEMData},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
