package core

import "time"

// Profile status values.
const (
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

// DefaultStandard is applied when a profile does not name a standard.
const DefaultStandard = "SGP.22"

// TimestampLayout formats created_at/updated_at in UTC with microseconds.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// FormatTimestamp renders t in TimestampLayout after converting to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Profile is one carrier configuration loaded onto an eUICC.
type Profile struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ICCID     string  `json:"iccid"`
	IMSI      *string `json:"imsi"`
	Ki        *string `json:"ki"`
	OPc       *string `json:"opc"`
	Status    string  `json:"status"`
	Standard  string  `json:"standard"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// ProfileInput carries the caller-supplied fields of a new profile.
// Empty Status and Standard fall back to their defaults.
type ProfileInput struct {
	Name     string  `json:"name"`
	ICCID    string  `json:"iccid"`
	IMSI     *string `json:"imsi"`
	Ki       *string `json:"ki"`
	OPc      *string `json:"opc"`
	Status   string  `json:"status"`
	Standard string  `json:"standard"`
}

// ProfileUpdate is a partial update. A nil field is left untouched;
// JSON null and an omitted key are equivalent.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	ICCID    *string `json:"iccid"`
	IMSI     *string `json:"imsi"`
	Ki       *string `json:"ki"`
	OPc      *string `json:"opc"`
	Status   *string `json:"status"`
	Standard *string `json:"standard"`
}

// fields returns the present fields keyed by their stored names. The store
// merges them over the existing document.
func (u ProfileUpdate) fields() map[string]any {
	out := make(map[string]any, 8)
	set := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}
	set("name", u.Name)
	set("iccid", u.ICCID)
	set("imsi", u.IMSI)
	set("ki", u.Ki)
	set("opc", u.OPc)
	set("status", u.Status)
	set("standard", u.Standard)
	return out
}

// Certificate is a stored X.509 certificate with caller-supplied metadata.
type Certificate struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Issuer       string  `json:"issuer"`
	Subject      string  `json:"subject"`
	SerialNumber string  `json:"serial_number"`
	NotBefore    string  `json:"not_before"`
	NotAfter     string  `json:"not_after"`
	KeyID        *string `json:"key_id"`
	CRLURL       *string `json:"crl_url"`
	Standard     *string `json:"standard"`
	PEMData      string  `json:"pem_data"`
	CreatedAt    string  `json:"created_at"`
}

// CertificateInput carries the caller-supplied fields of a new certificate.
type CertificateInput struct {
	Name         string  `json:"name"`
	Issuer       string  `json:"issuer"`
	Subject      string  `json:"subject"`
	SerialNumber string  `json:"serial_number"`
	NotBefore    string  `json:"not_before"`
	NotAfter     string  `json:"not_after"`
	KeyID        *string `json:"key_id"`
	CRLURL       *string `json:"crl_url"`
	Standard     *string `json:"standard"`
	PEMData      string  `json:"pem_data"`
}

// ParsedCertificate is the display preview of a decoded certificate.
type ParsedCertificate struct {
	Issuer             string `json:"issuer"`
	Subject            string `json:"subject"`
	SerialNumber       string `json:"serial_number"`
	NotBefore          string `json:"not_before"`
	NotAfter           string `json:"not_after"`
	Version            int    `json:"version"`
	SignatureAlgorithm string `json:"signature_algorithm"`
}

// RawFields is an untyped bag of profile fields as received from an import source.
type RawFields map[string]any

// SkippedRecord explains why an import candidate was not persisted.
// Exactly one of ICCID, Row, or Data identifies the record.
type SkippedRecord struct {
	ICCID  string            `json:"iccid,omitempty"`
	Row    map[string]string `json:"row,omitempty"`
	Data   RawFields         `json:"data,omitempty"`
	Reason string            `json:"reason"`
}

// Skip reasons reported in import results.
const (
	ReasonMissingICCID  = "Missing ICCID"
	ReasonAlreadyExists = "Already exists"
	ReasonInvalidStatus = "Invalid status"
)

// ImportResult reports the per-record outcome of a bulk import.
type ImportResult struct {
	Success       bool            `json:"success"`
	ImportedCount int             `json:"imported_count"`
	SkippedCount  int             `json:"skipped_count"`
	Imported      []Profile       `json:"imported"`
	Skipped       []SkippedRecord `json:"skipped"`
}

// ScanResult is the preview produced by ScanText.
type ScanResult struct {
	Success       bool                `json:"success"`
	ProfilesFound int                 `json:"profiles_found"`
	Profiles      []map[string]string `json:"profiles"`
}

// Stats are live counts over both collections.
type Stats struct {
	TotalProfiles     int64 `json:"total_profiles"`
	EnabledProfiles   int64 `json:"enabled_profiles"`
	DisabledProfiles  int64 `json:"disabled_profiles"`
	TotalCertificates int64 `json:"total_certificates"`
}

// DeleteResult is the confirmation returned after a delete.
type DeleteResult struct {
	Message string `json:"message"`
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
