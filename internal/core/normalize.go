package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidStatus marks a status outside the enabled/disabled enum.
var ErrInvalidStatus = errors.New("invalid status")

// Defaults is the table of fallback values applied when normalizing raw
// fields into a profile. A nil Name means the name is required.
type Defaults struct {
	Name     func(iccid string) string
	Standard string
	Status   string
}

// Default tables per ingestion path.
var (
	// JSONDefaults applies to direct creates and JSON imports.
	JSONDefaults = Defaults{
		Standard: DefaultStandard,
		Status:   StatusDisabled,
	}

	CSVDefaults = Defaults{
		Name:     func(string) string { return "Imported Profile" },
		Standard: DefaultStandard,
		Status:   StatusDisabled,
	}

	TextDefaults = Defaults{
		Name:     func(iccid string) string { return "Profile " + firstRunes(iccid, 10) },
		Standard: DefaultStandard,
		Status:   StatusDisabled,
	}
)

// NormalizeProfile builds a ProfileInput from an untyped field bag,
// applying d for absent or empty name, standard and status. Unknown keys
// are ignored. Known keys must hold strings or null.
func NormalizeProfile(fields RawFields, d Defaults) (ProfileInput, error) {
	var in ProfileInput
	var err error

	if in.Name, err = fields.String("name"); err != nil {
		return ProfileInput{}, err
	}
	if in.ICCID, err = fields.String("iccid"); err != nil {
		return ProfileInput{}, err
	}
	if in.Status, err = fields.String("status"); err != nil {
		return ProfileInput{}, err
	}
	if in.Standard, err = fields.String("standard"); err != nil {
		return ProfileInput{}, err
	}
	for key, dst := range map[string]**string{"imsi": &in.IMSI, "ki": &in.Ki, "opc": &in.OPc} {
		v, err := fields.String(key)
		if err != nil {
			return ProfileInput{}, err
		}
		if v != "" {
			*dst = &v
		}
	}

	return in.normalize(d)
}

// String returns the string value of key. Absent keys and nulls yield "".
func (f RawFields) String(key string) (string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", BadRequest(CodeInvalidProfile, "field %s must be a string", key)
	}
	return s, nil
}

// normalize validates in and fills defaults from d.
func (in ProfileInput) normalize(d Defaults) (ProfileInput, error) {
	if in.ICCID == "" {
		return ProfileInput{}, BadRequest(CodeInvalidProfile, "field required: iccid")
	}
	if in.Name == "" {
		if d.Name == nil {
			return ProfileInput{}, BadRequest(CodeInvalidProfile, "field required: name")
		}
		in.Name = d.Name(in.ICCID)
	}

	status, err := normalizeStatus(in.Status, d.Status)
	if err != nil {
		return ProfileInput{}, err
	}
	in.Status = status

	if in.Standard == "" {
		in.Standard = d.Standard
	}

	in.IMSI = nonEmpty(in.IMSI)
	in.Ki = nonEmpty(in.Ki)
	in.OPc = nonEmpty(in.OPc)
	return in, nil
}

// normalizeStatus lower-cases s and checks it against the status enum.
// Empty s yields def.
func normalizeStatus(s, def string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return def, nil
	case StatusEnabled, StatusDisabled:
		return s, nil
	default:
		return "", &Error{
			Kind:    KindBadRequest,
			Code:    CodeInvalidProfile,
			Message: fmt.Sprintf("invalid status %q: must be %q or %q", s, StatusEnabled, StatusDisabled),
			Err:     ErrInvalidStatus,
		}
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return copyString(s)
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
