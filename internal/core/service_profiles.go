package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/euicc/internal/store"
)

// ListProfiles returns every profile in the store's natural order.
func (s *Service) ListProfiles(ctx context.Context) ([]Profile, error) {
	docs, err := s.store.Profiles().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	profiles := make([]Profile, 0, len(docs))
	for _, doc := range docs {
		var p Profile
		if err := store.Decode(doc, &p); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// GetProfile returns the profile with the given id.
func (s *Service) GetProfile(ctx context.Context, id string) (*Profile, error) {
	doc, err := s.store.Profiles().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errProfileNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}

	var p Profile
	if err := store.Decode(doc, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return &p, nil
}

// CreateProfile validates in, rejects a duplicate ICCID and persists a new
// disabled-by-default profile.
func (s *Service) CreateProfile(ctx context.Context, in ProfileInput) (*Profile, error) {
	in, err := in.normalize(JSONDefaults)
	if err != nil {
		return nil, err
	}

	exists, err := s.iccidExists(ctx, in.ICCID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errDuplicateICCID(nil)
	}

	p, err := s.insertProfile(ctx, in)
	if errors.Is(err, store.ErrConflict) {
		return nil, errDuplicateICCID(err)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementProfilesCreated()
	auditLogger(ctx).Info("profile created", "id", p.ID, "iccid", p.ICCID)
	return p, nil
}

// UpdateProfile applies the present fields of u and refreshes updated_at.
// Changing the ICCID to one held by another profile is a Conflict.
func (s *Service) UpdateProfile(ctx context.Context, id string, u ProfileUpdate) (*Profile, error) {
	existing, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.Name != nil && *u.Name == "" {
		return nil, BadRequest(CodeInvalidProfile, "name must not be empty")
	}
	if u.ICCID != nil && *u.ICCID == "" {
		return nil, BadRequest(CodeInvalidProfile, "iccid must not be empty")
	}
	if u.Status != nil {
		status, err := normalizeStatus(*u.Status, existing.Status)
		if err != nil {
			return nil, err
		}
		u.Status = &status
	}
	if u.ICCID != nil && *u.ICCID != existing.ICCID {
		exists, err := s.iccidExists(ctx, *u.ICCID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errDuplicateICCID(nil)
		}
	}

	fields := store.Document(u.fields())
	fields["updated_at"] = s.touch(existing.UpdatedAt)

	if err := s.updateProfile(ctx, id, fields); err != nil {
		return nil, err
	}

	auditLogger(ctx).Info("profile updated", "id", id)
	return s.GetProfile(ctx, id)
}

// DeleteProfile removes the profile with the given id.
func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	err := s.store.Profiles().Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return errProfileNotFound()
	}
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", id, err)
	}

	auditLogger(ctx).Info("profile deleted", "id", id)
	return nil
}

// SetProfileStatus moves a profile to enabled or disabled. Repeating the
// same transition is allowed and only refreshes updated_at. Other profiles
// are not touched, so several may be enabled at once.
func (s *Service) SetProfileStatus(ctx context.Context, id, status string) (*Profile, error) {
	if status != StatusEnabled && status != StatusDisabled {
		return nil, BadRequest(CodeInvalidProfile, "invalid status %q", status)
	}

	existing, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := store.Document{
		"status":     status,
		"updated_at": s.touch(existing.UpdatedAt),
	}
	if err := s.updateProfile(ctx, id, fields); err != nil {
		return nil, err
	}

	s.metrics.IncrementStatusChange(status)
	auditLogger(ctx).Info("profile status changed", "id", id, "status", status)
	return s.GetProfile(ctx, id)
}

// EnableProfile sets status to enabled.
func (s *Service) EnableProfile(ctx context.Context, id string) (*Profile, error) {
	return s.SetProfileStatus(ctx, id, StatusEnabled)
}

// DisableProfile sets status to disabled.
func (s *Service) DisableProfile(ctx context.Context, id string) (*Profile, error) {
	return s.SetProfileStatus(ctx, id, StatusDisabled)
}

func (s *Service) iccidExists(ctx context.Context, iccid string) (bool, error) {
	_, err := s.store.Profiles().FindOne(ctx, store.Filter{"iccid": iccid})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("lookup iccid: %w", err)
	}
}

// insertProfile assigns id and timestamps to a normalized input and stores it.
// A unique-index collision is returned as store.ErrConflict.
func (s *Service) insertProfile(ctx context.Context, in ProfileInput) (*Profile, error) {
	now := s.timestamp()
	p := &Profile{
		ID:        s.newID(),
		Name:      in.Name,
		ICCID:     in.ICCID,
		IMSI:      copyString(in.IMSI),
		Ki:        copyString(in.Ki),
		OPc:       copyString(in.OPc),
		Status:    in.Status,
		Standard:  in.Standard,
		CreatedAt: now,
		UpdatedAt: now,
	}

	doc, err := store.Encode(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	if err := s.store.Profiles().Insert(ctx, p.ID, doc); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

func (s *Service) updateProfile(ctx context.Context, id string, fields store.Document) error {
	err := s.store.Profiles().Update(ctx, id, fields)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return errProfileNotFound()
	case errors.Is(err, store.ErrConflict):
		return errDuplicateICCID(err)
	default:
		return fmt.Errorf("update profile %s: %w", id, err)
	}
}
