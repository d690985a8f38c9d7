package service

import (
	"context"
	"strings"
	"time"

	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/repository"
	"github.com/habitmate/habitmate/internal/validation"
)

// ProfileUpdate carries the editable profile fields. Nil fields are left alone.
type ProfileUpdate struct {
	Name        *string `json:"name"`
	Bio         *string `json:"bio"`
	PhoneNumber *string `json:"phoneNumber"`
	Location    *string `json:"location"`
	DateOfBirth *string `json:"dateOfBirth"`
}

type ProfileService struct {
	profileRepo repository.ProfileRepository
}

func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
	}
}

func (s *ProfileService) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	return s.profileRepo.ByUserID(ctx, userID)
}

func (s *ProfileService) UpdateName(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)

	err := validation.ValidateName(name)
	if err != nil {
		return validationError(err)
	}

	return s.profileRepo.UpdateName(ctx, userID, name)
}

func (s *ProfileService) UpdateDetails(ctx context.Context, userID string, update ProfileUpdate) (*model.Profile, error) {
	profile, err := s.profileRepo.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, validationError(err)
		}
		profile.Name = name
	}

	if update.Bio != nil {
		bio := strings.TrimSpace(*update.Bio)
		if err := validation.ValidateBio(bio); err != nil {
			return nil, validationError(err)
		}
		profile.Bio = bio
	}

	if update.PhoneNumber != nil {
		if err := validation.ValidatePhoneNumber(*update.PhoneNumber); err != nil {
			return nil, validationError(err)
		}
		profile.PhoneNumber = strings.TrimSpace(*update.PhoneNumber)
	}

	if update.Location != nil {
		if err := validation.ValidateLocation(*update.Location); err != nil {
			return nil, validationError(err)
		}
		profile.Location = strings.TrimSpace(*update.Location)
	}

	if update.DateOfBirth != nil {
		dob := strings.TrimSpace(*update.DateOfBirth)
		if err := validation.ValidateDateOfBirth(dob, time.Now()); err != nil {
			return nil, validationError(err)
		}
		profile.DateOfBirth = dob
	}

	err = s.profileRepo.UpdateDetails(ctx, profile)
	if err != nil {
		return nil, err
	}

	return profile, nil
}
