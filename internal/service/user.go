package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/repository"
	"github.com/habitmate/habitmate/internal/validation"
)

var (
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
)

type UserService struct {
	userRepository       repository.UserRepository
	profileRepository    repository.ProfileRepository
	habitRepository      repository.HabitRepository
	completionRepository repository.CompletionRepository
	cache                HabitCache
	fileService          *FileService
	emailService         *EmailService
}

func NewUserService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	habitRepository repository.HabitRepository,
	completionRepository repository.CompletionRepository,
	cache HabitCache,
	fileService *FileService,
	emailService *EmailService,
) *UserService {
	return &UserService{
		userRepository:       userRepository,
		profileRepository:    profileRepository,
		habitRepository:      habitRepository,
		completionRepository: completionRepository,
		cache:                cache,
		fileService:          fileService,
		emailService:         emailService,
	}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Populate avatar URL
	avatar, err := s.fileService.Avatar(ctx, model.FileOwnerUser, id)
	if err == nil {
		user.AvatarURL = s.fileService.URL(ctx, avatar)
	}

	return user, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword))
	if err != nil {
		return ErrInvalidCurrentPassword
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		return validationError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepository.UpdatePassword(ctx, userID, string(hashedPassword))
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password updated", "user_id", userID)
	return nil
}

// DeleteAccount removes the user and everything they own: stored files, habits
// with their completions, and the cached list.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	profile, err := s.profileRepository.ByUserID(ctx, userID)
	if err != nil {
		slog.Warn("failed to get profile for deletion email", "user_id", userID, "error", err)
	}

	name := "there"
	if profile != nil && profile.Name != "" {
		name = profile.Name
	}

	err = s.fileService.DeleteAllUserFilesFromStorage(ctx, userID)
	if err != nil {
		// Orphaned objects are better than a failed deletion
		slog.Warn("failed to delete user files from storage", "user_id", userID, "error", err)
	}

	err = s.deleteHabits(ctx, userID)
	if err != nil {
		return err
	}

	err = s.cache.Clear(ctx, userID)
	if err != nil {
		slog.Warn("failed to clear habit cache", "user_id", userID, "error", err)
	}

	err = s.emailService.SendAccountDeletedEmail(ctx, user.Email, name)
	if err != nil {
		slog.Warn("failed to send account deleted email", "user_id", userID, "email", user.Email, "error", err)
	}

	// Profiles and file records cascade with the user row
	err = s.userRepository.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("account deleted", "user_id", userID)
	return nil
}

// deleteHabits clears completions per habit first; document stores have no cascade.
func (s *UserService) deleteHabits(ctx context.Context, userID string) error {
	habits, err := s.habitRepository.Habits(ctx, userID)
	if err != nil {
		return transportError("list habits for deletion", err)
	}

	for _, habit := range habits {
		err = s.completionRepository.DeleteForHabit(ctx, userID, habit.ID)
		if err != nil {
			return transportError("delete completions", err)
		}
	}

	err = s.habitRepository.DeleteAll(ctx, userID)
	if err != nil {
		return transportError("delete habits", err)
	}
	return nil
}
