package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/repository"
	"github.com/habitmate/habitmate/internal/storage"
	"github.com/habitmate/habitmate/internal/validation"
)

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

// UploadAvatar validates an image upload and replaces the user's avatar with it.
func (s *FileService) UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*model.File, error) {
	err := validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		return nil, validationError(err)
	}

	uploaded, err := s.Upload(ctx, userID, model.FileOwnerUser, userID, model.FileTypeAvatar, file, header, true)
	if err != nil {
		return nil, err
	}

	// Older avatars are superseded; FileByType always returns the newest
	s.deleteOlder(ctx, userID, uploaded.ID)

	return uploaded, nil
}

// Upload stores a file and records it. Any storage or record failure wraps ErrUpload.
// File validation is the caller's job.
func (s *FileService) Upload(ctx context.Context, userID, ownerType, ownerID, fileType string, file multipart.File, header *multipart.FileHeader, isPublic bool) (*model.File, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := uuid.New().String() + ext

	prefix := "private"
	if isPublic {
		prefix = "public"
	}
	storagePath := path.Join(prefix, fileType+"s", filename) // avatar -> avatars

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			contentType = byExt
		}
	}

	err := s.storage.Save(ctx, storagePath, file, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	fileModel := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		Type:         fileType,
		Filename:     filename,
		OriginalName: header.Filename,
		MimeType:     contentType,
		Size:         header.Size,
		StoragePath:  storagePath,
		Public:       isPublic,
		CreatedAt:    time.Now(),
	}

	err = s.fileRepo.Create(ctx, fileModel)
	if err != nil {
		// If the record fails, try to clean up the stored object
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("%w: failed to create file record: %w", ErrUpload, err)
	}

	slog.Info("file uploaded", "user_id", userID, "type", fileType, "path", storagePath)
	return fileModel, nil
}

// Avatar retrieves the newest avatar for an owner
func (s *FileService) Avatar(ctx context.Context, ownerType, ownerID string) (*model.File, error) {
	return s.fileRepo.FileByType(ctx, ownerType, ownerID, model.FileTypeAvatar)
}

// URL returns a fetchable URL for the file
func (s *FileService) URL(ctx context.Context, file *model.File) string {
	if file == nil {
		return ""
	}
	return s.storage.URL(ctx, file.StoragePath, file.Public)
}

// Delete removes a file from storage and database
func (s *FileService) Delete(ctx context.Context, fileID string) error {
	file, err := s.fileRepo.ByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	// Storage delete is best effort
	delErr := s.storage.Delete(ctx, file.StoragePath)
	if delErr != nil {
		slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}

	err = s.fileRepo.Delete(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

// DeleteUserAvatar deletes every avatar the user has uploaded
func (s *FileService) DeleteUserAvatar(ctx context.Context, userID string) error {
	for {
		file, err := s.Avatar(ctx, model.FileOwnerUser, userID)
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		err = s.Delete(ctx, file.ID)
		if err != nil {
			return err
		}
	}
}

func (s *FileService) DeleteAllUserFilesFromStorage(ctx context.Context, userID string) error {
	files, err := s.fileRepo.AllUserFiles(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user files: %w", err)
	}

	for _, file := range files {
		err = s.storage.Delete(ctx, file.StoragePath)
		if err != nil {
			// Physical file may already be gone
			slog.Warn("failed to delete file from storage", "storage_path", file.StoragePath, "error", err)
		}
	}

	return nil
}

func (s *FileService) deleteOlder(ctx context.Context, userID, keepID string) {
	files, err := s.fileRepo.AllUserFiles(ctx, userID)
	if err != nil {
		slog.Warn("failed to list previous avatars", "user_id", userID, "error", err)
		return
	}

	for _, file := range files {
		if file.ID == keepID || file.Type != model.FileTypeAvatar {
			continue
		}
		if err := s.Delete(ctx, file.ID); err != nil {
			slog.Warn("failed to delete previous avatar", "file_id", file.ID, "error", err)
		}
	}
}
