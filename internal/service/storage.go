package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/forkcast/backend/config"
)

// StorageService handles recipe image storage in S3.
type StorageService struct {
	s3Config *config.S3Config
}

// NewStorageService creates a new StorageService instance
func NewStorageService(s3Config *config.S3Config) *StorageService {
	return &StorageService{s3Config: s3Config}
}

// UploadRecipeImage stores image data under a generated key and returns the
// public URL.
func (s *StorageService) UploadRecipeImage(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	key := fmt.Sprintf("recipe-images/%s%s", uuid.New().String(), extensionFor(mimeType))

	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(imageData),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key)
	log.Printf("[StorageService] Uploaded recipe image: %s", publicURL)

	return publicURL, nil
}

func extensionFor(mimeType string) string {
	exts, err := mime.ExtensionsByType(mimeType)
	if err == nil {
		for _, ext := range exts {
			if ext == ".jpg" || ext == ".png" || ext == ".webp" {
				return ext
			}
		}
		if len(exts) > 0 {
			return exts[0]
		}
	}
	if strings.HasPrefix(mimeType, "image/") {
		return "." + strings.TrimPrefix(mimeType, "image/")
	}
	return ""
}
