package ports

import (
	"context"

	"cartesian-metadata-app/internal/domain"
)

// GenerationService is the external metadata-generation API
type GenerationService interface {
	UploadImages(ctx context.Context, customerID string, images []domain.GenerationImage) (*domain.GenerationUploadResult, error)
	ListRequests(ctx context.Context, customerID string) ([]domain.GenerationRequest, error)
}

// ImageFetcher downloads image bytes
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
