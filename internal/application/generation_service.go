package application

import (
	"context"
	"encoding/base64"
	"fmt"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentDownloads bounds the image download fan-out of one batch
const maxConcurrentDownloads = 8

// GenerationService sends product images to the generation service and lists its requests
type GenerationService struct {
	generation ports.GenerationService
	images     ports.ImageFetcher
	catalogs   ports.CatalogProvider
	logger     zerolog.Logger
}

// NewGenerationService creates a new generation service
func NewGenerationService(generation ports.GenerationService, images ports.ImageFetcher, catalogs ports.CatalogProvider, logger zerolog.Logger) *GenerationService {
	return &GenerationService{
		generation: generation,
		images:     images,
		catalogs:   catalogs,
		logger:     logger,
	}
}

// UploadForGeneration downloads the primary image of every selected product and
// uploads the batch. Image URLs are read from the catalog, never from the caller.
// The first failure cancels the other downloads and fails the batch.
func (s *GenerationService) UploadForGeneration(ctx context.Context, session *domain.Session, productIDs []string) (*domain.GenerationUploadResult, error) {
	if len(productIDs) == 0 {
		return nil, &domain.ErrValidation{Message: "no products selected"}
	}
	gids := make([]string, len(productIDs))
	for i, id := range productIDs {
		gid, err := domain.ProductGID(id)
		if err != nil {
			return nil, err
		}
		gids[i] = gid
	}

	catalog, err := s.catalogs.ForSession(session)
	if err != nil {
		return nil, err
	}

	images := make([]domain.GenerationImage, len(gids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)
	for i, gid := range gids {
		g.Go(func() error {
			product, err := catalog.GetProduct(gctx, gid)
			if err != nil {
				return err
			}
			if product == nil {
				return &domain.ErrNotFound{Resource: "product", ID: gid}
			}
			if len(product.Images) == 0 || product.Images[0].URL == "" {
				return &domain.ErrValidation{Message: fmt.Sprintf("product %s has no image", gid)}
			}
			primary := product.Images[0]

			data, err := s.images.Fetch(gctx, primary.URL)
			if err != nil {
				return &domain.ErrUpstream{Service: "image_download", Err: fmt.Errorf("failed to download image of %s: %w", gid, err)}
			}
			images[i] = domain.GenerationImage{
				ImageID:         primary.ID,
				ImageName:       product.Title,
				ImageData:       base64.StdEncoding.EncodeToString(data),
				ProductSource:   domain.ProductSourceShopify,
				SourceProductID: gid,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("shop", session.Shop).Int("products", len(gids)).Msg("Generation batch aborted")
		return nil, err
	}

	// the shop domain is the generation service's customer id
	result, err := s.generation.UploadImages(ctx, session.Shop, images)
	if err != nil {
		return nil, fmt.Errorf("failed to upload generation batch: %w", err)
	}
	return result, nil
}

// FetchGenerationRequests lists the generation requests of customerID
func (s *GenerationService) FetchGenerationRequests(ctx context.Context, customerID string) ([]domain.GenerationRequest, error) {
	requests, err := s.generation.ListRequests(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch generation requests: %w", err)
	}
	return requests, nil
}
