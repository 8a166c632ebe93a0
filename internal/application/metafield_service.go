package application

import (
	"context"
	"fmt"
	"strconv"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/infrastructure/metrics"
	"cartesian-metadata-app/internal/ports"

	"github.com/rs/zerolog"
)

const metaobjectCreateOperation = "metaobject_create"

// MetafieldService applies metadata mutations to the catalog
type MetafieldService struct {
	catalogs  ports.CatalogProvider
	stores    *StoreService
	namespace string
	bulkMax   int
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewMetafieldService creates a new metafield service
func NewMetafieldService(
	catalogs ports.CatalogProvider,
	stores *StoreService,
	namespace string,
	bulkMax int,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *MetafieldService {
	return &MetafieldService{
		catalogs:  catalogs,
		stores:    stores,
		namespace: namespace,
		bulkMax:   bulkMax,
		metrics:   m,
		logger:    logger,
	}
}

// UpdateProductMetafields sends the full edited set in one mutation and maps
// every user error back to the edit it refers to.
func (s *MetafieldService) UpdateProductMetafields(ctx context.Context, session *domain.Session, productID string, edits []domain.MetafieldEdit) (*domain.MetafieldUpdateResult, error) {
	gid, err := domain.ProductGID(productID)
	if err != nil {
		return nil, err
	}
	if len(edits) == 0 {
		return nil, &domain.ErrValidation{Message: "no metafield edits given"}
	}
	for i := range edits {
		if edits[i].ID == "" {
			if edits[i].Key == "" || edits[i].Type == "" {
				return nil, &domain.ErrValidation{Message: fmt.Sprintf("edit %d: new metafields need a key and a type", i)}
			}
			if edits[i].Namespace == "" {
				edits[i].Namespace = s.namespace
			}
		}
	}

	catalog, err := s.catalogs.ForSession(session)
	if err != nil {
		return nil, err
	}
	updated, userErrs, err := catalog.UpdateProductMetafields(ctx, gid, edits)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", session.Shop).Str("productId", gid).Msg("Failed to update metafields")
		return nil, err
	}

	keys := make([]string, len(edits))
	for i, e := range edits {
		keys[i] = e.Key
	}
	result := buildUpdateResult(keys, userErrs)
	result.Metafields = updated

	log := s.logger.Info()
	if !result.Success {
		log = s.logger.Warn()
	}
	log.Str("shop", session.Shop).
		Str("productId", gid).
		Int("edits", len(edits)).
		Int("userErrors", len(userErrs)).
		Msg("Product metafields update processed")

	return result, nil
}

// AddMetafields creates new metafields under the app namespace, within the plan quota
func (s *MetafieldService) AddMetafields(ctx context.Context, session *domain.Session, productID string, fields []domain.Metafield) (*domain.MetafieldUpdateResult, error) {
	gid, err := domain.ProductGID(productID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, &domain.ErrValidation{Message: "no metafields given"}
	}
	keys := make([]string, len(fields))
	for i := range fields {
		if fields[i].Key == "" || fields[i].Type == "" {
			return nil, &domain.ErrValidation{Message: fmt.Sprintf("metafield %d: key and type are required", i)}
		}
		fields[i].ID = ""
		fields[i].Namespace = s.namespace
		keys[i] = fields[i].Key
	}

	if err := s.stores.CheckQuota(ctx, session.Shop, len(fields)); err != nil {
		return nil, err
	}

	catalog, err := s.catalogs.ForSession(session)
	if err != nil {
		return nil, err
	}
	created, userErrs, err := catalog.SetMetafields(ctx, gid, fields)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", session.Shop).Str("productId", gid).Msg("Failed to add metafields")
		return nil, err
	}

	result := buildUpdateResult(keys, userErrs)
	result.Metafields = created
	if result.Success {
		if _, err := s.stores.RecordUsage(ctx, session.Shop, len(created)); err != nil {
			// the metafields exist on the platform; only the counter is behind
			s.logger.Warn().Err(err).Str("shop", session.Shop).Msg("Usage not recorded for created metafields")
		}
	}

	s.logger.Info().
		Str("shop", session.Shop).
		Str("productId", gid).
		Int("created", len(created)).
		Int("userErrors", len(userErrs)).
		Msg("Metafields added")

	return result, nil
}

// CreateMetaobject creates the lookbook metaobject of one product
func (s *MetafieldService) CreateMetaobject(ctx context.Context, session *domain.Session, productID string, values map[string]string) (*domain.ItemOutcome, error) {
	catalog, err := s.catalogs.ForSession(session)
	if err != nil {
		return nil, err
	}
	outcome := s.createLookbook(ctx, catalog, session.Shop, productID, values)
	return &outcome, nil
}

// BulkCreateMetaobjects creates one lookbook per product, sequentially. A failed
// item is recorded and the loop moves on.
func (s *MetafieldService) BulkCreateMetaobjects(ctx context.Context, session *domain.Session, productIDs []string, values map[string]string) (*domain.BatchResult, error) {
	if len(productIDs) == 0 {
		return nil, &domain.ErrValidation{Message: "no products selected"}
	}
	if s.bulkMax > 0 && len(productIDs) > s.bulkMax {
		return nil, &domain.ErrValidation{Message: fmt.Sprintf("at most %d products per batch, got %d", s.bulkMax, len(productIDs))}
	}

	catalog, err := s.catalogs.ForSession(session)
	if err != nil {
		return nil, err
	}

	outcomes := make([]domain.ItemOutcome, 0, len(productIDs))
	for _, id := range productIDs {
		outcomes = append(outcomes, s.createLookbook(ctx, catalog, session.Shop, id, values))
	}

	result := &domain.BatchResult{Outcomes: outcomes, Summary: domain.Summarize(outcomes)}
	s.logger.Info().
		Str("shop", session.Shop).
		Int("total", result.Summary.Total).
		Int("succeeded", result.Summary.Succeeded).
		Int("failed", result.Summary.Failed).
		Msg("Metaobject batch processed")

	return result, nil
}

func (s *MetafieldService) createLookbook(ctx context.Context, catalog ports.CatalogWriter, shop, productID string, values map[string]string) domain.ItemOutcome {
	outcome := domain.ItemOutcome{ItemID: productID, Status: domain.ItemFailed}
	defer func() { s.metrics.BatchItem(metaobjectCreateOperation, outcome.Status) }()

	gid, err := domain.ProductGID(productID)
	if err != nil {
		outcome.Errors = []domain.FieldError{{Message: err.Error()}}
		return outcome
	}
	outcome.ItemID = gid

	created, userErrs, err := catalog.CreateMetaobject(ctx, lookbookFor(gid, values))
	switch {
	case err != nil:
		s.logger.Error().Err(err).Str("shop", shop).Str("productId", gid).Msg("Failed to create metaobject")
		outcome.Errors = []domain.FieldError{{Message: err.Error()}}
	case len(userErrs) > 0:
		s.logger.Warn().Str("shop", shop).Str("productId", gid).Str("error", userErrs[0].Message).Msg("Metaobject rejected")
		outcome.Errors = userErrs
	default:
		outcome.Status = domain.ItemCreated
		outcome.ResourceID = created.ID
	}
	return outcome
}

// lookbookFor builds the fixed lookbook field set. Missing values are sent empty.
func lookbookFor(productGID string, values map[string]string) domain.Metaobject {
	fields := make([]domain.MetaobjectField, 0, len(domain.LookbookFields)+1)
	fields = append(fields, domain.MetaobjectField{Key: domain.LookbookProductField, Value: productGID})
	for _, key := range domain.LookbookFields {
		fields = append(fields, domain.MetaobjectField{Key: key, Value: values[key]})
	}
	return domain.Metaobject{
		Handle: domain.LookbookHandle(productGID),
		Type:   domain.LookbookType,
		Fields: fields,
	}
}

// buildUpdateResult assigns user errors to edits by the index in their field path
// (["metafields", "<i>", ...]). Edits without an error are ok when nothing was
// rejected and not_applied otherwise.
func buildUpdateResult(keys []string, userErrs []domain.FieldError) *domain.MetafieldUpdateResult {
	result := &domain.MetafieldUpdateResult{
		Success: len(userErrs) == 0,
		Fields:  make([]domain.FieldOutcome, len(keys)),
		Errors:  userErrs,
	}
	for i, key := range keys {
		status := domain.FieldOK
		if !result.Success {
			status = domain.FieldNotApplied
		}
		result.Fields[i] = domain.FieldOutcome{Index: i, Key: key, Status: status}
	}
	for _, e := range userErrs {
		i, ok := editIndex(e.Field, len(keys))
		if !ok {
			continue
		}
		result.Fields[i].Status = domain.FieldFailed
		result.Fields[i].Messages = append(result.Fields[i].Messages, e.Message)
	}
	return result
}

func editIndex(path []string, n int) (int, bool) {
	if len(path) < 2 || path[0] != "metafields" {
		return 0, false
	}
	i, err := strconv.Atoi(path[1])
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}
