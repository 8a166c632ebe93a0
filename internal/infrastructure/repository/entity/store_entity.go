package entity

import (
	"time"

	"cartesian-metadata-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoStoreDoc represents a store registry record in MongoDB
type MongoStoreDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	ShopDomain        string             `bson:"shopDomain"`
	OwnerEmail        string             `bson:"ownerEmail"`
	Plan              string             `bson:"plan"`
	LastReset         time.Time          `bson:"lastReset"`
	MetafieldsCreated int                `bson:"metafieldsCreated"`
	CreatedAt         time.Time          `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoStoreDoc) ToDomain() *domain.Store {
	return &domain.Store{
		ShopDomain:        d.ShopDomain,
		OwnerEmail:        d.OwnerEmail,
		Plan:              domain.Plan(d.Plan),
		LastReset:         d.LastReset.UTC(),
		MetafieldsCreated: d.MetafieldsCreated,
		CreatedAt:         d.CreatedAt.UTC(),
	}
}

// MongoStoreDocFromDomain converts a domain entity to a MongoDB document
func MongoStoreDocFromDomain(store *domain.Store) *MongoStoreDoc {
	return &MongoStoreDoc{
		ShopDomain:        store.ShopDomain,
		OwnerEmail:        store.OwnerEmail,
		Plan:              string(store.Plan),
		LastReset:         store.LastReset,
		MetafieldsCreated: store.MetafieldsCreated,
		CreatedAt:         store.CreatedAt,
	}
}

// SQLStoreRow is the stores table row. Timestamps are RFC3339 text so the
// same schema works on SQLite and Postgres.
type SQLStoreRow struct {
	ShopDomain        string `db:"shop_domain"`
	OwnerEmail        string `db:"owner_email"`
	Plan              string `db:"plan"`
	LastReset         string `db:"last_reset"`
	MetafieldsCreated int    `db:"metafields_created"`
	CreatedAt         string `db:"created_at"`
}

// ToDomain converts the row to a domain entity
func (r *SQLStoreRow) ToDomain() (*domain.Store, error) {
	lastReset, err := time.Parse(time.RFC3339Nano, r.LastReset)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Store{
		ShopDomain:        r.ShopDomain,
		OwnerEmail:        r.OwnerEmail,
		Plan:              domain.Plan(r.Plan),
		LastReset:         lastReset.UTC(),
		MetafieldsCreated: r.MetafieldsCreated,
		CreatedAt:         createdAt.UTC(),
	}, nil
}

// SQLStoreRowFromDomain converts a domain entity to a table row
func SQLStoreRowFromDomain(store *domain.Store) *SQLStoreRow {
	return &SQLStoreRow{
		ShopDomain:        store.ShopDomain,
		OwnerEmail:        store.OwnerEmail,
		Plan:              string(store.Plan),
		LastReset:         FormatTime(store.LastReset),
		MetafieldsCreated: store.MetafieldsCreated,
		CreatedAt:         FormatTime(store.CreatedAt),
	}
}

// FormatTime renders t the way timestamps are stored in SQL
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
