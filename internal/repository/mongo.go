package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartsCollection = "carts"

type cartDocument struct {
	CartKey   string         `bson:"cart_key"`
	Items     []itemDocument `bson:"items"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

// itemDocument stores the price as its decimal string so no precision is lost.
type itemDocument struct {
	ProductID string `bson:"product_id"`
	Name      string `bson:"name"`
	UnitPrice string `bson:"unit_price"`
	Image     string `bson:"image"`
	Quantity  int    `bson:"quantity"`
}

type MongoRepository struct {
	collection *mongo.Collection
	key        string
}

func NewMongoRepository(db *mongo.Database, cartKey string) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection(cartsCollection),
		key:        cartKey,
	}
}

func (m *MongoRepository) Load(ctx context.Context) ([]domain.LineItem, error) {
	var doc cartDocument

	filter := bson.M{"cart_key": m.key}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []domain.LineItem{}, nil
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	items := make([]domain.LineItem, 0, len(doc.Items))
	for _, d := range doc.Items {
		price, err := decimal.NewFromString(d.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for product %s: %w", d.UnitPrice, d.ProductID, err)
		}
		items = append(items, domain.LineItem{
			ProductID: d.ProductID,
			Name:      d.Name,
			UnitPrice: price,
			Image:     d.Image,
			Quantity:  d.Quantity,
		})
	}
	return items, nil
}

func (m *MongoRepository) Save(ctx context.Context, items []domain.LineItem) error {
	now := time.Now().UTC()

	docs := make([]itemDocument, 0, len(items))
	for _, item := range items {
		docs = append(docs, itemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.String(),
			Image:     item.Image,
			Quantity:  item.Quantity,
		})
	}

	filter := bson.M{"cart_key": m.key}
	update := bson.M{
		"$set": bson.M{
			"items":      docs,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

// CreateIndexes makes cart_key unique and expires carts untouched for 90 days.
func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cart_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(DefaultCartTTL.Seconds())),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
