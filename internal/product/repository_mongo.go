package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const productsCollection = "products"

// MongoRepository stores products in the `products` collection keyed by the
// string `id` field rather than `_id`.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(productsCollection)}
}

// EnsureIndexes creates the unique id index and the createdAt sort index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

func buildMongoFilter(f Filter) bson.D {
	q := bson.D{}
	if f.Category != "" {
		q = append(q, bson.E{Key: "category", Value: string(f.Category)})
	}
	if len(f.StyleTags) > 0 {
		q = append(q, bson.E{Key: "styleTags", Value: bson.D{{Key: "$in", Value: f.StyleTags}}})
	}
	if f.Search != "" {
		rx := bson.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q = append(q, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: rx}},
			bson.D{{Key: "description", Value: rx}},
		}})
	}
	return q
}

func (r *MongoRepository) List(ctx context.Context, f Filter) ([]Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: 1}}).
		SetLimit(int64(f.limit())).
		SetSkip(int64(f.offset()))

	cursor, err := r.coll.Find(ctx, buildMongoFilter(f), opts)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.coll.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *MongoRepository) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, p Product) (Product, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p.ID = id
	p.CreatedAt = existing.CreatedAt
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "id", Value: id}}, p)
	if err != nil {
		return Product{}, err
	}
	if res.MatchedCount == 0 {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Reset empties the collection and inserts products one by one. Standalone
// deployments have no transactions, so a failure can leave a partial catalog.
func (r *MongoRepository) Reset(ctx context.Context, products []Product) error {
	if _, err := r.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return err
	}
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, err := r.coll.InsertOne(ctx, p); err != nil {
			return fmt.Errorf("insert %q: %w", p.Name, err)
		}
	}
	return nil
}

// Count returns the number of stored products.
func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}
