package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"secondhand/internal/domain"
)

// ConnectMongo connects and pings with a bounded timeout.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// MongoProductRepo reads and writes the products-template collection.
type MongoProductRepo struct {
	collection *mongo.Collection
}

func NewMongoProductRepo(coll *mongo.Collection) *MongoProductRepo {
	return &MongoProductRepo{collection: coll}
}

func (r *MongoProductRepo) find(ctx context.Context, filter bson.M) ([]domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromBSON(d))
	}
	return out, nil
}

func fromBSON(d bson.M) domain.Product {
	id := ""
	switch v := d["_id"].(type) {
	case string:
		id = v
	case primitive.ObjectID:
		id = v.Hex()
	}
	return ProductFromDocument(id, d)
}

func (r *MongoProductRepo) All(ctx context.Context) ([]domain.Product, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoProductRepo) BySeller(ctx context.Context, name string) ([]domain.Product, error) {
	return r.find(ctx, bson.M{"seller.name": name})
}

func (r *MongoProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var d bson.M
	err := r.collection.FindOne(ctx, idFilter(id)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return fromBSON(d), nil
}

// idFilter matches string ids and, for older documents, ObjectID ids.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

func (r *MongoProductRepo) Create(ctx context.Context, p domain.Product) (string, error) {
	p.ID = primitive.NewObjectID().Hex()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Version = 1
	return p.ID, r.insert(ctx, p)
}

func (r *MongoProductRepo) insert(ctx context.Context, p domain.Product) error {
	doc := bson.M(ProductToDocument(p))
	doc["_id"] = p.ID
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *MongoProductRepo) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus, ifVersion int64) error {
	filter := idFilter(id)
	switch {
	case ifVersion == 0:
		// documents written before versioning have no field at all
		filter["$or"] = bson.A{bson.M{"version": 0}, bson.M{"version": bson.M{"$exists": false}}}
	case ifVersion > 0:
		filter["version"] = ifVersion
	}
	update := bson.M{
		"$set": bson.M{"status": string(status), "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.collection.CountDocuments(ctx, idFilter(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (r *MongoProductRepo) Copy(ctx context.Context, id string) (string, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return "", err
	}
	p.ID = primitive.NewObjectID().Hex()
	p.CreatedAt = time.Now().UTC()
	p.Version = 1
	return p.ID, r.insert(ctx, p)
}
