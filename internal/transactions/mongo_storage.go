package transactions

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStorage stores transactions in a MongoDB collection.
type MongoStorage struct {
	coll *mongo.Collection
}

// NewMongoStorage wraps an existing collection. The caller owns the client.
func NewMongoStorage(coll *mongo.Collection) *MongoStorage {
	return &MongoStorage{coll: coll}
}

// ConnectMongo dials uri and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	return client, nil
}

// ReplaceAll empties the collection and bulk-inserts txs. IDs are assigned by the server.
func (s *MongoStorage) ReplaceAll(ctx context.Context, txs []Transaction) (int, error) {
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return 0, fmt.Errorf("clearing collection: %w", err)
	}
	if len(txs) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(txs))
	for _, t := range txs {
		t.ID = ""
		docs = append(docs, t)
	}

	res, err := s.coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("inserting transactions: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// Read loads one transaction by its ObjectID hex string.
func (s *MongoStorage) Read(ctx context.Context, id string) (*Transaction, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var t Transaction
	err = s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Find returns one page of matching transactions in natural order.
func (s *MongoStorage) Find(ctx context.Context, q Query) ([]Transaction, error) {
	opts := options.Find().
		SetSkip(int64(q.Skip())).
		SetLimit(int64(q.PerPage))

	cur, err := s.coll.Find(ctx, filterDocument(q.Filter), opts)
	if err != nil {
		return nil, err
	}

	out := make([]Transaction, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of matching transactions.
func (s *MongoStorage) Count(ctx context.Context, f Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, filterDocument(f))
}

// Summarize runs a single $group over the matching transactions.
func (s *MongoStorage) Summarize(ctx context.Context, f Filter) (Statistics, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filterDocument(f)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalAmount", Value: bson.D{{Key: "$sum", Value: "$price"}}},
			{Key: "soldItems", Value: countWhereSold(true)},
			{Key: "notSoldItems", Value: countWhereSold(false)},
		}}},
	}

	var rows []Statistics
	if err := s.aggregate(ctx, pipeline, &rows); err != nil {
		return Statistics{}, err
	}
	if len(rows) == 0 {
		return Statistics{}, nil
	}
	return rows[0], nil
}

// GroupByCategory counts matching transactions per category.
func (s *MongoStorage) GroupByCategory(ctx context.Context, f Filter) ([]CategoryCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filterDocument(f)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	out := make([]CategoryCount, 0)
	if err := s.aggregate(ctx, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStorage) aggregate(ctx context.Context, pipeline mongo.Pipeline, results interface{}) error {
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cur.All(ctx, results)
}

func countWhereSold(sold bool) bson.D {
	return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$sold", sold}}}, 1, 0,
	}}}}}
}

// filterDocument translates a Filter into a query document usable both as a
// Find filter and as a $match stage.
func filterDocument(f Filter) bson.D {
	clauses := bson.A{
		bson.D{{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{
			bson.D{{Key: "$month", Value: "$dateOfSale"}}, f.Month,
		}}}}},
	}

	if f.Price != nil {
		price := bson.D{{Key: "$gte", Value: f.Price.Min}}
		if f.Price.Bounded() {
			price = append(price, bson.E{Key: "$lt", Value: f.Price.Max})
		}
		clauses = append(clauses, bson.D{{Key: "price", Value: price}})
	}

	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		or := bson.A{
			bson.D{{Key: "title", Value: pattern}},
			bson.D{{Key: "description", Value: pattern}},
		}
		if price, ok := f.searchPrice(); ok {
			or = append(or, bson.D{{Key: "price", Value: price}})
		}
		clauses = append(clauses, bson.D{{Key: "$or", Value: or}})
	}

	return bson.D{{Key: "$and", Value: clauses}}
}
