// Package mongostore serves bytes from a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ByteReview/internal/domain"
	"ByteReview/internal/ports"
	"ByteReview/internal/predicate"
)

// Store adapts a collection to ports.ByteStore.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ ports.ByteStore = (*Store)(nil)

// Connect dials uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongodb uri is empty")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Store{client: client, coll: client.Database(database).Collection(collection)}, nil
}

// Close disconnects the client opened by Connect.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) Count(ctx context.Context, p predicate.Predicate) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, Lower(p))
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Find sorts by _id so consecutive pages never overlap.
func (s *Store) Find(ctx context.Context, p predicate.Predicate, opts ports.FindOptions) ([]domain.Document, error) {
	fo := options.Find().SetSort(bson.D{{Key: domain.FieldID, Value: 1}})
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}

	cur, err := s.coll.Find(ctx, Lower(p), fo)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, domain.Document(m))
	}
	return docs, nil
}

func (s *Store) Distinct(ctx context.Context, field string, p predicate.Predicate) ([]any, error) {
	values, err := s.coll.Distinct(ctx, field, Lower(p))
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}

	out := values[:0]
	for _, v := range values {
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Store) UpdateOne(ctx context.Context, p predicate.Predicate, m ports.Mutation) (bool, error) {
	if m.Field == "" || m.Field == domain.FieldID {
		return false, fmt.Errorf("field %q cannot be updated", m.Field)
	}

	res, err := s.coll.UpdateOne(ctx, Lower(p), Update(m))
	if err != nil {
		return false, fmt.Errorf("update %s: %w", m.Field, err)
	}
	return res.ModifiedCount > 0, nil
}

// Update renders a mutation as a $set or $unset document.
func Update(m ports.Mutation) bson.D {
	if m.Unset {
		return bson.D{{Key: "$unset", Value: bson.D{{Key: m.Field, Value: ""}}}}
	}
	return bson.D{{Key: "$set", Value: bson.D{{Key: m.Field, Value: m.Value}}}}
}

// Lower translates a predicate into a query document.
func Lower(p predicate.Predicate) bson.D {
	switch p.Op {
	case predicate.OpAll:
		return bson.D{}
	case predicate.OpEquals:
		return bson.D{{Key: p.Field, Value: p.Value}}
	case predicate.OpIn:
		values := p.Values
		if values == nil {
			values = []any{}
		}
		return bson.D{{Key: p.Field, Value: bson.D{{Key: "$in", Value: values}}}}
	case predicate.OpExists:
		want, _ := p.Value.(bool)
		return bson.D{{Key: p.Field, Value: bson.D{{Key: "$exists", Value: want}}}}
	case predicate.OpContains:
		needle, _ := p.Value.(string)
		return bson.D{{Key: p.Field, Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(needle)},
			{Key: "$options", Value: "i"},
		}}}
	case predicate.OpAnd:
		return bson.D{{Key: "$and", Value: lowerAll(p.Children)}}
	case predicate.OpOr:
		if len(p.Children) == 0 {
			return matchNothing()
		}
		return bson.D{{Key: "$or", Value: lowerAll(p.Children)}}
	case predicate.OpNot:
		if len(p.Children) != 1 {
			return matchNothing()
		}
		return bson.D{{Key: "$nor", Value: bson.A{Lower(p.Children[0])}}}
	default:
		return matchNothing()
	}
}

func lowerAll(children []predicate.Predicate) bson.A {
	out := make(bson.A, 0, len(children))
	for _, c := range children {
		out = append(out, Lower(c))
	}
	return out
}

func matchNothing() bson.D {
	return bson.D{{Key: domain.FieldID, Value: bson.D{{Key: "$exists", Value: false}}}}
}
