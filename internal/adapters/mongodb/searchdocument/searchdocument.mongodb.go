package searchdocument

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mmongo"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

const indexCreationTimeout = 5 * time.Second

// Repository provides operations related to domain.SearchDocument
// documents, one per-tenant collection each (spec.md §6, §9).
//
//go:generate mockgen --destination=searchdocument.mock.go --package=searchdocument . Repository
type Repository interface {
	// Upsert writes or replaces the document for (tenantID, d.VersionID),
	// the search-index worker's idempotent projection step.
	Upsert(ctx context.Context, tenantID string, d *domain.SearchDocument) error
	Delete(ctx context.Context, tenantID, versionID string) error
	Search(ctx context.Context, tenantID, repoKey, query string, offset, limit int) ([]*domain.SearchDocument, error)
}

// MongoDBRepository is the MongoDB implementation of Repository.
type MongoDBRepository struct {
	connection *mmongo.Connection
	database   string
}

// NewMongoDBRepository returns a Repository bound to conn.
func NewMongoDBRepository(conn *mmongo.Connection, database string) *MongoDBRepository {
	return &MongoDBRepository{connection: conn, database: database}
}

func (m *MongoDBRepository) collection(db *mongo.Client, tenantID string) *mongo.Collection {
	return db.Database(strings.ToLower(m.database)).Collection(strings.ToLower("search_documents_" + tenantID))
}

func createIndexes(ctx context.Context, coll *mongo.Collection) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, indexCreationTimeout)
	defer cancel()

	_, err := coll.Indexes().CreateMany(ctxWithTimeout, []mongo.IndexModel{
		{Keys: bson.D{{Key: "repo_key", Value: 1}, {Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "search_text", Value: "text"}}},
	})

	return err
}

func (m *MongoDBRepository) Upsert(ctx context.Context, tenantID string, in *domain.SearchDocument) error {
	tracer := mtelemetry.Tracer("mongodb.searchdocument")
	ctx, span := tracer.Start(ctx, "mongodb.upsert_search_document")
	defer span.End()

	db, err := m.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database", err)
		return apperrors.ValidateInternalError(err, reflect.TypeOf(domain.SearchDocument{}).Name())
	}

	coll := m.collection(db, tenantID)

	if err := createIndexes(ctx, coll); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to create indexes", err)
		return apperrors.ValidateInternalError(err, reflect.TypeOf(domain.SearchDocument{}).Name())
	}

	record := &MongoDBModel{}
	record.FromEntity(in)
	record.TenantID = tenantID

	_, err = coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: record.VersionID}},
		record,
		options.Replace().SetUpsert(true))
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to upsert search document", err)
		return apperrors.ValidateInternalError(err, reflect.TypeOf(domain.SearchDocument{}).Name())
	}

	return nil
}

func (m *MongoDBRepository) Delete(ctx context.Context, tenantID, versionID string) error {
	tracer := mtelemetry.Tracer("mongodb.searchdocument")
	ctx, span := tracer.Start(ctx, "mongodb.delete_search_document")
	defer span.End()

	db, err := m.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database", err)
		return apperrors.ValidateInternalError(err, reflect.TypeOf(domain.SearchDocument{}).Name())
	}

	coll := m.collection(db, tenantID)

	if _, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: versionID}}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to delete search document", err)
		return apperrors.ValidateInternalError(err, reflect.TypeOf(domain.SearchDocument{}).Name())
	}

	return nil
}

func (m *MongoDBRepository) Search(ctx context.Context, tenantID, repoKey, query string, offset, limit int) ([]*domain.SearchDocument, error) {
	tracer := mtelemetry.Tracer("mongodb.searchdocument")
	ctx, span := tracer.Start(ctx, "mongodb.search_search_documents")
	defer span.End()

	db, err := m.connection.GetDB(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get database", err)
		return nil, apperrors.ValidateInternalError(err, reflect.TypeOf(domain.SearchDocument{}).Name())
	}

	coll := m.collection(db, tenantID)

	filter := bson.D{}
	if repoKey != "" {
		filter = append(filter, bson.E{Key: "repo_key", Value: repoKey})
	}

	if query != "" {
		filter = append(filter, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: query}}})
	}

	skip := int64(offset)
	lim := int64(limit)

	cursor, err := coll.Find(ctx, filter, &options.FindOptions{Skip: &skip, Limit: &lim})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to search documents", err)

		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, reflect.TypeOf(domain.SearchDocument{}).Name())
		}

		return nil, apperrors.ValidateInternalError(err, reflect.TypeOf(domain.SearchDocument{}).Name())
	}
	defer cursor.Close(ctx)

	var out []*domain.SearchDocument

	for cursor.Next(ctx) {
		var record MongoDBModel
		if err := cursor.Decode(&record); err != nil {
			mtelemetry.HandleSpanError(&span, "failed to decode search document", err)
			return nil, apperrors.ValidateInternalError(err, reflect.TypeOf(domain.SearchDocument{}).Name())
		}

		out = append(out, record.ToEntity())
	}

	if err := cursor.Err(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to iterate search documents", err)
		return nil, apperrors.ValidateInternalError(err, reflect.TypeOf(domain.SearchDocument{}).Name())
	}

	return out, nil
}
