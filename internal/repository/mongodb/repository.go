package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinicops/reportengine/internal/domain/models"
)

// ErrMissingID is returned for export records without an id.
var ErrMissingID = errors.New("export record id must not be empty")

// ExportLog records every artifact the scheduled export delivers.
type ExportLog interface {
	SaveExportRecord(ctx context.Context, record models.ExportRecord) error
}

// MongoDBRepository implements ExportLog for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository connects to uri and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return newRepository(client, dbName), nil
}

func newRepository(client *mongo.Client, dbName string) *MongoDBRepository {
	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "export_log",
	}
}

// SaveExportRecord inserts one export log entry.
func (r *MongoDBRepository) SaveExportRecord(ctx context.Context, record models.ExportRecord) error {
	if record.ID == "" {
		return ErrMissingID
	}
	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert export record %s: %w", record.Filename, err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
