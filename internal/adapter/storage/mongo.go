package storage

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/rvishnu/stockdesk/internal/core/domain"
)

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// mapDuplicateKey converts a unique-index violation into the domain error,
// guessing the offending field from the index name in the server message.
func mapDuplicateKey(err error, fields ...string) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	for _, f := range fields {
		if strings.Contains(msg, f) {
			return &domain.DuplicateKeyError{Field: f}
		}
	}
	return &domain.DuplicateKeyError{Field: fields[0]}
}
