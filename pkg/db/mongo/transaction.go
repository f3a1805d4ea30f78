// Package mongo holds helpers shared by the Mongo-backed repositories.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	apperrors "opacbookings/pkg/errors"
)

// DefaultCommitTimeout bounds how long a booking write may spend committing.
const DefaultCommitTimeout = 5 * time.Second

type TransactionFunc func(ctx mongo.SessionContext) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
	opts   *options.TransactionOptions
}

// NewTransactionManager runs callbacks with snapshot reads and majority
// writes, so an overlap check and the insert it guards see one view.
func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
		opts:   TransactionOptions(DefaultCommitTimeout),
	}
}

func TransactionOptions(commitTimeout time.Duration) *options.TransactionOptions {
	return options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority()).
		SetMaxCommitTime(&commitTimeout)
}

// ExecuteTransaction retries transient commit errors through the driver.
// AppErrors from fn are returned as is so handlers keep their status codes.
func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	}, m.opts)
	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return err
	default:
		return fmt.Errorf("booking transaction: %w", err)
	}
}
