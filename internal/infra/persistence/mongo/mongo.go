// Package mongo contains the concrete implementation of the persistence layer using the MongoDB driver.
package mongo

import (
	"context"
	"log/slog"

	"secondchance/config"
	"secondchance/internal/domain/lifecycle"
	"secondchance/internal/errors"

	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New creates the MongoDB client and returns the configured database handle.
// The connection is verified on start and closed on stop.
func New(params Params) (*mongodriver.Database, error) {
	mongoCfg := params.Config.Mongo
	if mongoCfg == nil || mongoCfg.URI == "" {
		return nil, errors.WithStack(config.ErrMissingMongoURI)
	}

	clientOpts := options.Client().ApplyURI(mongoCfg.URI)
	if mongoCfg.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(mongoCfg.ConnectTimeout)
		clientOpts.SetServerSelectionTimeout(mongoCfg.ConnectTimeout)
	}
	if mongoCfg.OperationTimeout > 0 {
		clientOpts.SetTimeout(mongoCfg.OperationTimeout)
	}

	// Connect only validates options; no network round trip happens here.
	client, err := mongodriver.Connect(context.Background(), clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MongoDB client")
	}

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx, readpref.Primary()); err != nil {
				return errors.Wrap(err, "failed to ping MongoDB")
			}

			params.Logger.Info("MongoDB connected",
				slog.String("database", mongoCfg.Database),
				slog.String("collection", mongoCfg.Collection),
			)

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			ctx, cancel := context.WithTimeout(stopCtx, lifecycle.DefaultTimeout)
			defer cancel()

			return client.Disconnect(ctx)
		},
	})

	return client.Database(mongoCfg.Database), nil
}
