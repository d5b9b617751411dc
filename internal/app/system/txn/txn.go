// Package txn runs multi-collection writes in a MongoDB transaction when
// the deployment supports one, and sequentially when it does not
// (standalone servers used in development and tests).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// notSupportedCodes are server codes returned when transactions or
// sessions are unavailable: IllegalOperation (20), 51, and
// OperationNotSupportedInTransaction (263).
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// keyword pairs that identify the same condition from drivers or proxies
// that do not surface a code.
var notSupportedPhrases = [][2]string{
	{"transaction", "replica set"},
	{"session", "not supported"},
	{"illegal operation", "transaction"},
}

// IsNotSupported reports whether err means the server cannot run
// transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range notSupportedPhrases {
		if strings.Contains(msg, p[0]) && strings.Contains(msg, p[1]) {
			return true
		}
	}
	return false
}

// Run executes fn inside a transaction on client. If the deployment cannot
// run transactions, fn is run once more without one. A nil client runs fn
// directly.
func Run(ctx context.Context, client *mongo.Client, logger *zap.Logger, fn func(ctx context.Context) error) error {
	if client == nil {
		return fn(ctx)
	}
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if logger != nil {
			logger.Debug("transactions unavailable; running without", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}
