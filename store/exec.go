package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// partition is the partition-key value shared by every row. Keeping all
// rows under one partition lets ORDER BY sort the whole keyspace.
const partition = "kv"

func str(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

// execute submits one parameterized statement, hiding transient backend
// unavailability. It waits for a connected state before every attempt;
// the backend may have dropped and reconnected since the previous one.
// Retryable failures are resubmitted up to MaxAttempts total, then
// surfaced as ErrBackend wrapping the last error.
func (s *Store) execute(ctx context.Context, stmt string, params []types.AttributeValue, next *string) (*dynamodb.ExecuteStatementOutput, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if err := s.conn.waitConnected(ctx); err != nil {
			return nil, err
		}
		out, err := s.client.ExecuteStatement(ctx, &dynamodb.ExecuteStatementInput{
			Statement:  aws.String(stmt),
			Parameters: params,
			NextToken:  next,
		})
		if err == nil {
			return out, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %d attempts: %v", ErrBackend, s.cfg.MaxAttempts, lastErr)
}

// executeBatch is execute for a compound statement page.
func (s *Store) executeBatch(ctx context.Context, stmts []types.BatchStatementRequest) (*dynamodb.BatchExecuteStatementOutput, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if err := s.conn.waitConnected(ctx); err != nil {
			return nil, err
		}
		out, err := s.client.BatchExecuteStatement(ctx, &dynamodb.BatchExecuteStatementInput{
			Statements: stmts,
		})
		if err == nil {
			return out, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %d attempts: %v", ErrBackend, s.cfg.MaxAttempts, lastErr)
}

// retryable reports whether a statement failure is worth another attempt.
// Throttling, server faults, and a table still settling are transient.
// Constraint violations and other client errors are the caller's to
// handle and are surfaced immediately.
func retryable(err error) bool {
	var (
		throttled *types.ProvisionedThroughputExceededException
		limited   *types.RequestLimitExceeded
		internal  *types.InternalServerError
		inUse     *types.ResourceInUseException
		missing   *types.ResourceNotFoundException
	)
	switch {
	case errors.As(err, &throttled),
		errors.As(err, &limited),
		errors.As(err, &internal),
		// The table can report in-use or not-found while the backend is
		// still converging after a (re)create.
		errors.As(err, &inUse),
		errors.As(err, &missing):
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorFault() == smithy.FaultServer
	}

	// Transport-level failures (reset connections, timeouts) never
	// reached the service.
	var opErr *smithy.OperationError
	return errors.As(err, &opErr)
}
