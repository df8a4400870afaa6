package store_test

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/jacentio/lattice/internal/partiql"
)

// fakeBackend is an in-memory stand-in for the backend's PartiQL
// surface. It interprets the fixed statement templates the store issues
// against a single ordered map, reports a scriptable table status, and
// can inject failures ahead of statement submissions.
type fakeBackend struct {
	mu       sync.Mutex
	table    string
	rows     map[string]string
	status   types.TableStatus
	pageSize int // select rows per page, 0 means everything at once

	execErrs []error // popped one per ExecuteStatement/BatchExecuteStatement call

	created     bool
	createCalls int
	execCalls   int
	batchCalls  int
}

func newFakeBackend(table string) *fakeBackend {
	return &fakeBackend{
		table:  table,
		rows:   make(map[string]string),
		status: types.TableStatusActive,
	}
}

// failNext queues errors to inject, one per upcoming statement call.
func (f *fakeBackend) failNext(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execErrs = append(f.execErrs, errs...)
}

func (f *fakeBackend) setStatus(status types.TableStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *fakeBackend) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if aws.ToString(in.TableName) != f.table {
		return nil, fmt.Errorf("unexpected table %q", aws.ToString(in.TableName))
	}
	if f.created {
		return nil, &types.ResourceInUseException{Message: aws.String("table exists")}
	}
	f.created = true
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeBackend) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableStatus: f.status},
	}, nil
}

func (f *fakeBackend) ExecuteStatement(ctx context.Context, in *dynamodb.ExecuteStatementInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ExecuteStatementOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execCalls++
	if err := f.popErr(); err != nil {
		return nil, err
	}
	return f.apply(aws.ToString(in.Statement), in.Parameters, in.NextToken)
}

func (f *fakeBackend) BatchExecuteStatement(ctx context.Context, in *dynamodb.BatchExecuteStatementInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchExecuteStatementOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if err := f.popErr(); err != nil {
		return nil, err
	}
	if len(in.Statements) > 25 {
		return nil, &smithy.GenericAPIError{
			Code:    "ValidationException",
			Message: fmt.Sprintf("too many statements: %d", len(in.Statements)),
			Fault:   smithy.FaultClient,
		}
	}

	out := &dynamodb.BatchExecuteStatementOutput{}
	for _, req := range in.Statements {
		resp := types.BatchStatementResponse{TableName: aws.String(f.table)}
		_, err := f.apply(aws.ToString(req.Statement), req.Parameters, nil)
		switch err.(type) {
		case nil:
		case *types.ConditionalCheckFailedException:
			resp.Error = &types.BatchStatementError{
				Code:    types.BatchStatementErrorCodeEnumConditionalCheckFailed,
				Message: aws.String("conditional check failed"),
			}
		case *types.DuplicateItemException:
			resp.Error = &types.BatchStatementError{
				Code:    types.BatchStatementErrorCodeEnumDuplicateItem,
				Message: aws.String("duplicate item"),
			}
		default:
			return nil, err
		}
		out.Responses = append(out.Responses, resp)
	}
	return out, nil
}

func (f *fakeBackend) popErr() error {
	if len(f.execErrs) == 0 {
		return nil
	}
	err := f.execErrs[0]
	f.execErrs = f.execErrs[1:]
	return err
}

// apply interprets one statement against the row map. Callers hold f.mu.
func (f *fakeBackend) apply(stmt string, params []types.AttributeValue, next *string) (*dynamodb.ExecuteStatementOutput, error) {
	if f.status != types.TableStatusActive {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not active")}
	}

	switch stmt {
	case partiql.Get(f.table):
		key := sval(params[1])
		out := &dynamodb.ExecuteStatementOutput{}
		if v, ok := f.rows[key]; ok {
			out.Items = []map[string]types.AttributeValue{{
				"v": &types.AttributeValueMemberS{Value: v},
			}}
		}
		return out, nil

	case partiql.Insert(f.table):
		key, value := sval(params[1]), sval(params[2])
		if _, ok := f.rows[key]; ok {
			return nil, &types.DuplicateItemException{Message: aws.String("duplicate key")}
		}
		f.rows[key] = value
		return &dynamodb.ExecuteStatementOutput{}, nil

	case partiql.Update(f.table):
		value, key := sval(params[0]), sval(params[2])
		if _, ok := f.rows[key]; !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("no row")}
		}
		f.rows[key] = value
		return &dynamodb.ExecuteStatementOutput{}, nil

	case partiql.Delete(f.table):
		key := sval(params[1])
		if _, ok := f.rows[key]; !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("no row")}
		}
		delete(f.rows, key)
		return &dynamodb.ExecuteStatementOutput{}, nil
	}

	return f.selectRange(stmt, params, next)
}

var boundPattern = regexp.MustCompile(` AND k (>=|<=|>|<) \?`)

// selectRange evaluates a range statement: extract the comparison
// operators, filter the sorted key set, apply direction and paging.
func (f *fakeBackend) selectRange(stmt string, params []types.AttributeValue, next *string) (*dynamodb.ExecuteStatementOutput, error) {
	ops := []string{}
	for _, m := range boundPattern.FindAllStringSubmatch(stmt, -1) {
		ops = append(ops, m[1])
	}
	if len(ops)+1 != len(params) {
		return nil, fmt.Errorf("statement %q: %d bounds but %d parameters", stmt, len(ops), len(params))
	}
	bounds := make([]string, len(ops))
	for i := range ops {
		bounds[i] = sval(params[i+1])
	}
	reverse := regexp.MustCompile(` ORDER BY k DESC$`).MatchString(stmt)

	keys := make([]string, 0, len(f.rows))
	for k := range f.rows {
		if matchBounds(k, ops, bounds) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}

	offset := 0
	if next != nil {
		offset, _ = strconv.Atoi(*next)
	}
	end := len(keys)
	out := &dynamodb.ExecuteStatementOutput{}
	if f.pageSize > 0 && offset+f.pageSize < end {
		end = offset + f.pageSize
		out.NextToken = aws.String(strconv.Itoa(end))
	}
	for _, k := range keys[offset:end] {
		out.Items = append(out.Items, map[string]types.AttributeValue{
			"k": &types.AttributeValueMemberS{Value: k},
			"v": &types.AttributeValueMemberS{Value: f.rows[k]},
		})
	}
	return out, nil
}

func matchBounds(key string, ops, bounds []string) bool {
	for i, op := range ops {
		b := bounds[i]
		switch op {
		case ">":
			if key <= b {
				return false
			}
		case ">=":
			if key < b {
				return false
			}
		case "<":
			if key >= b {
				return false
			}
		case "<=":
			if key > b {
				return false
			}
		}
	}
	return true
}

func sval(av types.AttributeValue) string {
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		panic(fmt.Sprintf("unexpected attribute type %T", av))
	}
	return s.Value
}
