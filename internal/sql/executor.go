package sql

import (
	"fmt"
	"strconv"

	"github.com/myuser/txkv/internal/storage"
)

// Row representing a result row: key, value.
type Row []string

// Result of executing one statement.
type Result struct {
	Rows    []Row
	Message string
}

// Execute executes a logical plan against the storage engine.
func Execute(plan PlanNode, engine storage.Engine) (*Result, error) {
	switch n := plan.(type) {
	case *BeginNode:
		if err := engine.Begin(); err != nil {
			return nil, err
		}
		return &Result{Message: "BEGIN"}, nil
	case *CommitNode:
		if err := engine.Commit(); err != nil {
			return nil, err
		}
		return &Result{Message: "COMMIT"}, nil
	case *RollbackNode:
		if err := engine.Rollback(); err != nil {
			return nil, err
		}
		return &Result{Message: "ROLLBACK"}, nil
	case *InsertNode:
		return executeInsert(n, engine)
	case *PointGetNode:
		return executePointGet(n, engine)
	default:
		return nil, fmt.Errorf("unsupported plan node: %T", plan)
	}
}

// ExecuteString parses and executes a single statement.
func ExecuteString(sql string, engine storage.Engine) (*Result, error) {
	plan, err := ParseToPlan(sql)
	if err != nil {
		return nil, err
	}
	return Execute(plan, engine)
}

func executeInsert(n *InsertNode, engine storage.Engine) (*Result, error) {
	ops := make([]storage.BatchOp, len(n.Rows))
	for i, row := range n.Rows {
		ops[i] = storage.BatchOp{Key: row.Key, Value: row.Value}
	}
	// All rows are staged together or not at all.
	if err := engine.PutBatch(ops); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("INSERT %d", len(n.Rows))}, nil
}

func executePointGet(n *PointGetNode, engine storage.Engine) (*Result, error) {
	val, found, err := engine.GetValue(n.Key)
	if err != nil {
		return nil, err
	}
	if !found {
		return &Result{Rows: []Row{}}, nil
	}
	return &Result{Rows: []Row{{n.Key.(string), strconv.FormatInt(val, 10)}}}, nil
}
