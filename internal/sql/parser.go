package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blastrain/vitess-sqlparser/sqlparser"

	"github.com/myuser/txkv/internal/storage"
)

var (
	ErrUnsupported = errors.New("unsupported statement")
	ErrRangeQuery  = errors.New("range queries are not supported")
)

// ParseToPlan parses a SQL string and returns a logical plan.
func ParseToPlan(sql string) (PlanNode, error) {
	if node, ok := txnControl(sql); ok {
		return node, nil
	}

	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, err
	}

	switch s := stmt.(type) {
	case *sqlparser.Select:
		return buildSelectPlan(s)
	case *sqlparser.Insert:
		return buildInsertPlan(s)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, stmt)
	}
}

// txnControl recognises BEGIN, COMMIT and ROLLBACK, which the sqlparser
// grammar does not cover. Matching is case-insensitive.
func txnControl(sql string) (PlanNode, bool) {
	sql = strings.TrimSuffix(strings.TrimSpace(sql), ";")
	words := strings.Fields(strings.ToUpper(sql))
	switch strings.Join(words, " ") {
	case "BEGIN", "BEGIN WORK", "START TRANSACTION":
		return &BeginNode{}, true
	case "COMMIT", "COMMIT WORK":
		return &CommitNode{}, true
	case "ROLLBACK", "ROLLBACK WORK":
		return &RollbackNode{}, true
	}
	return nil, false
}

func buildSelectPlan(stmt *sqlparser.Select) (PlanNode, error) {
	if len(stmt.From) != 1 {
		return nil, fmt.Errorf("%w: SELECT needs exactly one table", ErrUnsupported)
	}
	aliasedTable, ok := stmt.From[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return nil, fmt.Errorf("%w: complex FROM clauses", ErrUnsupported)
	}
	tableNameStr := sqlparser.String(aliasedTable.Expr)

	// Only point lookups: WHERE col = literal
	if stmt.Where == nil {
		return nil, ErrRangeQuery
	}
	cmp, ok := stmt.Where.Expr.(*sqlparser.ComparisonExpr)
	if !ok || cmp.Operator != sqlparser.EqualStr {
		return nil, ErrRangeQuery
	}

	valExpr := cmp.Right
	if _, ok := cmp.Left.(*sqlparser.ColName); !ok {
		if _, ok := cmp.Right.(*sqlparser.ColName); !ok {
			return nil, ErrRangeQuery
		}
		valExpr = cmp.Left
	}

	key, err := literal("get", "key", valExpr)
	if err != nil {
		return nil, err
	}
	return &PointGetNode{Table: tableNameStr, Key: key}, nil
}

func buildInsertPlan(stmt *sqlparser.Insert) (PlanNode, error) {
	tableNameStr := sqlparser.String(stmt.Table)

	if len(stmt.Columns) != 0 && len(stmt.Columns) != 2 {
		return nil, fmt.Errorf("%w: INSERT takes (key, value) columns, got %d", ErrUnsupported, len(stmt.Columns))
	}

	rowsVals, ok := stmt.Rows.(sqlparser.Values)
	if !ok {
		return nil, fmt.Errorf("%w: INSERT from SELECT", ErrUnsupported)
	}
	if len(rowsVals) == 0 {
		return nil, fmt.Errorf("%w: INSERT without values", ErrUnsupported)
	}

	rows := make([]Pair, 0, len(rowsVals))
	for i, row := range rowsVals {
		if len(row) != 2 {
			return nil, fmt.Errorf("%w: row %d has %d values, want (key, value)", ErrUnsupported, i+1, len(row))
		}
		k, err := literal("put", "key", row[0])
		if err != nil {
			return nil, err
		}
		v, err := literal("put", "value", row[1])
		if err != nil {
			return nil, err
		}
		rows = append(rows, Pair{Key: k, Value: v})
	}

	return &InsertNode{Table: tableNameStr, Rows: rows}, nil
}

// literal converts a SQL literal to the Go value it denotes without coercion:
// quoted text stays a string, integers become int64.
func literal(op, field string, expr sqlparser.Expr) (any, error) {
	switch v := expr.(type) {
	case *sqlparser.SQLVal:
		switch v.Type {
		case sqlparser.StrVal:
			return string(v.Val), nil
		case sqlparser.IntVal:
			n, err := strconv.ParseInt(string(v.Val), 10, 64)
			if err != nil {
				return nil, outOfRange(op, field, string(v.Val))
			}
			return n, nil
		case sqlparser.FloatVal:
			f, err := strconv.ParseFloat(string(v.Val), 64)
			if err != nil {
				return nil, err
			}
			return f, nil
		}
	case *sqlparser.UnaryExpr:
		if v.Operator == sqlparser.UMinusStr {
			inner, err := literal(op, field, v.Expr)
			if err != nil {
				return nil, err
			}
			switch n := inner.(type) {
			case int64:
				return -n, nil
			case float64:
				return -n, nil
			}
		}
	case *sqlparser.NullVal:
		return nil, nil
	case sqlparser.BoolVal:
		return bool(v), nil
	}
	return nil, fmt.Errorf("%w: literal %s", ErrUnsupported, sqlparser.String(expr))
}

func outOfRange(op, field, text string) error {
	cause := storage.ErrInvalidValue
	if field == "key" {
		cause = storage.ErrInvalidKey
	}
	return &storage.ValidationError{Op: op, Field: field, Value: text, Err: cause}
}
