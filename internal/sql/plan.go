package sql

import "fmt"

type NodeType int

const (
	NodeBegin NodeType = iota
	NodeCommit
	NodeRollback
	NodeInsert
	NodePointGet
)

type PlanNode interface {
	Type() NodeType
	String() string
}

type BeginNode struct{}

func (n *BeginNode) Type() NodeType { return NodeBegin }
func (n *BeginNode) String() string { return "Begin" }

type CommitNode struct{}

func (n *CommitNode) Type() NodeType { return NodeCommit }
func (n *CommitNode) String() string { return "Commit" }

type RollbackNode struct{}

func (n *RollbackNode) Type() NodeType { return NodeRollback }
func (n *RollbackNode) String() string { return "Rollback" }

// Pair is one row of an INSERT. Key and Value keep the Go type of the SQL
// literal (string for quoted text, int64 for integers) so the store can
// reject mistyped input.
type Pair struct {
	Key   any
	Value any
}

type InsertNode struct {
	Table string
	Rows  []Pair
}

func (n *InsertNode) Type() NodeType { return NodeInsert }
func (n *InsertNode) String() string { return fmt.Sprintf("Insert(%s, %d rows)", n.Table, len(n.Rows)) }

type PointGetNode struct {
	Table string
	Key   any
}

func (n *PointGetNode) Type() NodeType { return NodePointGet }
func (n *PointGetNode) String() string { return fmt.Sprintf("PointGet(%s, %v)", n.Table, n.Key) }
