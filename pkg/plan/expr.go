package plan

import "fmt"

// PhysicalExpr is a filter expression handed to format adapters at plan
// construction. Formats without predicate pushdown accept and ignore it.
type PhysicalExpr interface {
	fmt.Stringer
}

// ColumnExpr references a table-schema column by name.
type ColumnExpr struct {
	Name string
}

// Column creates a column reference expression.
func Column(name string) *ColumnExpr {
	return &ColumnExpr{Name: name}
}

func (e *ColumnExpr) String() string {
	return e.Name
}

// LiteralExpr is a constant value.
type LiteralExpr struct {
	Value interface{}
}

// Literal creates a literal expression.
func Literal(value interface{}) *LiteralExpr {
	return &LiteralExpr{Value: value}
}

func (e *LiteralExpr) String() string {
	return fmt.Sprintf("%v", e.Value)
}

// BinaryExpr combines two expressions with an operator.
type BinaryExpr struct {
	Left  PhysicalExpr
	Op    string
	Right PhysicalExpr
}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}
