package expr

// Op identifies a unary or binary operator.
type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpEq  Op = "=="
	OpNe  Op = "!="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpGt  Op = ">"
	OpGe  Op = ">="
	OpAnd Op = "and"
	OpOr  Op = "or"
	OpNot Op = "not"
	OpNeg Op = "neg"
	OpPos Op = "pos"
)

// Node is an expression AST node. Pos returns the byte offset of the node in
// the original source, used for error reporting.
type Node interface {
	Pos() int
}

// LiteralNode holds a constant: int64, float64, string, bool or nil.
type LiteralNode struct {
	At    int
	Value any
}

// IdentNode is a bare identifier resolved through the Scope at evaluation.
type IdentNode struct {
	At   int
	Name string
}

// UnaryNode applies OpNeg, OpPos or OpNot to its operand.
type UnaryNode struct {
	At      int
	Op      Op
	Operand Node
}

// BinaryNode applies an arithmetic, comparison or logical operator.
// OpAnd and OpOr short-circuit and return their operands.
type BinaryNode struct {
	At    int
	Op    Op
	Left  Node
	Right Node
}

// CondNode is the conditional expression `Then if Cond else Else`.
// Only the selected branch is evaluated.
type CondNode struct {
	At   int
	Cond Node
	Then Node
	Else Node
}

// MemberNode reads a named key from a map value.
type MemberNode struct {
	At   int
	Recv Node
	Name string
}

// IndexNode indexes a list, string or map.
type IndexNode struct {
	At    int
	Recv  Node
	Index Node
}

// SliceNode slices a list or string. Low and High are nil when omitted.
type SliceNode struct {
	At   int
	Recv Node
	Low  Node
	High Node
}

// CallNode invokes a registry function. Recv is non-nil for the method-call
// sugar recv.fn(args), in which case the receiver becomes the first argument.
type CallNode struct {
	At   int
	Func string
	Recv Node
	Args []Node
}

// FStringNode concatenates literal segments and evaluated interpolations.
type FStringNode struct {
	At    int
	Parts []Node
}

func (n *LiteralNode) Pos() int { return n.At }
func (n *IdentNode) Pos() int   { return n.At }
func (n *UnaryNode) Pos() int   { return n.At }
func (n *BinaryNode) Pos() int  { return n.At }
func (n *CondNode) Pos() int    { return n.At }
func (n *MemberNode) Pos() int  { return n.At }
func (n *IndexNode) Pos() int   { return n.At }
func (n *SliceNode) Pos() int   { return n.At }
func (n *CallNode) Pos() int    { return n.At }
func (n *FStringNode) Pos() int { return n.At }
