// Copyright © 2024 The ELPS authors

package syntax

// StmtClass is the coarse category of a statement as seen by the scope
// builder.
type StmtClass uint8

const (
	ClassOther StmtClass = iota
	ClassSimpleAssign
	ClassUnpackAssign
	ClassFunctionDef
	ClassClassDef
	ClassRebind
	ClassComprehension
	ClassExpression
	ClassCompound // block statements whose bodies share the enclosing scope
	ClassImport
)

var stmtClassStrings = []string{
	ClassOther:         "other",
	ClassSimpleAssign:  "simple-assignment",
	ClassUnpackAssign:  "unpacking-assignment",
	ClassFunctionDef:   "function-def",
	ClassClassDef:      "class-def",
	ClassRebind:        "rebinding-declaration",
	ClassComprehension: "comprehension",
	ClassExpression:    "expression",
	ClassCompound:      "compound",
	ClassImport:        "import",
}

func (c StmtClass) String() string {
	if int(c) < len(stmtClassStrings) {
		return stmtClassStrings[c]
	}
	return "other"
}

// Classify maps stmt onto its StmtClass.
func Classify(stmt Stmt) StmtClass {
	switch stmt := stmt.(type) {
	case *AssignStmt:
		for _, lhs := range stmt.LHS {
			if IsUnpackTarget(lhs) {
				return ClassUnpackAssign
			}
		}
		return ClassSimpleAssign
	case *DefStmt:
		return ClassFunctionDef
	case *ClassStmt:
		return ClassClassDef
	case *RebindStmt:
		return ClassRebind
	case *ExprStmt:
		if _, ok := stmt.X.(*Comprehension); ok {
			return ClassComprehension
		}
		return ClassExpression
	case *ReturnStmt, *RaiseStmt, *AssertStmt, *DelStmt:
		return ClassExpression
	case *IfStmt, *ForStmt, *WhileStmt, *WithStmt, *TryStmt:
		return ClassCompound
	case *ImportStmt:
		return ClassImport
	}
	return ClassOther
}

// IsUnpackTarget reports whether the assignment target x destructures its
// value into several names.
func IsUnpackTarget(x Expr) bool {
	switch x.(type) {
	case *TupleExpr, *ListExpr, *StarExpr:
		return true
	}
	return false
}
