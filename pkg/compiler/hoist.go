package compiler

import "github.com/kristofer/tinyjs/pkg/ast"

// hoist walks body collecting every var and function declaration into
// scope, without descending into nested function literals - those get
// their own funcScope when they're compiled. This mirrors ES5 var
// hoisting: declarations are function-scoped regardless of how deeply
// they're nested inside blocks, if/while/for bodies, or try/catch.
func hoist(scope *funcScope, body []ast.Statement) {
	for _, stmt := range body {
		hoistStatement(scope, stmt)
	}
}

func hoistStatement(scope *funcScope, stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarStatement:
		for _, name := range s.Names {
			scope.declare(name)
		}
	case *ast.FunctionDeclaration:
		scope.declare(s.Fn.Name)
	case *ast.BlockStatement:
		hoist(scope, s.Body)
	case *ast.IfStatement:
		hoistStatement(scope, s.Then)
		if s.Else != nil {
			hoistStatement(scope, s.Else)
		}
	case *ast.WhileStatement:
		hoistStatement(scope, s.Body)
	case *ast.ForStatement:
		if s.Init != nil {
			hoistStatement(scope, s.Init)
		}
		hoistStatement(scope, s.Body)
	case *ast.TryStatement:
		hoist(scope, s.Try)
		if s.CatchParam != "" {
			scope.declare(s.CatchParam)
		}
		hoist(scope, s.Catch)
	}
}
