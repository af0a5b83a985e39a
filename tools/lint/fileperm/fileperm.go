// Package fileperm provides a linter that reports hardcoded file permission
// literals where a pkg/fileutil constant exists.
package fileperm

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer is a custom analysis pass that checks for hardcoded file permissions
var Analyzer = &analysis.Analyzer{
	Name: "fileperm",
	Doc:  "checks for hardcoded file permission literals instead of using constants",
	Run:  run,
}

// Permission values with a named constant in pkg/fileutil.
const (
	ReadWriteUserPerm         = 0o600
	ReadWriteUserReadOthers   = 0o644
	ReadWriteExecuteUserPerms = 0o755
)

// permConstants maps a permission to the constant that should be used instead.
var permConstants = map[int64]string{
	ReadWriteUserPerm:         "fileutil.ReadWriteUserPermission",
	ReadWriteUserReadOthers:   "fileutil.ReadWriteUserReadOthers",
	ReadWriteExecuteUserPerms: "fileutil.ReadWriteExecuteUserReadExecuteOthers",
}

// permFuncs are the calls whose last argument is a file mode, whether called
// on os, an afero.Fs or pkg/fileutil.
var permFuncs = map[string]bool{
	"WriteFile":       true,
	"WriteFileAtomic": true,
	"MkdirAll":        true,
	"Mkdir":           true,
	"Chmod":           true,
	"OpenFile":        true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		// Test fixtures are exempt.
		if strings.HasSuffix(pass.Fset.Position(file.Pos()).Filename, "_test.go") {
			continue
		}

		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok || len(call.Args) == 0 || !permFuncs[calleeName(call)] {
				return true
			}

			lit, ok := call.Args[len(call.Args)-1].(*ast.BasicLit)
			if !ok || lit.Kind != token.INT {
				return true
			}
			value, err := strconv.ParseInt(lit.Value, 0, 64)
			if err != nil {
				return true
			}
			if constant, ok := permConstants[value]; ok {
				pass.Reportf(lit.Pos(), "use a file permission constant like '%s' instead of hardcoded '%s'",
					constant, fmt.Sprintf("%#o", value))
			}
			return true
		})
	}
	// Return a dummy non-nil value to satisfy the linter
	return (*struct{})(nil), nil
}

func calleeName(call *ast.CallExpr) string {
	switch fun := call.Fun.(type) {
	case *ast.SelectorExpr:
		return fun.Sel.Name
	case *ast.Ident:
		return fun.Name
	default:
		return ""
	}
}
