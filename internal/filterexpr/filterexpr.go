// Package filterexpr compiles CEL expressions into row predicates for the
// filter bar. The row under test is bound to the variable "_", so filters
// read like "_.priority >= 3" or "_.labels.team == \"core\"".
package filterexpr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/oakwood-commons/pagekit/pkg/loader"
)

// Filter is a compiled row predicate. Compile once, Match per row.
type Filter struct {
	expr   string
	prg    cel.Program
	fields []string
}

// newFilterEnv creates the CEL environment filters compile against.
// Extension libraries are enabled so filters can use string/list/math helpers.
func newFilterEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("_", cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
}

// Compile parses and checks a filter expression. Expressions that are
// statically known to produce a non-boolean are rejected; dyn-typed results
// are allowed and resolved per row at Match time.
func Compile(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty filter expression")
	}

	env, err := newFilterEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}

	if out := ast.OutputType(); out != nil {
		name := out.TypeName()
		if name != types.BoolType.TypeName() && name != types.DynType.TypeName() {
			return nil, fmt.Errorf("filter must evaluate to a boolean, got %s", name)
		}
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}

	return &Filter{
		expr:   expr,
		prg:    prg,
		fields: fieldsFromAST(ast),
	}, nil
}

// Expr returns the source expression.
func (f *Filter) Expr() string { return f.expr }

// Fields returns the row field paths the expression references, sorted.
// Used for hints when a filter matches nothing ("references: labels.team").
func (f *Filter) Fields() []string {
	out := make([]string, len(f.fields))
	copy(out, f.fields)
	return out
}

// Match evaluates the filter against a row. Evaluation errors (missing
// fields, type mismatches) and non-boolean results count as no match; a
// filter must never take down the render path.
func (f *Filter) Match(row any) bool {
	result, _, err := f.prg.Eval(map[string]any{
		"_": celValue(row),
	})
	if err != nil {
		return false
	}
	b, ok := result.(types.Bool)
	if !ok {
		if native, ok := result.Value().(bool); ok {
			return native
		}
		return false
	}
	return bool(b)
}

// celValue prepares a row for CEL evaluation. Maps, slices and primitives
// pass through; typed structs are converted to maps so CEL can select into
// them. Strings pass through untouched (they are values, not serialized data).
func celValue(row any) any {
	switch row.(type) {
	case nil:
		return nil
	case string, []byte, ref.Val:
		return row
	}
	v, err := loader.LoadObject(row)
	if err != nil {
		return row
	}
	return v
}

// fieldsFromAST collects the "_"-rooted select paths an expression touches
// by walking the parsed proto tree.
func fieldsFromAST(ast *cel.Ast) []string {
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	collectFieldPaths(parsed.GetExpr(), seen)

	out := make([]string, 0, len(seen))
	for path := range seen {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// collectFieldPaths walks the expression tree recording complete select
// chains rooted at the row variable. Chains are recorded once at their
// outermost select so prefixes don't show up as separate fields.
func collectFieldPaths(expr *exprpb.Expr, seen map[string]bool) {
	if expr == nil {
		return
	}

	switch expr.ExprKind.(type) {
	case *exprpb.Expr_SelectExpr:
		if path, ok := selectPath(expr); ok {
			if path != "" {
				seen[path] = true
			}
			return
		}
		collectFieldPaths(expr.GetSelectExpr().GetOperand(), seen)

	case *exprpb.Expr_CallExpr:
		call := expr.GetCallExpr()
		collectFieldPaths(call.GetTarget(), seen)
		for _, arg := range call.GetArgs() {
			collectFieldPaths(arg, seen)
		}

	case *exprpb.Expr_ListExpr:
		for _, elem := range expr.GetListExpr().GetElements() {
			collectFieldPaths(elem, seen)
		}

	case *exprpb.Expr_StructExpr:
		for _, entry := range expr.GetStructExpr().GetEntries() {
			collectFieldPaths(entry.GetMapKey(), seen)
			collectFieldPaths(entry.GetValue(), seen)
		}

	case *exprpb.Expr_ComprehensionExpr:
		comp := expr.GetComprehensionExpr()
		collectFieldPaths(comp.GetIterRange(), seen)
		collectFieldPaths(comp.GetAccuInit(), seen)
		collectFieldPaths(comp.GetLoopCondition(), seen)
		collectFieldPaths(comp.GetLoopStep(), seen)
		collectFieldPaths(comp.GetResult(), seen)
	}
}

// selectPath flattens a select chain into a dotted path when the chain is
// rooted at the row variable "_". Returns false for chains rooted elsewhere
// (comprehension iteration variables, other idents).
func selectPath(expr *exprpb.Expr) (string, bool) {
	switch expr.ExprKind.(type) {
	case *exprpb.Expr_IdentExpr:
		if expr.GetIdentExpr().GetName() == "_" {
			return "", true
		}
		return "", false

	case *exprpb.Expr_SelectExpr:
		sel := expr.GetSelectExpr()
		base, ok := selectPath(sel.GetOperand())
		if !ok {
			return "", false
		}
		if base == "" {
			return sel.GetField(), true
		}
		return base + "." + sel.GetField(), true

	default:
		return "", false
	}
}
