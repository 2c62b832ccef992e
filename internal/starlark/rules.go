// Package starlark loads lint rules written in Starlark.
//
// A rule script calls rule() once per rule it defines. The check function
// receives the statement's syntax tree as a node and, when it declares a
// second parameter, the rule's options as a dict. It returns a list of
// values built with diagnostic():
//
//	def _check(stmt):
//	    return [
//	        diagnostic(n, "reads a tmp_ stream")
//	        for n in walk(stmt)
//	        if n.kind == "MultipartIdentifier" and n.value.startswith("tmp_")
//	    ]
//
//	rule(id = "no-tmp-streams", description = "...", check = _check)
package starlark

import (
	"fmt"
	"log/slog"
	"os"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/nebulasql/pkg/format"
	"github.com/leapstack-labs/nebulasql/pkg/lint"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

// LoadError describes a rule script that could not be loaded.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

type loader struct {
	pool  *ThreadPool
	rules []lint.RuleDef
}

// LoadRules runs the script at path and returns the rules it defines.
// Script output from print() is logged at debug level.
func LoadRules(path string, logger *slog.Logger) ([]lint.RuleDef, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}
	return loadRules(path, content, logger)
}

func loadRules(path string, content []byte, logger *slog.Logger) ([]lint.RuleDef, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &loader{
		pool: NewThreadPool(0, func(thread, msg string) {
			logger.Debug("rule script output", "file", path, "thread", thread, "msg", msg)
		}),
	}

	thread := l.pool.Get("load:" + path)
	defer l.pool.Put(thread)

	globals, err := starlark.ExecFile(thread, path, content, l.predeclared()) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}
	globals.Freeze()

	if len(l.rules) == 0 {
		return nil, &LoadError{File: path, Message: "script defines no rules"}
	}
	logger.Debug("loaded rule script", "file", path, "rules", len(l.rules))
	return l.rules, nil
}

// checkFunc adapts a script check function to lint.CheckFunc. A script
// failure is reported as a diagnostic on the whole statement.
func (l *loader) checkFunc(id string, fn starlark.Callable) lint.CheckFunc {
	withOptions := true
	if f, ok := fn.(*starlark.Function); ok && f.NumParams() < 2 {
		withOptions = false
	}

	return func(stmt *parser.SingleStatement, opts map[string]any) []lint.Diagnostic {
		thread := l.pool.Get(id)
		defer l.pool.Put(thread)

		args := starlark.Tuple{NewNode(format.Tree(stmt))}
		if withOptions {
			if opts == nil {
				opts = map[string]any{}
			}
			dict, err := GoToStarlark(opts)
			if err != nil {
				return []lint.Diagnostic{scriptFailure(stmt, err)}
			}
			args = append(args, dict)
		}

		result, err := starlark.Call(thread, fn, args, nil)
		if err != nil {
			return []lint.Diagnostic{scriptFailure(stmt, err)}
		}
		diags, err := toDiagnostics(result)
		if err != nil {
			return []lint.Diagnostic{scriptFailure(stmt, err)}
		}
		return diags
	}
}

// toDiagnostics accepts None, a single diagnostic or an iterable of them.
func toDiagnostics(v starlark.Value) ([]lint.Diagnostic, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case *Diagnostic:
		return []lint.Diagnostic{v.diag}, nil
	case starlark.Iterable:
		var out []lint.Diagnostic
		iter := v.Iterate()
		defer iter.Done()
		var item starlark.Value
		for iter.Next(&item) {
			d, ok := item.(*Diagnostic)
			if !ok {
				return nil, fmt.Errorf("check returned %s in its result, want diagnostic", item.Type())
			}
			out = append(out, d.diag)
		}
		return out, nil
	}
	return nil, fmt.Errorf("check returned %s, want a list of diagnostics", v.Type())
}

func scriptFailure(stmt *parser.SingleStatement, err error) lint.Diagnostic {
	span := stmt.GetSpan()
	return lint.Diagnostic{
		Message: fmt.Sprintf("rule script failed: %v", err),
		Pos:     span.Start,
		EndPos:  span.End,
	}
}
