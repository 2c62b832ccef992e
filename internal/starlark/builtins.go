package starlark

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/nebulasql/pkg/lint"
)

// predeclared returns the globals every rule script sees.
func (l *loader) predeclared() starlark.StringDict {
	return starlark.StringDict{
		"rule":       starlark.NewBuiltin("rule", l.ruleBuiltin),
		"diagnostic": starlark.NewBuiltin("diagnostic", diagnosticBuiltin),
		"walk":       starlark.NewBuiltin("walk", walkBuiltin),
	}
}

// rule(id, description, check, severity="warning", rationale="",
// bad_example="", good_example="", config_keys=[]) registers a rule.
func (l *loader) ruleBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		id, description, severity          = "", "", "warning"
		rationale, badExample, goodExample string
		check                              starlark.Callable
		configKeys                         *starlark.List
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"id", &id,
		"description", &description,
		"check", &check,
		"severity?", &severity,
		"rationale?", &rationale,
		"bad_example?", &badExample,
		"good_example?", &goodExample,
		"config_keys?", &configKeys,
	); err != nil {
		return nil, err
	}

	sev, ok := lint.ParseSeverity(severity)
	if !ok || sev == lint.SeverityOff {
		return nil, fmt.Errorf("%s: rule %q: invalid severity %q", b.Name(), id, severity)
	}
	if id == "" {
		return nil, fmt.Errorf("%s: id must not be empty", b.Name())
	}

	var keys []string
	if configKeys != nil {
		raw, err := ToGo(configKeys)
		if err != nil {
			return nil, fmt.Errorf("%s: config_keys: %w", b.Name(), err)
		}
		for _, k := range raw.([]any) {
			s, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%s: config_keys must be strings, got %v", b.Name(), k)
			}
			keys = append(keys, s)
		}
	}

	check.Freeze()
	l.rules = append(l.rules, lint.RuleDef{
		ID:          id,
		Description: description,
		Severity:    sev,
		Check:       l.checkFunc(id, check),
		ConfigKeys:  keys,
		Rationale:   rationale,
		BadExample:  badExample,
		GoodExample: goodExample,
	})
	return starlark.None, nil
}

// diagnostic(node, message, fix=None, fix_title="Apply fix") reports a
// finding over node. A string fix replaces the node's text.
func diagnosticBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		nodeVal  starlark.Value
		message  string
		fix      starlark.Value = starlark.None
		fixTitle                = "Apply fix"
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"node", &nodeVal,
		"message", &message,
		"fix?", &fix,
		"fix_title?", &fixTitle,
	); err != nil {
		return nil, err
	}
	node, ok := nodeVal.(*Node)
	if !ok {
		return nil, fmt.Errorf("%s: node must be a node, got %s", b.Name(), nodeVal.Type())
	}

	span := node.tree.Span
	d := lint.Diagnostic{Message: message, Pos: span.Start, EndPos: span.End}
	switch f := fix.(type) {
	case starlark.NoneType:
	case starlark.String:
		d.Fixes = []lint.Fix{{
			Description: fixTitle,
			TextEdits:   []lint.TextEdit{{Pos: span.Start, EndPos: span.End, NewText: string(f)}},
		}}
	default:
		return nil, fmt.Errorf("%s: fix must be a string or None, got %s", b.Name(), fix.Type())
	}
	return &Diagnostic{diag: d}, nil
}

// walk(node) lists node and all its descendants, depth first.
func walkBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var nodeVal starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &nodeVal); err != nil {
		return nil, err
	}
	node, ok := nodeVal.(*Node)
	if !ok {
		return nil, fmt.Errorf("%s: want node, got %s", b.Name(), nodeVal.Type())
	}
	return starlark.NewList(node.walk()), nil
}
