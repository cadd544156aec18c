package runtime

import (
	"context"
	"path"

	"github.com/risor-io/risor/object"
	"github.com/rs/zerolog"
)

// makeHasExportFn creates the "has_export" host function.
//
// has_export(name) → bool
func makeHasExportFn(exports []string) *object.Builtin {
	set := make(map[string]bool, len(exports))
	for _, e := range exports {
		set[e] = true
	}
	return object.NewBuiltin("has_export", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("has_export", 1, len(args))
		}
		name, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("has_export: expected string, got %s", args[0].Type())
		}
		return object.NewBool(set[name.Value()])
	})
}

// makeGlobMatchFn creates the "glob_match" host function.
//
// glob_match(pattern, name) → bool
//
// Uses path.Match syntax: *, ?, and [...] classes.
func makeGlobMatchFn() *object.Builtin {
	return object.NewBuiltin("glob_match", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("glob_match", 2, len(args))
		}
		pattern, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("glob_match: pattern must be string, got %s", args[0].Type())
		}
		name, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("glob_match: name must be string, got %s", args[1].Type())
		}
		matched, err := path.Match(pattern.Value(), name.Value())
		if err != nil {
			return object.Errorf("glob_match: %v", err)
		}
		return object.NewBool(matched)
	})
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger zerolog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error().Msg(msg)
}
