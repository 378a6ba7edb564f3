package criteria

import (
	"log/slog"

	querypath "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/domain"
)

const DefaultLiteralPrefix = "literal"

type Option func(*options)

type options struct {
	aliasPrefix   string
	literalPrefix string
	plan          *querypath.Plan
	logger        *slog.Logger
}

func newOptions(opts []Option) *options {
	o := &options{literalPrefix: DefaultLiteralPrefix}
	for i := range opts {
		opts[i](o)
	}
	return o
}

// WithAliasPrefix replaces the prefix derived from the first root entity.
func WithAliasPrefix(prefix string) Option {
	return func(o *options) {
		o.aliasPrefix = prefix
	}
}

func WithLiteralPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.literalPrefix = prefix
		}
	}
}

// WithQueryPaths merges the fetch joins and orders of a plan into the query.
// The plan applies to the first root of the plan entity.
func WithQueryPaths(plan *querypath.Plan) Option {
	return func(o *options) {
		o.plan = plan
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}
