package querypath

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
	querypath "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/domain"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/session"
)

// ScalarRequest loads the lazy scalars of one plan node by identifier after
// the main query has materialised the node's objects.
type ScalarRequest struct {
	Node       *querypath.PlanNode
	Entity     *metamodel.Entity
	Table      string
	IDColumn   string
	Columns    []string
	Attributes []*metamodel.Attribute
}

// ScalarRequests returns one request per plan node with lazy scalars, in
// plan pre-order.
func ScalarRequests(plan *querypath.Plan) []ScalarRequest {
	nodes := plan.ScalarNodes()
	result := make([]ScalarRequest, 0, len(nodes))
	for _, n := range nodes {
		entity := n.Entity()
		req := ScalarRequest{
			Node:     n,
			Entity:   entity,
			Table:    entity.Table(),
			IDColumn: entity.ID().Column(),
		}
		for _, attr := range n.Scalars() {
			req.Columns = append(req.Columns, attr.Column())
			req.Attributes = append(req.Attributes, attr)
		}
		result = append(result, req)
	}
	return result
}

var ErrNoIdentifiers = errors.New("querypath: scalar query without identifiers")

type Option func(*loader)

func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		l.logger = logger
	}
}

// WithMaxPartitionSize bounds the identifiers of one statement. Zero means
// unbounded.
func WithMaxPartitionSize(size int) Option {
	return func(l *loader) {
		l.maxPartitionSize = size
	}
}

type loader struct {
	logger           *slog.Logger
	maxPartitionSize int
}

func (l *loader) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return slog.Default()
}

// Statement is one rendered second query with its positional arguments.
type Statement struct {
	Text string
	Args []any
}

// SQL renders the second query for the given identifiers and returns it with
// its positional arguments.
func (r ScalarRequest) SQL(ids []any, placeholder session.Placeholder) (string, []any, error) {
	if len(ids) == 0 {
		return "", nil, errors.Wrapf(ErrNoIdentifiers, "%s", r.Entity.Name())
	}
	var b strings.Builder
	b.WriteString("select ")
	b.WriteString(r.IDColumn)
	for _, col := range r.Columns {
		b.WriteString(", ")
		b.WriteString(col)
	}
	b.WriteString(" from ")
	b.WriteString(r.Table)
	b.WriteString(" where ")
	b.WriteString(r.IDColumn)
	b.WriteString(" in (")
	for i := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholder.Placeholder(i + 1))
	}
	b.WriteString(")")
	return b.String(), ids, nil
}

// Statements splits ids into chunks of at most maxPartitionSize and renders
// one statement per chunk. A non-positive size keeps one statement.
func (r ScalarRequest) Statements(ids []any, placeholder session.Placeholder, maxPartitionSize int) ([]Statement, error) {
	if len(ids) == 0 {
		return nil, errors.Wrapf(ErrNoIdentifiers, "%s", r.Entity.Name())
	}
	size := maxPartitionSize
	if size <= 0 {
		size = len(ids)
	}
	result := make([]Statement, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		text, args, err := r.SQL(ids[start:end:end], placeholder)
		if err != nil {
			return nil, err
		}
		result = append(result, Statement{Text: text, Args: args})
	}
	return result, nil
}

// LoadScalars runs the request through the session and returns the scalar
// values keyed by object identifier and attribute name. No identifiers means
// no query.
func LoadScalars(s session.DbSession, req ScalarRequest, ids []any, opts ...Option) (map[any]map[string]any, error) {
	l := &loader{}
	for i := range opts {
		opts[i](l)
	}
	result := make(map[any]map[string]any, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	statements, err := req.Statements(ids, session.PlaceholderOf(s), l.maxPartitionSize)
	if err != nil {
		return nil, err
	}
	l.log().Debug("Loading lazy scalars", "entity", req.Entity.Name(), "ids", len(ids), "statements", len(statements))

	for _, st := range statements {
		if err := l.load(s, req, st, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (l *loader) load(s session.DbSession, req ScalarRequest, st Statement, result map[any]map[string]any) error {
	rows, err := s.Connection().Query(st.Text, st.Args...)
	if err != nil {
		return errors.Wrapf(err, "load scalars of %s", req.Entity.Name())
	}
	defer rows.Close()

	values := make([]any, len(req.Columns)+1)
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return errors.Wrapf(err, "scan scalars of %s", req.Entity.Name())
		}
		row := make(map[string]any, len(req.Attributes))
		for i, attr := range req.Attributes {
			row[attr.Name()] = normalize(attr, values[i+1])
		}
		result[values[0]] = row
	}
	if err := rows.Err(); err != nil {
		return errors.Wrapf(err, "load scalars of %s", req.Entity.Name())
	}
	return nil
}

// normalize turns driver text returned as bytes into a string for string
// attributes.
func normalize(attr *metamodel.Attribute, value any) any {
	if b, ok := value.([]byte); ok && attr.Type() == metamodel.TypeString {
		return string(b)
	}
	return value
}
