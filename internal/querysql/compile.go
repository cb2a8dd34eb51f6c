package querysql

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/roach88/tesseract/internal/queryir"
	"github.com/roach88/tesseract/internal/request"
	"github.com/roach88/tesseract/internal/schema"
)

// factAlias is the alias of the cube's fact table.
const factAlias = "f"

// RankingSuffix is appended to a measure name for its ranking column.
const RankingSuffix = " Ranking"

// SQLCompiler compiles resolved queries to parameterized star-schema SQL.
//
// Every statement carries an ORDER BY over the key columns of its drilldown
// levels so results are deterministic. Member keys, filter bounds and search
// terms are always bound as parameters, never interpolated.
type SQLCompiler struct {
	// Placeholder selects the bind parameter syntax. Defaults to "?".
	Placeholder squirrel.PlaceholderFormat
}

// NewSQLCompiler creates a compiler emitting "?" placeholders (SQLite).
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Placeholder: squirrel.Question}
}

// Compile converts a resolved query to SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	var (
		sb  squirrel.SelectBuilder
		err error
	)
	switch query := q.(type) {
	case *queryir.DataQuery:
		if query == nil {
			return "", nil, fmt.Errorf("cannot compile nil query")
		}
		sb, err = c.buildData(query)
	case *queryir.MembersQuery:
		if query == nil {
			return "", nil, fmt.Errorf("cannot compile nil query")
		}
		sb, err = c.buildMembers(query)
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil query")
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
	if err != nil {
		return "", nil, err
	}

	format := c.Placeholder
	if format == nil {
		format = squirrel.Question
	}
	return sb.PlaceholderFormat(format).ToSql()
}

// selection accumulates the non-aggregated columns of a statement.
type selection struct {
	columns []string
	groupBy []string
	orderBy []string
	labels  map[string]string // output name -> quoted alias, for sorting
}

func newSelection() *selection {
	return &selection{labels: make(map[string]string)}
}

func (s *selection) add(expr, name string) {
	alias := quoteIdent(name)
	s.columns = append(s.columns, expr+" AS "+alias)
	s.groupBy = append(s.groupBy, expr)
	s.labels[name] = alias
}

// addLevel emits the key and label columns of a level and its properties.
// A separate "<Level> ID" column is emitted only when the label differs from
// the key.
func (s *selection) addLevel(table string, lf queryir.LevelField, locale string) {
	key := column(table, lf.Level.KeyColumn)
	if lf.HasIDColumn(locale) {
		s.add(key, lf.Name()+queryir.IDSuffix)
	}
	s.add(column(table, lf.LabelColumn(locale)), lf.Name())
	s.orderBy = append(s.orderBy, key+" ASC")

	for _, prop := range lf.Properties {
		if col, ok := prop.Column(locale); ok {
			s.add(column(table, col), prop.Name)
		}
	}
}

func (c *SQLCompiler) buildData(q *queryir.DataQuery) (squirrel.SelectBuilder, error) {
	sb := squirrel.Select().From(q.Cube.Table + " AS " + factAlias)
	sel := newSelection()

	for i, hf := range q.FieldsQualitative {
		table := factAlias
		if hf.Hierarchy.Table != "" {
			table = fmt.Sprintf("d%d", i)
			sb = sb.Join(fmt.Sprintf("%s AS %s ON %s = %s",
				hf.Hierarchy.Table, table,
				column(table, hf.Hierarchy.PrimaryKey),
				column(factAlias, hf.Dimension.ForeignKey)))
		}

		for _, lf := range hf.Levels {
			if lf.IsDrilldown {
				sel.addLevel(table, lf, q.Locale)
			}
			for _, pred := range levelPredicates(table, hf.Hierarchy, lf) {
				sb = sb.Where(pred)
			}
		}
	}

	var measureCols, rankCols []string
	for _, mf := range q.FieldsQuantitative {
		agg, err := aggregate(mf.Measure)
		if err != nil {
			return sb, err
		}
		if mf.IsMeasure {
			alias := quoteIdent(mf.Name())
			measureCols = append(measureCols, agg+" AS "+alias)
			sel.labels[mf.Name()] = alias
		}
		if mf.WithRanking != "" {
			rankCols = append(rankCols, fmt.Sprintf("RANK() OVER (ORDER BY %s %s) AS %s",
				agg, direction(mf.WithRanking), quoteIdent(mf.Name()+RankingSuffix)))
		}
		if mf.HasFilter() {
			sb = sb.Having(measurePredicate(agg, mf))
		}
	}

	columns := append(append(sel.columns, measureCols...), rankCols...)
	if len(columns) == 0 {
		return sb, fmt.Errorf("query on cube %q selects no columns", q.Cube.Name)
	}
	sb = sb.Columns(columns...)
	if len(sel.groupBy) > 0 {
		sb = sb.GroupBy(sel.groupBy...)
	}

	if q.Sorting != nil {
		alias, ok := sel.labels[q.Sorting.Field]
		if !ok {
			return sb, fmt.Errorf("sort field %q is not selected", q.Sorting.Field)
		}
		sb = sb.OrderBy(alias + " " + direction(q.Sorting.Direction))
	}
	if len(sel.orderBy) > 0 {
		sb = sb.OrderBy(sel.orderBy...)
	}

	return paginate(sb, q.Pagination), nil
}

func (c *SQLCompiler) buildMembers(q *queryir.MembersQuery) (squirrel.SelectBuilder, error) {
	hf := q.Hierarchy
	if len(hf.Levels) == 0 {
		return squirrel.SelectBuilder{}, fmt.Errorf("members query on cube %q has no levels", q.Cube.Name)
	}

	const table = "h"
	from := hf.Hierarchy.Table
	if from == "" {
		from = q.Cube.Table
	}

	sel := newSelection()
	for _, lf := range hf.Levels {
		sel.addLevel(table, lf, q.Locale)
	}

	sb := squirrel.Select(sel.columns...).Distinct().From(from + " AS " + table)

	if q.Search != "" {
		target := q.Target()
		col := target.Level.KeyColumn
		if name, ok := target.Level.NameColumn(q.Locale); ok {
			col = name
		}
		sb = sb.Where(squirrel.Expr(column(table, col)+` LIKE ? ESCAPE '\'`, "%"+escapeLike(q.Search)+"%"))
	}

	sb = sb.OrderBy(sel.orderBy...)
	return paginate(sb, q.Pagination), nil
}

// levelPredicates returns the WHERE conditions of a level: its member cut and
// its time restriction.
func levelPredicates(table string, hie *schema.Hierarchy, lf queryir.LevelField) []squirrel.Sqlizer {
	key := column(table, lf.Level.KeyColumn)

	var preds []squirrel.Sqlizer
	switch {
	case len(lf.MembersInclude) > 0:
		preds = append(preds, squirrel.Eq{key: lf.MembersInclude})
	case len(lf.MembersExclude) > 0:
		preds = append(preds, squirrel.NotEq{key: lf.MembersExclude})
	}

	if tr := lf.TimeRestriction; tr != nil {
		preds = append(preds, timePredicate(key, hie, lf.Level, tr))
	}
	return preds
}

// timePredicate restricts key to the latest or oldest N distinct members of
// the level, or to an inclusive key range.
func timePredicate(key string, hie *schema.Hierarchy, lvl *schema.Level, tr *request.TimeRestriction) squirrel.Sqlizer {
	if tr.Bound == request.TimeRange {
		return squirrel.Expr(key+" BETWEEN ? AND ?", tr.From, tr.To)
	}

	dir := "DESC"
	if tr.Bound == request.TimeOldest {
		dir = "ASC"
	}
	from := hie.Table
	if from == "" {
		from = hie.Dimension().Cube().Table
	}
	sub := fmt.Sprintf("SELECT DISTINCT %s FROM %s ORDER BY %s %s LIMIT %d",
		lvl.KeyColumn, from, lvl.KeyColumn, dir, tr.N)
	return squirrel.Expr(key + " IN (" + sub + ")")
}

func measurePredicate(agg string, mf queryir.MeasureField) squirrel.Sqlizer {
	first := constraintExpr(agg, *mf.Constraint1)
	if mf.Constraint2 == nil {
		return first
	}
	second := constraintExpr(agg, *mf.Constraint2)
	if mf.Joint == request.JointOr {
		return squirrel.Or{first, second}
	}
	return squirrel.And{first, second}
}

var comparisonSQL = map[request.Comparison]string{
	request.OpEq:  "=",
	request.OpNeq: "<>",
	request.OpGt:  ">",
	request.OpGte: ">=",
	request.OpLt:  "<",
	request.OpLte: "<=",
}

func constraintExpr(agg string, c request.Constraint) squirrel.Sqlizer {
	return squirrel.Expr(fmt.Sprintf("%s %s ?", agg, comparisonSQL[c.Operator]), c.Value)
}

func aggregate(m *schema.Measure) (string, error) {
	col := column(factAlias, m.Column)
	switch m.Aggregator {
	case schema.AggregatorSum:
		return "SUM(" + col + ")", nil
	case schema.AggregatorCount:
		return "COUNT(" + col + ")", nil
	case schema.AggregatorCountDistinct:
		return "COUNT(DISTINCT " + col + ")", nil
	case schema.AggregatorAvg:
		return "AVG(" + col + ")", nil
	case schema.AggregatorMin:
		return "MIN(" + col + ")", nil
	case schema.AggregatorMax:
		return "MAX(" + col + ")", nil
	default:
		return "", fmt.Errorf("measure %q: unsupported aggregator %q", m.Name, m.Aggregator)
	}
}

func paginate(sb squirrel.SelectBuilder, p request.Pagination) squirrel.SelectBuilder {
	if p.Limit > 0 {
		sb = sb.Limit(uint64(p.Limit))
	}
	if p.Offset > 0 {
		sb = sb.Offset(uint64(p.Offset))
	}
	return sb
}

func direction(d request.Direction) string {
	if d == request.DirectionDesc {
		return "DESC"
	}
	return "ASC"
}

func column(table, col string) string {
	return table + "." + col
}

// quoteIdent quotes an output column name; names may contain spaces.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
