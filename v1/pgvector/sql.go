package pgvector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/jackc/pgx/v5"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// Bound parameters are cast through text so pgx never has to pick an
// encoding for the jsonb, vector and text[] server types.
const (
	jsonbParam  = "?::text::jsonb"
	vectorParam = "?::text::vector"
	pathParam   = "?::text::text[]"
)

// ── Identifiers ──────────────────────────────────────────────────────────────

// relationName derives the per-collection table name. Collection names are
// case sensitive and may be longer than a PostgreSQL identifier allows, so
// the table is keyed by a hash of the name.
func relationName(collection string) string {
	return "vs_" + strconv.FormatUint(xxhash.Sum64String(collection), 16)
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// vectorColumns maps each slot to its column, in sorted slot order.
func vectorColumns(schema vectordb.Schema) map[string]string {
	cols := make(map[string]string, len(schema))
	for i, slot := range schema.Slots() {
		cols[slot] = fmt.Sprintf("vec_%d", i)
	}
	return cols
}

// ── DDL ──────────────────────────────────────────────────────────────────────

func createTableSQL(relation string, schema vectordb.Schema) string {
	cols := vectorColumns(schema)
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (", quoteIdent(relation))
	b.WriteString("id text PRIMARY KEY, ")
	b.WriteString("seq bigserial NOT NULL, ")
	b.WriteString("payload jsonb NOT NULL DEFAULT '{}'::jsonb, ")
	b.WriteString("populated jsonb NOT NULL DEFAULT '[]'::jsonb")
	for _, slot := range schema.Slots() {
		fmt.Fprintf(&b, ", %s vector(%d) NOT NULL", cols[slot], schema[slot].Size)
	}
	b.WriteString(")")
	return b.String()
}

// ── Upsert ───────────────────────────────────────────────────────────────────

// upsertSQL replaces every column except seq on conflict, so a replaced point
// keeps its original insertion position.
func upsertSQL(relation string, schema vectordb.Schema) string {
	cols := vectorColumns(schema)
	names := []string{"id", "payload", "populated"}
	params := []string{"?", jsonbParam, jsonbParam}
	for _, slot := range schema.Slots() {
		names = append(names, cols[slot])
		params = append(params, vectorParam)
	}

	updates := make([]string, 0, len(names)-1)
	for _, n := range names[1:] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", n, n))
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		quoteIdent(relation),
		strings.Join(names, ", "),
		strings.Join(params, ", "),
		strings.Join(updates, ", "))
}

func upsertArgs(schema vectordb.Schema, p vectordb.Point) ([]any, error) {
	payload, err := encodePayload(p.Payload)
	if err != nil {
		return nil, err
	}
	populated := p.Populated
	if populated == nil {
		for _, slot := range schema.Slots() {
			if _, ok := p.Vectors[slot]; ok {
				populated = append(populated, slot)
			}
		}
	}
	slots, err := json.Marshal(populated)
	if err != nil {
		return nil, err
	}
	if populated == nil {
		slots = []byte("[]")
	}

	args := []any{p.ID, payload, string(slots)}
	for _, slot := range schema.Slots() {
		v, ok := p.Vectors[slot]
		if !ok {
			v = vectordb.ZeroVector(schema[slot].Size)
		}
		args = append(args, vectorLiteral(v))
	}
	return args, nil
}

// vectorLiteral renders v in pgvector's text input form, e.g. "[1,0.5,-2]".
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*8 + 2)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// ── Search ───────────────────────────────────────────────────────────────────

// distanceExpr returns the ordering expression for a metric. Smaller is
// better for all three operators; cosine of a zero vector is NaN in pgvector
// and is treated as distance 1, i.e. similarity 0.
func distanceExpr(column string, d vectordb.Distance) (string, error) {
	switch d {
	case vectordb.DistanceCosine:
		return fmt.Sprintf("COALESCE(NULLIF(%s <=> %s, 'NaN'::float8), 1)", column, vectorParam), nil
	case vectordb.DistanceEuclidean:
		return fmt.Sprintf("(%s <-> %s)", column, vectorParam), nil
	case vectordb.DistanceDot:
		return fmt.Sprintf("(%s <#> %s)", column, vectorParam), nil
	}
	return "", fmt.Errorf("%w: unsupported distance %q", vectordb.ErrInvalidRequest, d)
}

// scoreFromDistance converts the operator result into a higher-is-better score.
func scoreFromDistance(dist float64, d vectordb.Distance) float32 {
	if math.IsNaN(dist) {
		return 0
	}
	switch d {
	case vectordb.DistanceCosine:
		return float32(1 - dist)
	case vectordb.DistanceEuclidean:
		return float32(1 / (1 + dist))
	case vectordb.DistanceDot:
		// <#> returns the negative inner product.
		return float32(-dist)
	}
	return float32(dist)
}

// searchSQL assembles the ranking query and its arguments in placeholder order.
func searchSQL(relation string, schema vectordb.Schema, q vectordb.Query) (string, []any, error) {
	column, ok := vectorColumns(schema)[q.Slot]
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown slot %q", vectordb.ErrInvalidRequest, q.Slot)
	}
	dist, err := distanceExpr(column, q.Distance)
	if err != nil {
		return "", nil, err
	}
	args := []any{vectorLiteral(q.Vector)}

	var where []string
	if schema.Named() && !q.IncludePlaceholders {
		where = append(where, "populated @> "+jsonbParam)
		slot, _ := json.Marshal([]string{q.Slot})
		args = append(args, string(slot))
	}
	filter, filterArgs, err := filterSQL(q.Filter)
	if err != nil {
		return "", nil, err
	}
	if filter != "" {
		where = append(where, filter)
		args = append(args, filterArgs...)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT id, payload::text AS payload, %s AS distance FROM %s", dist, quoteIdent(relation))
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY distance, seq LIMIT ?")
	args = append(args, q.Limit)
	return b.String(), args, nil
}

// ── Filters ──────────────────────────────────────────────────────────────────

// filterSQL renders a FilterSet as a boolean SQL expression over the payload
// column. It returns "" when the set is empty.
func filterSQL(fs *vectordb.FilterSet) (string, []any, error) {
	if fs.IsEmpty() {
		return "", nil, nil
	}

	var parts []string
	var args []any

	for _, c := range fs.Must {
		expr, a, err := conditionSQL(c)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, expr)
		args = append(args, a...)
	}

	if len(fs.Should) > 0 {
		var should []string
		for _, c := range fs.Should {
			expr, a, err := conditionSQL(c)
			if err != nil {
				return "", nil, err
			}
			should = append(should, expr)
			args = append(args, a...)
		}
		parts = append(parts, "("+strings.Join(should, " OR ")+")")
	}

	for _, c := range fs.MustNot {
		expr, a, err := conditionSQL(c)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "NOT "+expr)
		args = append(args, a...)
	}

	return "(" + strings.Join(parts, " AND ") + ")", args, nil
}

// conditionSQL renders one condition. Every expression is total, i.e. a
// missing field yields false rather than NULL, so NOT behaves as expected.
func conditionSQL(c vectordb.FilterCondition) (string, []any, error) {
	switch cond := c.(type) {
	case *vectordb.MatchCondition:
		return equalsSQL(cond.Field, cond.Value)

	case *vectordb.MatchAnyCondition:
		return anyOfSQL(cond.Field, cond.Values)

	case *vectordb.MatchExceptCondition:
		in, a, err := anyOfSQL(cond.Field, cond.Values)
		if err != nil {
			return "", nil, err
		}
		expr := fmt.Sprintf("(payload #> %s IS NOT NULL AND NOT %s)", pathParam, in)
		return expr, append([]any{jsonPath(cond.Field)}, a...), nil

	case *vectordb.NumericRangeCondition:
		return rangeSQL(cond.Field, cond.Range)
	}
	return "", nil, fmt.Errorf("%w: unsupported filter condition %T", vectordb.ErrInvalidRequest, c)
}

func equalsSQL(field string, value any) (string, []any, error) {
	path := jsonPath(field)
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("COALESCE(payload #> %s = to_jsonb(?::text), false)", pathParam), []any{path, v}, nil
	case bool:
		return fmt.Sprintf("COALESCE(payload #> %s = to_jsonb(?::boolean), false)", pathParam), []any{path, v}, nil
	}
	if f, ok := numeric(value); ok {
		expr := fmt.Sprintf("COALESCE(CASE WHEN jsonb_typeof(payload #> %s) = 'number' THEN (payload #> %s)::float8 = ?::float8 ELSE false END, false)",
			pathParam, pathParam)
		return expr, []any{path, path, f}, nil
	}
	return "", nil, fmt.Errorf("%w: unsupported match value %T on %q", vectordb.ErrInvalidRequest, value, field)
}

func anyOfSQL(field string, values []any) (string, []any, error) {
	exprs := make([]string, 0, len(values))
	var args []any
	for _, v := range values {
		expr, a, err := equalsSQL(field, v)
		if err != nil {
			return "", nil, err
		}
		exprs = append(exprs, expr)
		args = append(args, a...)
	}
	return "(" + strings.Join(exprs, " OR ") + ")", args, nil
}

func rangeSQL(field string, r vectordb.NumericRange) (string, []any, error) {
	path := jsonPath(field)
	var bounds []string
	args := []any{path}
	add := func(op string, bound *float64) {
		if bound == nil {
			return
		}
		bounds = append(bounds, fmt.Sprintf("(payload #> %s)::float8 %s ?::float8", pathParam, op))
		args = append(args, path, *bound)
	}
	add(">", r.Gt)
	add(">=", r.Gte)
	add("<", r.Lt)
	add("<=", r.Lte)
	if len(bounds) == 0 {
		return "", nil, fmt.Errorf("%w: range on %q has no bounds", vectordb.ErrInvalidRequest, field)
	}
	expr := fmt.Sprintf("COALESCE(CASE WHEN jsonb_typeof(payload #> %s) = 'number' THEN %s ELSE false END, false)",
		pathParam, strings.Join(bounds, " AND "))
	return expr, args, nil
}

// jsonPath renders a dotted field as a text[] literal, e.g. {"meta","source"}.
func jsonPath(field string) string {
	parts := strings.Split(field, ".")
	for i, p := range parts {
		p = strings.ReplaceAll(p, `\`, `\\`)
		p = strings.ReplaceAll(p, `"`, `\"`)
		parts[i] = `"` + p + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// ── Payload ──────────────────────────────────────────────────────────────────

func encodePayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: payload is not JSON encodable: %w", vectordb.ErrInvalidRequest, err)
	}
	return string(b), nil
}

// decodePayload parses a stored payload. Integral numbers come back as int64
// and all other numbers as float64.
func decodePayload(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	for k, v := range out {
		out[k] = normalizeNumber(v)
	}
	return out, nil
}

func normalizeNumber(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeNumber(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalizeNumber(inner)
		}
		return t
	}
	return v
}
