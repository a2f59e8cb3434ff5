package qdrant

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"

	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// slotsPayloadKey records which named slots a point populates. It is written
// only for named-slot collections and never returned to callers.
const slotsPayloadKey = vectordb.ReservedPayloadPrefix + "_slots"

// ── Schema Conversion ────────────────────────────────────────────────────────

func toQdrantDistance(d vectordb.Distance) (qdrant.Distance, error) {
	switch d {
	case vectordb.DistanceCosine:
		return qdrant.Distance_Cosine, nil
	case vectordb.DistanceEuclidean:
		return qdrant.Distance_Euclid, nil
	case vectordb.DistanceDot:
		return qdrant.Distance_Dot, nil
	}
	return qdrant.Distance_UnknownDistance, fmt.Errorf("%w: unsupported distance %q", vectordb.ErrInvalidRequest, d)
}

func fromQdrantDistance(d qdrant.Distance) (vectordb.Distance, error) {
	switch d {
	case qdrant.Distance_Cosine:
		return vectordb.DistanceCosine, nil
	case qdrant.Distance_Euclid:
		return vectordb.DistanceEuclidean, nil
	case qdrant.Distance_Dot:
		return vectordb.DistanceDot, nil
	}
	return "", fmt.Errorf("unsupported qdrant distance %s", d.String())
}

// toVectorsConfig maps an unnamed schema to plain vector params and a named
// schema to a params map.
func toVectorsConfig(schema vectordb.Schema) (*qdrant.VectorsConfig, error) {
	if !schema.Named() {
		p := schema[vectordb.DefaultSlot]
		d, err := toQdrantDistance(p.Distance)
		if err != nil {
			return nil, err
		}
		return qdrant.NewVectorsConfig(&qdrant.VectorParams{Size: p.Size, Distance: d}), nil
	}

	params := make(map[string]*qdrant.VectorParams, len(schema))
	for name, p := range schema {
		d, err := toQdrantDistance(p.Distance)
		if err != nil {
			return nil, err
		}
		params[name] = &qdrant.VectorParams{Size: p.Size, Distance: d}
	}
	return qdrant.NewVectorsConfigMap(params), nil
}

// schemaFromInfo navigates the nested oneof wrappers of a CollectionInfo.
func schemaFromInfo(info *qdrant.CollectionInfo) (vectordb.Schema, error) {
	if info == nil ||
		info.GetConfig() == nil ||
		info.GetConfig().GetParams() == nil ||
		info.GetConfig().GetParams().GetVectorsConfig() == nil {
		return nil, fmt.Errorf("collection info has no vectors config")
	}

	switch cfg := info.GetConfig().GetParams().GetVectorsConfig().GetConfig().(type) {
	case *qdrant.VectorsConfig_Params:
		d, err := fromQdrantDistance(cfg.Params.GetDistance())
		if err != nil {
			return nil, err
		}
		return vectordb.SingleVector(cfg.Params.GetSize(), d), nil
	case *qdrant.VectorsConfig_ParamsMap:
		schema := make(vectordb.Schema, len(cfg.ParamsMap.GetMap()))
		for name, p := range cfg.ParamsMap.GetMap() {
			d, err := fromQdrantDistance(p.GetDistance())
			if err != nil {
				return nil, err
			}
			schema[name] = vectordb.VectorParams{Size: p.GetSize(), Distance: d}
		}
		return schema, nil
	}
	return nil, fmt.Errorf("unexpected vectors config %T", info.GetConfig().GetParams().GetVectorsConfig().GetConfig())
}

// ── Point Conversion ─────────────────────────────────────────────────────────

// toPointID keeps numeric identifiers numeric; everything else is a UUID.
func toPointID(id string) *qdrant.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return qdrant.NewIDNum(n)
	}
	return qdrant.NewID(id)
}

func fromPointID(id *qdrant.PointId) (string, error) {
	if id == nil {
		return "", fmt.Errorf("nil point ID")
	}
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Num:
		return strconv.FormatUint(v.Num, 10), nil
	case *qdrant.PointId_Uuid:
		return v.Uuid, nil
	}
	return "", fmt.Errorf("unexpected PointId type: %T", id.GetPointIdOptions())
}

func toPointStruct(p vectordb.Point) (*qdrant.PointStruct, error) {
	payload := vectordb.ClonePayload(p.Payload)

	var vectors *qdrant.Vectors
	if v, unnamed := p.Vectors[vectordb.DefaultSlot]; unnamed && len(p.Vectors) == 1 {
		vectors = qdrant.NewVectors(v...)
	} else {
		named := make(map[string]*qdrant.Vector, len(p.Vectors))
		for slot, v := range p.Vectors {
			named[slot] = qdrant.NewVector(v...)
		}
		vectors = qdrant.NewVectorsMap(named)

		populated := p.Populated
		if populated == nil {
			for slot := range p.Vectors {
				populated = append(populated, slot)
			}
		}
		slots := make([]any, len(populated))
		for i, s := range populated {
			slots[i] = s
		}
		payload[slotsPayloadKey] = slots
	}

	values, err := qdrant.TryValueMap(normalizePayload(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: payload of point %s: %w", vectordb.ErrInvalidRequest, p.ID, err)
	}
	return &qdrant.PointStruct{
		Id:      toPointID(p.ID),
		Vectors: vectors,
		Payload: values,
	}, nil
}

// normalizePayload rewrites typed slices and maps TryValueMap does not know
// into []any and map[string]any.
func normalizePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizePayload(val)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = normalizeValue(item)
		}
		return items
	case []string:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = item
		}
		return items
	case []byte:
		// Same text form encoding/json gives []byte on the pgvector backend.
		return base64.StdEncoding.EncodeToString(val)
	case int32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	}
	return v
}

// fromScoredPoint converts a result and normalizes its score to
// higher-is-better for d.
func fromScoredPoint(r *qdrant.ScoredPoint, d vectordb.Distance) (vectordb.Match, error) {
	id, err := fromPointID(r.GetId())
	if err != nil {
		return vectordb.Match{}, err
	}
	payload := convertPayload(r.GetPayload())
	delete(payload, slotsPayloadKey)
	return vectordb.Match{
		ID:      id,
		Score:   normalizeScore(r.GetScore(), d),
		Payload: payload,
	}, nil
}

// normalizeScore turns Qdrant's euclidean distance into 1/(1+d). Cosine and
// dot scores are already similarities.
func normalizeScore(score float32, d vectordb.Distance) float32 {
	if math.IsNaN(float64(score)) {
		return 0
	}
	if d == vectordb.DistanceEuclidean {
		return 1 / (1 + score)
	}
	return score
}

// convertPayload converts Qdrant's protobuf payload to a generic map.
func convertPayload(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		result[k] = extractValue(v)
	}
	return result
}

// extractValue recursively converts a Qdrant Value to a Go native type.
func extractValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_StructValue:
		if val.StructValue == nil {
			return nil
		}
		return convertPayload(val.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		if val.ListValue == nil {
			return nil
		}
		items := make([]any, len(val.ListValue.GetValues()))
		for i, item := range val.ListValue.GetValues() {
			items[i] = extractValue(item)
		}
		return items
	}
	return nil
}

// ── Filter Conversion ────────────────────────────────────────────────────────

// buildFilter converts a FilterSet to a Qdrant filter and, for named slots,
// restricts the candidates to points that populate slot.
func buildFilter(filters *vectordb.FilterSet, slot string, includePlaceholders bool) (*qdrant.Filter, error) {
	filter := &qdrant.Filter{}
	if !filters.IsEmpty() {
		var err error
		if filter.Must, err = convertConditions(filters.Must); err != nil {
			return nil, err
		}
		if filter.Should, err = convertConditions(filters.Should); err != nil {
			return nil, err
		}
		if filter.MustNot, err = convertConditions(filters.MustNot); err != nil {
			return nil, err
		}
	}
	if slot != vectordb.DefaultSlot && !includePlaceholders {
		filter.Must = append(filter.Must, qdrant.NewMatch(slotsPayloadKey, slot))
	}

	if len(filter.Must) == 0 && len(filter.Should) == 0 && len(filter.MustNot) == 0 {
		return nil, nil
	}
	return filter, nil
}

func convertConditions(conds []vectordb.FilterCondition) ([]*qdrant.Condition, error) {
	out := make([]*qdrant.Condition, 0, len(conds))
	for _, c := range conds {
		qc, err := convertCondition(c)
		if err != nil {
			return nil, err
		}
		out = append(out, qc)
	}
	return out, nil
}

func convertCondition(c vectordb.FilterCondition) (*qdrant.Condition, error) {
	switch cond := c.(type) {
	case *vectordb.MatchCondition:
		return matchValue(cond.Field, cond.Value)
	case *vectordb.MatchAnyCondition:
		return matchAny(cond.Field, cond.Values)
	case *vectordb.MatchExceptCondition:
		in, err := matchAny(cond.Field, cond.Values)
		if err != nil {
			return nil, err
		}
		// Present and not one of the values.
		return filterCondition(&qdrant.Filter{
			MustNot: []*qdrant.Condition{in, qdrant.NewIsEmpty(cond.Field)},
		}), nil
	case *vectordb.NumericRangeCondition:
		return qdrant.NewRange(cond.Field, &qdrant.Range{
			Gt:  cond.Range.Gt,
			Gte: cond.Range.Gte,
			Lt:  cond.Range.Lt,
			Lte: cond.Range.Lte,
		}), nil
	}
	return nil, fmt.Errorf("%w: unsupported filter condition %T", vectordb.ErrInvalidRequest, c)
}

// matchValue builds an equality condition. Qdrant matches integers exactly;
// fractional numbers become a closed range on the value.
func matchValue(key string, value any) (*qdrant.Condition, error) {
	switch v := value.(type) {
	case string:
		return qdrant.NewMatch(key, v), nil
	case bool:
		return qdrant.NewMatchBool(key, v), nil
	}
	if n, ok := asInt(value); ok {
		return qdrant.NewMatchInt(key, n), nil
	}
	if f, ok := asFloat(value); ok {
		return qdrant.NewRange(key, &qdrant.Range{Gte: &f, Lte: &f}), nil
	}
	return nil, fmt.Errorf("%w: unsupported value type %T on %q", vectordb.ErrInvalidRequest, value, key)
}

// matchAny uses Qdrant's native keyword and integer IN conditions and falls
// back to an OR of equality conditions for other value types.
func matchAny(key string, values []any) (*qdrant.Condition, error) {
	strs := make([]string, 0, len(values))
	ints := make([]int64, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			strs = append(strs, s)
		} else if n, ok := asInt(v); ok {
			ints = append(ints, n)
		}
	}
	switch {
	case len(strs) == len(values):
		return qdrant.NewMatchKeywords(key, strs...), nil
	case len(ints) == len(values):
		return qdrant.NewMatchInts(key, ints...), nil
	}

	should := make([]*qdrant.Condition, 0, len(values))
	for _, v := range values {
		c, err := matchValue(key, v)
		if err != nil {
			return nil, err
		}
		should = append(should, c)
	}
	return filterCondition(&qdrant.Filter{Should: should}), nil
}

func filterCondition(f *qdrant.Filter) *qdrant.Condition {
	return &qdrant.Condition{ConditionOneOf: &qdrant.Condition_Filter{Filter: f}}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n), true
		}
	case float32:
		f := float64(n)
		if f == math.Trunc(f) && math.Abs(f) < 1<<24 {
			return int64(f), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
