package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/fanlore-io/creatordex/internal/db"
)

// vectorScoreField is the attribute RediSearch attaches KNN distances to.
// The schema must alias its vector field as "vector".
const vectorScoreField = "__vector_score"

// SearchKNN runs a k-nearest-neighbour query. Entries come back ordered by
// ascending distance with Score converted to a similarity in [0,1].
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.K <= 0 {
		return &db.SearchResult{}, nil
	}
	query := fmt.Sprintf("*=>[KNN %d @vector $vec]", q.K)

	args := []string{q.Index, query, "PARAMS", "2", "vec", string(vectorToBytes(q.Vector))}
	if len(q.ReturnFields) > 0 {
		fields := append(append([]string{}, q.ReturnFields...), vectorScoreField)
		args = append(args, "RETURN", strconv.Itoa(len(fields)))
		args = append(args, fields...)
	}
	args = append(args, "SORTBY", vectorScoreField, "LIMIT", "0", strconv.Itoa(q.K), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	resp := s.client.Do(ctx, cmd)
	if err := resp.Error(); err != nil {
		if isRedisErr(err, "unknown index") || isRedisErr(err, "no such index") {
			return nil, db.NewError(db.OpFTSearchKNN, db.ErrIndexNotFound)
		}
		return nil, db.NewError(db.OpFTSearchKNN, err)
	}
	result, err := parseSearchReply(resp, true)
	if err != nil {
		return nil, db.NewError(db.OpFTSearchKNN, err)
	}
	return result, nil
}

// SearchTags runs a conjunctive tag query with pagination.
func (s *Store) SearchTags(ctx context.Context, q *db.TagQuery) (*db.SearchResult, error) {
	args := []string{q.Index, buildTagQuery(q), "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit)}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}
	args = append(args, "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	resp := s.client.Do(ctx, cmd)
	if err := resp.Error(); err != nil {
		if isRedisErr(err, "unknown index") || isRedisErr(err, "no such index") {
			return nil, db.NewError(db.OpFTSearch, db.ErrIndexNotFound)
		}
		return nil, db.NewError(db.OpFTSearch, err)
	}
	result, err := parseSearchReply(resp, false)
	if err != nil {
		return nil, db.NewError(db.OpFTSearch, err)
	}
	return result, nil
}

// Count returns the number of documents matching a tag query.
func (s *Store) Count(ctx context.Context, q *db.TagQuery) (int, error) {
	args := []string{q.Index, buildTagQuery(q), "LIMIT", "0", "0", "DIALECT", "2"}
	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	resp := s.client.Do(ctx, cmd)
	if err := resp.Error(); err != nil {
		if isRedisErr(err, "unknown index") || isRedisErr(err, "no such index") {
			return 0, db.NewError(db.OpFTSearch, db.ErrIndexNotFound)
		}
		return 0, db.NewError(db.OpFTSearch, err)
	}
	arr, err := resp.ToArray()
	if err != nil {
		return 0, db.NewError(db.OpFTSearch, err)
	}
	if len(arr) == 0 {
		return 0, db.NewError(db.OpFTSearch, fmt.Errorf("empty search reply"))
	}
	total, err := arr[0].AsInt64()
	if err != nil {
		return 0, db.NewError(db.OpFTSearch, err)
	}
	return int(total), nil
}

// buildTagQuery assembles a conjunctive query string. Tag fields are
// emitted in sorted order so commands are deterministic.
func buildTagQuery(q *db.TagQuery) string {
	var parts []string

	fields := make([]string, 0, len(q.Tags))
	for f := range q.Tags {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("@%s:{%s}", f, escapeTag(q.Tags[f])))
	}
	if q.Prefix != nil {
		parts = append(parts, fmt.Sprintf("@%s:{%s*}", q.Prefix.Field, escapeTag(q.Prefix.Value)))
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// tagEscaper escapes characters with query syntax meaning inside tag values.
var tagEscaper = strings.NewReplacer(
	",", "\\,", ".", "\\.", "<", "\\<", ">", "\\>",
	"{", "\\{", "}", "\\}", "[", "\\[", "]", "\\]",
	"\"", "\\\"", "'", "\\'", ":", "\\:", ";", "\\;",
	"!", "\\!", "@", "\\@", "#", "\\#", "$", "\\$",
	"%", "\\%", "^", "\\^", "&", "\\&", "*", "\\*",
	"(", "\\(", ")", "\\)", "-", "\\-", "+", "\\+",
	"=", "\\=", "~", "\\~", "|", "\\|", " ", "\\ ",
)

func escapeTag(v string) string {
	return tagEscaper.Replace(v)
}

// parseSearchReply decodes the RESP2 FT.SEARCH reply shape:
// [total, key1, [field, value, ...], key2, [...], ...].
func parseSearchReply(resp rueidis.RedisResult, withScore bool) (*db.SearchResult, error) {
	arr, err := resp.ToArray()
	if err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("empty search reply")
	}
	total, err := arr[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	result := &db.SearchResult{Total: int(total)}
	for i := 1; i+1 < len(arr); i += 2 {
		key, err := arr[i].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse key: %w", err)
		}
		fields, err := parseFieldPairs(arr[i+1])
		if err != nil {
			return nil, fmt.Errorf("parse fields for %q: %w", key, err)
		}

		entry := db.SearchEntry{Key: key, Fields: fields}
		if withScore {
			if raw, ok := fields[vectorScoreField]; ok {
				dist, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("parse score for %q: %w", key, err)
				}
				// Cosine distance to similarity, clamped at zero.
				entry.Score = math.Max(0, 1.0-dist)
				delete(fields, vectorScoreField)
			}
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func parseFieldPairs(msg rueidis.RedisMessage) (map[string]string, error) {
	arr, err := msg.ToArray()
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(arr)/2)
	for i := 0; i+1 < len(arr); i += 2 {
		name, err := arr[i].ToString()
		if err != nil {
			return nil, err
		}
		value, err := arr[i+1].ToString()
		if err != nil {
			return nil, err
		}
		fields[name] = value
	}
	return fields, nil
}

// vectorToBytes encodes a float32 slice as the little-endian blob
// RediSearch expects for vector parameters.
func vectorToBytes(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
