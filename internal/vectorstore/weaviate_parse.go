package vectorstore

import (
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// parseGetResponse walks the raw GraphQL Get{} response shape
// ({"data":{"Get":{"<Class>":[{...,"_additional":{"id":...,"certainty":...}}]}}})
// into SearchResults. Weaviate's go client returns graphql.GraphQLResponse
// with a generic Data map, so this is hand-rolled traversal rather than a
// typed decode.
func parseGetResponse(resp *models.GraphQLResponse, class, source string) ([]SearchResult, error) {
	if resp == nil {
		return nil, nil
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate: graphql errors: %v", resp.Errors)
	}

	getData, ok := resp.Data["Get"].(map[string]any)
	if !ok {
		return nil, nil
	}
	rows, ok := getData[class].([]any)
	if !ok {
		return nil, nil
	}

	out := make([]SearchResult, 0, len(rows))
	for _, raw := range rows {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		payload := make(map[string]any, len(obj))
		var id string
		var score float32
		for k, v := range obj {
			if k == "_additional" {
				if add, ok := v.(map[string]any); ok {
					if idVal, ok := add["id"].(string); ok {
						id = idVal
					}
					if cert, ok := add["certainty"].(float64); ok {
						score = float32(cert)
					}
				}
				continue
			}
			payload[k] = v
		}
		out = append(out, SearchResult{
			Point:  Point{ID: id, Payload: payload},
			Score:  score,
			Source: source,
		})
	}
	return out, nil
}

func parseAggregateCount(resp *models.GraphQLResponse, class string) (int, error) {
	if resp == nil {
		return 0, nil
	}
	if len(resp.Errors) > 0 {
		return 0, fmt.Errorf("weaviate: graphql errors: %v", resp.Errors)
	}
	aggData, ok := resp.Data["Aggregate"].(map[string]any)
	if !ok {
		return 0, nil
	}
	rows, ok := aggData[class].([]any)
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	row, ok := rows[0].(map[string]any)
	if !ok {
		return 0, nil
	}
	meta, ok := row["meta"].(map[string]any)
	if !ok {
		return 0, nil
	}
	count, ok := meta["count"].(float64)
	if !ok {
		return 0, nil
	}
	return int(count), nil
}
