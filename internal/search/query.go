package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// MatchBlogIDs returns the IDs of every blog whose title or description
// matches any analyzed term of text. Ranking is irrelevant to callers, who
// apply their own ordering, so all hits are returned.
func (s *SearchIndex) MatchBlogIDs(ctx context.Context, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if total == 0 {
		return []string{}, nil
	}

	req := bleve.NewSearchRequestOptions(buildMatchQuery(text), int(total), 0, false)
	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// buildMatchQuery matches text against title or description.
// Each match query ORs its terms.
func buildMatchQuery(text string) query.Query {
	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(2.0)
	titleMatch.SetOperator(query.MatchQueryOperatorOr)

	descMatch := bleve.NewMatchQuery(text)
	descMatch.SetField("description")
	descMatch.SetOperator(query.MatchQueryOperatorOr)

	return bleve.NewDisjunctionQuery(titleMatch, descMatch)
}
