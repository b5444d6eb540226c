package indices

import (
	"encoding/json"
	"stocktrack/account"
	"stocktrack/authority"
	"stocktrack/catalog"
	"stocktrack/client/es"
	"stocktrack/domain/state"
	"stocktrack/session"
	"strings"
)

var (
	IsAdminFunc = account.IsAdmin

	wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
)

// SearchProducts is the index backed equivalent of catalog.SearchProducts.
func SearchProducts(term string, s *session.Session) ([]catalog.ProductView, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []catalog.ProductView{}, nil
	}
	if err := authority.RequireTablePermission(s, authority.TableProduct, authority.LevelRead); err != nil {
		return nil, err
	}
	admin := IsAdminFunc(s.Ctx(), s.Identity.ID)

	result, err := es.SearchFunc(s.Ctx(), ProductIndexName, productQuery(term, admin))
	if err != nil {
		return nil, err
	}
	views := make([]catalog.ProductView, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		doc := ProductDocument{}
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, err
		}
		if doc.CurrentPrice == nil {
			continue
		}
		views = append(views, doc.View(admin))
	}
	return views, nil
}

func productQuery(term string, admin bool) es.H {
	pattern := "*" + wildcardEscaper.Replace(strings.ToLower(term)) + "*"
	boolQuery := es.H{
		"should": []es.H{
			{"wildcard": es.H{"prodcode.keyword": es.H{"value": pattern, "case_insensitive": true}}},
			{"wildcard": es.H{"description.keyword": es.H{"value": pattern, "case_insensitive": true}}},
		},
		"minimum_should_match": 1,
		"filter":               []es.H{{"exists": es.H{"field": "currentPrice"}}},
	}
	if !admin {
		boolQuery["must_not"] = []es.H{{"term": es.H{"status.keyword": state.StatusDeleted}}}
	}
	return es.H{
		"size":  catalog.SearchResultLimit,
		"query": es.H{"bool": boolQuery},
		"sort":  []es.H{{"prodcode.keyword": es.H{"order": "asc"}}},
	}
}
