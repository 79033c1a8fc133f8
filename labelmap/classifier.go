package labelmap

import "context"

// Ranking is one candidate label scored against a query by the semantic
// classifier. Scores are in [0, 1] and are not required to sum to 1.
type Ranking struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier ranks candidate labels against a free-text query without
// task-specific training. Implementations return rankings in descending
// score order. Failures and timeouts are returned as errors; the resolver
// treats any error as classifier unavailability and falls back to the raw
// label rather than propagating it.
type Classifier interface {
	Classify(ctx context.Context, query string, candidates []string) ([]Ranking, error)
}

// ClassifierFunc adapts a function into a Classifier.
type ClassifierFunc func(ctx context.Context, query string, candidates []string) ([]Ranking, error)

// Classify calls the underlying function.
func (f ClassifierFunc) Classify(ctx context.Context, query string, candidates []string) ([]Ranking, error) {
	return f(ctx, query, candidates)
}
