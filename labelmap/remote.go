package labelmap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// DefaultClassifyTimeout bounds a single zero-shot call unless the caller's
// context is stricter.
const DefaultClassifyTimeout = 10 * time.Second

type classifyRequest struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidate_labels"`
}

type classifyResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// RemoteClassifier calls a zero-shot classification endpoint over HTTP. The
// endpoint receives {"query", "candidate_labels"} and answers parallel
// "labels" and "scores" arrays in descending score order.
type RemoteClassifier struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewRemoteClassifier returns a classifier backed by the endpoint at url.
// A non-positive timeout uses DefaultClassifyTimeout.
func NewRemoteClassifier(url string, timeout time.Duration) *RemoteClassifier {
	if timeout <= 0 {
		timeout = DefaultClassifyTimeout
	}
	return &RemoteClassifier{url: url, timeout: timeout, client: &http.Client{}}
}

// Classify implements Classifier.
func (rc *RemoteClassifier) Classify(ctx context.Context, query string, candidates []string) ([]Ranking, error) {
	ctx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()

	body, err := json.Marshal(classifyRequest{Query: query, Candidates: candidates})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rc.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "zero-shot request failed")
	}
	defer utils.UncheckedErrorFunc(resp.Body.Close)
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("zero-shot endpoint returned status %d", resp.StatusCode)
	}

	var decoded classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "malformed zero-shot response")
	}
	if len(decoded.Labels) != len(decoded.Scores) {
		return nil, errors.Errorf(
			"zero-shot response has %d labels but %d scores", len(decoded.Labels), len(decoded.Scores))
	}
	rankings := make([]Ranking, len(decoded.Labels))
	for i, label := range decoded.Labels {
		rankings[i] = Ranking{Label: label, Score: decoded.Scores[i]}
	}
	return rankings, nil
}
