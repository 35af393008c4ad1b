// Package dedupe keeps the pipeline from producing a video on a topic it
// already covered. Recently published topics are embedded and cached in
// Redis; a candidate topic whose embedding lands too close to any of them is
// rejected back to the caller.
package dedupe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// SimilarityThreshold is the cosine similarity above which two topics
	// count as the same story.
	SimilarityThreshold = 0.88

	// historySize caps how many published-topic vectors are kept.
	historySize = 50

	defaultKey = "giggle:published:vectors"

	opTimeout = 5 * time.Second
)

// Embedder produces one embedding vector per input text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Result describes the outcome of a similarity check.
type Result struct {
	IsDuplicate     bool    `json:"is_duplicate"`
	SimilarityScore float64 `json:"similarity_score"`
	MatchingID      string  `json:"matching_id,omitempty"`
}

// entry is one cached vector in the Redis history list.
type entry struct {
	ID     string    `json:"id"`
	Vector []float32 `json:"vector"`
}

// Guard checks candidate topics against recently published ones.
type Guard struct {
	rdb      *redis.Client
	embedder Embedder
	key      string
}

// GuardConfig configures the Redis connection for a Guard.
type GuardConfig struct {
	Addr     string
	Password string
	Key      string
}

// NewGuard connects to Redis and verifies connectivity.
func NewGuard(cfg GuardConfig, embedder Embedder) (*Guard, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cfg.Key == "" {
		cfg.Key = defaultKey
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &Guard{rdb: rdb, embedder: embedder, key: cfg.Key}, nil
}

// Check embeds the candidate text and compares it to the published history.
func (g *Guard) Check(ctx context.Context, text string) (*Result, error) {
	history, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return &Result{}, nil
	}

	vecs, err := g.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed candidate: %w", err)
	}
	candidate := vecs[0]

	best := &Result{}
	for _, e := range history {
		score := CosineSimilarity(candidate, e.Vector)
		if score > best.SimilarityScore {
			best.SimilarityScore = score
			best.MatchingID = e.ID
		}
	}
	best.IsDuplicate = best.SimilarityScore >= SimilarityThreshold

	if best.IsDuplicate {
		logrus.WithFields(logrus.Fields{
			"match": best.MatchingID,
			"score": best.SimilarityScore,
		}).Info("candidate topic rejected as near-duplicate")
	}
	return best, nil
}

// Record adds a published topic's embedding to the history, evicting the
// oldest entries beyond the cap.
func (g *Guard) Record(ctx context.Context, id, text string) error {
	vecs, err := g.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed published topic: %w", err)
	}

	raw, err := json.Marshal(entry{ID: id, Vector: vecs[0]})
	if err != nil {
		return err
	}

	pipe := g.rdb.TxPipeline()
	pipe.LPush(ctx, g.key, raw)
	pipe.LTrim(ctx, g.key, 0, historySize-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record published topic %s: %w", id, err)
	}
	return nil
}

// Close releases the Redis connection.
func (g *Guard) Close() error {
	return g.rdb.Close()
}

func (g *Guard) load(ctx context.Context) ([]entry, error) {
	raws, err := g.rdb.LRange(ctx, g.key, 0, historySize-1).Result()
	if err != nil {
		return nil, fmt.Errorf("load published history: %w", err)
	}
	entries := make([]entry, 0, len(raws))
	for _, raw := range raws {
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue // skip corrupt entries
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// CosineSimilarity computes the cosine similarity of two vectors. Mismatched
// or zero-length vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
