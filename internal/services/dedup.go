package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/concurrency"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/logger"
)

const hashCacheSize = 10000

// DedupStep groups entities by content in two passes: size bucketing first,
// then a streaming digest inside buckets with more than one member. Groups
// merge per the entity merge rule.
type DedupStep struct {
	debug *logger.DebugLogger
	cache *lru.Cache[string, string]
}

func NewDedupStep() *DedupStep {
	cache, _ := lru.New[string, string](hashCacheSize)
	return &DedupStep{
		debug: logger.NewDebugLogger("dedup"),
		cache: cache,
	}
}

func (s *DedupStep) Name() string {
	return pipeline.StepRemoveDuplicates
}

func (s *DedupStep) ShouldSkip(ctx *pipeline.Context) bool {
	return false
}

func (s *DedupStep) Execute(ctx *pipeline.Context) pipeline.StepResult {
	tracer := s.debug.StartOperation("remove_duplicates").
		WithInt("entities", ctx.Collection.Len()).
		Build()

	entities := ctx.Collection.Entities()

	// Pass 1: size bucketing. Stat failures route the entity to a unique
	// unprocessable group that never merges.
	type sized struct {
		size int64
		err  error
	}
	sizes := make([]sized, len(entities))

	err := ctx.Concurrency.Do(ctx.Ctx, concurrency.OpDuplicate, len(entities), func(_ context.Context, i int) error {
		info, err := os.Stat(entities[i].Primary.SourcePath)
		if err != nil {
			sizes[i] = sized{err: err}
			return nil
		}
		sizes[i] = sized{size: info.Size()}
		return nil
	})
	if err != nil {
		return pipeline.FailureResult("size bucketing failed", err)
	}

	buckets := make(map[int64][]int)
	for i := range entities {
		if sizes[i].err != nil {
			continue
		}
		buckets[sizes[i].size] = append(buckets[sizes[i].size], i)
	}

	tracer.Step("size_bucketing").
		WithInt("buckets", len(buckets)).
		Log()

	// Pass 2: hash only inside buckets with more than one member. A bucket of
	// one never triggers hashing.
	var mu sync.Mutex
	keys := make([]string, len(entities))
	for i := range entities {
		if sizes[i].err != nil {
			keys[i] = fmt.Sprintf("unprocessable:%s", entities[i].Primary.SourcePath)
		}
	}

	var hashWork []int
	for _, bucket := range buckets {
		if len(bucket) == 1 {
			i := bucket[0]
			keys[i] = fmt.Sprintf("unique:%s", entities[i].Primary.SourcePath)
			continue
		}
		hashWork = append(hashWork, bucket...)
	}

	err = ctx.Concurrency.Do(ctx.Ctx, concurrency.OpHash, len(hashWork), func(_ context.Context, w int) error {
		i := hashWork[w]
		key := s.contentKey(ctx, entities[i].Primary.SourcePath, sizes[i].size)
		mu.Lock()
		keys[i] = key
		mu.Unlock()
		return nil
	})
	if err != nil {
		return pipeline.FailureResult("content hashing failed", err)
	}

	// Merge groups in discovery order.
	representatives := make(map[string]*entity.MediaEntity)
	merged := 0
	var result []*entity.MediaEntity
	for i, e := range entities {
		repr, seen := representatives[keys[i]]
		if !seen {
			representatives[keys[i]] = e
			result = append(result, e)
			continue
		}
		repr.Merge(e)
		merged++
	}

	ctx.Collection.ReplaceAll(result)

	tracer.Success().
		WithInt("entities_before", len(entities)).
		WithInt("entities_after", len(result)).
		WithInt("duplicates_removed", merged).
		Log()

	stepResult := pipeline.SuccessResult("duplicates merged")
	stepResult.Data["duplicates_removed"] = merged
	return stepResult
}

// contentKey returns "<size>_<hex-digest>" for mergeable files, or a reserved
// per-path key for files over the size cap or files that fail to hash.
func (s *DedupStep) contentKey(ctx *pipeline.Context, path string, size int64) string {
	if ctx.Config.EnforceMaxFileSize && size > ctx.Config.MaxFileSize {
		return fmt.Sprintf("oversize:%s", path)
	}

	digest, err := s.digest(ctx, path, size)
	if err != nil {
		zap.S().Warnw("failed to hash file", "path", path, "error", err)
		return fmt.Sprintf("unprocessable:%s", path)
	}
	return fmt.Sprintf("%d_%s", size, digest)
}

// digest computes (or recalls) the sha256 of a file. The cache key includes
// size and mtime so stale entries self-invalidate.
func (s *DedupStep) digest(ctx *pipeline.Context, path string, size int64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	cacheKey := fmt.Sprintf("%s|%d|%d", path, size, info.ModTime().UnixMilli())
	if digest, ok := s.cache.Get(cacheKey); ok {
		return digest, nil
	}

	digest, err := s.streamDigest(ctx, path)
	if err != nil {
		return "", err
	}

	s.cache.Add(cacheKey, digest)
	return digest, nil
}

func (s *DedupStep) streamDigest(ctx *pipeline.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()

	// Fast mode hashes only a prefix; a read failure there falls back to the
	// full stream.
	if ctx.Config.FastHash {
		if _, err := io.CopyN(h, f, ctx.Config.FastHashBytes); err == nil || err == io.EOF {
			return hex.EncodeToString(h.Sum(nil)), nil
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
		h = sha256.New()
	}

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
