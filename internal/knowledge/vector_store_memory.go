package knowledge

import (
	"context"
	"math"
	"sort"
	"sync"
)

// memoryVectorStore 进程内向量存储
//
// 暴力余弦检索，用于开发环境与测试。读写通过RWMutex保护，
// Rebuild 构建完整副本后整体替换，并发查询只会看到旧或新的完整索引。
type memoryVectorStore struct {
	mu      sync.RWMutex
	entries []IndexEntry
	byID    map[string]int
}

// NewMemoryVectorStore 创建进程内向量存储
func NewMemoryVectorStore() VectorStore {
	return &memoryVectorStore{
		byID: make(map[string]int),
	}
}

func (s *memoryVectorStore) Upsert(ctx context.Context, entries []IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if pos, ok := s.byID[entry.EmbeddingID]; ok {
			// 幂等覆盖，保持原插入位置
			s.entries[pos] = entry
			continue
		}
		s.byID[entry.EmbeddingID] = len(s.entries)
		s.entries = append(s.entries, entry)
	}
	return nil
}

func (s *memoryVectorStore) DeletePolicy(ctx context.Context, policyID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, entry := range s.entries {
		if entry.Metadata.PolicyID != policyID {
			kept = append(kept, entry)
		}
	}
	s.entries = kept
	s.byID = make(map[string]int, len(s.entries))
	for i, entry := range s.entries {
		s.byID[entry.EmbeddingID] = i
	}
	return nil
}

func (s *memoryVectorStore) Rebuild(ctx context.Context, entries []IndexEntry) error {
	fresh := make([]IndexEntry, len(entries))
	copy(fresh, entries)
	byID := make(map[string]int, len(fresh))
	for i, entry := range fresh {
		byID[entry.EmbeddingID] = i
	}

	s.mu.Lock()
	s.entries = fresh
	s.byID = byID
	s.mu.Unlock()
	return nil
}

func (s *memoryVectorStore) Query(ctx context.Context, vector []float32, topK int, category string) ([]VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(vector) == 0 || len(s.entries) == 0 {
		return []VectorMatch{}, nil
	}
	if topK <= 0 {
		topK = 5
	}

	matches := make([]VectorMatch, 0, len(s.entries))
	for _, entry := range s.entries {
		if category != "" && entry.Metadata.Category != category {
			continue
		}
		matches = append(matches, VectorMatch{
			EmbeddingID: entry.EmbeddingID,
			Content:     entry.Content,
			Metadata:    entry.Metadata,
			Distance:    cosineDistance(vector, entry.Vector),
		})
	}

	// 距离升序，相同距离按插入顺序
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *memoryVectorStore) Ready() bool {
	return true
}

func cosineDistance(a, b []float32) float64 {
	// 宽度不一致视为完全不相似，不做截断比较
	if len(a) != len(b) {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
