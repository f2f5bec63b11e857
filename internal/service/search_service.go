package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/pinboard/internal/repository"
	"github.com/d60-Lab/pinboard/pkg/apperr"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	tagCloudSize       = 10
)

type SearchQuery struct {
	Q      string
	Sort   string
	Limit  int
	Offset int
}

// SearchHit 单条搜索结果，Tags 为逗号拼接的标签
type SearchHit struct {
	repository.SearchRow
	Tags    string   `json:"tags"`
	TagList []string `json:"tag_list"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type SearchResult struct {
	Keywords []string    `json:"keywords"`
	Sort     string      `json:"sort"`
	Hits     []SearchHit `json:"hits"`
	TagCloud []TagCount  `json:"tag_cloud"`
}

type SearchService interface {
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)
}

type searchService struct {
	store *repository.Store
}

func NewSearchService(store *repository.Store) SearchService {
	return &searchService{store: store}
}

// Keywords 按空白切分并转小写
func Keywords(q string) []string {
	return strings.Fields(strings.ToLower(q))
}

func ParseSort(s string) (repository.SearchSort, error) {
	switch repository.SearchSort(strings.ToLower(strings.TrimSpace(s))) {
	case "", repository.SortRelevance:
		return repository.SortRelevance, nil
	case repository.SortTime:
		return repository.SortTime, nil
	case repository.SortLikes:
		return repository.SortLikes, nil
	}
	return "", apperr.InvalidInput("sort must be one of relevance, time, likes")
}

func (s *searchService) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	tokens := Keywords(q.Q)
	if len(tokens) == 0 {
		return nil, apperr.InvalidInput("search keywords are required")
	}
	order, err := ParseSort(q.Sort)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.store.Pins.Search(ctx, tokens, order, offset, limit)
	if err != nil {
		return nil, storeFailure(err, "search failed", zap.Strings("keywords", tokens))
	}
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.PictureID
	}
	tags, err := s.store.Tags.ForPictures(ctx, ids)
	if err != nil {
		return nil, storeFailure(err, "failed to load tags", zap.Strings("keywords", tokens))
	}

	hits := make([]SearchHit, len(rows))
	for i, r := range rows {
		list := tags[r.PictureID]
		if list == nil {
			list = []string{}
		}
		hits[i] = SearchHit{SearchRow: r, Tags: strings.Join(list, ","), TagList: list}
	}
	return &SearchResult{Keywords: tokens, Sort: string(order), Hits: hits, TagCloud: TagCloud(hits)}, nil
}

// TagCloud 统计结果集中各标签出现次数，降序取前 10，同数按名称
func TagCloud(hits []SearchHit) []TagCount {
	counts := map[string]int{}
	for _, h := range hits {
		for _, t := range h.TagList {
			counts[t]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TagCount{Tag: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > tagCloudSize {
		out = out[:tagCloudSize]
	}
	return out
}
