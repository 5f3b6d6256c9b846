package usecase

import "NewsDigest/internal/domain"

// Aggregate flattens per-source batches in declaration order, dropping items
// already in history, items without a link, and later duplicates of a link
// accepted earlier in the same run.
func Aggregate(batches [][]domain.NewsItem, history domain.LinkSet) []domain.NewsItem {
	seen := make(domain.LinkSet)
	var out []domain.NewsItem
	for _, batch := range batches {
		for _, item := range batch {
			if item.Link == "" || history.Has(item.Link) || seen.Has(item.Link) {
				continue
			}
			seen.Add(item.Link)
			out = append(out, item)
		}
	}
	return out
}
