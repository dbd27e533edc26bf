package domain

import "sort"

// GroupByCategory buckets links by their category label and sorts each
// bucket ascending by Sort. The sort is stable so records with equal
// keys keep their fetch order. The returned slice lists the categories
// in first-seen order.
func GroupByCategory(links []Link) (map[string][]Link, []string) {
	grouped := make(map[string][]Link)
	categories := make([]string, 0, 8)

	for _, l := range links {
		cat := l.Category
		if cat == "" {
			cat = CategoryUncategorized
		}
		if _, seen := grouped[cat]; !seen {
			categories = append(categories, cat)
		}
		grouped[cat] = append(grouped[cat], l)
	}

	for _, cat := range categories {
		bucket := grouped[cat]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Sort < bucket[j].Sort
		})
	}

	return grouped, categories
}
