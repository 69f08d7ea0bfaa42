package feature

import (
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
)

// Merge reconciles a freshly scraped feature list against the previously
// stored index for one product. The scrape is authoritative for membership
// and content; classification is carried over from storage.
//
// Processing fresh entries in scrape order:
//   - duplicates within the batch are discarded, first occurrence wins;
//   - an entry whose key exists in oldIndex keeps the stored assignments
//     when the old entry was confidently tagged, otherwise it stays as
//     scraped (pending) and its key is reported as new;
//   - an entry with no stored counterpart stays pending and is reported
//     as new.
//
// Stored entries that do not reappear in fresh are dropped. An empty fresh
// list returns internalerr.ErrEmptyScrape so callers keep the previous
// document untouched instead of wiping the product.
func Merge(oldIndex map[string]Feature, fresh []Feature) ([]Feature, map[string]struct{}, error) {
	if len(fresh) == 0 {
		return nil, nil, internalerr.ErrEmptyScrape
	}

	merged := make([]Feature, 0, len(fresh))
	newKeys := make(map[string]struct{})
	seen := make(map[string]struct{}, len(fresh))

	for _, f := range fresh {
		key := f.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if old, ok := oldIndex[key]; ok {
			if old.Tags.Status == StatusTagged && len(old.Tags.Assignments) > 0 {
				f.Tags = old.Tags
			} else {
				newKeys[key] = struct{}{}
			}
		} else {
			newKeys[key] = struct{}{}
		}

		merged = append(merged, f)
	}

	return merged, newKeys, nil
}
