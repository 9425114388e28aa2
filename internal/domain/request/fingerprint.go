package request

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint is the content hash used to detect duplicate in-flight
// submissions: same store, model, service set and screen option produce the
// same value regardless of service ordering or duplicates in the input.
// It participates in a uniqueness constraint only while the request is open.
func Fingerprint(storeID, modelID int64, serviceIDs []int64, screenOptionID *int64) string {
	ids := make([]int64, 0, len(serviceIDs))
	seen := make(map[int64]struct{}, len(serviceIDs))
	for _, id := range serviceIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|", storeID, modelID)
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	if screenOptionID != nil {
		fmt.Fprintf(&b, "|opt:%d", *screenOptionID)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
