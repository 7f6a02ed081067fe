package ranking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// cacheKey covers every input that changes the ranked output.
func cacheKey(q query) string {
	raw := fmt.Sprintf("mode=%s|ref=%s|viewer=%s|range=%s|limit=%d",
		q.mode, q.refID, q.viewerID, q.timeRange, q.limit)

	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("ranking:%s:%s", q.mode, hex.EncodeToString(hash[:]))
}
