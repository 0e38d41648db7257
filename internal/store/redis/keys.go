package redis

import (
	"strconv"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

const (
	// KeyPrefixSaved is the prefix for saved posting records
	KeyPrefixSaved = "jobscout:saved:job:"
	// KeyPrefixUser is the prefix for per-user sorted sets of saved ids
	KeyPrefixUser = "jobscout:saved:user:"
	// KeyPrefixDedup is the prefix for per-user hashes of posting key -> id
	KeyPrefixDedup = "jobscout:saved:dedup:"
	// KeySavedSeq is the counter used to allocate saved ids
	KeySavedSeq = "jobscout:saved:seq"
	// KeyPrefixCache is the prefix for cached search results
	KeyPrefixCache = "jobscout:cache:search:"
)

// SavedKey returns the Redis key for a saved posting by id
func SavedKey(id int64) string {
	return KeyPrefixSaved + strconv.FormatInt(id, 10)
}

// UserKey returns the key of the sorted set holding the ids saved by email
func UserKey(email string) string {
	return KeyPrefixUser + domain.NormalizeEmail(email)
}

// DedupKey returns the key of the hash mapping posting keys to ids for email
func DedupKey(email string) string {
	return KeyPrefixDedup + domain.NormalizeEmail(email)
}

// CacheKey returns the Redis key for a cached search
func CacheKey(fingerprint string) string {
	return KeyPrefixCache + fingerprint
}
