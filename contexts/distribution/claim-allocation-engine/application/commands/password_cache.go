package commands

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"codedrop/contexts/distribution/claim-allocation-engine/domain/services"
)

const DefaultPasswordCacheSize = 4096

// CachedPasswordVerifier memoizes Argon2id results keyed by a digest of the
// stored hash and the supplied password. Changing a pool password changes the
// stored hash, so stale entries are never hit.
type CachedPasswordVerifier struct {
	next  services.PasswordVerifier
	cache *lru.Cache[string, bool]
}

func NewCachedPasswordVerifier(next services.PasswordVerifier, size int) (*CachedPasswordVerifier, error) {
	if size <= 0 {
		size = DefaultPasswordCacheSize
	}
	cache, err := lru.New[string, bool](size)
	if err != nil {
		return nil, err
	}
	return &CachedPasswordVerifier{next: next, cache: cache}, nil
}

func (v *CachedPasswordVerifier) Verify(password string, encoded string) (bool, error) {
	key := cacheKey(password, encoded)
	if ok, found := v.cache.Get(key); found {
		return ok, nil
	}
	ok, err := v.next.Verify(password, encoded)
	if err != nil {
		return false, err
	}
	v.cache.Add(key, ok)
	return ok, nil
}

func (v *CachedPasswordVerifier) Len() int {
	return v.cache.Len()
}

func cacheKey(password string, encoded string) string {
	sum := sha256.Sum256([]byte(encoded + "\x00" + password))
	return hex.EncodeToString(sum[:])
}
