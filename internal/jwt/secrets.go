package jwt

import (
	"sync"
	"time"
)

const AccessTokenTTL = 15 * time.Minute

var (
	secretsMu   sync.RWMutex
	roleSecrets = map[Role]string{}
)

// SetSecret installs the signing secret for role. It is called once at
// startup and by tests.
func SetSecret(role Role, secret string) {
	secretsMu.Lock()
	defer secretsMu.Unlock()
	roleSecrets[role] = secret
}

func secretFor(role Role) (string, bool) {
	secretsMu.RLock()
	defer secretsMu.RUnlock()
	secret, ok := roleSecrets[role]
	if !ok || secret == "" {
		return "", false
	}
	return secret, true
}
