/*
auth.go - Manager authentication

PURPOSE:
  Protects /api/admin/* with HTTP basic auth. The manager ID and a bcrypt
  hash of the password come from configuration; nothing is stored in the
  database.

RATE LIMITING:
  Failed attempts are limited per client IP with a token bucket
  (golang.org/x/time/rate). A client that runs out of tokens gets 429
  before its password is even checked. Successful requests don't consume
  tokens, so a logged-in manager UI is never throttled.

  Limiters idle for longer than limiterIdle are swept on the next lookup
  after sweepEvery, so the per-IP map stays bounded by recent clients.

SEE ALSO:
  - config/config.go: MANAGER_ID, MANAGER_PASSWORD_HASH, LOGIN_RATE_PER_MIN
  - server.go: Where the middleware is mounted
*/
package api

import (
	"crypto/subtle"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const authRealm = `Basic realm="shift-engine manager"`

const (
	// limiterIdle exceeds the one-minute refill, so an evicted limiter was full.
	limiterIdle = 10 * time.Minute
	sweepEvery  = time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ManagerAuth checks manager credentials.
type ManagerAuth struct {
	ID           string
	PasswordHash []byte
	Log          *zap.Logger

	perMinute int
	now       func() time.Time
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	lastSweep time.Time
}

// NewManagerAuth creates the authenticator. attemptsPerMin bounds failed
// logins per client.
func NewManagerAuth(id, passwordHash string, attemptsPerMin int, log *zap.Logger) *ManagerAuth {
	if attemptsPerMin < 1 {
		attemptsPerMin = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ManagerAuth{
		ID:           id,
		PasswordHash: []byte(passwordHash),
		Log:          log,
		perMinute:    attemptsPerMin,
		now:          time.Now,
		limiters:     make(map[string]*clientLimiter),
	}
}

// HashPassword returns a bcrypt hash suitable for MANAGER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether id and password match the configured manager.
func (a *ManagerAuth) Verify(id, password string) bool {
	if len(a.PasswordHash) == 0 {
		return false
	}
	idOK := subtle.ConstantTimeCompare([]byte(id), []byte(a.ID)) == 1
	pwErr := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password))
	return idOK && pwErr == nil
}

// Middleware rejects requests without valid manager credentials.
func (a *ManagerAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		limiter := a.limiter(ip)

		if limiter.Tokens() < 1 {
			a.Log.Warn("manager login rate limit exceeded", zap.String("ip", ip))
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Too many login attempts. Try again later.", nil)
			return
		}

		id, password, ok := r.BasicAuth()
		if !ok || !a.Verify(id, password) {
			limiter.Allow()
			a.Log.Info("manager login failed", zap.String("ip", ip), zap.String("id", id))
			w.Header().Set("WWW-Authenticate", authRealm)
			writeError(w, http.StatusUnauthorized, "Invalid manager credentials", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *ManagerAuth) limiter(ip string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if now.Sub(a.lastSweep) >= sweepEvery {
		a.sweep(now)
	}

	cl, exists := a.limiters[ip]
	if !exists {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(a.perMinute)), a.perMinute),
		}
		a.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// sweep drops idle limiters. Caller holds a.mu.
func (a *ManagerAuth) sweep(now time.Time) {
	for ip, cl := range a.limiters {
		if now.Sub(cl.lastSeen) > limiterIdle {
			delete(a.limiters, ip)
		}
	}
	a.lastSweep = now
}

// trackedClients returns how many per-IP limiters are held.
func (a *ManagerAuth) trackedClients() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.limiters)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
