package store

import (
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/saadjs/fittrack-cli/internal/model"
	"github.com/saadjs/fittrack-cli/internal/storage"
)

// Auth holds the signed-in session and mirrors it to durable storage.
// Storage failures are logged; the in-memory session stays usable.
type Auth struct {
	storage storage.Store
	log     *zap.Logger

	mu            sync.RWMutex
	session       model.Session
	authenticated bool
}

func NewAuth(st storage.Store, log *zap.Logger) *Auth {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auth{storage: st, log: log}
}

func (a *Auth) SetCredentials(token string, user model.Claims) {
	a.mu.Lock()
	a.session = model.Session{Token: token, User: user, UserID: user.Subject()}
	a.authenticated = true
	sess := a.session
	a.mu.Unlock()

	if a.storage == nil {
		return
	}
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		a.log.Warn("failed to encode user claims", zap.Error(err))
		return
	}
	for _, kv := range [][2]string{
		{storage.KeyToken, sess.Token},
		{storage.KeyUser, string(userJSON)},
		{storage.KeyUserID, sess.UserID},
	} {
		if err := a.storage.Set(kv[0], kv[1]); err != nil {
			a.log.Warn("failed to save session to local storage", zap.String("key", kv[0]), zap.Error(err))
			return
		}
	}
}

func (a *Auth) Logout() {
	a.mu.Lock()
	a.session = model.Session{}
	a.authenticated = false
	a.mu.Unlock()

	if a.storage == nil {
		return
	}
	for _, key := range []string{storage.KeyToken, storage.KeyUser, storage.KeyUserID} {
		if err := a.storage.Remove(key); err != nil {
			a.log.Warn("failed to clear local storage", zap.String("key", key), zap.Error(err))
		}
	}
}

// RestoreFromStorage loads a saved session. Missing or corrupt entries leave
// the store signed out.
func (a *Auth) RestoreFromStorage() {
	if a.storage == nil {
		return
	}
	token, ok, err := a.storage.Get(storage.KeyToken)
	if err != nil {
		a.log.Warn("failed to restore from local storage", zap.Error(err))
		return
	}
	if !ok || strings.TrimSpace(token) == "" {
		return
	}
	rawUser, ok, err := a.storage.Get(storage.KeyUser)
	if err != nil {
		a.log.Warn("failed to restore from local storage", zap.Error(err))
		return
	}
	if !ok || strings.TrimSpace(rawUser) == "" {
		return
	}
	var user model.Claims
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user == nil {
		a.log.Warn("ignoring corrupt user entry in local storage", zap.Error(err))
		return
	}
	userID, _, err := a.storage.Get(storage.KeyUserID)
	if err != nil || userID == "" {
		userID = user.Subject()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = model.Session{Token: token, User: user, UserID: userID}
	a.authenticated = true
}

func (a *Auth) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authenticated
}

// Token is suitable as an api.TokenProvider.
func (a *Auth) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.Token
}

func (a *Auth) User() model.Claims {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.User
}

func (a *Auth) UserID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.UserID
}

func (a *Auth) Session() model.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}
