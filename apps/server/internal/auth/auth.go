// Package auth keeps player accounts and bearer sessions in memory.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var log = logrus.WithField("component", "auth")

const (
	defaultSessionTTL = 30 * 24 * time.Hour
	tokenBytes        = 32
	firstPlayerID     = 100000
)

var (
	ErrInvalidName        = errors.New("invalid player name")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrNameTaken          = errors.New("player name already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{2,31}$`)

// Player identifies whoever holds a session. Guests have no password and
// cannot log in again once their token is lost.
type Player struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Guest bool   `json:"guest"`
}

type Session struct {
	Token     string    `json:"token"`
	Player    Player    `json:"player"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service is what the HTTP and websocket layers need from auth.
type Service interface {
	Register(name, password string) (Session, error)
	Login(name, password string) (Session, error)
	Guest() (Session, error)
	Resolve(token string) (Player, bool)
	Logout(token string)
}

type account struct {
	player Player
	hash   []byte
}

type grant struct {
	playerID  uint64
	expiresAt time.Time
}

// Manager is the in-memory Service. Sessions slide: every successful
// Resolve pushes the expiry out by the TTL again.
type Manager struct {
	mu sync.Mutex

	ttl    time.Duration
	now    func() time.Time
	lastID uint64

	players map[uint64]*account
	byName  map[string]uint64
	grants  map[string]grant
}

func NewManager() *Manager {
	return &Manager{
		ttl:     defaultSessionTTL,
		now:     time.Now,
		lastID:  firstPlayerID,
		players: make(map[uint64]*account),
		byName:  make(map[string]uint64),
		grants:  make(map[string]grant),
	}
}

func canonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func checkCredentials(name, password string) error {
	if !namePattern.MatchString(strings.TrimSpace(name)) {
		return ErrInvalidName
	}
	// bcrypt ignores bytes past 72.
	if len(password) < 6 || len(password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}

func (m *Manager) Register(name, password string) (Session, error) {
	if err := checkCredentials(name, password); err != nil {
		return Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	key := canonicalName(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byName[key]; taken {
		return Session{}, ErrNameTaken
	}
	acc := m.addLocked(key, false)
	acc.hash = hash
	log.WithFields(logrus.Fields{"player": acc.player.ID, "name": key}).Info("registered")
	return m.grantLocked(acc.player)
}

func (m *Manager) Login(name, password string) (Session, error) {
	key := canonicalName(name)
	if key == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byName[key]
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	acc := m.players[id]
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return m.grantLocked(acc.player)
}

// Guest creates a throwaway player named guest_<id>.
func (m *Manager) Guest() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := m.addLocked("", true)
	return m.grantLocked(acc.player)
}

func (m *Manager) Resolve(token string) (Player, bool) {
	if token == "" {
		return Player{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.grants[token]
	if !ok {
		return Player{}, false
	}
	now := m.now()
	if !now.Before(g.expiresAt) {
		delete(m.grants, token)
		return Player{}, false
	}
	g.expiresAt = now.Add(m.ttl)
	m.grants[token] = g
	return m.players[g.playerID].player, true
}

func (m *Manager) Logout(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.grants, token)
}

func (m *Manager) addLocked(name string, guest bool) *account {
	m.lastID++
	if guest {
		name = fmt.Sprintf("guest_%d", m.lastID)
	}
	acc := &account{player: Player{ID: m.lastID, Name: name, Guest: guest}}
	m.players[acc.player.ID] = acc
	if !guest {
		m.byName[name] = acc.player.ID
	}
	return acc
}

func (m *Manager) grantLocked(p Player) (Session, error) {
	token, err := newToken()
	if err != nil {
		return Session{}, err
	}
	s := Session{Token: token, Player: p, ExpiresAt: m.now().Add(m.ttl)}
	m.grants[token] = grant{playerID: p.ID, expiresAt: s.ExpiresAt}
	return s, nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
