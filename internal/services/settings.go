package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/tahcohcat/qwen-tts-web/internal/models"
)

const (
	keyCredential   = "qwen_tts_api_key"
	keyTheme        = "theme_color"
	keyDontAskAgain = "dont_ask_again"

	DefaultTheme = "#007bff"
)

var themePattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// KVStore persists string settings.
type KVStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// AppState is the explicit application state shared by the UI handlers.
type AppState struct {
	Credential   string
	Theme        string
	DontAskAgain bool
}

func (s AppState) Public() models.AppSettings {
	return models.AppSettings{
		HasCredential: s.Credential != "",
		Theme:         s.Theme,
		DontAskAgain:  s.DontAskAgain,
	}
}

type SettingsService struct {
	store KVStore
}

func NewSettingsService(store KVStore) *SettingsService {
	return &SettingsService{store: store}
}

// Load reads the current state, filling defaults for missing keys.
func (s *SettingsService) Load() (AppState, error) {
	state := AppState{Theme: DefaultTheme}

	if v, ok, err := s.store.Get(keyCredential); err != nil {
		return state, err
	} else if ok {
		state.Credential = v
	}

	if v, ok, err := s.store.Get(keyTheme); err != nil {
		return state, err
	} else if ok && themePattern.MatchString(v) {
		state.Theme = v
	}

	if v, ok, err := s.store.Get(keyDontAskAgain); err != nil {
		return state, err
	} else if ok {
		state.DontAskAgain, _ = strconv.ParseBool(v)
	}

	return state, nil
}

func (s *SettingsService) Credential() (string, error) {
	v, _, err := s.store.Get(keyCredential)
	return v, err
}

func (s *SettingsService) SaveCredential(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("a valid API key is required")
	}
	return s.store.Set(keyCredential, apiKey)
}

// ResetCredential forgets the stored key so the UI prompts for a new one.
func (s *SettingsService) ResetCredential() error {
	return s.store.Delete(keyCredential)
}

func (s *SettingsService) SetTheme(colour string) error {
	if !themePattern.MatchString(colour) {
		return fmt.Errorf("invalid theme colour %q, expected #rrggbb", colour)
	}
	return s.store.Set(keyTheme, strings.ToLower(colour))
}

func (s *SettingsService) SetDontAskAgain(v bool) error {
	return s.store.Set(keyDontAskAgain, strconv.FormatBool(v))
}

// Apply applies a partial update and returns the resulting state.
func (s *SettingsService) Apply(req models.SettingsUpdateRequest) (AppState, error) {
	if req.Theme != nil {
		if err := s.SetTheme(*req.Theme); err != nil {
			return AppState{}, err
		}
	}
	if req.DontAskAgain != nil {
		if err := s.SetDontAskAgain(*req.DontAskAgain); err != nil {
			return AppState{}, err
		}
	}
	return s.Load()
}

// MemoryStore is an in-process KVStore.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
