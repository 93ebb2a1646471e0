package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

// User es el usuario visible para el cliente (sin hash de contrasena).
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Session es el par token/usuario en memoria.
type Session struct {
	Token string
	User  User
}

// Store es el unico escritor del estado de autenticacion del proceso.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	reload  func()
	current *Session
}

// NewStore recibe el almacenamiento durable y el hook que recarga la aplicacion en logout.
func NewStore(storage Storage, reload func()) *Store {
	if reload == nil {
		reload = func() {}
	}
	return &Store{storage: storage, reload: reload}
}

// Init restaura la sesion si token y user estan presentes y el usuario decodifica.
func (s *Store) Init() error {
	token, okToken, err := s.storage.Get(KeyToken)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	rawUser, okUser, err := s.storage.Get(KeyUser)
	if err != nil {
		return fmt.Errorf("read user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if !okToken || !okUser || token == "" {
		return nil
	}
	var u User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		return nil
	}
	s.current = &Session{Token: token, User: u}
	return nil
}

// Login fija la sesion en memoria y persiste ambas claves antes de volver.
func (s *Store) Login(token string, user User) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(KeyToken, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.storage.Set(KeyUser, string(rawUser)); err != nil {
		_ = s.storage.Remove(KeyToken)
		return fmt.Errorf("persist user: %w", err)
	}
	s.current = &Session{Token: token, User: user}
	return nil
}

// Logout limpia memoria y almacenamiento y fuerza la recarga de la aplicacion.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.current = nil
	errToken := s.storage.Remove(KeyToken)
	errUser := s.storage.Remove(KeyUser)
	s.mu.Unlock()

	s.reload()

	if errToken != nil {
		return fmt.Errorf("remove token: %w", errToken)
	}
	if errUser != nil {
		return fmt.Errorf("remove user: %w", errUser)
	}
	return nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

func (s *Store) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return User{}, false
	}
	return s.current.User, true
}

func (s *Store) IsAuthenticated() bool {
	_, ok := s.User()
	return ok
}
