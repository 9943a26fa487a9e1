package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jihyuk/escapemap-cli/internal/domain"
)

const (
	defaultDirName = ".escapemap"
	envStateDir    = "ESCAPEMAP_STATE_DIR"

	userStoreName     = "user-storage"
	favoriteStoreName = "favorite-storage"
	escapeStoreName   = "escape-data-storage"
)

var (
	// ErrStateNotFound is returned when a state file does not exist yet.
	ErrStateNotFound = errors.New("state file not found")
	// ErrInvalidState is returned when a state payload is malformed.
	ErrInvalidState = errors.New("state file is invalid")
)

// Store persists the logical local stores, one JSON document per store name.
// Load and Save are the only serialize/deserialize boundary; nothing writes
// state implicitly.
type Store struct {
	dir string
}

// NewStore creates a store using the env override or the home directory.
func NewStore() (*Store, error) {
	if dir := os.Getenv(envStateDir); dir != "" {
		return &Store{dir: dir}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Store{dir: filepath.Join(home, defaultDirName)}, nil
}

// NewStoreAt creates a store rooted at an explicit directory.
func NewStoreAt(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the state directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) load(name string, out any) error {
	payload, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrStateNotFound
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidState, name, err)
	}
	return nil
}

func (s *Store) save(name string, in any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(s.path(name), payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// LoadUser reads the user store, falling back to defaults when none exists.
func (s *Store) LoadUser(_ context.Context) (domain.UserState, error) {
	var state domain.UserState
	if err := s.load(userStoreName, &state); err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return domain.DefaultUserState(), nil
		}
		return domain.UserState{}, err
	}
	return state, nil
}

// SaveUser writes the user store.
func (s *Store) SaveUser(_ context.Context, state domain.UserState) error {
	return s.save(userStoreName, state)
}

// LoadFavorites reads the favorite store; a missing file is an empty set.
func (s *Store) LoadFavorites(_ context.Context) (domain.FavoriteState, error) {
	var state domain.FavoriteState
	if err := s.load(favoriteStoreName, &state); err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return domain.FavoriteState{}, nil
		}
		return domain.FavoriteState{}, err
	}
	return state, nil
}

// SaveFavorites writes the favorite store.
func (s *Store) SaveFavorites(_ context.Context, state domain.FavoriteState) error {
	return s.save(favoriteStoreName, state)
}

// LoadEscapeData reads the branch collections; a missing file is empty state.
func (s *Store) LoadEscapeData(_ context.Context) (domain.EscapeState, error) {
	var state domain.EscapeState
	if err := s.load(escapeStoreName, &state); err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return domain.EscapeState{}, nil
		}
		return domain.EscapeState{}, err
	}
	return state, nil
}

// SaveEscapeData writes the branch collections.
func (s *Store) SaveEscapeData(_ context.Context, state domain.EscapeState) error {
	return s.save(escapeStoreName, state)
}

// MergeFetched reconciles persisted state with a fresh backend fetch. The
// approved set always comes from the fetch so schema changes never resurrect
// stale cached branches; pending branches are carried over verbatim so
// in-flight reports survive.
func MergeFetched(persisted domain.EscapeState, fetched []domain.Branch) domain.EscapeState {
	return domain.EscapeState{
		Branches:        append([]domain.Branch(nil), fetched...),
		PendingBranches: persisted.PendingBranches,
	}
}
