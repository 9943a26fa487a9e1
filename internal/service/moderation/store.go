package moderation

import (
	"sort"

	"github.com/google/uuid"

	"github.com/jihyuk/escapemap-cli/internal/domain"
)

// Store owns the three local collections: approved branches, pending
// (reported) branches, and the favorite theme-id set. A branch lives in
// exactly one of approved/pending at any time. All mutations happen on the
// caller's goroutine; the store is not internally locked.
type Store struct {
	branches  []domain.Branch
	pending   []domain.Branch
	favorites map[string]struct{}
}

// NewStore builds a store from persisted state. Duplicate favorite entries in
// older persisted payloads collapse into the set.
func NewStore(state domain.EscapeState, favorites domain.FavoriteState) *Store {
	s := &Store{
		branches:  append([]domain.Branch(nil), state.Branches...),
		pending:   append([]domain.Branch(nil), state.PendingBranches...),
		favorites: make(map[string]struct{}, len(favorites.Favorites)),
	}
	for _, id := range favorites.Favorites {
		s.favorites[id] = struct{}{}
	}
	return s
}

// NewReportID returns a client-assigned identity for a reported branch or
// theme. Ids only need to be unique until the backend assigns real ones on
// approval.
func NewReportID() string {
	return "report-" + uuid.NewString()
}

// ReplaceBranches installs a freshly fetched approved set. The backend is the
// source of truth for approved branches; pending branches are untouched.
func (s *Store) ReplaceBranches(branches []domain.Branch) {
	s.branches = append([]domain.Branch(nil), branches...)
}

// Branches returns the approved collection in order.
func (s *Store) Branches() []domain.Branch {
	return s.branches
}

// Pending returns the pending collection in report order.
func (s *Store) Pending() []domain.Branch {
	return s.pending
}

// Report appends a branch to the pending collection. Duplicate reports are
// accepted as separate entries; coordinate validation happens upstream where
// the address is geocoded.
func (s *Store) Report(branch domain.Branch) {
	s.pending = append(s.pending, branch)
}

// Approve moves the pending branch with the given id into the approved
// collection. Approving an id that is not pending is a silent no-op.
func (s *Store) Approve(id string) {
	for i, b := range s.pending {
		if b.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			s.branches = append(s.branches, b)
			return
		}
	}
}

// Reject discards the pending branch with the given id. No-op if absent;
// rejected data is not archived.
func (s *Store) Reject(id string) {
	for i, b := range s.pending {
		if b.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// Delete removes a branch from the approved collection. Its themes go with
// it; favorites and reviews referencing those themes are left dangling and
// must be filtered at lookup time. No-op if absent.
func (s *Store) Delete(id string) {
	for i, b := range s.branches {
		if b.ID == id {
			s.branches = append(s.branches[:i], s.branches[i+1:]...)
			return
		}
	}
}

// AddFavorite inserts a theme id into the favorite set. Idempotent.
func (s *Store) AddFavorite(themeID string) {
	s.favorites[themeID] = struct{}{}
}

// RemoveFavorite removes a theme id from the favorite set. Idempotent.
func (s *Store) RemoveFavorite(themeID string) {
	delete(s.favorites, themeID)
}

// IsFavorite reports favorite membership.
func (s *Store) IsFavorite(themeID string) bool {
	_, ok := s.favorites[themeID]
	return ok
}

// Favorites returns the favorite theme ids sorted for stable output.
func (s *Store) Favorites() []string {
	ids := make([]string, 0, len(s.favorites))
	for id := range s.favorites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllThemes flattens every theme across the approved collection into a
// display list carrying the parent branch fields. Pure projection; recomputed
// on every call.
func (s *Store) AllThemes() []domain.ThemeDisplay {
	themes := make([]domain.ThemeDisplay, 0)
	for _, b := range s.branches {
		for _, t := range b.Themes {
			themes = append(themes, domain.ThemeDisplay{
				Theme:      t,
				BranchID:   b.ID,
				BrandName:  b.BrandName,
				BranchName: b.BranchName,
				Address:    b.Address,
				Location:   b.Location(),
				WebsiteURL: b.WebsiteURL,
			})
		}
	}
	return themes
}

// ThemeByID resolves a theme id through the approved collection. The second
// return value is false for dangling ids; callers omit those rather than
// fail.
func (s *Store) ThemeByID(id string) (domain.ThemeDisplay, bool) {
	for _, t := range s.AllThemes() {
		if t.ID == id {
			return t, true
		}
	}
	return domain.ThemeDisplay{}, false
}

// FavoriteThemes resolves the favorite set against the approved collection,
// silently omitting ids whose theme no longer exists.
func (s *Store) FavoriteThemes() []domain.ThemeDisplay {
	themes := make([]domain.ThemeDisplay, 0, len(s.favorites))
	for _, id := range s.Favorites() {
		if t, ok := s.ThemeByID(id); ok {
			themes = append(themes, t)
		}
	}
	return themes
}

// State snapshots the branch collections for persistence.
func (s *Store) State() domain.EscapeState {
	return domain.EscapeState{
		Branches:        append([]domain.Branch(nil), s.branches...),
		PendingBranches: append([]domain.Branch(nil), s.pending...),
	}
}

// FavoriteState snapshots the favorite set for persistence.
func (s *Store) FavoriteState() domain.FavoriteState {
	return domain.FavoriteState{Favorites: s.Favorites()}
}
