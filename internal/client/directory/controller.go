// Package directory implements the client-side view model for the user
// directory: the searchable, paginated, editable list and its
// reconciliation with server-confirmed mutations.
package directory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/spec-kit/user-directory/internal/client/api"
	"github.com/spec-kit/user-directory/internal/client/session"
	"github.com/spec-kit/user-directory/internal/domain"
)

// PageSizes is the allowed set of rows-per-page values.
var PageSizes = []int{5, 10, 20, 50}

// DefaultPageSize is used until the user picks another size.
const DefaultPageSize = 5

var (
	// ErrBusy rejects a duplicate in-flight operation for the same record.
	ErrBusy = errors.New("operation already in progress for this record")
	// ErrNoDraft rejects edits on rows without an open editing session.
	ErrNoDraft = errors.New("no draft open for this record")
	// ErrNoPendingDelete rejects a confirm with no selected target.
	ErrNoPendingDelete = errors.New("no delete pending")
	// ErrBadPageSize rejects sizes outside PageSizes.
	ErrBadPageSize = errors.New("unsupported page size")
)

// Controller keeps the last known server state of the directory plus the
// view-local state layered over it. Drafts live in their own map keyed by
// record id, never on the row values: "what the user is typing" and "what
// the server last confirmed" have separate owners.
type Controller struct {
	client   *api.Client
	session  *session.Store
	notify   func(message string)
	navigate func()

	mu            sync.Mutex
	rows          []domain.Profile
	searchTerm    string
	page          int
	pageSize      int
	drafts        map[string]string
	busy          map[string]bool
	pendingDelete string
	deleting      bool
}

// NewController wires the view model to its collaborators. notify surfaces
// user-visible messages; navigate is invoked after a self-delete.
func NewController(client *api.Client, sess *session.Store, notify func(string), navigate func()) *Controller {
	if notify == nil {
		notify = func(string) {}
	}
	if navigate == nil {
		navigate = func() {}
	}
	return &Controller{
		client:   client,
		session:  sess,
		notify:   notify,
		navigate: navigate,
		page:     1,
		pageSize: DefaultPageSize,
		drafts:   make(map[string]string),
		busy:     make(map[string]bool),
	}
}

// Load fetches the directory listing. On failure the current rows are left
// unchanged and a notice is raised.
func (c *Controller) Load(ctx context.Context) error {
	users, err := c.client.ListUsers(ctx)
	if err != nil {
		c.notify("Error occurred while getting users")
		return err
	}

	c.mu.Lock()
	c.rows = users
	c.mu.Unlock()
	return nil
}

// SetSearch updates the filter term and resets to the first page, so the
// view never points at a page the narrowed result set no longer has.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchTerm = term
	c.page = 1
}

// SetPageSize switches rows-per-page and resets to the first page.
func (c *Controller) SetPageSize(size int) error {
	allowed := false
	for _, s := range PageSizes {
		if s == size {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrBadPageSize
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageSize = size
	c.page = 1
	return nil
}

// NextPage advances one page, clamped to the last page.
func (c *Controller) NextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page < c.totalPagesLocked() {
		c.page++
	}
}

// PrevPage steps back one page, clamped to the first.
func (c *Controller) PrevPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page > 1 {
		c.page--
	}
}

// Page returns the current page, always within [1, max(totalPages, 1)].
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clampedPageLocked()
}

// TotalPages derives the page count from the filtered rows.
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPagesLocked()
}

// Filtered returns the rows matching the search term: case-insensitive
// substring over userName, pure and idempotent.
func (c *Controller) Filtered() []domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filteredLocked()
}

// Visible returns the current page window of the filtered rows.
func (c *Controller) Visible() []domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()

	filtered := c.filteredLocked()
	page := c.clampedPageLocked()
	start := (page - 1) * c.pageSize
	if start >= len(filtered) {
		return nil
	}
	end := start + c.pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// BeginEdit opens an editing session for a row, seeding the draft from the
// last known server state. Each row's draft is independent.
func (c *Controller) BeginEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row, ok := c.rowLocked(id)
	if !ok {
		return api.ErrNotFound
	}
	if _, open := c.drafts[id]; !open {
		c.drafts[id] = row.UserName
	}
	return nil
}

// SetDraft records what the user is typing for an open editing session.
func (c *Controller) SetDraft(id, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, open := c.drafts[id]; !open {
		return ErrNoDraft
	}
	c.drafts[id] = value
	return nil
}

// Draft returns the in-progress value for a row, if an edit is open.
func (c *Controller) Draft(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.drafts[id]
	return value, ok
}

// CancelEdit discards a row's draft.
func (c *Controller) CancelEdit(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drafts, id)
}

// EditingIDs lists rows with open drafts, sorted for stable rendering.
func (c *Controller) EditingIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.drafts))
	for id := range c.drafts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsBusy reports whether a request for this row is outstanding.
func (c *Controller) IsBusy(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[id]
}

// SubmitEdit sends the row's draft to the server. A second submit for the
// same record while one is outstanding is rejected; other records proceed
// independently. On success the row is patched in place, no re-fetch, and
// the draft is discarded. On failure the draft survives for retry.
func (c *Controller) SubmitEdit(ctx context.Context, id string) error {
	c.mu.Lock()
	draft, open := c.drafts[id]
	if !open {
		c.mu.Unlock()
		return ErrNoDraft
	}
	if c.busy[id] {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy[id] = true
	c.mu.Unlock()

	err := c.client.UpdateUserName(ctx, id, draft)

	c.mu.Lock()
	delete(c.busy, id)
	if err == nil {
		if row, ok := c.rowLocked(id); ok {
			row.UserName = draft
		}
		delete(c.drafts, id)
	}
	c.mu.Unlock()

	if err != nil {
		if !errors.Is(err, api.ErrUnauthenticated) {
			c.notify("Error occurred while updating the user")
		}
		return err
	}
	c.notify("User updated successfully")
	return nil
}

// RequestDelete selects the delete target; the destructive call waits for
// ConfirmDelete.
func (c *Controller) RequestDelete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = id
}

// PendingDelete returns the selected target, if any.
func (c *Controller) PendingDelete() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingDelete, c.pendingDelete != ""
}

// CancelDelete dismisses the confirmation step without deleting.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = ""
}

// ConfirmDelete performs the pending deletion. The pending target is
// cleared whatever the outcome, so the confirmation dialog never sticks.
// Deleting the viewer's own account clears the session and navigates away
// instead of patching a list there is no returning to.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	target := c.pendingDelete
	if target == "" {
		c.mu.Unlock()
		return ErrNoPendingDelete
	}
	if c.deleting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.deleting = true
	c.mu.Unlock()

	err := c.client.DeleteUser(ctx, target)

	c.mu.Lock()
	c.deleting = false
	c.pendingDelete = ""
	c.mu.Unlock()

	if err != nil {
		if !errors.Is(err, api.ErrUnauthenticated) {
			c.notify("Error occurred while deleting the user")
		}
		return err
	}

	c.notify("User deleted successfully")

	identity := c.session.Identity()
	if identity != nil && identity.ID == target {
		c.session.Logout(ctx, c.client)
		c.navigate()
		return nil
	}

	c.mu.Lock()
	c.removeRowLocked(target)
	delete(c.drafts, target)
	c.mu.Unlock()
	return nil
}

// filteredLocked always returns a fresh slice: callers get a snapshot,
// never an alias of the controller's own cache.
func (c *Controller) filteredLocked() []domain.Profile {
	if c.searchTerm == "" {
		return append([]domain.Profile(nil), c.rows...)
	}
	term := strings.ToLower(c.searchTerm)
	filtered := make([]domain.Profile, 0, len(c.rows))
	for _, row := range c.rows {
		if strings.Contains(strings.ToLower(row.UserName), term) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func (c *Controller) totalPagesLocked() int {
	count := len(c.filteredLocked())
	if count == 0 {
		return 0
	}
	return (count + c.pageSize - 1) / c.pageSize
}

func (c *Controller) clampedPageLocked() int {
	total := c.totalPagesLocked()
	if total < 1 {
		total = 1
	}
	if c.page > total {
		return total
	}
	if c.page < 1 {
		return 1
	}
	return c.page
}

func (c *Controller) rowLocked(id string) (*domain.Profile, bool) {
	for i := range c.rows {
		if c.rows[i].ID == id {
			return &c.rows[i], true
		}
	}
	return nil, false
}

func (c *Controller) removeRowLocked(id string) {
	for i := range c.rows {
		if c.rows[i].ID == id {
			c.rows = append(c.rows[:i], c.rows[i+1:]...)
			return
		}
	}
}
