package page

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradepost/web/internal/validation"
)

// MaxDraftFiles is the most images one product can carry.
const MaxDraftFiles = 12

var (
	// ErrTooManyFiles is returned when a selection would take a draft past
	// MaxDraftFiles images.
	ErrTooManyFiles = fmt.Errorf("a product can have at most %d images", MaxDraftFiles)

	// ErrNotImage is returned for a file that is not an image, by its
	// declared type or by its content.
	ErrNotImage = errors.New("only image files are accepted")

	// ErrFileTooLarge is returned for a file, or a whole form, over the
	// upload limit.
	ErrFileTooLarge = errors.New("file is too large")

	// ErrStaleSubmit is returned for a submit whose token the draft no
	// longer holds, as when a form that was already listed is sent again.
	ErrStaleSubmit = errors.New("this form was already submitted")
)

// DraftFile is one selected image held until the product is submitted.
type DraftFile struct {
	ID          string
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes.
func (f DraftFile) Size() int { return len(f.Data) }

// DraftView is a point-in-time copy of a Draft.
type DraftView struct {
	Token       string
	Name        string
	Description string
	Files       []DraftFile
	Busy        bool
}

// Draft is the new-product form state of one user. Every change goes
// through one of its methods; none of them apply while a submit is running.
// The token changes every time the draft is cleared, so a submit of an
// earlier form can be told apart from a submit of the current one.
type Draft struct {
	mu sync.Mutex

	token       string
	name        string
	description string
	files       []DraftFile
	busy        bool

	errors  validation.FieldErrors
	message string
}

// Update stores the form fields and appends files in selection order.
// Fields are kept even when the files do not fit.
func (d *Draft) Update(name, description string, files []DraftFile) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy {
		return ErrSubmitInProgress
	}
	d.name, d.description = name, description
	if len(d.files)+len(files) > MaxDraftFiles {
		return ErrTooManyFiles
	}
	d.files = append(d.files, files...)
	return nil
}

// RemoveFile drops the file with id. It reports whether one was removed.
func (d *Draft) RemoveFile(id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy {
		return false, ErrSubmitInProgress
	}
	for i, f := range d.files {
		if f.ID == id {
			d.files = append(d.files[:i:i], d.files[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Token returns the token a submit of the current form must carry.
func (d *Draft) Token() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.token
}

// Begin stores the submitted fields, appends files, marks the draft busy
// and returns the state to submit, all in one step. It fails without
// changing anything when token is stale or another submit is running.
func (d *Draft) Begin(token, name, description string, files []DraftFile) (DraftView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy {
		return DraftView{}, ErrSubmitInProgress
	}
	if token != d.token {
		return DraftView{}, ErrStaleSubmit
	}
	d.name, d.description = name, description
	if len(d.files)+len(files) > MaxDraftFiles {
		return DraftView{}, ErrTooManyFiles
	}
	d.files = append(d.files, files...)
	d.busy = true
	return d.viewLocked(), nil
}

// End clears the busy flag set by Begin.
func (d *Draft) End() {
	d.mu.Lock()
	d.busy = false
	d.mu.Unlock()
}

// Reset empties the fields and the file list and issues a new token.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.token = uuid.NewString()
	d.name, d.description = "", ""
	d.files = nil
	d.errors, d.message = nil, ""
}

// SetErrors records errors to show on the next render of the form.
func (d *Draft) SetErrors(fields validation.FieldErrors, message string) {
	d.mu.Lock()
	d.errors, d.message = fields, message
	d.mu.Unlock()
}

// TakeErrors returns and clears the errors recorded by SetErrors.
func (d *Draft) TakeErrors() (validation.FieldErrors, string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fields, message := d.errors, d.message
	d.errors, d.message = nil, ""
	return fields, message
}

// View returns a copy of the current state.
func (d *Draft) View() DraftView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

func (d *Draft) viewLocked() DraftView {
	files := make([]DraftFile, len(d.files))
	copy(files, d.files)
	return DraftView{Token: d.token, Name: d.name, Description: d.description, Files: files, Busy: d.busy}
}

// DraftStore keeps one Draft per user until it is deleted or sits idle
// past the sweep TTL.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[string]*Draft
	seen   map[string]time.Time
	now    func() time.Time
}

// NewDraftStore creates an empty DraftStore.
func NewDraftStore() *DraftStore {
	return &DraftStore{
		drafts: make(map[string]*Draft),
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Get returns the draft of userID, creating it on first use, and marks it
// as used.
func (s *DraftStore) Get(userID string) *Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[userID]
	if !ok {
		d = &Draft{token: uuid.NewString()}
		s.drafts[userID] = d
	}
	s.seen[userID] = s.now()
	return d
}

// Delete drops the draft of userID and the files it holds.
func (s *DraftStore) Delete(userID string) {
	s.mu.Lock()
	delete(s.drafts, userID)
	delete(s.seen, userID)
	s.mu.Unlock()
}

// Len returns the number of drafts held.
func (s *DraftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

// Sweep drops every draft not used for ttl and returns how many went.
// Drafts with a submit running are kept.
func (s *DraftStore) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	n := 0
	for id, d := range s.drafts {
		if s.seen[id].After(cutoff) || d.View().Busy {
			continue
		}
		delete(s.drafts, id)
		delete(s.seen, id)
		n++
	}
	return n
}
