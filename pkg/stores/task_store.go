package stores

/*
A concurrency-safe in-memory task store. Tasks are keyed by id with a
secondary index by context id so that tasks/list{context_id} doesn't
require a full scan. Records are copied on every read and write, so a
caller mutating a task it holds never races a concurrent reader of the
stored record. Production deployments would swap this for a persistent
backend behind the same TaskStore interface; nothing else in this
module depends on the storage being in-memory.
*/

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/flowmesh/a2a-go/pkg/a2a"
	rpcerrors "github.com/flowmesh/a2a-go/pkg/errors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// TaskStore is the pluggable contract a request handler depends on.
type TaskStore interface {
	Create(task *a2a.Task) error
	Get(id string) (*a2a.Task, error)
	Update(task *a2a.Task) error
	List(filter TaskFilter) ([]*a2a.Task, string, error)
}

// TaskFilter narrows a List call to a context, a set of states, and a page.
type TaskFilter struct {
	ContextID *string
	States    map[a2a.TaskState]bool
	PageSize  int
	PageToken string
}

// InMemoryTaskStore is the reference TaskStore implementation.
type InMemoryTaskStore struct {
	mu        sync.RWMutex
	tasks     map[string]*a2a.Task
	byContext map[string][]string
	order     []string // task ids in insertion order, oldest first
}

// NewInMemoryTaskStore returns an empty, ready-to-use store.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks:     make(map[string]*a2a.Task),
		byContext: make(map[string][]string),
	}
}

// Create registers a new task. It is an error to create a task whose id
// already exists in the store.
func (s *InMemoryTaskStore) Create(task *a2a.Task) error {
	if err := task.Validate(); err != nil {
		return rpcerrors.ErrInvalidParams.WithMessagef("%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return rpcerrors.ErrInternal.WithMessagef("task %s already exists", task.ID)
	}

	s.tasks[task.ID] = snapshot(task)
	s.byContext[task.ContextID] = append(s.byContext[task.ContextID], task.ID)
	s.order = append(s.order, task.ID)
	return nil
}

// Get returns the task with the given id, or ErrTaskNotFound.
func (s *InMemoryTaskStore) Get(id string) (*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, rpcerrors.ErrTaskNotFound.WithMessagef("task %s not found", id)
	}
	return snapshot(task), nil
}

// Update replaces the stored record for task.ID. The task must already
// exist; Update does not create.
func (s *InMemoryTaskStore) Update(task *a2a.Task) error {
	if err := task.Validate(); err != nil {
		return rpcerrors.ErrInvalidParams.WithMessagef("%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; !ok {
		return rpcerrors.ErrTaskNotFound.WithMessagef("task %s not found", task.ID)
	}

	s.tasks[task.ID] = snapshot(task)
	return nil
}

/*
List returns tasks matching filter, most-recently-created first (reverse
insertion order, which has no ties), along with an opaque token for the
next page. PageSize
defaults to 50 and is capped at 1000; PageToken is the id of the last
task returned on the previous page, base64-encoded.
*/
func (s *InMemoryTaskStore) List(filter TaskFilter) ([]*a2a.Task, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidateIDs []string
	if filter.ContextID != nil {
		candidateIDs = append(candidateIDs, s.byContext[*filter.ContextID]...)
	} else {
		candidateIDs = append(candidateIDs, s.order...)
	}

	// candidateIDs is oldest-first (insertion order); walk it backwards so
	// List's output is most-recently-created first, independent of how
	// many status transitions a task has since gone through.
	matched := make([]*a2a.Task, 0, len(candidateIDs))
	for i := len(candidateIDs) - 1; i >= 0; i-- {
		task, ok := s.tasks[candidateIDs[i]]
		if !ok {
			continue
		}
		if len(filter.States) > 0 && !filter.States[task.Status.State] {
			continue
		}
		matched = append(matched, snapshot(task))
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	start := 0
	if filter.PageToken != "" {
		cursor, err := decodePageToken(filter.PageToken)
		if err != nil {
			return nil, "", rpcerrors.ErrInvalidParams.WithMessagef("invalid page_token")
		}
		for i, t := range matched {
			if t.ID == cursor {
				start = i + 1
				break
			}
		}
	}

	if start >= len(matched) {
		return nil, "", nil
	}

	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := matched[start:end]

	var nextToken string
	if end < len(matched) {
		nextToken = encodePageToken(page[len(page)-1].ID)
	}

	return page, nextToken, nil
}

// snapshot copies a task record. History entries and parts are immutable
// once appended, so sharing their backing arrays is safe; artifact
// elements are copied because a streamed artifact is extended in place
// by its owner.
func snapshot(task *a2a.Task) *a2a.Task {
	cp := *task
	cp.Artifacts = append([]a2a.Artifact(nil), task.Artifacts...)
	return &cp
}

func encodePageToken(id string) string {
	return base64.URLEncoding.EncodeToString([]byte(id))
}

func decodePageToken(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decode page token: %w", err)
	}
	return string(raw), nil
}
