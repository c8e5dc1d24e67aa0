package wizard

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
)

// BatchForm bundles several ideas for one client.
type BatchForm struct {
	ClientID   uuid.UUID   `json:"client_id"`
	IdeaIDs    []uuid.UUID `json:"idea_ids"`
	AdminNotes string      `json:"admin_notes"`
}

// UniqueIdeas returns IdeaIDs without duplicates or nil IDs, keeping
// the first occurrence's position.
func (f BatchForm) UniqueIdeas() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(f.IdeaIDs))
	out := make([]uuid.UUID, 0, len(f.IdeaIDs))
	for _, id := range f.IdeaIDs {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// NewBatchFlow builds the three-step wizard: client, ideas, notes.
func NewBatchFlow() *Flow[BatchForm] {
	return &Flow[BatchForm]{
		Name: "batch",
		Steps: []Step[BatchForm]{
			{Name: "client", Check: func(f BatchForm) error {
				if f.ClientID == uuid.Nil {
					return apperr.Invalid("select a client")
				}
				return nil
			}},
			{Name: "ideas", Check: func(f BatchForm) error {
				if len(f.UniqueIdeas()) == 0 {
					return apperr.Invalid("select at least one idea")
				}
				return nil
			}},
			{Name: "notes"},
		},
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
