package entity

// Well-known entity types used by context expansion.
const (
	TypeNode    = "node"
	TypeUser    = "user"
	TypeTerm    = "taxonomy_term"
	TypeComment = "comment"
)

// Ref identifies an entity by type and ID.
type Ref struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// Entity is a plain-data snapshot of a piece of content.
// It carries only what the subscription pipeline needs and never references other live entities.
type Entity struct {
	Type   string `json:"type"`
	ID     int64  `json:"id"`
	Bundle string `json:"bundle,omitempty"`

	OwnerID int64 `json:"owner_id"`
	// RevisionAuthorID is the last editor. Zero when the entity does not track revisions.
	RevisionAuthorID int64 `json:"revision_author_id,omitempty"`

	Published bool `json:"published"`

	// Parent is set for comment-like entities and points at the commented content.
	Parent *Ref `json:"parent,omitempty"`

	// References maps a field name to the entities it references.
	References map[string][]Ref `json:"references,omitempty"`
}

// Ref returns the reference to this entity.
func (e Entity) Ref() Ref {
	return Ref{Type: e.Type, ID: e.ID}
}

// IsCommentLike reports whether the entity hangs off a parent content item.
func (e Entity) IsCommentLike() bool {
	return e.Parent != nil && e.Parent.Type == TypeNode
}

// ReferencedIDs returns the IDs of entities of the given type referenced by any field.
func (e Entity) ReferencedIDs(typ string) []int64 {
	var ids []int64
	for _, refs := range e.References {
		for _, r := range refs {
			if r.Type == typ {
				ids = append(ids, r.ID)
			}
		}
	}
	return ids
}

// TracksRevisions reports whether a distinct last editor is known.
func (e Entity) TracksRevisions() bool {
	return e.RevisionAuthorID != 0
}
