package a2a

import "github.com/google/uuid"

/*
Artifact is a structured output produced by an agent, composed of ordered
parts. Artifacts are append-only within a task: subsequent chunks with the
same ArtifactID extend rather than replace a prior one.
*/
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Index       int            `json:"index,omitempty"`
}

func NewArtifact(name string, parts ...Part) Artifact {
	return Artifact{
		ArtifactID: uuid.New().String(),
		Name:       strPtr(name),
		Parts:      parts,
	}
}

func NewTextArtifact(name, text string) Artifact {
	return NewArtifact(name, NewTextPart(text))
}

func (a Artifact) Validate() error {
	if a.ArtifactID == "" {
		return errMissingField("artifactId")
	}
	if len(a.Parts) == 0 {
		return errMissingField("parts")
	}
	for i := range a.Parts {
		if err := a.Parts[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
