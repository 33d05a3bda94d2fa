package a2a

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/cohesivestack/valgo"
)

// PartKind is the discriminator for the Part tagged union.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
	PartKindData PartKind = "data"
)

// FilePart carries either inline base64 bytes or a URI reference to file
// content, never both.
type FilePart struct {
	Name     *string `json:"name,omitempty"`
	MimeType *string `json:"mimeType,omitempty"`
	Bytes    string  `json:"bytes,omitempty"`
	URI      string  `json:"uri,omitempty"`
}

/*
Part is a tagged union over text, file and data content, discriminated by
the wire-level "kind" field. Exactly one of Text, File or Data is
populated depending on Kind.
*/
type Part struct {
	Kind     PartKind
	Text     string
	File     *FilePart
	Data     any
	Metadata map[string]any
}

func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

func NewFilePartFromBytes(name, mimeType string, data []byte) Part {
	return Part{
		Kind: PartKindFile,
		File: &FilePart{
			Name:     strPtr(name),
			MimeType: strPtr(mimeType),
			Bytes:    base64.StdEncoding.EncodeToString(data),
		},
	}
}

func NewFilePartFromURI(name, mimeType, uri string) Part {
	return Part{
		Kind: PartKindFile,
		File: &FilePart{
			Name:     strPtr(name),
			MimeType: strPtr(mimeType),
			URI:      uri,
		},
	}
}

func NewDataPart(data any) Part {
	return Part{Kind: PartKindData, Data: data}
}

func strPtr(s string) *string { return &s }

// wirePart mirrors the on-the-wire shape of Part: a flat object with a kind
// discriminator and one populated payload field per variant.
type wirePart struct {
	Kind     PartKind       `json:"kind"`
	Text     string         `json:"text,omitempty"`
	File     *FilePart      `json:"file,omitempty"`
	Data     any            `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (p Part) MarshalJSON() ([]byte, error) {
	w := wirePart{Kind: p.Kind, Metadata: p.Metadata}

	switch p.Kind {
	case PartKindText:
		w.Text = p.Text
	case PartKindFile:
		w.File = p.File
	case PartKindData:
		w.Data = p.Data
	default:
		return nil, fmt.Errorf("a2a: part has unknown kind %q", p.Kind)
	}

	return json.Marshal(w)
}

// UnmarshalJSON fails deserialization on an unrecognized kind rather than
// silently dropping the part, per the protocol's strict discriminator rule.
func (p *Part) UnmarshalJSON(data []byte) error {
	var w wirePart

	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch w.Kind {
	case PartKindText:
		p.Text = w.Text
	case PartKindFile:
		p.File = w.File
	case PartKindData:
		p.Data = w.Data
	default:
		return fmt.Errorf("a2a: unknown part kind %q", w.Kind)
	}

	p.Kind = w.Kind
	p.Metadata = w.Metadata

	return nil
}

// Validate enforces the oneof constraint between Text, File and Data, and
// that the populated variant isn't empty.
func (p Part) Validate() error {
	populated := 0
	for _, set := range []bool{p.Text != "", p.File != nil, p.Data != nil} {
		if set {
			populated++
		}
	}
	if populated > 1 {
		return errInvalidField("kind", "allows only one of text, file or data")
	}

	switch p.Kind {
	case PartKindText:
		if v := valgo.Is(valgo.String(p.Text, "text").Not().Blank()); !v.Valid() {
			return errMissingField("text")
		}
		return nil
	case PartKindFile:
		if p.File == nil {
			return errMissingField("file")
		}
		if p.File.Bytes == "" && p.File.URI == "" {
			return errInvalidField("file", "requires bytes or uri")
		}
		if p.File.Bytes != "" && p.File.URI != "" {
			return errInvalidField("file", "cannot carry both bytes and uri")
		}
		return nil
	case PartKindData:
		if p.Data == nil {
			return errMissingField("data")
		}
		return nil
	default:
		return errInvalidField("kind", fmt.Sprintf("is unknown (%q)", p.Kind))
	}
}
