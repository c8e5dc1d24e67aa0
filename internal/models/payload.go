package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// PayloadVersion is the schema version written by this service.
const PayloadVersion = 1

var ErrUnknownPayloadVersion = errors.New("unknown payload version")

// Payload is the immutable snapshot a preview carries: the idea as it
// was when the preview was created plus the channel-specific draft.
//
// Stored rows from before versioning have no "version" key. They come
// in two shapes, {"content": ...} and {"idea_title", "idea_content",
// "social_content", "images"}; both decode into version 1.
type Payload struct {
	Version       int                 `json:"version"`
	IdeaID        uuid.UUID           `json:"idea_id"`
	IdeaTitle     string              `json:"idea_title"`
	IdeaContent   string              `json:"idea_content"`
	Content       string              `json:"content,omitempty"`
	SocialContent map[Platform]string `json:"social_content,omitempty"`
	Images        []string            `json:"images,omitempty"`
}

// payloadV1 has Payload's layout without its methods.
type payloadV1 Payload

// SnapshotIdea copies an idea into a new payload. Maps and slices are
// cloned so later edits to the idea cannot leak into the preview.
func SnapshotIdea(idea *Idea, content string) Payload {
	p := Payload{
		Version:     PayloadVersion,
		IdeaID:      idea.ID,
		IdeaTitle:   idea.Title,
		IdeaContent: idea.Body,
		Content:     content,
	}
	if len(idea.PlatformContent) > 0 {
		p.SocialContent = make(map[Platform]string, len(idea.PlatformContent))
		for k, v := range idea.PlatformContent {
			p.SocialContent[k] = v
		}
	}
	if len(idea.ImageURLs) > 0 {
		p.Images = append([]string(nil), idea.ImageURLs...)
	}
	return p
}

func (p Payload) MarshalJSON() ([]byte, error) {
	v := payloadV1(p)
	v.Version = PayloadVersion
	return json.Marshal(v)
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	decoded, err := DecodePayload(data)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// DecodePayload reads any stored payload shape into the current version.
func DecodePayload(data []byte) (Payload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Payload{Version: PayloadVersion}, nil
	}

	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}

	if probe.Version == nil || *probe.Version == 0 {
		return decodeLegacy(data)
	}

	switch *probe.Version {
	case 1:
		var v payloadV1
		if err := json.Unmarshal(data, &v); err != nil {
			return Payload{}, fmt.Errorf("decode payload v1: %w", err)
		}
		return Payload(v), nil
	default:
		return Payload{}, fmt.Errorf("%w: %d", ErrUnknownPayloadVersion, *probe.Version)
	}
}

// decodeLegacy tolerates missing or mistyped keys: whatever cannot be
// read is left empty.
func decodeLegacy(data []byte) (Payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Payload{}, fmt.Errorf("decode legacy payload: %w", err)
	}

	p := Payload{
		Version:     PayloadVersion,
		IdeaTitle:   firstString(fields, "idea_title", "title"),
		IdeaContent: firstString(fields, "idea_content", "body"),
		Content:     firstString(fields, "content"),
	}
	if id, err := uuid.Parse(firstString(fields, "idea_id")); err == nil {
		p.IdeaID = id
	}

	if raw, ok := fields["social_content"]; ok {
		var social map[string]string
		if json.Unmarshal(raw, &social) == nil && len(social) > 0 {
			p.SocialContent = make(map[Platform]string, len(social))
			for k, v := range social {
				p.SocialContent[Platform(k)] = v
			}
		}
	}

	if raw, ok := fields["images"]; ok {
		p.Images = legacyImages(raw)
	}
	return p, nil
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// legacyImages accepts a list of URLs, a platform→URL map or a
// platform→URLs map. Map values are returned in key order.
func legacyImages(raw json.RawMessage) []string {
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}

	var single map[string]string
	if json.Unmarshal(raw, &single) == nil {
		return mapValues(single, func(v string) []string { return []string{v} })
	}

	var multi map[string][]string
	if json.Unmarshal(raw, &multi) == nil {
		return mapValues(multi, func(v []string) []string { return v })
	}
	return nil
}

func mapValues[V any](m map[string]V, expand func(V) []string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		for _, v := range expand(m[k]) {
			if v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
