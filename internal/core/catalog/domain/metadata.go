package domain

import (
	"encoding/json"
	"fmt"
)

// Canonical returns a stable string encoding of the metadata's identity,
// used to enforce the (external_service_id, canonical(metadata)) uniqueness
// constraint on sources. Two metadata values canonicalize equal iff they
// represent the same real-world source item.
func (m ExternalMetadata) Canonical() (string, error) {
	switch m.Kind {
	case ExternalMetadataKindPixiv:
		if m.Pixiv == nil {
			return "", fmt.Errorf("pixiv metadata missing payload")
		}
		return fmt.Sprintf("pixiv:%d", m.Pixiv.ID), nil
	case ExternalMetadataKindX:
		if m.X == nil {
			return "", fmt.Errorf("x metadata missing payload")
		}
		return fmt.Sprintf("x:%d", m.X.ID), nil
	case ExternalMetadataKindSkeb:
		if m.Skeb == nil {
			return "", fmt.Errorf("skeb metadata missing payload")
		}
		return fmt.Sprintf("skeb:%d:%s", m.Skeb.ID, m.Skeb.CreatorID), nil
	case ExternalMetadataKindCustom:
		if m.Custom == nil {
			return "", fmt.Errorf("custom metadata missing payload")
		}
		encoded, err := json.Marshal(m.Custom)
		if err != nil {
			return "", fmt.Errorf("custom metadata not serializable: %w", err)
		}
		return fmt.Sprintf("custom:%s", encoded), nil
	default:
		return "", fmt.Errorf("unknown external metadata kind %q", m.Kind)
	}
}

// Validate checks that the payload matches Kind and that required
// kind-specific fields are present, without touching the database.
func (m ExternalMetadata) Validate() error {
	switch m.Kind {
	case ExternalMetadataKindPixiv:
		if m.Pixiv == nil {
			return fmt.Errorf("pixiv source requires an id")
		}
	case ExternalMetadataKindX:
		if m.X == nil {
			return fmt.Errorf("x source requires an id")
		}
	case ExternalMetadataKindSkeb:
		if m.Skeb == nil {
			return fmt.Errorf("skeb source requires an id and creator_id")
		}
		if m.Skeb.CreatorID == "" {
			return fmt.Errorf("skeb source requires a non-empty creator_id")
		}
	case ExternalMetadataKindCustom:
		if m.Custom == nil {
			return fmt.Errorf("custom source requires a metadata object")
		}
	default:
		return fmt.Errorf("unknown external metadata kind %q", m.Kind)
	}
	return nil
}

// MarshalJSON renders the metadata as {"kind": ..., "payload": <kind-specific object>}
// for storage in the sources.external_metadata jsonb column.
func (m ExternalMetadata) MarshalJSON() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var payload any
	switch m.Kind {
	case ExternalMetadataKindPixiv:
		payload = m.Pixiv
	case ExternalMetadataKindX:
		payload = m.X
	case ExternalMetadataKindSkeb:
		payload = m.Skeb
	case ExternalMetadataKindCustom:
		payload = m.Custom
	}

	envelope := struct {
		Kind    string `json:"kind"`
		Payload any    `json:"payload"`
	}{Kind: m.Kind, Payload: payload}

	return json.Marshal(envelope)
}

// UnmarshalJSON reverses MarshalJSON, dispatching on the "kind" field.
func (m *ExternalMetadata) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Kind    string          `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	m.Kind = envelope.Kind
	switch envelope.Kind {
	case ExternalMetadataKindPixiv:
		var payload PixivMetadata
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return err
		}
		m.Pixiv = &payload
	case ExternalMetadataKindX:
		var payload XMetadata
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return err
		}
		m.X = &payload
	case ExternalMetadataKindSkeb:
		var payload SkebMetadata
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return err
		}
		m.Skeb = &payload
	case ExternalMetadataKindCustom:
		var payload map[string]any
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return err
		}
		m.Custom = payload
	default:
		return fmt.Errorf("unknown external metadata kind %q", envelope.Kind)
	}

	return nil
}
