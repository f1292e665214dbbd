package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/drompincen/archviz-go/internal/diagrams/domain"
)

// Attribute names form the persisted record layout. Renaming any of
// them breaks every existing table.
const (
	attrID            = "id"
	attrTitle         = "title"
	attrTitleLC       = "title_lc"
	attrDescription   = "description"
	attrDescriptionLC = "description_lc"
	attrTags          = "tags"
	attrVersion       = "version"
	attrCreatedAt     = "createdAt"
	attrUpdatedAt     = "updatedAt"
	attrFlow          = "flow"
)

// marshalDiagram encodes a diagram as a DynamoDB item. Optional
// fields are written sparsely: an empty title, description, tag set,
// timestamp or flow produces no attribute at all. Title and
// description get lowercased shadow attributes so the scan filter
// can match case-insensitively server-side. Source is not persisted;
// it is derived from the read path.
func marshalDiagram(d domain.Diagram) (map[string]types.AttributeValue, error) {
	item := map[string]types.AttributeValue{
		attrID:      &types.AttributeValueMemberS{Value: d.ID},
		attrVersion: &types.AttributeValueMemberN{Value: strconv.Itoa(d.Version)},
	}
	if d.Title != "" {
		item[attrTitle] = &types.AttributeValueMemberS{Value: d.Title}
		item[attrTitleLC] = &types.AttributeValueMemberS{Value: strings.ToLower(d.Title)}
	}
	if d.Description != "" {
		item[attrDescription] = &types.AttributeValueMemberS{Value: d.Description}
		item[attrDescriptionLC] = &types.AttributeValueMemberS{Value: strings.ToLower(d.Description)}
	}
	if len(d.Tags) > 0 {
		list := make([]types.AttributeValue, 0, len(d.Tags))
		for _, t := range d.Tags {
			list = append(list, &types.AttributeValueMemberS{Value: t})
		}
		item[attrTags] = &types.AttributeValueMemberL{Value: list}
	}
	if !d.CreatedAt.IsZero() {
		item[attrCreatedAt] = &types.AttributeValueMemberS{Value: d.CreatedAt.Format(time.RFC3339Nano)}
	}
	if !d.UpdatedAt.IsZero() {
		item[attrUpdatedAt] = &types.AttributeValueMemberS{Value: d.UpdatedAt.Format(time.RFC3339Nano)}
	}
	if len(d.Flow) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, d.Flow); err != nil {
			return nil, fmt.Errorf("diagram %s: encode flow: %w", d.ID, err)
		}
		item[attrFlow] = &types.AttributeValueMemberS{Value: buf.String()}
	}
	return item, nil
}

// unmarshalDiagram decodes a DynamoDB item back into a Diagram.
// Absent attributes yield the field defaults (empty tag set,
// version 0) rather than an error; a flow or timestamp that fails to
// parse fails this item only.
func unmarshalDiagram(item map[string]types.AttributeValue) (domain.Diagram, error) {
	d := domain.Diagram{
		ID:          stringAttr(item, attrID),
		Title:       stringAttr(item, attrTitle),
		Description: stringAttr(item, attrDescription),
		Tags:        []string{},
		Source:      domain.SourceDB,
	}

	if n, ok := item[attrVersion].(*types.AttributeValueMemberN); ok {
		v, err := strconv.Atoi(n.Value)
		if err != nil {
			return domain.Diagram{}, fmt.Errorf("diagram %s: decode version: %w", d.ID, err)
		}
		d.Version = v
	}

	if l, ok := item[attrTags].(*types.AttributeValueMemberL); ok {
		for _, av := range l.Value {
			if s, ok := av.(*types.AttributeValueMemberS); ok {
				d.Tags = append(d.Tags, s.Value)
			}
		}
	}

	var err error
	if d.CreatedAt, err = timeAttr(item, attrCreatedAt); err != nil {
		return domain.Diagram{}, fmt.Errorf("diagram %s: decode createdAt: %w", d.ID, err)
	}
	if d.UpdatedAt, err = timeAttr(item, attrUpdatedAt); err != nil {
		return domain.Diagram{}, fmt.Errorf("diagram %s: decode updatedAt: %w", d.ID, err)
	}

	if s, ok := item[attrFlow].(*types.AttributeValueMemberS); ok {
		if !json.Valid([]byte(s.Value)) {
			return domain.Diagram{}, fmt.Errorf("diagram %s: decode flow: stored text is not valid JSON", d.ID)
		}
		d.Flow = json.RawMessage(s.Value)
	}

	return d, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func timeAttr(item map[string]types.AttributeValue, name string) (time.Time, error) {
	s := stringAttr(item, name)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
