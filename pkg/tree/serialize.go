package tree

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opencarlink/carlink-core/pkg/units"
)

// DumpOptions controls structured serialization of a subtree.
type DumpOptions struct {
	// IncludeUnset includes attributes that have no committed value.
	// Their dump carries no "value" key.
	IncludeUnset bool

	// IncludeDisabled includes attributes that are currently disabled.
	IncludeDisabled bool
}

// AsDict recursively builds a nested map mirroring the subtree. Unset
// and disabled attributes are omitted unless requested. Key order of the
// underlying maps is canonicalised at JSON time (encoding/json sorts map
// keys), so a given tree state always serializes identically and can be
// diffed or snapshotted by consumers.
func (o *Object) AsDict(opts DumpOptions) map[string]any {
	out := make(map[string]any)
	for _, child := range o.Children() {
		childDict := child.AsDict(opts)
		if len(childDict) > 0 {
			out[child.Name()] = childDict
		}
	}
	for _, attr := range o.Attributes() {
		if attrDict, ok := attr.AsDict(opts); ok {
			out[attr.Name()] = attrDict
		}
	}
	return out
}

// AsJSON serializes the subtree to JSON. The output is deterministic for
// a given tree state.
func (o *Object) AsJSON(pretty bool) (string, error) {
	dict := o.AsDict(DumpOptions{})
	var (
		raw []byte
		err error
	)
	if pretty {
		raw, err = json.MarshalIndent(dict, "", "    ")
	} else {
		raw, err = json.Marshal(dict)
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// AsDict serializes the attribute to {value, unit?, tags?, last_changed}.
// ok is false when the attribute is excluded from the dump: disabled, or
// unset, unless the options request it. A committed null on a nullable
// attribute serializes with "value": nil, which is distinct from the
// attribute being absent.
func (a *Attribute) AsDict(opts DumpOptions) (map[string]any, bool) {
	a.mu.Lock()
	enabled := a.enabled && !a.removed
	isSet := a.isSet
	value := a.value
	lastChanged := a.lastChanged
	a.mu.Unlock()

	if !enabled && !opts.IncludeDisabled {
		return nil, false
	}
	if !isSet && !opts.IncludeUnset {
		return nil, false
	}

	out := make(map[string]any)
	if isSet {
		out["value"] = dumpValue(value)
	}
	if a.unit != "" {
		out["unit"] = string(a.unit)
	}
	if tags := a.Tags(); len(tags) > 0 {
		out["tags"] = tags
	}
	if !lastChanged.IsZero() {
		out["last_changed"] = lastChanged.Format(time.RFC3339)
	}
	return out, true
}

// AsJSON serializes a single attribute; empty string when the attribute
// is omitted from dumps.
func (a *Attribute) AsJSON() (string, error) {
	dict, ok := a.AsDict(DumpOptions{})
	if !ok {
		return "", nil
	}
	raw, err := json.Marshal(dict)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// dumpValue converts a committed value to its JSON-friendly form.
func dumpValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339)
	case time.Duration:
		return val.Seconds()
	case []byte:
		return base64.StdEncoding.EncodeToString(val)
	default:
		return val
	}
}

// AttributeFromDict reconstructs an attribute of the given kind from a
// dump produced by AsDict, preserving value, unit and tags. The dict may
// have passed through JSON, so numbers arrive as float64 and blobs as
// base64 strings. A dict without a "value" key yields an unset
// attribute.
func AttributeFromDict(name string, kind Kind, dict map[string]any) (*Attribute, error) {
	var opts []AttributeOption
	if u, ok := dict["unit"].(string); ok && u != "" {
		opts = append(opts, WithUnit(units.Unit(u)))
	}
	switch tags := dict["tags"].(type) {
	case []string:
		opts = append(opts, WithTags(tags...))
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok {
				opts = append(opts, WithTags(s))
			}
		}
	}

	a, err := NewAttribute(name, kind, opts...)
	if err != nil {
		return nil, err
	}

	raw, ok := dict["value"]
	if !ok {
		return a, nil
	}
	v, err := loadValue(kind, raw)
	if err != nil {
		return nil, &ValidationError{Attribute: name, Reason: err.Error()}
	}
	if err := a.Set(v, OriginInternal); err != nil {
		return nil, err
	}
	return a, nil
}

// loadValue undoes dumpValue's encoding for the kinds whose dump form
// differs from the stored form.
func loadValue(kind Kind, raw any) (any, error) {
	switch kind {
	case KindTime:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("time value of type %T", raw)
		}
		return time.Parse(time.RFC3339, s)
	case KindDuration:
		secs, ok := asFloat(raw)
		if !ok {
			return nil, fmt.Errorf("duration value of type %T", raw)
		}
		return time.Duration(secs * float64(time.Second)), nil
	case KindBlob:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("blob value of type %T", raw)
		}
		return base64.StdEncoding.DecodeString(s)
	case KindInt:
		// JSON decodes every number as float64.
		if f, ok := raw.(float64); ok {
			return int64(f), nil
		}
	}
	return raw, nil
}
