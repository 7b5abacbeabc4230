package report

import (
	"bytes"
	"encoding/json"
)

// object is a JSON object that keeps its keys in insertion order.
type object []field

type field struct {
	key   string
	value any
}

func (o object) set(key string, value any) object {
	return append(o, field{key: key, value: value})
}

// MarshalJSON implements json.Marshaler.
func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := marshalNoEscape(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// groupJSON maps each network stem of the group to its domains.
func groupJSON(data groupData) object {
	var o object
	for _, s := range data.sections {
		o = o.set(s.network.Stem(), nonNil(s.domains))
	}
	if o == nil {
		o = object{}
	}
	return o
}

// allJSON maps each group key to its name, home page, optional
// description and per-network domains.
func allJSON(groups []groupData) object {
	all := object{}
	for _, data := range groups {
		g := object{}.
			set("name", data.group.Name).
			set("url", data.group.HomeURL)
		if data.group.Description != "" {
			g = g.set("desc", data.group.Description)
		}
		for _, s := range data.sections {
			g = g.set(s.network.Stem(), nonNil(s.domains))
		}
		all = all.set(data.group.Key(), g)
	}
	return all
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
