package travel

import (
	"bytes"
	"encoding/json"
	"sort"
)

// marshalWithExtra encodes v (a struct without its own MarshalJSON) and
// appends the extra fields in key order.
func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	core := bytes.TrimSpace(buf.Bytes())
	if len(extra) == 0 {
		return core, nil
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := bytes.NewBuffer(make([]byte, 0, len(core)+64*len(keys)))
	out.Write(core[:len(core)-1])
	needComma := len(core) > 2
	for _, k := range keys {
		if needComma {
			out.WriteByte(',')
		}
		needComma = true
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		out.Write(name)
		out.WriteByte(':')
		out.Write(extra[k])
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}

// unknownFields returns the members of the JSON object in data whose keys are
// not listed in known, or nil if there are none.
func unknownFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
