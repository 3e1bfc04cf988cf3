package tasklayer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
)

// Layer is one task layer key with its short name prefix.
type Layer struct {
	Key    string `validate:"required"`
	Prefix string `validate:"required,taskprefix"`
}

// Layers keeps TASK_LAYER_TYPES in file order. The order matters: it is the
// order task layers are offered in and the order push derives its
// complementary layers in.
type Layers []Layer

// Keys returns the task layer keys in order.
func (l Layers) Keys() []string {
	out := make([]string, len(l))
	for i, layer := range l {
		out[i] = layer.Key
	}
	return out
}

// Prefix returns the prefix of key.
func (l Layers) Prefix(key string) (string, bool) {
	for _, layer := range l {
		if layer.Key == key {
			return layer.Prefix, true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a JSON object while keeping its key order.
func (l *Layers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("TASK_LAYER_TYPES must be an object, got %v", tok)
	}
	var out Layers
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var prefix string
		if err := dec.Decode(&prefix); err != nil {
			return fmt.Errorf("task layer %q: %w", key, err)
		}
		out = append(out, Layer{Key: key, Prefix: prefix})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = out
	return nil
}

// MarshalJSON encodes the layers as an ordered JSON object.
func (l Layers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, layer := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(layer.Key)
		if err != nil {
			return nil, err
		}
		prefix, err := json.Marshal(layer.Prefix)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(prefix)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a YAML mapping while keeping its key order.
func (l *Layers) UnmarshalYAML(unmarshal func(any) error) error {
	var ms yaml.MapSlice
	if err := unmarshal(&ms); err != nil {
		return err
	}
	out := make(Layers, 0, len(ms))
	for _, item := range ms {
		out = append(out, Layer{Key: fmt.Sprint(item.Key), Prefix: fmt.Sprint(item.Value)})
	}
	*l = out
	return nil
}

// MarshalYAML encodes the layers as an ordered YAML mapping.
func (l Layers) MarshalYAML() (any, error) {
	ms := make(yaml.MapSlice, 0, len(l))
	for _, layer := range l {
		ms = append(ms, yaml.MapItem{Key: layer.Key, Value: layer.Prefix})
	}
	return ms, nil
}
