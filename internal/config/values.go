package config

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ListValues returns the config as a flat dot-keyed map. When mask is true,
// secret values are masked for display.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	flat := Flatten(nested)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue looks up one dot-separated key.
func GetValue(cfg *Config, key string) (any, error) {
	flat, err := ListValues(cfg, false)
	if err != nil {
		return nil, err
	}
	v, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key %q", key)
	}
	return v, nil
}

// SetValue updates one dot-separated key in the config file at path. The raw
// string is coerced to the key's current JSON type so numbers stay numbers.
func SetValue(path, key, raw string) error {
	cfg, err := Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flat, err := ListValues(cfg, false)
	if err != nil {
		return err
	}
	current, ok := flat[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}

	coerced, err := coerceTo(current, raw)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	flat[key] = coerced

	nested := Unflatten(flat)
	data, err := json.Marshal(nested)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	updated := &Config{}
	if err := json.Unmarshal(data, updated); err != nil {
		return fmt.Errorf("apply config: %w", err)
	}

	return Save(path, updated)
}

// coerceTo converts raw to the same JSON type as current.
func coerceTo(current any, raw string) (any, error) {
	switch current.(type) {
	case float64: // all JSON numbers decode as float64
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", raw)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected a boolean, got %q", raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}
