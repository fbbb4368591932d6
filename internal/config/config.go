// Package config handles option loading and the session definition file.
// Option precedence is env vars over config file over struct defaults;
// CLI flags are applied last by humacli itself.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// envPrefix namespaces all environment overrides.
const envPrefix = "SCENECAST_"

// LoadConfig fills opts (a pointer to a flat options struct) from the TOML
// file named by its Config field and from the environment. Struct fields
// opt in with `toml:"section.key"` and `env:"NAME"` tags. If cmd is
// provided, flags explicitly set via CLI are not overwritten.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	changedFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changedFlags[f.Name] = true
			}
		})
	}

	var configPath string
	if f := v.FieldByName("Config"); f.IsValid() && f.Kind() == reflect.String {
		configPath = f.String()
	}

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			var tree map[string]any
			if err := toml.Unmarshal(data, &tree); err != nil {
				return fmt.Errorf("parse config %s: %w", configPath, err)
			}
			for i := 0; i < v.NumField(); i++ {
				path := t.Field(i).Tag.Get("toml")
				if path == "" || changedFlags[flagName(t.Field(i))] {
					continue
				}
				if value := lookup(tree, path); value != nil {
					setField(v.Field(i), value)
				}
			}
		}
	}

	for i := 0; i < v.NumField(); i++ {
		key := t.Field(i).Tag.Get("env")
		if key == "" || changedFlags[flagName(t.Field(i))] {
			continue
		}
		if value := os.Getenv(envPrefix + key); value != "" {
			setFieldString(v.Field(i), value)
		}
	}
	return nil
}

// flagName derives the kebab-case CLI flag name humacli generates for a
// field.
func flagName(field reflect.StructField) string {
	if name := field.Tag.Get("name"); name != "" {
		return name
	}
	var out strings.Builder
	for i, r := range field.Name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			out.WriteByte('-')
		}
		out.WriteRune(r)
	}
	return strings.ToLower(out.String())
}

// lookup walks a dotted path through nested TOML tables.
func lookup(tree map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := tree
	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

func setField(field reflect.Value, value any) {
	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		switch n := value.(type) {
		case int64:
			field.SetInt(n)
		case float64:
			field.SetInt(int64(n))
		}
	case reflect.Uint, reflect.Uint64:
		switch n := value.(type) {
		case int64:
			if n >= 0 {
				field.SetUint(uint64(n))
			}
		case float64:
			if n >= 0 {
				field.SetUint(uint64(n))
			}
		}
	case reflect.Float64:
		switch n := value.(type) {
		case float64:
			field.SetFloat(n)
		case int64:
			field.SetFloat(float64(n))
		}
	}
}

func setFieldString(field reflect.Value, value string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(n)
		}
	case reflect.Uint, reflect.Uint64:
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			field.SetUint(n)
		}
	case reflect.Float64:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			field.SetFloat(n)
		}
	}
}
