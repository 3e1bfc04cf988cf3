// Package tasklayer loads the task layer definition of an asset: which task
// layers exist, their name prefixes, and who owns each kind of sub-item by
// default. The file lives at the root of the asset directory as
// task_layers.json (or task_layers.yaml).
package tasklayer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/naming"
)

// Default is the default ownership of one kind (or one attribute name).
type Default struct {
	Owner         string `json:"default_owner" yaml:"default_owner" validate:"required"`
	AutoSurrender bool   `json:"auto_surrender" yaml:"auto_surrender"`
}

// File is the on-disk shape of the task layer definition.
type File struct {
	TaskLayerTypes       Layers                 `json:"TASK_LAYER_TYPES" yaml:"TASK_LAYER_TYPES" validate:"required,min=1,dive"`
	TransferDataDefaults map[asset.Kind]Default `json:"TRANSFER_DATA_DEFAULTS" yaml:"TRANSFER_DATA_DEFAULTS" validate:"required,dive,keys,kind,endkeys"`
	AttributeDefaults    map[string]Default     `json:"ATTRIBUTE_DEFAULTS" yaml:"ATTRIBUTE_DEFAULTS" validate:"dive"`
	AssetCatalogID       string                 `json:"ASSET_CATALOG_ID,omitempty" yaml:"ASSET_CATALOG_ID,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("kind", func(fl validator.FieldLevel) bool {
		return asset.Kind(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("taskprefix", func(fl validator.FieldLevel) bool {
		return !strings.Contains(fl.Field().String(), constants.NameDelimiter) &&
			!strings.Contains(fl.Field().String(), constants.MergeDelimiter)
	})
}

// Validate checks the structure of f and that every default owner is a
// declared task layer.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return errors.NewConfigError("task_layers", "invalid task layer definition", err)
	}
	seen := make(map[string]bool)
	for _, layer := range f.TaskLayerTypes {
		if seen[layer.Key] {
			return errors.NewConfigError("task_layers", fmt.Sprintf("duplicate task layer %q", layer.Key), nil)
		}
		seen[layer.Key] = true
	}
	check := func(what string, d Default) error {
		if !seen[d.Owner] {
			return errors.NewConfigError("task_layers",
				fmt.Sprintf("%s: default owner %q is not a task layer", what, d.Owner), nil)
		}
		return nil
	}
	for kind, d := range f.TransferDataDefaults {
		if err := check(kind.String(), d); err != nil {
			return err
		}
	}
	for name, d := range f.AttributeDefaults {
		if err := check("attribute "+name, d); err != nil {
			return err
		}
	}
	return nil
}

// Config is a loaded task layer definition. Load it once per asset and
// pass it down; call Reload to pick up edits to the file.
type Config struct {
	mu   sync.RWMutex
	path string
	file File
}

// New validates f and wraps it in a Config that has no backing file.
func New(f File) (*Config, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Config{file: f}, nil
}

// Load reads and validates a task layer file. The format follows the
// extension: .yaml and .yml are YAML, everything else is JSON.
func Load(path string) (*Config, error) {
	c := &Config{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Find loads the task layer file from an asset directory.
func Find(dir string) (*Config, error) {
	for _, name := range []string{constants.TaskLayerConfigName, constants.TaskLayerConfigYAMLName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return nil, errors.NewNotFoundError("task layer file", dir)
}

// Reload re-reads the backing file. On failure the previous definition is kept.
func (c *Config) Reload() error {
	c.mu.RLock()
	path := c.path
	c.mu.RUnlock()
	if path == "" {
		return errors.NewConfigError("task_layers", "config has no backing file", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapIO("read", path, err)
	}
	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
		if err != nil {
			return errors.WrapParse("yaml", path, err)
		}
	default:
		err = json.Unmarshal(data, &f)
		if err != nil {
			return errors.WrapParse("json", path, err)
		}
	}
	if err := f.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.file = f
	c.mu.Unlock()
	return nil
}

// Save writes the definition as indented JSON.
func (c *Config) Save(path string) error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.file, "", "    ")
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// Path returns the backing file, empty when built with New.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// Layers returns the task layer keys in file order.
func (c *Config) Layers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.TaskLayerTypes.Keys()
}

// HasLayer reports whether key is a declared task layer.
func (c *Config) HasLayer(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.file.TaskLayerTypes.Prefix(key)
	return ok
}

// Prefixes returns the task layer prefixes for the naming helpers.
func (c *Config) Prefixes() naming.Prefixes {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(naming.Prefixes, len(c.file.TaskLayerTypes))
	for _, layer := range c.file.TaskLayerTypes {
		out[layer.Key] = layer.Prefix
	}
	return out
}

// AssetCatalogID returns the optional catalog ID stamped on published files.
func (c *Config) AssetCatalogID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.AssetCatalogID
}

// File returns a copy of the loaded definition.
func (c *Config) File() File {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f := c.file
	f.TaskLayerTypes = slices.Clone(c.file.TaskLayerTypes)
	return f
}

// ValidateLocal checks a working copy's local task layers.
func (c *Config) ValidateLocal(local []string) error {
	if len(local) == 0 {
		return errors.NewValidationError("local task layers", local, "at least one task layer must be local")
	}
	for _, key := range local {
		if !c.HasLayer(key) {
			return errors.NewValidationError("local task layers", key, fmt.Sprintf("unknown task layer %q", key))
		}
	}
	return nil
}

// Complement returns the declared task layers that are not in local, in
// file order. Push merges with these as its local layers.
func (c *Config) Complement(local []string) []string {
	var out []string
	for _, key := range c.Layers() {
		if !slices.Contains(local, key) {
			out = append(out, key)
		}
	}
	return out
}

// DefaultOwner returns the default ownership of a sub-item. Attributes are
// looked up by name in ATTRIBUTE_DEFAULTS first. A kind missing from
// TRANSFER_DATA_DEFAULTS is a configuration error.
func (c *Config) DefaultOwner(kind asset.Kind, name string) (Default, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if kind == asset.KindAttribute {
		if d, ok := c.file.AttributeDefaults[name]; ok {
			return d, nil
		}
	}
	d, ok := c.file.TransferDataDefaults[kind]
	if !ok {
		return Default{}, errors.NewConfigError("task_layers",
			fmt.Sprintf("task layer file missing key %s", kind), nil)
	}
	return d, nil
}

// TransferDataOwner resolves who claims a newly discovered sub-item in a
// working copy with the given local layers. A local default owner keeps the
// sub-item without surrendering it; otherwise the first local layer claims
// it and the kind's auto_surrender applies.
func (c *Config) TransferDataOwner(kind asset.Kind, name string, local []string) (string, bool, error) {
	if len(local) == 0 {
		return "", false, errors.NewValidationError("local task layers", local, "at least one task layer must be local")
	}
	d, err := c.DefaultOwner(kind, name)
	if err != nil {
		return "", false, err
	}
	if slices.Contains(local, d.Owner) {
		return d.Owner, false, nil
	}
	return local[0], d.AutoSurrender, nil
}
