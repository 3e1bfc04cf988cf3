package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/logging"
)

// Environment variables set for hook commands.
const (
	EnvMergeMode   = "ASSETPIPE_MERGE_MODE"
	EnvMergeStatus = "ASSETPIPE_MERGE_STATUS"
	EnvAsset       = "ASSETPIPE_ASSET"
)

// CommandSpec is one entry of a hooks.yaml file.
type CommandSpec struct {
	Name    string   `yaml:"name"`
	Rules   Rules    `yaml:",inline"`
	Command []string `yaml:"command"`
	Timeout string   `yaml:"timeout,omitempty"`

	timeout time.Duration
}

// HookFile is the on-disk shape of hooks.yaml.
type HookFile struct {
	Hooks []CommandSpec `yaml:"hooks"`
}

// ParseFile reads a hooks.yaml file.
func ParseFile(path string) (*HookFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f HookFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.NewParseError("yaml", path, "invalid hook file", err)
	}
	for i, spec := range f.Hooks {
		if spec.Name == "" {
			return nil, errors.NewParseError("yaml", path, fmt.Sprintf("hook %d has no name", i), nil)
		}
		if len(spec.Command) == 0 {
			return nil, errors.NewParseError("yaml", path, fmt.Sprintf("hook %q has no command", spec.Name), nil)
		}
		if spec.Timeout != "" {
			timeout, err := time.ParseDuration(spec.Timeout)
			if err != nil {
				return nil, errors.NewParseError("yaml", path, fmt.Sprintf("hook %q has an invalid timeout", spec.Name), err)
			}
			f.Hooks[i].timeout = timeout
		}
	}
	return &f, nil
}

// CommandHook returns a hook running spec's command in dir.
func CommandHook(spec CommandSpec, dir, source string) *Hook {
	timeout := spec.timeout
	if timeout <= 0 {
		timeout = constants.HookTimeout
	}
	return &Hook{
		Name:   spec.Name,
		Rules:  spec.Rules,
		Source: source,
		Func: func(ctx context.Context, e Event) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
			cmd.Dir = dir
			cmd.Env = append(os.Environ(),
				EnvMergeMode+"="+e.MergeMode,
				EnvMergeStatus+"="+e.MergeStatus,
			)
			if e.Root != nil {
				cmd.Env = append(cmd.Env, EnvAsset+"="+e.Root.Name)
			}
			var out bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &out

			if err := cmd.Run(); err != nil {
				return errors.NewProcessError("hook "+spec.Name, strings.Join(spec.Command, " "), strings.TrimSpace(out.String()), err)
			}
			logging.FromContext(ctx).Debug().
				Str("hook", spec.Name).
				Str("output", strings.TrimSpace(out.String())).
				Msg("Hook command finished")
			return nil
		},
	}
}

// Load reads hooks.yaml from every hook directory, replacing hooks loaded
// earlier. A missing directory or file is skipped.
func (d *Dispatcher) Load(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	var loaded []*Hook
	for _, dir := range d.dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			logger.Debug().Str("dir", dir).Msg("Hooks directory not found")
			continue
		}
		path := filepath.Join(dir, constants.HookFileName)
		f, err := ParseFile(path)
		if os.IsNotExist(err) {
			logger.Debug().Str("path", path).Msg("No hook file found in optional location")
			continue
		}
		if err != nil {
			return err
		}
		for _, spec := range f.Hooks {
			loaded = append(loaded, CommandHook(spec, dir, path))
			logger.Info().Str("hook", spec.Name).Str("path", path).Msg("Registering hook")
		}
	}
	return d.replaceFileHooks(loaded)
}
