// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/z5labs/typedapi/config"
	"github.com/z5labs/typedapi/internal/watch"
	"github.com/z5labs/typedapi/router"
)

// DefaultFilename is the name of the generated file inside a target's output directory.
const DefaultFilename = "client_gen.go"

// Target is one generated client: the manifests it is built from and
// where it is written.
type Target struct {
	Manifests    []string `yaml:"manifests"`
	Out          string   `yaml:"out"`
	Package      string   `yaml:"package"`
	ClientImport string   `yaml:"client_import"`
	Filename     string   `yaml:"filename"`
}

// Path returns the file the target is written to.
func (t Target) Path() string {
	return filepath.Join(t.Out, t.Filename)
}

// GenConfig captures the inputs of the gen command after merging the
// config file, the environment and flag overrides.
type GenConfig struct {
	Targets []Target `yaml:"targets"`
	Watch   bool     `yaml:"watch"`
}

var genRunner = runGen

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a typed client from one or more manifests",
		Long: "Generate a typed Go client from endpoint manifests. " +
			"Targets can be provided via flags or the " + DefaultConfigFile + " config file.",
		Example: strings.TrimSpace(`  typedapi gen --manifest api.yaml --out ./api --package api
  typedapi gen --manifest users.yaml --manifest posts.yaml --out ./client --watch
  typedapi --config typedapi.yaml gen`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenConfig(cmd)
			if err != nil {
				return err
			}
			return genRunner(cmd.Context(), cfg, newLogger(cmd))
		},
	}

	flags := cmd.Flags()
	flags.StringArray("manifest", nil, "Manifest file to generate from (repeatable)")
	flags.String("out", "", "Output directory of the generated client")
	flags.String("package", "", "Package name of the generated client (defaults to $TYPEDAPI_PACKAGE or api)")
	flags.String("client-import", "", "Import path of the client runtime package")
	flags.String("filename", "", "Name of the generated file (defaults to "+DefaultFilename+")")
	flags.Bool("watch", false, "Regenerate whenever a manifest changes")

	return cmd
}

func resolveGenConfig(cmd *cobra.Command) (*GenConfig, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	path = strings.TrimSpace(path)
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	cfg, err := config.Read(ctx, config.UnmarshalYAML[GenConfig](config.File(path)))
	switch {
	case errors.Is(err, config.ErrValueNotSet) && explicit:
		return nil, newUsageError(fmt.Sprintf("read config file %q: file does not exist", path))
	case errors.Is(err, config.ErrValueNotSet):
		cfg = GenConfig{}
	case err != nil:
		return nil, newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	err = applyGenFlagOverrides(cmd.Flags(), &cfg)
	if err != nil {
		return nil, err
	}

	cfg.normalize(ctx)
	err = cfg.validate()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyGenFlagOverrides(flags *pflag.FlagSet, cfg *GenConfig) error {
	if flags.Changed("manifest") {
		manifests, err := flags.GetStringArray("manifest")
		if err != nil {
			return err
		}
		var t Target
		if len(cfg.Targets) == 1 {
			t = cfg.Targets[0]
		}
		t.Manifests = manifests
		cfg.Targets = []Target{t}
	}

	overrides := []struct {
		flag  string
		field func(*Target) *string
	}{
		{flag: "out", field: func(t *Target) *string { return &t.Out }},
		{flag: "package", field: func(t *Target) *string { return &t.Package }},
		{flag: "client-import", field: func(t *Target) *string { return &t.ClientImport }},
		{flag: "filename", field: func(t *Target) *string { return &t.Filename }},
	}
	for _, o := range overrides {
		if !flags.Changed(o.flag) {
			continue
		}
		if len(cfg.Targets) > 1 {
			return newUsageError(fmt.Sprintf("gen: --%s can not be used with a config file that defines %d targets", o.flag, len(cfg.Targets)))
		}
		if len(cfg.Targets) == 0 {
			cfg.Targets = []Target{{}}
		}
		value, err := flags.GetString(o.flag)
		if err != nil {
			return err
		}
		*o.field(&cfg.Targets[0]) = value
	}

	if flags.Changed("watch") {
		value, err := flags.GetBool("watch")
		if err != nil {
			return err
		}
		cfg.Watch = value
	}
	return nil
}

func (c *GenConfig) normalize(ctx context.Context) {
	pkg := config.MustOr(ctx, "api", config.Env("TYPEDAPI_PACKAGE"))
	for i := range c.Targets {
		t := &c.Targets[i]
		manifests := make([]string, 0, len(t.Manifests))
		for _, m := range t.Manifests {
			m = strings.TrimSpace(m)
			if m != "" {
				manifests = append(manifests, m)
			}
		}
		t.Manifests = manifests
		t.Out = strings.TrimSpace(t.Out)
		if t.Out == "" {
			t.Out = "."
		}
		t.Package = strings.TrimSpace(t.Package)
		if t.Package == "" {
			t.Package = pkg
		}
		t.ClientImport = strings.TrimSpace(t.ClientImport)
		t.Filename = strings.TrimSpace(t.Filename)
		if t.Filename == "" {
			t.Filename = DefaultFilename
		}
	}
}

func (c *GenConfig) validate() error {
	if len(c.Targets) == 0 {
		return newUsageError("gen: --manifest is required (set via flag or config file)")
	}

	outputs := make(map[string]int, len(c.Targets))
	for i, t := range c.Targets {
		if len(t.Manifests) == 0 {
			return newUsageError(fmt.Sprintf("gen: target %d has no manifests", i))
		}
		if !token.IsIdentifier(t.Package) {
			return newUsageError(fmt.Sprintf("gen: invalid package name %q", t.Package))
		}
		p := filepath.Clean(t.Path())
		if j, ok := outputs[p]; ok {
			return newUsageError(fmt.Sprintf("gen: targets %d and %d both write %s", j, i, p))
		}
		outputs[p] = i
	}
	return nil
}

func runGen(ctx context.Context, cfg *GenConfig, log *slog.Logger) error {
	err := renderAll(ctx, cfg.Targets, log)
	if !cfg.Watch {
		return err
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to generate clients", slog.Any("error", err))
	}

	var paths []string
	for _, t := range cfg.Targets {
		paths = append(paths, t.Manifests...)
	}
	log.InfoContext(ctx, "watching manifests for changes", slog.Int("manifests", len(paths)))
	return watch.Files(ctx, paths, watch.Options{Logger: log}, func(ctx context.Context) error {
		return renderAll(ctx, cfg.Targets, log)
	})
}

func renderAll(ctx context.Context, targets []Target, log *slog.Logger) error {
	p := pool.New().WithErrors().WithContext(ctx)
	for _, t := range targets {
		p.Go(func(ctx context.Context) error {
			return render(ctx, t, log)
		})
	}
	return p.Wait()
}

func render(ctx context.Context, t Target, log *slog.Logger) error {
	manifests := make([]router.Manifest, len(t.Manifests))
	p := pool.New().WithErrors().WithContext(ctx)
	for i, name := range t.Manifests {
		p.Go(func(ctx context.Context) error {
			m, err := router.LoadManifest(name)
			if err != nil {
				return fmt.Errorf("load manifest %s: %w", name, err)
			}
			manifests[i] = m
			return nil
		})
	}
	err := p.Wait()
	if err != nil {
		return err
	}

	tree, err := router.Build(manifests[0].Merge(manifests[1:]...))
	if err != nil {
		return err
	}

	src, err := router.Generate(tree, router.GenerateOptions{
		Package:      t.Package,
		ClientImport: t.ClientImport,
	})
	if err != nil {
		return err
	}

	path := t.Path()
	written, err := writeFile(path, src)
	if err != nil {
		return err
	}
	if !written {
		log.DebugContext(ctx, "client is up to date", slog.String("path", path))
		return nil
	}
	log.InfoContext(ctx, "generated client", slog.String("path", path), slog.Int("endpoints", len(tree.Leaves())))
	return nil
}

// writeFile replaces path with content through a temp file and rename. It
// reports false without touching the file when the content is unchanged.
func writeFile(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return false, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	_, err = tmp.Write(content)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0o644)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
