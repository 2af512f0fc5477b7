// Package stealth renders the in-page script that makes a session report a
// synthetic profile. The script is assembled from embedded modules and runs
// once, synchronously, on every new document.
package stealth

import (
	"embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/stupside/cloak/internal/profile"
)

// Module names one independently installed group of overrides.
type Module string

const (
	ModuleGuard       Module = "guard"
	ModuleIdentity    Module = "identity"
	ModuleWebGL       Module = "webgl"
	ModuleCanvas      Module = "canvas"
	ModuleMedia       Module = "media"
	ModulePermissions Module = "permissions"
	ModulePlugins     Module = "plugins"
	ModuleChrome      Module = "chrome"
)

// AllModules lists every module in installation order. The guard comes first
// because every other module registers its replacements with it.
var AllModules = []Module{
	ModuleGuard,
	ModuleIdentity,
	ModuleWebGL,
	ModuleCanvas,
	ModuleMedia,
	ModulePermissions,
	ModulePlugins,
	ModuleChrome,
}

// ErrUnknownModule is returned by Build for a module name it does not know.
var ErrUnknownModule = errors.New("unknown stealth module")

//go:embed js/*.js
var sources embed.FS

// Config selects the modules to install.
type Config struct {
	Modules []Module `koanf:"modules" validate:"dive,oneof=guard identity webgl canvas media permissions plugins chrome"`
}

// Policy holds the selectors the overrides recognize. Anything outside it is
// passed through to the real implementation.
type Policy struct {
	ExportEncodings  []string `json:"exportEncodings"`
	Placeholder      string   `json:"placeholder"`
	VendorParam      int      `json:"vendorParam"`
	RendererParam    int      `json:"rendererParam"`
	ColorSchemeQuery string   `json:"colorSchemeQuery"`
	Permission       string   `json:"permission"`
}

// PlaceholderPNG is the 1x1 image every recognized canvas export returns.
const PlaceholderPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

// DefaultPolicy returns the recognized selector set.
func DefaultPolicy() Policy {
	return Policy{
		ExportEncodings:  []string{"image/png", "image/jpeg"},
		Placeholder:      PlaceholderPNG,
		VendorParam:      0x9245, // UNMASKED_VENDOR_WEBGL
		RendererParam:    0x9246, // UNMASKED_RENDERER_WEBGL
		ColorSchemeQuery: "(prefers-color-scheme: dark)",
		Permission:       "notifications",
	}
}

// The whole script is one synchronous function call: nothing is deferred, so
// every override is in place before control returns to the page.
const (
	prelude = "(function (root, config) {\n'use strict';\n"
	epilog  = "})(typeof globalThis !== 'undefined' ? globalThis : this, __CONFIG__);\n"
)

// Build renders the in-page script for profile p with the configured modules.
// An empty module list installs every module.
func Build(p profile.Profile, cfg Config) (string, error) {
	modules, err := resolve(cfg.Modules)
	if err != nil {
		return "", err
	}

	config, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(struct {
		Profile profile.Profile `json:"profile"`
		Policy  Policy          `json:"policy"`
	}{p, DefaultPolicy()})
	if err != nil {
		return "", fmt.Errorf("encoding script config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(prelude)
	for _, m := range modules {
		body, err := sources.ReadFile("js/" + string(m) + ".js")
		if err != nil {
			return "", fmt.Errorf("reading %s module: %w", m, err)
		}
		if m == ModuleGuard {
			sb.Write(body)
			continue
		}
		fmt.Fprintf(&sb, "guard.install(function () {\n%s});\n", body)
	}
	sb.WriteString(strings.NewReplacer("__CONFIG__", config).Replace(epilog))

	return sb.String(), nil
}

// resolve validates the requested modules and returns them in installation
// order, guard included.
func resolve(requested []Module) ([]Module, error) {
	if len(requested) == 0 {
		return slices.Clone(AllModules), nil
	}

	for _, m := range requested {
		if !slices.Contains(AllModules, m) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModule, m)
		}
	}

	var out []Module
	for _, m := range AllModules {
		if m == ModuleGuard || slices.Contains(requested, m) {
			out = append(out, m)
		}
	}
	return out, nil
}
