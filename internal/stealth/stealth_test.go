package stealth_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/cloak/internal/profile"
	"github.com/stupside/cloak/internal/stealth"
)

func TestBuild_InstallsGuardFirst(t *testing.T) {
	script, err := stealth.Build(profile.Fixed().Profile(), stealth.Config{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "(function (root, config) {"))
	guard := strings.Index(script, "var guard =")
	require.GreaterOrEqual(t, guard, 0)
	assert.Less(t, guard, strings.Index(script, "guard.install("))
	assert.Equal(t, len(stealth.AllModules)-1, strings.Count(script, "guard.install(function () {"))
}

func TestBuild_SelectsModules(t *testing.T) {
	script, err := stealth.Build(profile.Fixed().Profile(), stealth.Config{
		Modules: []stealth.Module{stealth.ModuleCanvas, stealth.ModuleIdentity},
	})
	require.NoError(t, err)

	assert.Contains(t, script, "var guard =")
	assert.Equal(t, 2, strings.Count(script, "guard.install(function () {"))
	assert.Less(t, strings.Index(script, "navigatorSignals"), strings.Index(script, "toDataURL"), "modules keep installation order")
	assert.NotContains(t, script, "matchMedia")
}

func TestBuild_UnknownModule(t *testing.T) {
	_, err := stealth.Build(profile.Fixed().Profile(), stealth.Config{
		Modules: []stealth.Module{"audio"},
	})
	require.ErrorIs(t, err, stealth.ErrUnknownModule)
	assert.Contains(t, err.Error(), `"audio"`)
}

func TestBuild_EmbedsProfileAsJSON(t *testing.T) {
	p := profile.Fixed().Profile()
	p.Renderer = `ANGLE ("quoted") </script>`

	script, err := stealth.Build(p, stealth.Config{})
	require.NoError(t, err)

	assert.Contains(t, script, `"renderer":"ANGLE (\"quoted\") \u003c/script\u003e"`)
	assert.Contains(t, script, `"userAgent":"`+p.UserAgent+`"`)
	assert.NotContains(t, script, "__CONFIG__")
}

func TestBuild_IsDeterministic(t *testing.T) {
	p := profile.NewRandom(9).Profile()

	a, err := stealth.Build(p, stealth.Config{})
	require.NoError(t, err)
	b, err := stealth.Build(p, stealth.Config{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPlaceholderPNG_DecodesToOnePixel(t *testing.T) {
	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(stealth.PlaceholderPNG, prefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stealth.PlaceholderPNG, prefix))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
}

func TestDefaultPolicy(t *testing.T) {
	policy := stealth.DefaultPolicy()

	assert.Equal(t, []string{"image/png", "image/jpeg"}, policy.ExportEncodings)
	assert.Equal(t, 0x9245, policy.VendorParam)
	assert.Equal(t, 0x9246, policy.RendererParam)
	assert.Equal(t, "notifications", policy.Permission)
}
