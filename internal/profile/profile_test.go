package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/cloak/internal/profile"
)

func TestFixed_IsConsistentDesktop(t *testing.T) {
	p := profile.Fixed().Profile()

	require.NoError(t, p.Validate())
	assert.Equal(t, 0, p.MaxTouchPoints)
	assert.Equal(t, "Win32", p.Platform)
	assert.Contains(t, p.UserAgent, "Windows NT 10.0")
	assert.Equal(t, "121", p.ChromeMajor())
	assert.Equal(t, []string{"en-US", "en"}, p.Languages)
	assert.Equal(t, 1920, p.ScreenWidth)
	assert.Equal(t, 1080, p.ScreenHeight)
	assert.Equal(t, 8, p.DeviceMemory)
	assert.Equal(t, 4, p.HardwareConcurrency)
}

func TestFixed_MaximizedWindowGeometry(t *testing.T) {
	p := profile.Fixed().Profile()

	assert.Equal(t, "Google Inc. (Intel)", p.Vendor)
	assert.Equal(t, [2]int{1920, 1040}, [2]int{p.AvailWidth, p.AvailHeight})
	assert.Equal(t, [2]int{1920, 1040}, [2]int{p.OuterWidth, p.OuterHeight}, "maximized: outer fills the available area")
	assert.Equal(t, [2]int{1920, 953}, [2]int{p.InnerWidth, p.InnerHeight}, "innerWidth includes the scrollbar")
	assert.LessOrEqual(t, p.OuterHeight, p.AvailHeight)
}

func TestFixed_ReturnsIndependentCopies(t *testing.T) {
	provider := profile.Fixed()

	first := provider.Profile()
	first.Languages[0] = "xx-XX"
	first.Brands[0][1] = "999"

	second := provider.Profile()
	assert.Equal(t, "en-US", second.Languages[0])
	assert.NotEqual(t, "999", second.Brands[0][1])
}

func TestRandom_EverySeedValidates(t *testing.T) {
	for seed := uint64(1); seed <= 1000; seed++ {
		p := profile.NewRandom(seed).Profile()
		require.NoError(t, p.Validate(), "seed %d", seed)
		assert.Equal(t, 0, p.MaxTouchPoints)
		assert.Equal(t, "Win32", p.Platform)
		assert.Contains(t, p.UserAgent, "Windows NT 10.0")
	}
}

func TestRandom_SeedIsReproducible(t *testing.T) {
	a := profile.NewRandom(42)
	b := profile.NewRandom(42)

	assert.Equal(t, a.Profile(), b.Profile())
	assert.Equal(t, uint64(42), a.Seed())
}

func TestValidate_ReportsContradictions(t *testing.T) {
	const macUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Chrome/121.0.0.0 Safari/537.36"
	lagging := [][2]string{{"Chromium", "120"}, {"Google Chrome", "120"}}

	tests := []struct {
		name   string
		mutate func(p *profile.Profile)
		want   string
	}{
		{
			name:   "touch points on desktop",
			mutate: func(p *profile.Profile) { p.MaxTouchPoints = 5 },
			want:   "MaxTouchPoints",
		},
		{
			name:   "mac user agent with windows platform",
			mutate: func(p *profile.Profile) { p.UserAgent = macUA },
			want:   "Windows NT 10.0",
		},
		{
			name:   "inner window larger than outer",
			mutate: func(p *profile.Profile) { p.InnerWidth = p.OuterWidth + 1 },
			want:   "inner window",
		},
		{
			name:   "avail larger than screen",
			mutate: func(p *profile.Profile) { p.AvailHeight = p.ScreenHeight + 10 },
			want:   "avail",
		},
		{
			name:   "language list disagrees with primary language",
			mutate: func(p *profile.Profile) { p.Languages = []string{"fr-FR", "fr"} },
			want:   "primary language",
		},
		{
			name:   "client hints lag the user agent",
			mutate: func(p *profile.Profile) { p.Brands = lagging },
			want:   "client hint brands",
		},
		{
			name:   "pixel depth differs from color depth",
			mutate: func(p *profile.Profile) { p.PixelDepth = 32 },
			want:   "PixelDepth",
		},
		{
			name:   "device memory above chrome cap",
			mutate: func(p *profile.Profile) { p.DeviceMemory = 16 },
			want:   "DeviceMemory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profile.Fixed().Profile()
			tt.mutate(&p)

			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFromConfig(t *testing.T) {
	p, err := profile.FromConfig(profile.Config{Source: profile.SourceFixed})
	require.NoError(t, err)
	assert.Equal(t, profile.Fixed().Profile(), p.Profile())

	p, err = profile.FromConfig(profile.Config{Source: profile.SourceRandom, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, profile.NewRandom(7).Profile(), p.Profile())

	_, err = profile.FromConfig(profile.Config{Source: "mobile"})
	require.Error(t, err)
}
