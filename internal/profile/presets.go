package profile

import (
	"fmt"
	"math/rand/v2"
)

type platformPreset struct {
	uaOS              string // OS fragment inside the UA string
	chPlatformVersion string
	architecture      string
	bitness           string
}

// Windows 10 and Windows 11 both report "Windows NT 10.0" in the UA; only
// the client hint platform version tells them apart.
var platformPresets = []platformPreset{
	{"Windows NT 10.0; Win64; x64", "10.0.0", "x86", "64"},
	{"Windows NT 10.0; Win64; x64", "15.0.0", "x86", "64"},
}

type gpuPreset struct {
	vendor   string
	renderer string
}

var gpuPresets = []gpuPreset{
	{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) UHD Graphics 630 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) UHD Graphics 770 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce GTX 1650 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce RTX 3060 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (AMD)", "ANGLE (AMD, AMD Radeon RX 6600 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
}

type screenPreset struct {
	width  int
	height int
}

var screenPresets = []screenPreset{
	{1920, 1080},
	{2560, 1440},
	{1366, 768},
	{1536, 864},
	{1680, 1050},
}

type localePreset struct {
	timezoneID     string
	acceptLanguage string
	languages      []string
}

var localePresets = []localePreset{
	{"America/New_York", "en-US,en;q=0.9", []string{"en-US", "en"}},
	{"America/Chicago", "en-US,en;q=0.9", []string{"en-US", "en"}},
	{"America/Los_Angeles", "en-US,en;q=0.9", []string{"en-US", "en"}},
	{"Europe/London", "en-GB,en;q=0.9,en-US;q=0.8", []string{"en-GB", "en", "en-US"}},
}

type chromeVersion struct {
	major string
	full  string
}

var chromeVersions = []chromeVersion{
	{"131", "131.0.0.0"},
	{"132", "132.0.0.0"},
	{"133", "133.0.0.0"},
}

var hardwareConcurrencies = []int{4, 8, 12, 16}
var deviceMemories = []int{4, 8}
var greaseBrands = []string{`Not A(Brand`, `Not/A)Brand`, `Not_A Brand`}

const (
	taskbarHeight = 40 // Windows taskbar at the bottom of the primary screen
	toolbarHeight = 87 // tab strip plus omnibox of a maximized Chrome window
)

// geometry derives availability and window sizes for a maximized browser
// window on a screen of the given size.
func geometry(width, height int) (availW, availH, outerW, outerH, innerW, innerH int) {
	availW, availH = width, height-taskbarHeight
	outerW, outerH = availW, availH
	innerW, innerH = outerW, outerH-toolbarHeight
	return
}

func assemble(plat platformPreset, gpu gpuPreset, scr screenPreset, loc localePreset, ver chromeVersion, grease string, hwConc, devMem int) Profile {
	availW, availH, outerW, outerH, innerW, innerH := geometry(scr.width, scr.height)

	return Profile{
		Vendor:   gpu.vendor,
		Renderer: gpu.renderer,
		UserAgent: fmt.Sprintf(
			"Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
			plat.uaOS, ver.full,
		),
		Language:            loc.languages[0],
		Languages:           append([]string(nil), loc.languages...),
		Platform:            "Win32",
		ScreenWidth:         scr.width,
		ScreenHeight:        scr.height,
		AvailWidth:          availW,
		AvailHeight:         availH,
		ColorDepth:          24,
		PixelDepth:          24,
		OuterWidth:          outerW,
		OuterHeight:         outerH,
		InnerWidth:          innerW,
		InnerHeight:         innerH,
		DeviceMemory:        devMem,
		HardwareConcurrency: hwConc,
		MaxTouchPoints:      0,
		AcceptLanguage:      loc.acceptLanguage,
		Brands: [][2]string{
			{grease, "8"},
			{"Chromium", ver.major},
			{"Google Chrome", ver.major},
		},
		FullVersionList: [][2]string{
			{grease, "8.0.0.0"},
			{"Chromium", ver.full},
			{"Google Chrome", ver.full},
		},
		CHPlatform:        "Windows",
		CHPlatformVersion: plat.chPlatformVersion,
		Architecture:      plat.architecture,
		Bitness:           plat.bitness,
		TimezoneID:        loc.timezoneID,
	}
}

// newRandomProfile picks one entry from every preset pool using r.
func newRandomProfile(r *rand.Rand) Profile {
	pick := func(n int) int { return r.IntN(n) }

	return assemble(
		platformPresets[pick(len(platformPresets))],
		gpuPresets[pick(len(gpuPresets))],
		screenPresets[pick(len(screenPresets))],
		localePresets[pick(len(localePresets))],
		chromeVersions[pick(len(chromeVersions))],
		greaseBrands[pick(len(greaseBrands))],
		hardwareConcurrencies[pick(len(hardwareConcurrencies))],
		deviceMemories[pick(len(deviceMemories))],
	)
}

// fixedProfile is the single hardcoded desktop identity: Chrome 121 on
// Windows 10, 1920x1080, 4 cores, 8 GB, Intel graphics, US English.
var fixedProfile = assemble(
	platformPresets[0],
	gpuPresets[0],
	screenPreset{1920, 1080},
	localePresets[0],
	chromeVersion{"121", "121.0.0.0"},
	`Not A(Brand`,
	4,
	8,
)
