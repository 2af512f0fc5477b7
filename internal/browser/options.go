package browser

import (
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/stupside/cloak/internal/app"
	"github.com/stupside/cloak/internal/profile"
)

// allocatorOpts returns exec-allocator options that avoid common
// headless-detection flags. Window size, language and UA come from the
// profile so the very first request already agrees with it.
func allocatorOpts(cfg app.BrowserConfig, p profile.Profile) []chromedp.ExecAllocatorOption {
	var headlessVal string
	if cfg.Headless {
		headlessVal = "new"
	}

	return []chromedp.ExecAllocatorOption{
		chromedp.ExecPath(cfg.ChromePath),

		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.Flag("headless", headlessVal),
		chromedp.Flag("no-sandbox", cfg.NoSandbox),

		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("lang", p.Language),

		chromedp.WindowSize(p.OuterWidth, p.OuterHeight),

		chromedp.UserAgent(p.UserAgent),
	}
}

// override is one CDP-level emulation. Chrome builds that do not know a
// method reject it; the session logs that and carries on.
type override struct {
	name   string
	action chromedp.Action
}

// overrides covers what the in-page script cannot reach: HTTP headers,
// client hints, CSS media evaluation, Intl and the automation flag.
func overrides(p profile.Profile) []override {
	return []override{
		{"automation", emulation.SetAutomationOverride(false)},
		{"focus", emulation.SetFocusEmulationEnabled(true)},
		{"hardware concurrency", emulation.SetHardwareConcurrencyOverride(int64(p.HardwareConcurrency))},
		{"timezone", emulation.SetTimezoneOverride(p.TimezoneID)},
		{"locale", emulation.SetLocaleOverride().WithLocale(p.Language)},
		{"touch", emulation.SetTouchEmulationEnabled(false)},
		{"device metrics", emulation.SetDeviceMetricsOverride(int64(p.InnerWidth), int64(p.InnerHeight), 1, false).
			WithScreenWidth(int64(p.ScreenWidth)).
			WithScreenHeight(int64(p.ScreenHeight))},
		{"user agent", userAgentOverride(p)},
	}
}

func userAgentOverride(p profile.Profile) *emulation.SetUserAgentOverrideParams {
	ua := emulation.SetUserAgentOverride(p.UserAgent)
	ua.AcceptLanguage = p.AcceptLanguage
	ua.Platform = p.Platform

	ua.UserAgentMetadata = &emulation.UserAgentMetadata{
		Brands:          brandVersions(p.Brands),
		FullVersionList: brandVersions(p.FullVersionList),
		Platform:        p.CHPlatform,
		PlatformVersion: p.CHPlatformVersion,
		Architecture:    p.Architecture,
		Model:           "",
		Mobile:          false,
		Bitness:         p.Bitness,
	}
	return ua
}

func brandVersions(pairs [][2]string) []*emulation.UserAgentBrandVersion {
	out := make([]*emulation.UserAgentBrandVersion, len(pairs))
	for i, b := range pairs {
		out[i] = &emulation.UserAgentBrandVersion{Brand: b[0], Version: b[1]}
	}
	return out
}
