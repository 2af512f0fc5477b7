// Package fingerprint reads back the signals a page script can observe and
// compares them with the profile a session is supposed to present.
package fingerprint

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/stupside/cloak/internal/profile"
	"github.com/stupside/cloak/internal/stealth"
)

// ProbeJS evaluates to a Promise of a Report. It only uses APIs a detection
// script would use, so it observes exactly what such a script sees.
//
//go:embed js/probe.js
var ProbeJS string

// ErrMismatch wraps every difference reported by Verify.
var ErrMismatch = errors.New("observed signal differs from profile")

// GPU is what one WebGL context version reports.
type GPU struct {
	Vendor          string `json:"vendor"`
	Renderer        string `json:"renderer"`
	Version         string `json:"version"`
	ShadingLanguage string `json:"shadingLanguage"`

	// Error is the first GL error left after the reads.
	Error int `json:"error"`
}

// Canvas describes two exports and two readbacks of the same drawing.
type Canvas struct {
	ExportStable   bool   `json:"exportStable"`
	Export         string `json:"export"`
	OtherEncoding  string `json:"otherEncoding"`
	ReadbackVaries bool   `json:"readbackVaries"`
	AlphaKept      bool   `json:"alphaKept"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

// Media describes the intercepted colour-scheme query and a passed-through one.
type Media struct {
	DarkMatches  bool     `json:"darkMatches"`
	DarkTag      string   `json:"darkTag"`
	DarkComplete bool     `json:"darkComplete"`
	DarkOwnProps []string `json:"darkOwnProps"`
	WidthMedia   string   `json:"widthMedia"`
	WidthMatches bool     `json:"widthMatches"`
}

// Permissions holds resolved permission states.
type Permissions struct {
	Notifications          string   `json:"notifications"`
	NotificationsOwnProps  []string `json:"notificationsOwnProps"`
	Geolocation            string   `json:"geolocation"`
	NotificationPermission string   `json:"notificationPermission"`
}

// Report is everything ProbeJS observed on a page.
type Report struct {
	UserAgent           string   `json:"userAgent"`
	Language            string   `json:"language"`
	Languages           []string `json:"languages"`
	Platform            string   `json:"platform"`
	HardwareConcurrency int      `json:"hardwareConcurrency"`
	DeviceMemory        float64  `json:"deviceMemory"`
	MaxTouchPoints      int      `json:"maxTouchPoints"`
	Webdriver           bool     `json:"webdriver"`

	OuterWidth   int `json:"outerWidth"`
	OuterHeight  int `json:"outerHeight"`
	InnerWidth   int `json:"innerWidth"`
	InnerHeight  int `json:"innerHeight"`
	ScreenWidth  int `json:"screenWidth"`
	ScreenHeight int `json:"screenHeight"`
	AvailWidth   int `json:"availWidth"`
	AvailHeight  int `json:"availHeight"`
	ColorDepth   int `json:"colorDepth"`
	PixelDepth   int `json:"pixelDepth"`

	WebGL       *GPU         `json:"webgl"`
	WebGL2      *GPU         `json:"webgl2"`
	Canvas      *Canvas      `json:"canvas"`
	Media       *Media       `json:"media"`
	Permissions *Permissions `json:"permissions"`

	NavigatorTag string   `json:"navigatorTag"`
	Leaks        []string `json:"leaks"`
	OwnProps     []string `json:"ownProps"`

	// Filled by the host, not by ProbeJS: uncaught page exceptions seen
	// while the page loaded.
	Exceptions []string `json:"exceptions,omitempty"`
}

// DecodeReport parses the JSON value ProbeJS resolves to.
func DecodeReport(data []byte) (*Report, error) {
	var r Report
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding probe report: %w", err)
	}
	return &r, nil
}

// Mismatch is one signal that does not read the way it should.
type Mismatch struct {
	Signal string
	Want   string
	Got    string
}

func (m Mismatch) Error() string {
	return fmt.Sprintf("%s: want %s, got %s", m.Signal, m.Want, m.Got)
}

// Unwrap lets errors.Is match ErrMismatch.
func (m Mismatch) Unwrap() error {
	return ErrMismatch
}

// Check lists every signal in r that disagrees with p. Sections the host did
// not expose (no WebGL, no canvas, no Permissions API) are not checked.
func (r *Report) Check(p profile.Profile) []Mismatch {
	var out []Mismatch
	expect := func(signal string, want, got any) {
		w, g := fmt.Sprint(want), fmt.Sprint(got)
		if w != g {
			out = append(out, Mismatch{Signal: signal, Want: w, Got: g})
		}
	}

	expect("navigator.userAgent", p.UserAgent, r.UserAgent)
	expect("navigator.language", p.Language, r.Language)
	expect("navigator.languages", strings.Join(p.Languages, ","), strings.Join(r.Languages, ","))
	expect("navigator.platform", p.Platform, r.Platform)
	expect("navigator.hardwareConcurrency", p.HardwareConcurrency, r.HardwareConcurrency)
	expect("navigator.deviceMemory", float64(p.DeviceMemory), r.DeviceMemory)
	expect("navigator.maxTouchPoints", p.MaxTouchPoints, r.MaxTouchPoints)
	expect("navigator.webdriver", false, r.Webdriver)

	expect("window.outerWidth", p.OuterWidth, r.OuterWidth)
	expect("window.outerHeight", p.OuterHeight, r.OuterHeight)
	expect("window.innerWidth", p.InnerWidth, r.InnerWidth)
	expect("window.innerHeight", p.InnerHeight, r.InnerHeight)
	expect("screen.width", p.ScreenWidth, r.ScreenWidth)
	expect("screen.height", p.ScreenHeight, r.ScreenHeight)
	expect("screen.availWidth", p.AvailWidth, r.AvailWidth)
	expect("screen.availHeight", p.AvailHeight, r.AvailHeight)
	expect("screen.colorDepth", p.ColorDepth, r.ColorDepth)
	expect("screen.pixelDepth", p.PixelDepth, r.PixelDepth)

	for name, gpu := range map[string]*GPU{"webgl": r.WebGL, "webgl2": r.WebGL2} {
		if gpu == nil {
			continue
		}
		expect(name+".vendor", p.Vendor, gpu.Vendor)
		expect(name+".renderer", p.Renderer, gpu.Renderer)
		expect(name+".error", 0, gpu.Error)
	}

	if c := r.Canvas; c != nil {
		expect("canvas.exportStable", true, c.ExportStable)
		expect("canvas.export", stealth.PlaceholderPNG, c.Export)
		expect("canvas.otherEncodingPassthrough", true, c.OtherEncoding != stealth.PlaceholderPNG)
		expect("canvas.readbackVaries", true, c.ReadbackVaries)
		expect("canvas.alphaKept", true, c.AlphaKept)
	}

	if m := r.Media; m != nil {
		expect("matchMedia.dark.matches", false, m.DarkMatches)
		expect("matchMedia.dark.tag", "[object MediaQueryList]", m.DarkTag)
		expect("matchMedia.dark.methods", true, m.DarkComplete)
		expect("matchMedia.dark.ownProps", "", strings.Join(m.DarkOwnProps, ","))
		expect("matchMedia.width.media", "(min-width: 1px)", m.WidthMedia)
	}

	if pm := r.Permissions; pm != nil {
		expect("permissions.notifications.ownProps", "", strings.Join(pm.NotificationsOwnProps, ","))
		if pm.NotificationPermission != "" {
			expect("permissions.notifications", NotificationState(pm.NotificationPermission), pm.Notifications)
		}
	}

	expect("navigator.tag", "[object Navigator]", r.NavigatorTag)
	expect("native.leaks", "", strings.Join(r.Leaks, ","))
	expect("instance.ownProps", "", strings.Join(r.OwnProps, ","))
	expect("page.exceptions", 0, len(r.Exceptions))

	slices.SortFunc(out, func(a, b Mismatch) int { return strings.Compare(a.Signal, b.Signal) })
	return out
}

// Verify is Check folded into a single error, nil when everything agrees.
func (r *Report) Verify(p profile.Profile) error {
	var errs []error
	for _, m := range r.Check(p) {
		errs = append(errs, m)
	}
	return errors.Join(errs...)
}

// NotificationState maps Notification.permission onto the Permissions API
// vocabulary.
func NotificationState(permission string) string {
	if permission == "default" {
		return "prompt"
	}
	return permission
}
