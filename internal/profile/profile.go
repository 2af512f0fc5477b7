package profile

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Profile is the synthetic identity presented to page scripts. Every field
// describes the same desktop Windows machine running Chrome; the in-page
// overrides and the CDP-level overrides both read from it and nothing else.
//
// A Profile is a value: providers hand out copies and callers never mutate
// one after it has been validated.
type Profile struct {
	Vendor   string `json:"vendor" validate:"required"`   // WebGL UNMASKED_VENDOR_WEBGL
	Renderer string `json:"renderer" validate:"required"` // WebGL UNMASKED_RENDERER_WEBGL

	UserAgent string   `json:"userAgent" validate:"required"`
	Language  string   `json:"language" validate:"required"`
	Languages []string `json:"languages" validate:"required,min=1,dive,required"`
	Platform  string   `json:"platform" validate:"required,eq=Win32"` // navigator.platform

	ScreenWidth  int `json:"screenWidth" validate:"gte=800"`
	ScreenHeight int `json:"screenHeight" validate:"gte=600"`
	AvailWidth   int `json:"availWidth" validate:"gt=0"`
	AvailHeight  int `json:"availHeight" validate:"gt=0"`
	ColorDepth   int `json:"colorDepth" validate:"oneof=24 30 32"`
	PixelDepth   int `json:"pixelDepth" validate:"eqfield=ColorDepth"`
	OuterWidth   int `json:"outerWidth" validate:"gt=0"`
	OuterHeight  int `json:"outerHeight" validate:"gt=0"`
	InnerWidth   int `json:"innerWidth" validate:"gt=0"`
	InnerHeight  int `json:"innerHeight" validate:"gt=0"`

	DeviceMemory        int `json:"deviceMemory" validate:"oneof=2 4 8"`
	HardwareConcurrency int `json:"hardwareConcurrency" validate:"gte=2,lte=64"`
	MaxTouchPoints      int `json:"maxTouchPoints" validate:"eq=0"`

	// Only applied through CDP (headers, client hints, emulation).
	AcceptLanguage    string      `json:"acceptLanguage" validate:"required"`
	Brands            [][2]string `json:"brands" validate:"required"`          // [brand, majorVersion]
	FullVersionList   [][2]string `json:"fullVersionList" validate:"required"` // [brand, fullVersion]
	CHPlatform        string      `json:"chPlatform" validate:"eq=Windows"`
	CHPlatformVersion string      `json:"chPlatformVersion" validate:"required"`
	Architecture      string      `json:"architecture" validate:"required"`
	Bitness           string      `json:"bitness" validate:"required"`
	TimezoneID        string      `json:"timezoneId" validate:"required"`
}

var chromeMajorPattern = regexp.MustCompile(`Chrome/(\d+)\.`)

var validate = validator.New()

// Validate checks that every field is present and that all signals agree
// with each other. It reports every problem it finds, not just the first.
func (p Profile) Validate() error {
	if err := validate.Struct(&p); err != nil {
		return fmt.Errorf("validating profile fields: %w", err)
	}

	var errs []error

	if !strings.Contains(p.UserAgent, "Windows NT 10.0") {
		errs = append(errs, fmt.Errorf("user agent %q does not describe Windows NT 10.0 for platform %q", p.UserAgent, p.Platform))
	}
	if p.Languages[0] != p.Language {
		errs = append(errs, fmt.Errorf("primary language %q differs from languages[0] %q", p.Language, p.Languages[0]))
	}
	if !strings.HasPrefix(p.AcceptLanguage, p.Language) {
		errs = append(errs, fmt.Errorf("accept-language %q does not start with %q", p.AcceptLanguage, p.Language))
	}

	if p.AvailWidth > p.ScreenWidth || p.AvailHeight > p.ScreenHeight {
		errs = append(errs, fmt.Errorf("avail %dx%d exceeds screen %dx%d", p.AvailWidth, p.AvailHeight, p.ScreenWidth, p.ScreenHeight))
	}
	if p.OuterWidth > p.ScreenWidth || p.OuterHeight > p.ScreenHeight {
		errs = append(errs, fmt.Errorf("outer window %dx%d exceeds screen %dx%d", p.OuterWidth, p.OuterHeight, p.ScreenWidth, p.ScreenHeight))
	}
	if p.InnerWidth > p.OuterWidth || p.InnerHeight > p.OuterHeight {
		errs = append(errs, fmt.Errorf("inner window %dx%d exceeds outer window %dx%d", p.InnerWidth, p.InnerHeight, p.OuterWidth, p.OuterHeight))
	}

	m := chromeMajorPattern.FindStringSubmatch(p.UserAgent)
	if m == nil {
		errs = append(errs, fmt.Errorf("user agent %q carries no Chrome version", p.UserAgent))
	} else if !slices.Contains(p.Brands, [2]string{"Google Chrome", m[1]}) {
		errs = append(errs, fmt.Errorf("client hint brands %v do not match Chrome/%s", p.Brands, m[1]))
	}

	return errors.Join(errs...)
}

// ChromeMajor returns the Chrome major version named in the user agent, or
// an empty string when there is none.
func (p Profile) ChromeMajor() string {
	m := chromeMajorPattern.FindStringSubmatch(p.UserAgent)
	if m == nil {
		return ""
	}
	return m[1]
}

// clone returns a deep copy so that slices are never shared between callers.
func (p Profile) clone() Profile {
	c := p
	c.Languages = slices.Clone(p.Languages)
	c.Brands = slices.Clone(p.Brands)
	c.FullVersionList = slices.Clone(p.FullVersionList)
	return c
}
