package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var (
	goos  = func() string { return runtime.GOOS }
	start = func(cmd *exec.Cmd) error { return cmd.Start() }
)

// OpenConsentURL hands a Google consent URL to the desktop's URL handler so the user can approve access.
//
// Consent URLs carry several query parameters, so on Windows the URL goes through rundll32 rather than
// "cmd /c start", which would cut it at the first "&".
func OpenConsentURL(consentURL string) error {
	cmd, err := consentCommand(goos(), consentURL)
	if err != nil {
		return err
	}
	if err := start(cmd); err != nil {
		return fmt.Errorf("failed to open consent page with %s: %w", cmd.Path, err)
	}
	return nil
}

func consentCommand(platform, consentURL string) (*exec.Cmd, error) {
	u, err := url.Parse(consentURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("%w: consent url %q is not an absolute http(s) url", ErrConfiguration, consentURL)
	}

	switch platform {
	case "darwin":
		return exec.Command("open", consentURL), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", consentURL), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", consentURL), nil
	default:
		return nil, fmt.Errorf("%w: no browser launcher for %s", ErrConfiguration, platform)
	}
}
