package auth

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Notifier shows the authorization URL to the operator.
type Notifier interface {
	NotifyAuthURL(url string, timeout time.Duration)
}

// WriterNotifier prints a framed block with the URL to W.
type WriterNotifier struct {
	W io.Writer
}

// NotifyAuthURL implements Notifier.
func (n WriterNotifier) NotifyAuthURL(url string, timeout time.Duration) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(n.W, "\n%s\nGmail Authentication Required\n%s\n\nPlease visit this URL to authenticate:\n\n%s\n\n%s\n",
		rule, rule, url, rule)
	fmt.Fprintf(n.W, "Waiting for authentication... (timeout: %s)\n", timeout)
}

// OpenBrowser asks the desktop to open url. It does not wait for the browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	return cmd.Start()
}
