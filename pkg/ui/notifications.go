package ui

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender shows a desktop notification.
type NotificationSender interface {
	Send(title, message string) error
}

type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name=engage", title, message).Run()
}

type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	esc := strings.NewReplacer("'", "''")
	script := fmt.Sprintf(`
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
$t = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$n = $t.GetElementsByTagName('text')
$n.Item(0).AppendChild($t.CreateTextNode('%s')) | Out-Null
$n.Item(1).AppendChild($t.CreateTextNode('%s')) | Out-Null
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('engage').Show([Windows.UI.Notifications.ToastNotification]::new($t))
`, esc.Replace(title), esc.Replace(message))
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier echoes a message to the console and, when enabled, raises a
// desktop notification.
type Notifier struct {
	w      io.Writer
	sender NotificationSender
}

// NewNotifier picks the sender for the current platform. desktop=false
// keeps output on the console only.
func NewNotifier(w io.Writer, desktop bool) *Notifier {
	n := &Notifier{w: w}
	if !desktop {
		return n
	}
	switch runtime.GOOS {
	case "linux":
		n.sender = &LinuxNotificationSender{}
	case "darwin":
		n.sender = &MacOSNotificationSender{}
	case "windows":
		n.sender = &WindowsNotificationSender{}
	}
	return n
}

// NewNotifierWithSender uses s for desktop notifications.
func NewNotifierWithSender(w io.Writer, s NotificationSender) *Notifier {
	return &Notifier{w: w, sender: s}
}

func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(n.w, "\n%s: %s\n", Green(title), Green(message))
	n.send(title, message)
}

func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(n.w, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

// Notification failures are ignored; the console line already went out.
func (n *Notifier) send(title, message string) {
	if n.sender != nil {
		_ = n.sender.Send(title, message)
	}
}
