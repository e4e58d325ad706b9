package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/trezcool/ukuaji/core"
)

func TestConsoleService_SendMessages(t *testing.T) {
	SentMessages = nil
	svc := NewConsoleServiceMock(&core.Config{
		AppName:          "Ukuaji",
		DefaultFromEmail: mail.Address{Address: "noreply@example.com"},
	})

	svc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: "reports@example.com"}},
		Subject: "import report",
		BodyStr: "import finished",
	})

	// delivery is synchronous; the message is recorded before control returns
	if len(SentMessages) != 1 {
		t.Fatalf("SentMessages holds %d messages right after SendMessages, want 1", len(SentMessages))
	}
	if SentMessages[0].TextContent != "import finished" {
		t.Errorf("TextContent = %q, want the rendered body", SentMessages[0].TextContent)
	}
}
