package notification

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DevSender implements CodeSender for local development. Codes are appended
// to a file instead of being emailed.
type DevSender struct {
	dir string
}

// NewDevSender creates a development sender writing to dir.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

func (d *DevSender) SendVerificationCode(ctx context.Context, email, code string) error {
	if !ValidEmail(email) {
		return ErrInvalidRecipient
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendCode, err)
	}

	f, err := os.OpenFile(filepath.Join(d.dir, "verification_codes.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendCode, err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s\t%s\t%s\n", time.Now().Format(time.RFC3339), email, code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendCode, err)
	}
	return nil
}
