package deliver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/textproto"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"
)

const defaultTimeout = 30 * time.Second

// Config describes the lab's FTP drop box.
type Config struct {
	Addr       string // host:port
	User       string
	Password   string
	Dir        string
	Timeout    time.Duration
	MaxElapsed time.Duration
}

type FTPUploader struct {
	cfg Config
}

func NewFTPUploader(cfg Config) *FTPUploader {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxElapsed == 0 {
		cfg.MaxElapsed = 2 * time.Minute
	}
	if cfg.User == "" {
		cfg.User = "anonymous"
		cfg.Password = "anonymous"
	}
	return &FTPUploader{cfg: cfg}
}

// Upload stores the local file in the configured directory, retrying
// connection and transfer failures with exponential backoff.
func (u *FTPUploader) Upload(ctx context.Context, localPath string) error {
	if _, err := os.Stat(localPath); err != nil {
		return fmt.Errorf("stat upload: %w", err)
	}
	remote := filepath.Base(localPath)
	if u.cfg.Dir != "" {
		remote = path.Join(u.cfg.Dir, remote)
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := u.store(ctx, localPath, remote)
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		if err != nil {
			log.Printf("deliver: attempt %d failed: %v", attempt, err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = u.cfg.MaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("upload %s: %w", remote, err)
	}
	log.Printf("deliver: uploaded %s to %s", remote, u.cfg.Addr)
	return nil
}

func (u *FTPUploader) store(ctx context.Context, localPath, remote string) error {
	conn, err := ftp.Dial(u.cfg.Addr, ftp.DialWithTimeout(u.cfg.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login(u.cfg.User, u.cfg.Password); err != nil {
		return fmt.Errorf("ftp login: %w", err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	if err := conn.Stor(remote, f); err != nil {
		return fmt.Errorf("ftp stor: %w", err)
	}
	return nil
}

// isPermanent reports FTP replies that another attempt cannot fix: bad
// credentials (530) and missing or forbidden paths (550, 553).
func isPermanent(err error) bool {
	var te *textproto.Error
	if errors.As(err, &te) {
		switch te.Code {
		case ftp.StatusNotLoggedIn, ftp.StatusFileUnavailable, ftp.StatusBadFileName:
			return true
		}
	}
	return errors.Is(err, os.ErrNotExist)
}
