package repository

import (
	"path/filepath"
	"strings"

	"github.com/go-kit/kit/log/level"
)

func (r *Repository) notificationPath(user string) string {
	return filepath.Join(r.dataDir, NotificationDir, user+".txt")
}

// AddNotification appends a message to the account's mailbox, evicting the
// oldest entries beyond MaxNotificationsPerUser.
func (r *Repository) AddNotification(user, message string) error {
	user = SanitizeName(user)
	mu := r.notificationMu.lock(user)
	defer mu.Unlock()
	path := r.notificationPath(user)
	entries, err := readLines(path)
	if err != nil {
		_ = level.Error(r.logger).Log("method", "AddNotification", "user", user, "err", err)
		return err
	}
	entries = append(entries, message)
	if len(entries) > MaxNotificationsPerUser {
		entries = entries[len(entries)-MaxNotificationsPerUser:]
	}
	return writeFileAtomic(path, []byte(strings.Join(entries, "\n")+"\n"))
}

// Notifications returns the account's mailbox, oldest first.
func (r *Repository) Notifications(user string) ([]string, error) {
	user = SanitizeName(user)
	mu := r.notificationMu.lock(user)
	defer mu.Unlock()
	entries, err := readLines(r.notificationPath(user))
	if err != nil {
		_ = level.Error(r.logger).Log("method", "Notifications", "user", user, "err", err)
		return nil, err
	}
	return entries, nil
}

// ClearNotifications empties the mailbox in place; the file remains.
func (r *Repository) ClearNotifications(user string) error {
	user = SanitizeName(user)
	mu := r.notificationMu.lock(user)
	defer mu.Unlock()
	return writeFileAtomic(r.notificationPath(user), []byte{})
}
