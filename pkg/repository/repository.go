package repository

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
)

var (
	// ErrInsufficientFunds error fired when not enough bits for transfer
	ErrInsufficientFunds = errors.New("Insufficient funds")
)

// File names of the durable resources inside the data directory.
const (
	BalanceFile           = "balances.txt"
	TransactionFile       = "transactions.txt"
	ProcessedCommentsFile = "processed_comments.txt"
	SubscriptionFile      = "subscriptions.txt"
	CompanyFile           = "companies.txt"
	NotificationDir       = "notifications"
	PreferenceDir         = "preferences"
)

// MaxNotificationsPerUser bounds every mailbox; oldest entries are evicted.
const MaxNotificationsPerUser = 100

// Repository owns the durable resources of the ledger. Every resource is a
// plain file (or a per-account file inside a directory) guarded by its own
// lock and replaced atomically on save. No method ever holds two resource
// locks at once.
type Repository struct {
	dataDir string
	logger  log.Logger

	balanceMu      sync.Mutex
	transactionMu  sync.Mutex
	processedMu    sync.Mutex
	subscriptionMu sync.Mutex
	companyMu      sync.Mutex

	notificationMu keyedMutex
	preferenceMu   keyedMutex
}

// New returns a file-backed Repository rooted at dataDir, creating the
// required directories when absent.
func New(dataDir string, logger log.Logger) (*Repository, error) {
	for _, dir := range []string{dataDir, filepath.Join(dataDir, NotificationDir), filepath.Join(dataDir, PreferenceDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &Repository{
		dataDir: dataDir,
		logger:  log.With(logger, "repository", "eckobitsdb"),
	}, nil
}

// DataDir returns the root of the durable resource layout.
func (r *Repository) DataDir() string {
	return r.dataDir
}

func (r *Repository) path(name string) string {
	return filepath.Join(r.dataDir, name)
}

// SanitizeName normalizes a raw external identity into the canonical account
// key: lower-cased, spaces and "@" removed, restricted to [a-z0-9_-]. Two
// identities that sanitize identically are the same account.
func SanitizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "")
	n = strings.ReplaceAll(n, "@", "")
	var b strings.Builder
	for _, c := range n {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// ReadableTimestamp renders the current time the way notifications quote it.
func ReadableTimestamp() string {
	return time.Now().Format("15:04 on 01/02/06")
}

// writeFileAtomic writes data to a temporary sibling and renames it over
// path, so a reader never observes a half-written resource.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readLines returns the non-empty lines of path, or nil when the file does
// not exist yet.
func readLines(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// keyedMutex hands out one mutex per key, so per-account resources never
// block each other.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (km *keyedMutex) lock(key string) *sync.Mutex {
	km.mu.Lock()
	if km.locks == nil {
		km.locks = make(map[string]*sync.Mutex)
	}
	m, ok := km.locks[key]
	if !ok {
		m = new(sync.Mutex)
		km.locks[key] = m
	}
	km.mu.Unlock()
	m.Lock()
	return m
}
