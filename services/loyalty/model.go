package loyalty

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

type TransactionType string

const (
	EarnBooking TransactionType = "EARN_BOOKING"
	SpendReward TransactionType = "SPEND_REWARD"
	Adjustment  TransactionType = "ADJUSTMENT"
	Violation   TransactionType = "VIOLATION"
)

func (t TransactionType) Valid() bool {
	switch t {
	case EarnBooking, SpendReward, Adjustment, Violation:
		return true
	}
	return false
}

// Transaction is one append-only ledger row. Hash chains each worker's rows
// in insertion order.
type Transaction struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	WorkerID     int64           `gorm:"column:worker_id;index;not null" json:"worker_id,string"`
	BookingID    *int64          `gorm:"column:booking_id;index" json:"booking_id,omitempty,string"`
	Reference    *string         `gorm:"column:reference;type:varchar(64);uniqueIndex" json:"reference,omitempty"`
	Type         TransactionType `gorm:"column:type;type:varchar(20);not null" json:"type"`
	Points       int64           `gorm:"column:points;not null" json:"points"`
	Notes        string          `gorm:"column:notes;type:text" json:"notes,omitempty"`
	PreviousHash string          `gorm:"column:previous_hash;type:varchar(64)" json:"previous_hash"`
	Hash         string          `gorm:"column:hash;type:varchar(64)" json:"hash"`
	CreatedAt    time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (Transaction) TableName() string { return "loyalty_transactions" }

func (m *Transaction) HashFields() map[string]string {
	bookingID, reference := "", ""
	if m.BookingID != nil {
		bookingID = fmt.Sprintf("%d", *m.BookingID)
	}
	if m.Reference != nil {
		reference = *m.Reference
	}

	return map[string]string{
		"id":            fmt.Sprintf("%d", m.ID),
		"worker_id":     fmt.Sprintf("%d", m.WorkerID),
		"booking_id":    bookingID,
		"reference":     reference,
		"type":          string(m.Type),
		"points":        fmt.Sprintf("%d", m.Points),
		"notes":         m.Notes,
		"created_at":    m.CreatedAt.UTC().Format(time.RFC3339Nano),
		"previous_hash": m.PreviousHash,
	}
}

func (m *Transaction) GenerateHash() string {
	fields := m.HashFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}

// Account caches the ledger sum and the tier derived from it.
type Account struct {
	WorkerID  int64     `gorm:"column:worker_id;primaryKey;autoIncrement:false" json:"worker_id,string"`
	Balance   int64     `gorm:"column:balance;not null;default:0" json:"balance"`
	TierCode  string    `gorm:"column:tier_code;type:varchar(32)" json:"tier_code"`
	LastHash  string    `gorm:"column:last_hash;type:varchar(64)" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Account) TableName() string { return "loyalty_accounts" }

type Tier struct {
	Code      string    `gorm:"column:code;primaryKey;type:varchar(32)" json:"code"`
	Name      string    `gorm:"column:name;type:varchar(64)" json:"name"`
	MinPoints int64     `gorm:"column:min_points;not null" json:"min_points"`
	Rank      int       `gorm:"column:rank;not null" json:"rank"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Tier) TableName() string { return "loyalty_tiers" }

// Entry is a request to post signed points for a worker.
type Entry struct {
	WorkerID  int64
	BookingID *int64
	Points    int64
	Type      TransactionType
	Notes     string
	// Reference makes the post idempotent: a second entry with the same
	// reference returns the first transaction.
	Reference string
}

type Summary struct {
	WorkerID int64 `json:"worker_id,string"`
	Balance  int64 `json:"balance"`
	Tier     *Tier `json:"tier,omitempty"`
}

type VerifyReport struct {
	WorkerID       int64  `json:"worker_id,string"`
	Transactions   int    `json:"transactions"`
	LedgerSum      int64  `json:"ledger_sum"`
	CachedBalance  int64  `json:"cached_balance"`
	ChainValid     bool   `json:"chain_valid"`
	BalanceMatches bool   `json:"balance_matches"`
	BrokenAtID     int64  `json:"broken_at_id,omitempty,string"`
	Reason         string `json:"reason,omitempty"`
}

func (r VerifyReport) Valid() bool {
	return r.ChainValid && r.BalanceMatches
}
