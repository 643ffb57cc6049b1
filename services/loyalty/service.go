package loyalty

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"asenso-booking/pkg/config"
	"asenso-booking/pkg/db/option"
	"asenso-booking/pkg/db/pagination"
	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/logger"
	"asenso-booking/pkg/repository"
	"asenso-booking/services/catalog"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	points map[catalog.BookingType]int64

	transactions repository.Repository[Transaction]
	accounts     repository.Repository[Account]
	tiers        repository.Repository[Tier]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		points: map[catalog.BookingType]int64{
			catalog.BookingTypeTrial:   p.Config.Loyalty.TrialPoints,
			catalog.BookingTypeOneTime: p.Config.Loyalty.OneTimePoints,
			catalog.BookingTypeFlexi:   p.Config.Loyalty.FlexiPoints,
		},
		transactions: repository.ProvideStore[Transaction](p.DB),
		accounts:     repository.ProvideStore[Account](p.DB),
		tiers:        repository.ProvideStore[Tier](p.DB),
	}
}

// PointsFor is the EARN_BOOKING award for a completed booking of type t.
func (s *Service) PointsFor(t catalog.BookingType) int64 {
	return s.points[t]
}

// Credit posts a positive award.
func (s *Service) Credit(ctx context.Context, workerID int64, bookingID *int64, points int64, typ TransactionType, notes string) (*Transaction, error) {
	if points <= 0 {
		return nil, errutil.ValidationFailed("credit points must be positive", nil)
	}
	return s.Post(ctx, Entry{WorkerID: workerID, BookingID: bookingID, Points: points, Type: typ, Notes: notes})
}

// Debit posts a deduction. The sign of points is ignored; the stored delta is
// always negative.
func (s *Service) Debit(ctx context.Context, workerID int64, bookingID *int64, points int64, typ TransactionType, notes string) (*Transaction, error) {
	if points == 0 {
		return nil, errutil.ValidationFailed("debit points must not be zero", nil)
	}
	if points > 0 {
		points = -points
	}
	return s.Post(ctx, Entry{WorkerID: workerID, BookingID: bookingID, Points: points, Type: typ, Notes: notes})
}

func (s *Service) Post(ctx context.Context, e Entry) (*Transaction, error) {
	var out *Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.PostTx(ctx, tx, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateEntry(e Entry) error {
	if e.WorkerID == 0 {
		return errutil.ValidationFailed("worker_id is required", nil)
	}
	if !e.Type.Valid() {
		return errutil.ValidationFailed(fmt.Sprintf("unknown transaction type %q", e.Type), nil)
	}

	switch e.Type {
	case EarnBooking:
		if e.Points <= 0 {
			return errutil.ValidationFailed("EARN_BOOKING points must be positive", nil)
		}
	case SpendReward, Violation:
		if e.Points >= 0 {
			return errutil.ValidationFailed(fmt.Sprintf("%s points must be negative", e.Type), nil)
		}
	default:
		if e.Points == 0 {
			return errutil.ValidationFailed("points must not be zero", nil)
		}
	}
	return nil
}

// PostTx appends one transaction inside tx. The worker's account row is
// locked for the rest of tx, the balance is recomputed from the ledger and the
// tier re-derived from it.
func (s *Service) PostTx(ctx context.Context, tx *gorm.DB, e Entry) (*Transaction, error) {
	if err := validateEntry(e); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With(zap.Int64("worker_id", e.WorkerID), zap.String("type", string(e.Type)))

	account, err := s.lockAccount(ctx, tx, e.WorkerID)
	if err != nil {
		log.Error("failed to lock loyalty account", zap.Error(err))
		return nil, errutil.Internal("failed to lock loyalty account", err)
	}

	if e.Reference != "" {
		ref := e.Reference
		exist, err := s.transactions.WithTrx(tx).FindOne(ctx, &Transaction{Reference: &ref})
		if err != nil {
			return nil, errutil.Internal("failed to query loyalty transaction", err)
		}
		if exist != nil {
			log.Info("loyalty reference already posted", zap.String("reference", ref))
			return exist, nil
		}
	}

	if e.Type == SpendReward && account.Balance+e.Points < 0 {
		return nil, errutil.ValidationFailed("insufficient points", nil)
	}

	txn := &Transaction{
		ID:           s.node.Generate().Int64(),
		WorkerID:     e.WorkerID,
		BookingID:    e.BookingID,
		Type:         e.Type,
		Points:       e.Points,
		Notes:        e.Notes,
		PreviousHash: account.LastHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	if e.Reference != "" {
		ref := e.Reference
		txn.Reference = &ref
	}
	txn.Hash = txn.GenerateHash()

	if err := s.transactions.WithTrx(tx).Create(ctx, txn); err != nil {
		log.Error("failed to insert loyalty transaction", zap.Error(err))
		return nil, errutil.Internal("failed to insert loyalty transaction", err)
	}

	balance, err := s.ledgerSum(ctx, tx, e.WorkerID)
	if err != nil {
		log.Error("failed to sum loyalty ledger", zap.Error(err))
		return nil, errutil.Internal("failed to sum loyalty ledger", err)
	}

	tier, err := s.tierFor(ctx, tx, balance)
	if err != nil {
		return nil, errutil.Internal("failed to query tiers", err)
	}
	tierCode := ""
	if tier != nil {
		tierCode = tier.Code
	}

	if err := tx.WithContext(ctx).
		Model(&Account{}).
		Where("worker_id = ?", e.WorkerID).
		Updates(map[string]any{
			"balance":    balance,
			"tier_code":  tierCode,
			"last_hash":  txn.Hash,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		log.Error("failed to update loyalty account", zap.Error(err))
		return nil, errutil.Internal("failed to update loyalty account", err)
	}

	log.Debug("loyalty transaction posted", zap.Int64("points", e.Points), zap.Int64("balance", balance))

	return txn, nil
}

func (s *Service) lockAccount(ctx context.Context, tx *gorm.DB, workerID int64) (*Account, error) {
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Account{WorkerID: workerID}).Error; err != nil {
		return nil, err
	}

	account, err := s.accounts.WithTrx(tx).FindOne(ctx, &Account{WorkerID: workerID}, option.WithLockingUpdate())
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %d missing after upsert", workerID)
	}
	return account, nil
}

func (s *Service) ledgerSum(ctx context.Context, db *gorm.DB, workerID int64) (int64, error) {
	var sum int64
	err := db.WithContext(ctx).
		Model(&Transaction{}).
		Where("worker_id = ?", workerID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	return sum, err
}

// tierFor returns the tier with the highest MinPoints not above balance. A
// balance under every threshold gets the lowest tier; nil only when no tiers
// exist.
func (s *Service) tierFor(ctx context.Context, db *gorm.DB, balance int64) (*Tier, error) {
	tiers, err := s.tiers.WithTrx(db).Find(ctx, nil, option.WithSortBy(option.QuerySortBy{
		SortBy:  "min_points",
		OrderBy: "asc",
	}))
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, nil
	}

	current := tiers[0]
	for _, t := range tiers {
		if t.MinPoints <= balance {
			current = t
		}
	}
	return current, nil
}

// EarnForBookingTx credits the configured award for a completed booking. It
// is idempotent per booking.
func (s *Service) EarnForBookingTx(ctx context.Context, tx *gorm.DB, workerID, bookingID int64, bookingType catalog.BookingType) (*Transaction, error) {
	points := s.PointsFor(bookingType)
	if points <= 0 {
		logger.FromContext(ctx).Warn("no points configured for booking type", zap.String("booking_type", string(bookingType)))
		return nil, nil
	}

	return s.PostTx(ctx, tx, Entry{
		WorkerID:  workerID,
		BookingID: &bookingID,
		Points:    points,
		Type:      EarnBooking,
		Notes:     fmt.Sprintf("completed %s booking", bookingType),
		Reference: "booking:" + strconv.FormatInt(bookingID, 10) + ":earn",
	})
}

func (s *Service) Balance(ctx context.Context, workerID int64) (*Summary, error) {
	account, err := s.accounts.FindOne(ctx, &Account{WorkerID: workerID})
	if err != nil {
		return nil, errutil.Internal("failed to query loyalty account", err)
	}

	out := &Summary{WorkerID: workerID}
	if account != nil {
		out.Balance = account.Balance
	}

	tier, err := s.tierFor(ctx, s.db, out.Balance)
	if err != nil {
		return nil, errutil.Internal("failed to query tiers", err)
	}
	out.Tier = tier

	return out, nil
}

// GetTier derives the worker's tier from the cached balance.
func (s *Service) GetTier(ctx context.Context, workerID int64) (*Tier, error) {
	summary, err := s.Balance(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if summary.Tier == nil {
		return nil, errutil.NotFound("no tiers defined", nil)
	}
	return summary.Tier, nil
}

func (s *Service) ListTransactions(ctx context.Context, workerID int64, p pagination.Pagination) ([]*Transaction, *pagination.PageInfo, error) {
	rows, err := s.transactions.Find(ctx, &Transaction{WorkerID: workerID}, option.ApplyPagination(p))
	if err != nil {
		return nil, nil, errutil.Internal("failed to list loyalty transactions", err)
	}

	rows, info := pagination.Trim(rows, p, func(t *Transaction) int64 { return t.ID })
	return rows, info, nil
}

// VerifyLedger replays the worker's hash chain and compares the cached
// balance against the ledger sum.
func (s *Service) VerifyLedger(ctx context.Context, workerID int64) (*VerifyReport, error) {
	var rows []*Transaction
	if err := s.db.WithContext(ctx).
		Where("worker_id = ?", workerID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, errutil.Internal("failed to load loyalty ledger", err)
	}

	report := &VerifyReport{WorkerID: workerID, Transactions: len(rows), ChainValid: true}

	prev := ""
	for _, row := range rows {
		report.LedgerSum += row.Points
		if !report.ChainValid {
			continue
		}
		if row.PreviousHash != prev {
			report.ChainValid = false
			report.BrokenAtID = row.ID
			report.Reason = "previous hash mismatch"
			continue
		}
		if row.GenerateHash() != row.Hash {
			report.ChainValid = false
			report.BrokenAtID = row.ID
			report.Reason = "hash mismatch"
			continue
		}
		prev = row.Hash
	}

	account, err := s.accounts.FindOne(ctx, &Account{WorkerID: workerID})
	if err != nil {
		return nil, errutil.Internal("failed to query loyalty account", err)
	}
	if account != nil {
		report.CachedBalance = account.Balance
	}
	report.BalanceMatches = report.CachedBalance == report.LedgerSum

	if !report.Valid() {
		logger.FromContext(ctx).Warn("loyalty ledger verification failed",
			zap.Int64("worker_id", workerID),
			zap.Int64("broken_at_id", report.BrokenAtID),
			zap.String("reason", report.Reason),
			zap.Int64("ledger_sum", report.LedgerSum),
			zap.Int64("cached_balance", report.CachedBalance),
		)
	}

	return report, nil
}

func (s *Service) ListTiers(ctx context.Context) ([]*Tier, error) {
	tiers, err := s.tiers.Find(ctx, nil, option.WithSortBy(option.QuerySortBy{SortBy: "min_points", OrderBy: "asc"}))
	if err != nil {
		return nil, errutil.Internal("failed to list tiers", err)
	}
	return tiers, nil
}

// UpsertTier creates or replaces a tier. Cached account tiers refresh on the
// worker's next posting.
func (s *Service) UpsertTier(ctx context.Context, t *Tier) (*Tier, error) {
	if t.Code == "" {
		return nil, errutil.ValidationFailed("code is required", nil)
	}
	if t.MinPoints < 0 {
		return nil, errutil.ValidationFailed("min_points must not be negative", nil)
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "min_points", "rank", "updated_at"}),
	}).Create(t).Error; err != nil {
		return nil, errutil.Internal("failed to save tier", err)
	}
	return t, nil
}
