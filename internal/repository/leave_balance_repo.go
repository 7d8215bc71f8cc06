package repository

import (
	"backend/internal/model"
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeaveBalanceRepository tracks per-year leave entitlements. Debit runs under
// a row lock inside the approving transaction.
type LeaveBalanceRepository interface {
	GetForYear(ctx context.Context, staffID uuid.UUID, year int) (*model.LeaveBalance, error)
	Debit(ctx context.Context, staffID uuid.UUID, year int, leaveType string, days int) error
	Upsert(ctx context.Context, balance *model.LeaveBalance) error
}

type leaveBalanceRepository struct {
	db *gorm.DB
}

func NewLeaveBalanceRepository(db *gorm.DB) LeaveBalanceRepository {
	return &leaveBalanceRepository{db: db}
}

func (r *leaveBalanceRepository) GetForYear(ctx context.Context, staffID uuid.UUID, year int) (*model.LeaveBalance, error) {
	var balance model.LeaveBalance
	if err := GetDB(ctx, r.db).First(&balance, "staff_id = ? AND year = ?", staffID, year).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

// Debit subtracts approved days from the matching balance column. A staff
// member with no balance row for the year is left alone; entitlement rows
// are provisioned by HR, not implied by leave requests.
func (r *leaveBalanceRepository) Debit(ctx context.Context, staffID uuid.UUID, year int, leaveType string, days int) error {
	column, ok := balanceColumn(leaveType)
	if !ok {
		return fmt.Errorf("no balance column for leave type %q", leaveType)
	}

	var balance model.LeaveBalance
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&balance, "staff_id = ? AND year = ?", staffID, year).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	return GetDB(ctx, r.db).Model(&balance).
		Update(column, gorm.Expr(column+" - ?", days)).Error
}

func (r *leaveBalanceRepository) Upsert(ctx context.Context, balance *model.LeaveBalance) error {
	return GetDB(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "staff_id"}, {Name: "year"}},
			UpdateAll: true,
		}).
		Create(balance).Error
}

func balanceColumn(leaveType string) (string, bool) {
	switch leaveType {
	case model.LeaveAnnual:
		return "annual", true
	case model.LeaveSick:
		return "sick", true
	case model.LeaveMaternity:
		return "maternity", true
	case model.LeavePaternity:
		return "paternity", true
	case model.LeaveStudy:
		return "study", true
	case model.LeaveEmergency:
		return "emergency", true
	default:
		return "", false
	}
}
