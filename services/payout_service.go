package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ayush1910-maker/stitching-store-api/config"
	"github.com/ayush1910-maker/stitching-store-api/models"
)

// CreatePayout settles accumulated earnings to a tailor or delivery partner.
// The recipient's saved bank details choose the payout rail: UPI when a UPI
// id is on file, IMPS to the bank account otherwise. The gateway payout, the
// local Payout row and the earnings bump on the recipient's profile commit
// together.
func CreatePayout(db *gorm.DB, gateway RazorpayInterface, cfg *config.Config, recipientUserID uint, amount float64, admin *models.User) (*models.Payout, error) {
	if admin.Role != models.RoleAdmin {
		return nil, NewError(KindForbidden, "Only admins can process payouts")
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, NewError(KindValidationFailed, "Invalid payout amount")
	}
	if cfg.RazorpayXAccountNumber == "" {
		return nil, NewError(KindValidationFailed, "Payout source account is not configured")
	}

	var payout *models.Payout

	err := db.Transaction(func(tx *gorm.DB) error {
		var recipient models.User
		err := tx.First(&recipient, recipientUserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewError(KindNotFound, "Recipient not found")
		}
		if err != nil {
			return err
		}

		var bank models.BankDetails
		var recipientType string
		switch recipient.Role {
		case models.RoleTailor:
			var detail models.TailorDetail
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ?", recipient.ID).
				First(&detail).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(KindNotFound, "Tailor profile not found")
			}
			if err != nil {
				return err
			}
			bank = detail.BankDetails
			recipientType = "tailor"
		case models.RoleDelivery:
			var partner models.DeliveryPartner
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ?", recipient.ID).
				First(&partner).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(KindNotFound, "Delivery profile not found")
			}
			if err != nil {
				return err
			}
			bank = partner.BankDetails
			recipientType = "delivery"
		default:
			return NewError(KindValidationFailed, "Recipient is not a tailor or delivery partner")
		}

		mode := "IMPS"
		if bank.UPIID != "" {
			mode = "UPI"
		} else if bank.AccountNumber == "" || bank.IFSCCode == "" {
			return NewError(KindValidationFailed, "Recipient has no bank details on file")
		}

		referenceID := fmt.Sprintf("payout_%s", uuid.NewString())
		fund := PayoutFundAccount{
			UPIID:             bank.UPIID,
			AccountHolderName: bank.AccountHolderName,
			AccountNumber:     bank.AccountNumber,
			IFSCCode:          bank.IFSCCode,
			ContactName:       recipient.Name,
			ContactEmail:      recipient.Email,
			ContactPhone:      recipient.Phone,
			ContactReference:  fmt.Sprintf("user_%d", recipient.ID),
		}

		gatewayPayout, err := gateway.CreatePayout(
			cfg.RazorpayXAccountNumber,
			fund,
			toPaise(amount),
			mode,
			"payout",
			fmt.Sprintf("%s earnings settlement", recipientType),
			referenceID,
		)
		if err != nil {
			return WrapError(KindExternalFailure, "Gateway payout failed", err)
		}

		now := time.Now()
		record := models.Payout{
			UserID:         recipient.ID,
			Amount:         amount,
			Currency:       "INR",
			Type:           recipientType,
			Status:         models.PayoutStatusProcessed,
			PayoutID:       gatewayPayout.ID,
			RazorpayStatus: gatewayPayout.Status,
			RecipientType:  recipientType,
			ReferenceID:    referenceID,
			EarningsStatus: "SETTLED",
			ProcessedDate:  &now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return WrapError(KindExternalFailure,
				fmt.Sprintf("Payout %s processed at gateway but local commit failed", gatewayPayout.ID), err)
		}

		updates := map[string]interface{}{
			"earnings_paid":   gorm.Expr("earnings_paid + ?", amount),
			"earnings_status": "SETTLED",
			"last_payout_at":  now,
		}
		var bumpErr error
		if recipientType == "tailor" {
			bumpErr = tx.Model(&models.TailorDetail{}).Where("user_id = ?", recipient.ID).Updates(updates).Error
		} else {
			updates["pending_earnings"] = gorm.Expr("pending_earnings - ?", amount)
			bumpErr = tx.Model(&models.DeliveryPartner{}).Where("user_id = ?", recipient.ID).Updates(updates).Error
		}
		if bumpErr != nil {
			return WrapError(KindExternalFailure,
				fmt.Sprintf("Payout %s processed at gateway but local commit failed", gatewayPayout.ID), bumpErr)
		}

		payout = &record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}
