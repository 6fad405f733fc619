package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush1910-maker/stitching-store-api/config"
	"github.com/ayush1910-maker/stitching-store-api/models"
)

func payoutTestConfig() *config.Config {
	return &config.Config{RazorpayXAccountNumber: "2323230012345678"}
}

func TestCreatePayout(t *testing.T) {
	db := setupServiceTestDB(t)
	gateway := NewMockRazorpayService()
	cfg := payoutTestConfig()
	admin := seedUser(t, db, "auth0|admin", models.RoleAdmin)
	customer := seedUser(t, db, "auth0|cust", models.RoleCustomer)

	t.Run("pays a tailor over UPI when a UPI id is on file", func(t *testing.T) {
		tailor := seedUser(t, db, "auth0|tailor-upi", models.RoleTailor)
		require.NoError(t, db.Create(&models.TailorDetail{
			UserID:      tailor.ID,
			BankDetails: models.BankDetails{UPIID: "tailor@upi"},
		}).Error)

		payout, err := CreatePayout(db, gateway, cfg, tailor.ID, 1200, admin)
		require.NoError(t, err)
		assert.Equal(t, models.PayoutStatusProcessed, payout.Status)
		assert.Equal(t, "tailor", payout.RecipientType)
		assert.Equal(t, "SETTLED", payout.EarningsStatus)
		assert.NotEmpty(t, payout.PayoutID)

		var detail models.TailorDetail
		db.Where("user_id = ?", tailor.ID).First(&detail)
		assert.Equal(t, 1200.0, detail.EarningsPaid)
		assert.Equal(t, "SETTLED", detail.EarningsStatus)
		assert.NotNil(t, detail.LastPayoutAt)
	})

	t.Run("pays a delivery partner over IMPS and draws down pending earnings", func(t *testing.T) {
		partner := seedUser(t, db, "auth0|partner-imps", models.RoleDelivery)
		require.NoError(t, db.Create(&models.DeliveryPartner{
			UserID:          partner.ID,
			PendingEarnings: 500,
			BankDetails: models.BankDetails{
				AccountHolderName: "R Kumar",
				AccountNumber:     "1234567890",
				IFSCCode:          "HDFC0000123",
			},
		}).Error)

		payout, err := CreatePayout(db, gateway, cfg, partner.ID, 400, admin)
		require.NoError(t, err)
		assert.Equal(t, "delivery", payout.RecipientType)

		var profile models.DeliveryPartner
		db.Where("user_id = ?", partner.ID).First(&profile)
		assert.Equal(t, 400.0, profile.EarningsPaid)
		assert.Equal(t, 100.0, profile.PendingEarnings)
	})

	t.Run("requires bank details", func(t *testing.T) {
		tailor := seedUser(t, db, "auth0|tailor-nobank", models.RoleTailor)
		require.NoError(t, db.Create(&models.TailorDetail{UserID: tailor.ID}).Error)

		_, err := CreatePayout(db, gateway, cfg, tailor.ID, 100, admin)
		assert.True(t, IsKind(err, KindValidationFailed))
	})

	t.Run("requires a recipient profile", func(t *testing.T) {
		tailor := seedUser(t, db, "auth0|tailor-noprofile", models.RoleTailor)

		_, err := CreatePayout(db, gateway, cfg, tailor.ID, 100, admin)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("customers cannot receive payouts", func(t *testing.T) {
		_, err := CreatePayout(db, gateway, cfg, customer.ID, 100, admin)
		assert.True(t, IsKind(err, KindValidationFailed))
	})

	t.Run("unknown recipient", func(t *testing.T) {
		_, err := CreatePayout(db, gateway, cfg, 99999, 100, admin)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := CreatePayout(db, gateway, cfg, customer.ID, 0, admin)
		assert.True(t, IsKind(err, KindValidationFailed))
	})

	t.Run("requires a configured source account", func(t *testing.T) {
		_, err := CreatePayout(db, gateway, &config.Config{}, customer.ID, 100, admin)
		assert.True(t, IsKind(err, KindValidationFailed))
	})

	t.Run("admin only", func(t *testing.T) {
		_, err := CreatePayout(db, gateway, cfg, customer.ID, 100, customer)
		assert.True(t, IsKind(err, KindForbidden))
	})

	t.Run("gateway failure leaves no payout row", func(t *testing.T) {
		tailor := seedUser(t, db, "auth0|tailor-fail", models.RoleTailor)
		require.NoError(t, db.Create(&models.TailorDetail{
			UserID:      tailor.ID,
			BankDetails: models.BankDetails{UPIID: "fail@upi"},
		}).Error)
		gateway.FailNextCall = true

		_, err := CreatePayout(db, gateway, cfg, tailor.ID, 100, admin)
		assert.True(t, IsKind(err, KindExternalFailure))

		var count int64
		db.Model(&models.Payout{}).Where("user_id = ?", tailor.ID).Count(&count)
		assert.Equal(t, int64(0), count)
	})
}
