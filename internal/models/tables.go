package models

// Table names as they appear on the change feed.
const (
	TableUsers         = "users"
	TableUserRoles     = "user_roles"
	TableFundiProfiles = "fundi_profiles"
	TableJobs          = "jobs"
	TableMessages      = "messages"
	TableRatings       = "ratings"
	TableRestrictions  = "restrictions"
	TableAppeals       = "restriction_appeals"
	TableCategories    = "job_categories"
	TableWallet        = "wallet_transactions"
)

// All lists every model for migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserRole{},
		&FundiProfile{},
		&JobCategory{},
		&Job{},
		&Message{},
		&Rating{},
		&Restriction{},
		&Appeal{},
		&WalletTransaction{},
	}
}

// Tables lists every table the change feed carries.
func Tables() []string {
	return []string{
		TableUsers, TableUserRoles, TableFundiProfiles, TableJobs, TableMessages,
		TableRatings, TableRestrictions, TableAppeals, TableCategories, TableWallet,
	}
}
