package models

// Setting is a single global configuration row with upsert semantics.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Well-known setting keys. Seeded with defaults at schema creation.
const (
	SettingPointsToUSDCRate    = "points_to_usdc_rate"
	SettingMinWithdrawal       = "min_withdrawal"
	SettingPlatformFee         = "platform_fee"
	SettingMaxDailyWithdrawals = "max_daily_withdrawals"
	SettingMaintenanceMode     = "maintenance_mode"
)

// DefaultSettings are inserted once when the schema is created and never
// overwritten on subsequent startups.
var DefaultSettings = []Setting{
	{Key: SettingPointsToUSDCRate, Value: "100"},
	{Key: SettingMinWithdrawal, Value: "100"},
	{Key: SettingPlatformFee, Value: "0"},
	{Key: SettingMaxDailyWithdrawals, Value: "10"},
	{Key: SettingMaintenanceMode, Value: "false"},
}
