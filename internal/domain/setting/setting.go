package setting

import (
	"context"
	"errors"
)

// Keys read by the attendance engine.
const (
	KeyAutoCalcTime = "auto_calc_time" // "HH:MM" in the deployment time zone
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingRepository is the read side of the settings service.
type SettingRepository interface {
	// Get returns ErrSettingNotFound when the key is absent
	Get(ctx context.Context, key string) (string, error)
}
