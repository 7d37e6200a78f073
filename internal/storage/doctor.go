package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/saadjs/fittrack-cli/internal/db"
)

type DoctorReport struct {
	SchemaVersion int
	StorageKeys   []string
	// BrokenSession is a token without a readable user, a user without a
	// token, or a userId that disagrees with the user's sub claim.
	BrokenSession bool
	UnknownConfig []string
	EmptyConfig   []string
	FixedRows     int
}

func (r DoctorReport) Healthy() bool {
	return !r.BrokenSession && len(r.UnknownConfig) == 0 && len(r.EmptyConfig) == 0
}

// RunDoctor inspects local state. With fix it removes a broken session and
// config rows the CLI would ignore.
func RunDoctor(sqldb *sql.DB, fix bool) (DoctorReport, error) {
	var report DoctorReport
	version, err := db.SchemaVersion(sqldb)
	if err != nil {
		return report, err
	}
	report.SchemaVersion = version

	local := NewLocal(sqldb)
	if report.StorageKeys, err = local.Keys(); err != nil {
		return report, err
	}
	if report.BrokenSession, err = sessionBroken(local); err != nil {
		return report, err
	}

	saved, err := ListConfig(sqldb)
	if err != nil {
		return report, err
	}
	for key := range saved {
		if !slices.Contains(ConfigKeys, key) {
			report.UnknownConfig = append(report.UnknownConfig, key)
		}
	}
	slices.Sort(report.UnknownConfig)
	for _, key := range ConfigKeys {
		value, ok, err := GetConfig(sqldb, key)
		if err != nil {
			return report, err
		}
		if ok && strings.TrimSpace(value) == "" {
			report.EmptyConfig = append(report.EmptyConfig, key)
		}
	}

	if !fix {
		return report, nil
	}
	if report.BrokenSession {
		for _, key := range []string{KeyToken, KeyUser, KeyUserID} {
			if err := local.Remove(key); err != nil {
				return report, err
			}
		}
		report.FixedRows++
	}
	for _, key := range append(append([]string{}, report.UnknownConfig...), report.EmptyConfig...) {
		if err := UnsetConfig(sqldb, key); err != nil {
			return report, err
		}
		report.FixedRows++
	}
	return report, nil
}

func sessionBroken(local *Local) (bool, error) {
	token, hasToken, err := local.Get(KeyToken)
	if err != nil {
		return false, err
	}
	rawUser, hasUser, err := local.Get(KeyUser)
	if err != nil {
		return false, err
	}
	hasToken = hasToken && strings.TrimSpace(token) != ""
	hasUser = hasUser && strings.TrimSpace(rawUser) != ""
	if !hasToken && !hasUser {
		return false, nil
	}
	if hasToken != hasUser {
		return true, nil
	}

	var user map[string]any
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user == nil {
		return true, nil
	}
	userID, ok, err := local.Get(KeyUserID)
	if err != nil {
		return false, fmt.Errorf("read stored user id: %w", err)
	}
	sub, _ := user["sub"].(string)
	return ok && userID != "" && sub != "" && userID != sub, nil
}
