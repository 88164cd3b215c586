package auth

import "fmt"

// MigrationNotice describes the message shown to the user when their
// on-disk token predates the current schema version: re-authenticate
// once after a schema bump.
type MigrationNotice struct {
	Provider   string
	FromScheme int
	ToScheme   int
}

// Message renders the notice text. cmd/clio prints it to stderr at every
// startup while the stored GitHub token is on an older scheme, and
// "/api status" shows it too; nothing records that it was already shown.
func (n MigrationNotice) Message() string {
	return fmt.Sprintf(
		"your stored %s credentials were saved by an older version of clio "+
			"(scheme %d); please run /api login to re-authenticate (scheme %d)",
		n.Provider, n.FromScheme, n.ToScheme,
	)
}

// CheckMigration inspects a stored token and returns a notice if it needs
// migration, or nil if the token is current or absent (absence is not a
// migration case — it's a plain "not logged in").
func CheckMigration(tok Token, found bool) *MigrationNotice {
	if !found {
		return nil
	}
	if !NeedsMigration(tok) {
		return nil
	}
	return &MigrationNotice{Provider: tok.Provider, FromScheme: tok.SchemeVersion, ToScheme: SchemeVersion}
}
