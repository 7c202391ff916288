// Package identity provisions principals and keeps their keys in an
// encrypted keyring, so a dataset can be regenerated with the same keys.
//
// It enforces the passphrase policy for the keyring and never returns key
// material except through Keys, which feeds a session configuration.
package identity
