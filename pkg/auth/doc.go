// Package auth stores Cloudflare API tokens securely.
//
// Three backends are chained with fallback: the system keychain, an
// AES-GCM encrypted file with a PBKDF2-derived key, and read-only
// environment variables (KVBACKUP_API_TOKEN / KVBACKUP_ACCOUNT_ID).
// The Manager picks the first backend that works, so `kvbackup auth
// login` degrades gracefully on headless systems.
package auth
