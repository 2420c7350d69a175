package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// GravatarURL returns the Gravatar image URL for an email address.  New
// accounts get this as their default avatar until they upload one.  The
// protocol is an MD5 hex digest of the trimmed, lower-cased address;
// d=identicon asks Gravatar to generate a placeholder for unknown emails.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon", hex.EncodeToString(sum[:]))
}
