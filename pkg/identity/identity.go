package identity

import (
	"strings"

	"github.com/google/uuid"
)

// kenyan MSISDNs are stored in international format without the plus sign.
const countryPrefix = "254"

// NormalizeMSISDN converts a subscriber number to the canonical 254-prefixed form.
//
// Rules, in order:
//   - empty input stays empty
//   - "+254..." loses the leading plus
//   - "0..." has the leading zero replaced with "254"
//   - "254..." is already canonical and returned unchanged
//   - any other prefix is passed through unchanged (no canonical form is
//     enforced for non-Kenyan numbers)
func NormalizeMSISDN(msisdn string) string {
	switch {
	case msisdn == "":
		return msisdn
	case strings.HasPrefix(msisdn, "+"+countryPrefix):
		return msisdn[1:]
	case strings.HasPrefix(msisdn, "0"):
		return countryPrefix + msisdn[1:]
	default:
		return msisdn
	}
}

// keyNamespace scopes name-based keys to this service.
var keyNamespace = uuid.NameSpaceOID

// Key derives a stable identity key from a document-type/document-number/msisdn
// triple. The same triple always maps to the same key, so it can be used to
// deduplicate records across ingestion sources.
func Key(documentType, documentNumber, msisdn string) string {
	name := strings.Join([]string{documentType, documentNumber, msisdn}, ":")
	return uuid.NewSHA1(keyNamespace, []byte(name)).String()
}
