// Package phone validates and normalizes phone numbers to E.164-like "+<digits>" form.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var (
	// ErrInvalidCountry is returned when the country code is not an ISO 3166-1 alpha-2 country.
	ErrInvalidCountry = errors.New("phone: invalid country code")
	// ErrInvalidNumber is returned when the number has the wrong shape for normalization.
	ErrInvalidNumber = errors.New("phone: invalid phone number")
)

const (
	minDigits = 7
	maxDigits = 15
)

// ErrNationalFormUnsupported is returned for a national-form number whose country has no
// entry in callingCodes. Such numbers are accepted in international form ("+<code>...").
var ErrNationalFormUnsupported = fmt.Errorf("%w: national form not supported for this country, use +<calling code>", ErrInvalidNumber)

// callingCodes maps a country to its international dialing prefix, used for numbers
// given in national form. Countries outside the table need international form.
var callingCodes = map[string]string{
	"US": "1", "CA": "1", "MX": "52", "BR": "55", "AR": "54", "CL": "56", "CO": "57", "PE": "51",
	"VE": "58",
	"GB": "44", "IE": "353", "DE": "49", "FR": "33", "IT": "39", "ES": "34", "PT": "351", "NL": "31",
	"BE": "32", "CH": "41", "AT": "43", "SE": "46", "NO": "47", "DK": "45", "FI": "358", "PL": "48",
	"CZ": "420", "SK": "421", "HU": "36", "RO": "40", "BG": "359", "GR": "30", "UA": "380", "BY": "375",
	"RU": "7", "KZ": "7", "UZ": "998", "KG": "996", "AZ": "994", "GE": "995", "AM": "374", "TR": "90",
	"IR": "98", "IL": "972", "JO": "962", "SA": "966", "AE": "971", "QA": "974", "KW": "965",
	"EG": "20", "MA": "212", "DZ": "213", "TN": "216", "NG": "234", "GH": "233", "KE": "254",
	"ET": "251", "ZA": "27", "ZW": "263",
	"IN": "91", "PK": "92", "BD": "880", "LK": "94", "NP": "977", "CN": "86", "HK": "852", "TW": "886",
	"JP": "81", "KR": "82", "ID": "62", "MY": "60", "SG": "65", "TH": "66", "VN": "84", "PH": "63",
	"AU": "61", "NZ": "64",
}

// keepTrunkZero lists countries whose leading national 0 is part of the subscriber number.
var keepTrunkZero = map[string]bool{"IT": true}

// Country parses an ISO 3166-1 alpha-2 code and returns it upper-cased.
func Country(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) != 2 {
		return "", ErrInvalidCountry
	}
	r, err := language.ParseRegion(code)
	if err != nil || !r.IsCountry() {
		return "", ErrInvalidCountry
	}
	return r.String(), nil
}

// Normalize validates country and returns number as "+<digits>". Spaces, dashes, dots and
// parentheses are dropped; a leading "00" is read as "+". National numbers get the
// country's calling code, with one leading trunk "0" removed.
func Normalize(number, country string) (string, error) {
	cc, err := Country(country)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(number)
	if s == "" {
		return "", ErrInvalidNumber
	}
	international := false
	switch {
	case strings.HasPrefix(s, "+"):
		international = true
		s = s[1:]
	case strings.HasPrefix(s, "00"):
		international = true
		s = s[2:]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", ErrInvalidNumber
		}
	}
	digits := b.String()
	if !international {
		prefix, ok := callingCodes[cc]
		if !ok {
			return "", ErrNationalFormUnsupported
		}
		if !keepTrunkZero[cc] {
			digits = strings.TrimPrefix(digits, "0")
		}
		digits = prefix + digits
	}
	if len(digits) < minDigits || len(digits) > maxDigits || digits[0] == '0' {
		return "", ErrInvalidNumber
	}
	return "+" + digits, nil
}
