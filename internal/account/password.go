package account

import "golang.org/x/crypto/bcrypt"

// Matcher isolates how passwords are stored and compared so a hashing
// scheme can replace plaintext storage without touching callers.
type Matcher interface {
	// Hash derives the value to store for a plaintext password.
	Hash(plain string) (string, error)
	// Match reports whether a supplied password matches the stored value.
	Match(stored, supplied string) bool
}

// PlaintextMatcher stores passwords verbatim and compares them with exact
// string equality. It preserves the legacy behaviour and is the deployed
// default.
type PlaintextMatcher struct{}

func (PlaintextMatcher) Hash(plain string) (string, error) {
	return plain, nil
}

func (PlaintextMatcher) Match(stored, supplied string) bool {
	return stored == supplied
}

// BcryptMatcher stores bcrypt hashes. Values that already look like bcrypt
// output are kept as-is so re-saving an account does not double-hash.
type BcryptMatcher struct{}

func (BcryptMatcher) Hash(plain string) (string, error) {
	if looksLikeBcrypt(plain) {
		return plain, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (BcryptMatcher) Match(stored, supplied string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
}

// MatcherForScheme picks the matcher for a configured scheme name, falling
// back to plaintext for anything unrecognized.
func MatcherForScheme(scheme string) Matcher {
	if scheme == "bcrypt" {
		return BcryptMatcher{}
	}
	return PlaintextMatcher{}
}

func looksLikeBcrypt(value string) bool {
	return len(value) > 4 && value[0:2] == "$2"
}
