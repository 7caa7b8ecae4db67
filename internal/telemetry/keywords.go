package telemetry

import "strings"

var cryptoKeywords = []string{
	"crypto", "mining", "coin", "bitcoin", "ether", "blockchain",
	"cryptocurrency", "miner", "pool", "hash", "wallet",
}

var miningIndicators = []string{
	"high_cpu", "background_miner", "crypto_wallet", "cloud_mining",
}

// HasCryptoKeyword reports whether any of the names mentions a crypto keyword.
func HasCryptoKeyword(names ...string) bool {
	return containsAny(names, cryptoKeywords)
}

// HasMiningCharacteristics is true for explicit mining indicators and for
// anything crypto related.
func HasMiningCharacteristics(packageName, appName string) bool {
	return containsAny([]string{packageName}, miningIndicators) || HasCryptoKeyword(packageName, appName)
}

func containsAny(names, keywords []string) bool {
	for _, name := range names {
		lower := strings.ToLower(name)
		if lower == "" {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
