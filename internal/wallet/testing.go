package wallet

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that overwrites a wallet's balance when using
// the in-memory store.
func SeedBalance(s Store, id string, amount decimal.Decimal) {
	if mem, ok := s.(*memoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		w, exists := mem.storage[id]
		if !exists {
			return
		}
		w.Balance = amount
		mem.storage[id] = w
	}
}
